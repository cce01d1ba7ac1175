// Package litellm provides an HTTP client for the LiteLLM Proxy and the
// prioritizer built on its chat completion endpoint.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/TaskFlow/internal/resilience"
)

// ChatMessage is a single message in a chat completion exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the OpenAI-compatible request body.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse is the subset of the completion response TaskFlow reads.
type ChatCompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	TokensIn     int
	TokensOut    int
}

type completionBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// APIError is returned for non-2xx proxy responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("litellm API error %d: %s", e.StatusCode, e.Body)
}

// Client talks to the LiteLLM Proxy.
type Client struct {
	baseURL    string
	masterKey  func() string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a LiteLLM client. timeout bounds every request,
// including reading the response body.
func NewClient(baseURL, masterKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		masterKey: func() string { return masterKey },
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetKeySource makes the client read the master key from fn on every
// request, so a rotated key takes effect without a restart.
func (c *Client) SetKeySource(fn func() string) {
	c.masterKey = fn
}

// BreakerState reports the attached breaker's state, or "none".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "none"
	}
	return c.breaker.State().String()
}

// ChatCompletion sends a chat completion request and returns the first choice.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat completion: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	var out completionBody
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("chat completion: no choices in response")
	}

	return &ChatCompletionResponse{
		Content:      out.Choices[0].Message.Content,
		Model:        out.Model,
		FinishReason: out.Choices[0].FinishReason,
		TokensIn:     out.Usage.PromptTokens,
		TokensOut:    out.Usage.CompletionTokens,
	}, nil
}

// Health checks if LiteLLM is reachable. It bypasses the breaker so a
// health probe never counts against the completion endpoint.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.send(ctx, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.breaker == nil {
		return c.send(ctx, method, path, body)
	}

	var result []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		data, err := c.send(ctx, method, path, body)
		result = data
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if key := c.masterKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
