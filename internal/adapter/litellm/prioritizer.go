package litellm

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/Strob0t/TaskFlow/internal/config"
	"github.com/Strob0t/TaskFlow/internal/domain/prioritization"
)

//go:embed templates/prioritize.tmpl
var prioritizePrompt string

var prioritizeTmpl = template.Must(template.New("prioritize").Parse(prioritizePrompt))

// Prioritizer scores tasks with a chat model behind the LiteLLM proxy.
type Prioritizer struct {
	client      *Client
	model       string
	temperature float64
	maxTokens   int
}

// NewPrioritizer creates a Prioritizer using the model settings from cfg.
func NewPrioritizer(client *Client, cfg config.LiteLLM) *Prioritizer {
	return &Prioritizer{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Prioritize asks the model for one score per input. Transport failures wrap
// prioritization.ErrRemote, malformed answers prioritization.ErrInvalidResponse.
func (p *Prioritizer) Prioritize(ctx context.Context, inputs []prioritization.Input) ([]prioritization.Result, error) {
	prompt, err := renderPrompt(inputs)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model:       p.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", prioritization.ErrRemote, err)
	}

	return prioritization.ParseResults(resp.Content)
}

func renderPrompt(inputs []prioritization.Input) (string, error) {
	var buf bytes.Buffer
	if err := prioritizeTmpl.Execute(&buf, struct{ Tasks []prioritization.Input }{inputs}); err != nil {
		return "", fmt.Errorf("render prioritize prompt: %w", err)
	}
	return buf.String(), nil
}
