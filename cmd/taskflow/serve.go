package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/TaskFlow/internal/adapter/http"
	cfotel "github.com/Strob0t/TaskFlow/internal/adapter/otel"
	"github.com/Strob0t/TaskFlow/internal/adapter/ws"
	"github.com/Strob0t/TaskFlow/internal/middleware"
)

const (
	shutdownTimeout    = 10 * time.Second
	limiterSweep       = time.Minute
	limiterMaxIdle     = 10 * time.Minute
	rateLimitedMessage = "Too many prioritization requests. Please wait a moment."
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and WebSocket server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, cmd, g, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"backend", cfg.Storage.Backend,
		"model", cfg.LiteLLM.Model,
	)

	// --- Observability ---
	otelShutdown, err := cfotel.Setup(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub(originHost(cfg.Server.CORSOrigin))
	a.store.SetBroadcaster(hub)
	a.store.SetMetrics(metrics)
	a.prioritizer.SetBroadcaster(hub)
	a.prioritizer.SetMetrics(metrics)

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst, rateLimitedMessage)
	limiter.StartCleanup(ctx, limiterSweep, limiterMaxIdle)

	handlers := &cfhttp.Handlers{
		Tasks:       a.store,
		Prioritizer: a.prioritizer,
		LLM:         a.llm,
		Backend:     cfg.Storage.Backend,
	}

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))

	// WebSocket connections are long-lived; keep them outside the request timeout.
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		cfhttp.MountRoutes(r, handlers, limiter.Handler)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		reloadSecretsOnHangup(egCtx, a)
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down server")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(egCtx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return eg.Wait()
}

// reloadSecretsOnHangup re-reads the LiteLLM master key on SIGHUP until ctx
// is done. A failed reload keeps the previous key.
func reloadSecretsOnHangup(ctx context.Context, a *app) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := a.secrets.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded", "litellm_master_key", a.secrets.Redacted(secretLLMKey))
		}
	}
}

// originHost reduces a CORS origin such as "http://localhost:3000" to the
// host pattern accepted by the WebSocket handshake.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}
