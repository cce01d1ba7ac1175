package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/adapter/litellm"
	cfnats "github.com/Strob0t/TaskFlow/internal/adapter/nats"
	"github.com/Strob0t/TaskFlow/internal/adapter/natskv"
	"github.com/Strob0t/TaskFlow/internal/adapter/postgres"
	"github.com/Strob0t/TaskFlow/internal/adapter/ristretto"
	"github.com/Strob0t/TaskFlow/internal/adapter/sqlite"
	"github.com/Strob0t/TaskFlow/internal/adapter/tiered"
	"github.com/Strob0t/TaskFlow/internal/config"
	"github.com/Strob0t/TaskFlow/internal/logger"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
	"github.com/Strob0t/TaskFlow/internal/resilience"
	"github.com/Strob0t/TaskFlow/internal/secrets"
	"github.com/Strob0t/TaskFlow/internal/service"
)

const secretLLMKey = "litellm_master_key"

// app holds the wired dependencies shared by the server and the CLI
// commands.
type app struct {
	cfg         *config.Config
	slots       kvstore.Store
	queue       messagequeue.Queue
	nats        *cfnats.Queue
	llm         *litellm.Client
	secrets     *secrets.Vault
	store       *service.TaskStore
	prioritizer *service.PrioritizationService

	closers []func()
}

// bootstrap loads configuration, installs the default logger writing to
// logOut and opens the configured storage backend.
func bootstrap(ctx context.Context, cmd *cobra.Command, g *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.LoadWithOverrides(g.overrides(cmd))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging, logOut)
	slog.SetDefault(log)

	a := &app{cfg: cfg, queue: messagequeue.Nop{}}
	a.onClose(logCloser.Close)

	if cfg.Storage.Backend == config.BackendNATS || cfg.NATS.Publish {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.nats = q
		a.onClose(func() { _ = q.Close() })
		if cfg.NATS.Publish {
			a.queue = q
		}
	}

	slots, err := a.openStorage(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.slots = slots
	if c, ok := slots.(kvstore.Closer); ok {
		a.onClose(func() { _ = c.Close() })
	}

	vault, err := secrets.NewVault(secrets.Chain(
		secrets.Static(map[string]string{secretLLMKey: cfg.LiteLLM.MasterKey}),
		secrets.FileLoader(map[string]string{secretLLMKey: cfg.LiteLLM.MasterKeyFile}),
	))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("secrets: %w", err)
	}
	a.secrets = vault

	a.llm = litellm.NewClient(cfg.LiteLLM.URL, "", cfg.LiteLLM.Timeout)
	a.llm.SetKeySource(vault.Getter(secretLLMKey))
	a.llm.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	a.store = service.NewTaskStore(ctx, slots, cfg.Storage.Key)
	a.store.SetQueue(a.queue)
	a.prioritizer = service.NewPrioritizationService(a.store, litellm.NewPrioritizer(a.llm, cfg.LiteLLM), slots)
	a.prioritizer.SetQueue(a.queue)

	slog.Debug("bootstrap complete",
		"backend", cfg.Storage.Backend,
		"cache", cfg.Storage.Cache,
		"publish", cfg.NATS.Publish,
		"model", cfg.LiteLLM.Model,
	)
	return a, nil
}

// openStorage opens the durable backend and, when storage.cache is set,
// fronts it with an in-process ristretto L1.
func (a *app) openStorage(ctx context.Context) (kvstore.Store, error) {
	cfg := a.cfg

	var durable kvstore.Store
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("sqlite opened", "path", cfg.SQLite.Path)
		durable = s

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		slog.Info("postgres connected, migrations applied")
		durable = postgres.NewStore(pool)

	case config.BackendNATS:
		kv, err := a.nats.KeyValue(ctx, cfg.NATS.Bucket)
		if err != nil {
			return nil, err
		}
		slog.Info("nats kv bucket ready", "bucket", cfg.NATS.Bucket)
		durable = natskv.New(kv)

	case config.BackendMemory:
		s, err := ristretto.NewMB(cfg.Storage.CacheMaxMB)
		if err != nil {
			return nil, err
		}
		slog.Warn("memory backend selected, tasks are lost on exit")
		return s, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Storage.Backend)
	}

	if !cfg.Storage.Cache {
		return durable, nil
	}
	l1, err := ristretto.NewMB(cfg.Storage.CacheMaxMB)
	if err != nil {
		if c, ok := durable.(kvstore.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	return tiered.New(l1, durable), nil
}

// onClose registers fn to run on close, in reverse registration order.
func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
