package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfnats "github.com/Strob0t/TaskFlow/internal/adapter/nats"
	"github.com/Strob0t/TaskFlow/internal/config"
	"github.com/Strob0t/TaskFlow/internal/logger"
	"github.com/Strob0t/TaskFlow/internal/port/messagequeue"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print task events published on NATS until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithOverrides(g.overrides(cmd))
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log, closer := logger.New(cfg.Logging, os.Stderr)
			defer closer.Close()
			slog.SetDefault(log)

			if cfg.NATS.URL == "" {
				return errors.New("watch needs nats.url")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			q, err := cfnats.Connect(ctx, cfg.NATS.URL)
			if err != nil {
				return err
			}
			defer func() { _ = q.Close() }()

			return watch(ctx, q, os.Stdout)
		},
	}
}

// watch streams every task event to w until ctx is done.
func watch(ctx context.Context, q messagequeue.Queue, w io.Writer) error {
	cancel, err := q.Subscribe(ctx, messagequeue.SubjectTasksAll, func(ctx context.Context, subject string, data []byte) error {
		id := logger.RequestID(ctx)
		if id == "" {
			id = "-"
		}
		_, err := fmt.Fprintf(w, "%s  %-28s  %-34s  %s\n", time.Now().Format(time.TimeOnly), subject, id, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer cancel()

	<-ctx.Done()
	return nil
}
