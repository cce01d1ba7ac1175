// Command taskflow serves the TaskFlow API and manages the task list from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		os.Exit(1)
	}
}

// globalFlags hold the persistent flags shared by every subcommand.
type globalFlags struct {
	config     string
	port       string
	logLevel   string
	backend    string
	sqlitePath string
	dsn        string
	natsURL    string
	model      string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "TaskFlow - personal task list with AI prioritization",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}

	g.register(root)

	root.AddCommand(
		newServeCmd(g),
		newTasksCmd(g),
		newPrioritizeCmd(g),
		newWatchCmd(g),
		newMigrateCmd(g),
	)
	return root
}

// register adds the global flags to cmd as persistent flags.
func (g *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", config.DefaultConfigFile, "path to YAML config file")
	pf.StringVar(&g.port, "port", "", "HTTP listen port")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.backend, "backend", "", "storage backend (sqlite, postgres, nats, memory)")
	pf.StringVar(&g.sqlitePath, "sqlite-path", "", "SQLite database file")
	pf.StringVar(&g.dsn, "dsn", "", "PostgreSQL connection string")
	pf.StringVar(&g.natsURL, "nats-url", "", "NATS server URL")
	pf.StringVar(&g.model, "model", "", "LLM model used for prioritization")
}

// overrides maps explicitly set flags onto config.Overrides. Flags left at
// their zero value do not shadow YAML or environment settings.
func (g *globalFlags) overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{ConfigPath: &g.config}
	flags := cmd.Flags()
	set := func(name string, v *string) *string {
		if flags.Changed(name) {
			return v
		}
		return nil
	}
	o.Port = set("port", &g.port)
	o.LogLevel = set("log-level", &g.logLevel)
	o.Backend = set("backend", &g.backend)
	o.SQLitePath = set("sqlite-path", &g.sqlitePath)
	o.DSN = set("dsn", &g.dsn)
	o.NatsURL = set("nats-url", &g.natsURL)
	o.Model = set("model", &g.model)
	return o
}
