package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ent0n29/zoya/internal/app"
	"github.com/ent0n29/zoya/internal/config"
	"github.com/ent0n29/zoya/internal/logging"
)

// newRegisterer is swapped by tests so each command run gets its own registry.
var newRegisterer = func() prometheus.Registerer { return prometheus.DefaultRegisterer }

type rootOptions struct {
	configFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "zoya",
		Short: "A multilingual voice and text assistant",
		Long: `zoya answers questions from personal facts, web search or a language
model, translates the reply into the chosen language and speaks it.

Run without a subcommand to start an interactive chat session.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./.env when present)")

	cmd.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newAskCmd(opts),
		newLogsCmd(opts),
		newReplayCmd(),
	)
	return cmd
}

// loadConfig reads the config the same way for every subcommand.
func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func buildApp(cmd *cobra.Command, opts *rootOptions) (*app.BuildResult, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	return app.Build(cmd.Context(), cfg, app.Options{
		Logger:     logger,
		Registerer: newRegisterer(),
	})
}
