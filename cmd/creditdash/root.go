package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"creditdash/internal/config"
	"creditdash/internal/logger"
)

type rootOptions struct {
	configPath string
	envOnly    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "creditdash",
		Short:         "Credit portfolio dashboard and analyst chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	defaultPath := os.Getenv("CD_CONFIG")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("CD_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "configuration file path")
	root.PersistentFlags().BoolVar(&opts.envOnly, "env-only", envOnly, "ignore the configuration file and read CD_* variables only")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newAskCmd(opts))
	return root
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath, o.envOnly)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, log, nil
}
