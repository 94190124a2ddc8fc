package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/modeflow/config"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "modeflowd",
		Short:         "Mode-aware request dispatcher",
		Long:          "modeflowd caches, coalesces and shapes writing-assistant requests according to the caller's interaction mode.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("configuration file (default $%s or %s)", config.EnvPath, config.DefaultPath))

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCheckConfigCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newCheckConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration ok: service %s, listening on %s\n", cfg.Service.Name, cfg.HTTP.Addr)
			fmt.Fprintf(out, "upstream: %s\n", cfg.Upstream.Endpoint)
			if cfg.Telemetry.NATS.Enabled {
				fmt.Fprintf(out, "telemetry: nats %s (prefix %s)\n", cfg.Telemetry.NATS.URL, cfg.Telemetry.NATS.SubjectPrefix)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "modeflowd %s (%s)\n", version, runtime.Version())
			return nil
		},
	}
}

func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Service.Version == "dev" {
		cfg.Service.Version = version
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
