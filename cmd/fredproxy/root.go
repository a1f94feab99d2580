// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lyle-ventures/fredproxy/internal/config"
)

const serviceName = "fredproxy"

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "fredproxy",
		Short:        "CORS-aware edge proxy for the FRED observations API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config",
		os.Getenv(config.EnvConfigPath),
		"path to config file (YAML); env "+config.EnvConfigPath)

	root.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newHealthcheckCmd(),
		newSiteCmd(opts),
		newVersionCmd(),
	)
	return root
}
