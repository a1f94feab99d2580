// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lyle-ventures/fredproxy/internal/config"
	"github.com/lyle-ventures/fredproxy/internal/site"
	"github.com/lyle-ventures/fredproxy/internal/version"
)

func newSiteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Static site layout tools",
	}
	cmd.AddCommand(newSiteCheckCmd(opts))
	return cmd
}

func newSiteCheckCmd(opts *rootOptions) *cobra.Command {
	var sitePath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the site layout and check the proxy admits the site origins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := config.NewLoader(opts.configPath, version.Version)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}

			path := sitePath
			if path == "" {
				path = loader.ResolvePath(cfg.Site.ConfigPath)
			}
			siteCfg := site.Default()
			if path != "" {
				if siteCfg, err = site.Load(path); err != nil {
					return err
				}
			}
			if err := siteCfg.Validate(); err != nil {
				return fmt.Errorf("site layout: %w", err)
			}

			out := cmd.OutOrStdout()
			source := path
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(out, "site layout (%s): %s -> %s, formats %s, engine %s\n",
				source, siteCfg.Dir.Input, siteCfg.Dir.Output,
				strings.Join(siteCfg.TemplateFormats, ","), siteCfg.HTMLTemplateEngine)

			steps, err := siteCfg.Plan()
			if err != nil {
				return err
			}
			for _, step := range steps {
				fmt.Fprintf(out, "  passthrough %s -> %s\n", step.Source, step.Dest)
			}

			origins, err := siteCfg.Metadata.Origins()
			if err != nil {
				return err
			}
			policy, err := cfg.CORS.Policy()
			if err != nil {
				return err
			}

			var rejected []string
			for _, origin := range origins {
				if policy.Permits(origin) {
					fmt.Fprintf(out, "  origin %s: admitted (%s)\n", origin, policy.Mode())
					continue
				}
				fmt.Fprintf(out, "  origin %s: REJECTED (%s)\n", origin, policy.Mode())
				rejected = append(rejected, origin)
			}
			if len(rejected) > 0 {
				return fmt.Errorf("proxy allow-list does not admit %s", strings.Join(rejected, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sitePath, "site", "", "path to the site layout file (default: site.configPath, else built-in)")
	return cmd
}
