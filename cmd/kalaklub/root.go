package main

import (
	"github.com/spf13/cobra"

	"kalaklub-site/internal/shared/config"
)

type rootOptions struct {
	envFiles []string
}

func (o *rootOptions) config() config.Config {
	return config.Load(o.envFiles...)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "kalaklub",
		Short:         "Kala-Klub site backend: forms, notifications and downloads",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default .env, cmd/.env)")

	serve := newServeCmd(opts)
	root.AddCommand(serve, newMigrateCmd(opts))
	root.RunE = serve.RunE
	return root
}
