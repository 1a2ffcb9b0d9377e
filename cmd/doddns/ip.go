package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/doddns/internal/config"
	"gitlab.bluewillows.net/root/doddns/internal/reconciler"
)

func newIPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ip",
		Short: "Print the IP address records would be updated to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, flags, config.NeedResolver)
			if err != nil {
				return err
			}

			res, err := newResolver(cfg, logger)
			if err != nil {
				return err
			}

			// ResolveIP never touches the provider.
			rec := reconciler.New(res, nil, reconciler.Config{Retry: cfg.RetryPolicy()},
				reconciler.WithLogger(logger),
			)
			ip, err := rec.ResolveIP(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ip)
			return err
		},
	}
}
