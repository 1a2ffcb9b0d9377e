package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/doddns/internal/config"
	"gitlab.bluewillows.net/root/doddns/internal/matcher"
	"gitlab.bluewillows.net/root/doddns/internal/retry"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

func newRecordsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "records [domain...]",
		Short: "List A records and whether they are excluded",
		Long: `List the A records of the given domains, or of the configured domains when
none are given. Records whose name is excluded are marked and would not be
updated by a run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, flags, config.NeedProvider)
			if err != nil {
				return err
			}

			domains := args
			if len(domains) == 0 {
				domains = cfg.Domains
			}
			if len(domains) == 0 {
				return errors.New("no domains given (pass them as arguments or set DODDNS_DOMAINS)")
			}

			prov, err := newProvider(cfg, logger)
			if err != nil {
				return err
			}

			policy := cfg.RetryPolicy()
			policy.IsPermanent = provider.IsPermanent

			return listRecords(cmd.Context(), cmd.OutOrStdout(), prov, policy,
				matcher.NewExclusions(cfg.Exclude...), domains)
		},
	}
}

// listRecords prints one table row per A record. A domain that cannot be
// listed is reported and the remaining domains are still printed.
func listRecords(ctx context.Context, out io.Writer, prov provider.Provider, policy retry.Policy, excl matcher.Exclusions, domains []string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tID\tNAME\tDATA\tTTL\tEXCLUDED")

	var errs []error
	for _, domain := range domains {
		records, err := retry.Do(ctx, policy, func(ctx context.Context) (provider.Records, error) {
			return prov.ListA(ctx, domain)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("listing %s: %w", domain, err))
			continue
		}
		for _, r := range records {
			excluded := ""
			if excl.Excludes(r.Name) {
				excluded = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", domain, r.ID, r.Name, r.Data, r.TTL, excluded)
		}
	}

	if err := tw.Flush(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
