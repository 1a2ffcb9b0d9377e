package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/doddns/internal/config"
	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/internal/reconciler"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Update all A records once (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags)
		},
	}
}

// runOnce performs a single sweep. Any failed domain or record makes the
// command fail after the sweep has finished.
func runOnce(cmd *cobra.Command, flags *globalFlags) error {
	cfg, logger, err := loadConfig(cmd, flags, config.NeedAll)
	if err != nil {
		return err
	}

	rec, _, err := newReconciler(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	result, err := rec.Reconcile(cmd.Context())
	if err == nil {
		err = resultError(result)
	}

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			err = errors.Join(err, werr)
		} else {
			logger.Debug("wrote metrics textfile", slog.String("path", cfg.MetricsFile))
		}
	}

	return err
}

// resultError reports a sweep with failed operations as an error.
func resultError(result *reconciler.Result) error {
	if !result.HasErrors() {
		return nil
	}
	n := result.FailedCount()
	return fmt.Errorf("%d record operation(s) failed (%s)", n, result.Status())
}
