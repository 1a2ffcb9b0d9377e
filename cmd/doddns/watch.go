package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/doddns/internal/config"
	"gitlab.bluewillows.net/root/doddns/internal/health"
	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/internal/reconciler"
	"gitlab.bluewillows.net/root/doddns/internal/retry"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

type watchFlags struct {
	interval   time.Duration
	healthPort int
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	wf := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Update all A records on an interval and serve /health, /ready and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []func(*config.Config)
			if cmd.Flags().Changed("interval") {
				extra = append(extra, func(c *config.Config) { c.Interval = wf.interval })
			}
			if cmd.Flags().Changed("health-port") {
				extra = append(extra, func(c *config.Config) { c.HealthPort = wf.healthPort })
			}

			cfg, logger, err := loadConfig(cmd, flags, config.NeedAll, extra...)
			if err != nil {
				return err
			}
			return watch(cmd.Context(), cmd, cfg, logger)
		},
	}

	cmd.Flags().DurationVar(&wf.interval, "interval", config.DefaultInterval, "time between sweeps")
	cmd.Flags().IntVar(&wf.healthPort, "health-port", config.DefaultHealthPort, "port for /health, /ready and /metrics (0 disables)")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	rec, prov, err := newReconciler(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	// Bad credentials would fail every sweep; stop before looping.
	policy := cfg.RetryPolicy()
	policy.IsPermanent = provider.IsPermanent
	if err := retry.Run(ctx, policy, prov.Ping); err != nil {
		return fmt.Errorf("checking DigitalOcean credentials: %w", err)
	}

	var healthServer *health.Server
	if cfg.HealthPort > 0 {
		healthServer = health.New(cfg.HealthPort, health.WithLogger(logger))
		healthServer.RegisterChecker("provider:"+prov.Name(), prov.Ping)
		if err := healthServer.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("doddns watching",
		slog.String("version", Version),
		slog.Duration("interval", cfg.Interval),
		slog.Int("domains", len(cfg.Domains)),
		slog.Int("health_port", cfg.HealthPort),
		slog.Bool("dry_run", cfg.DryRun),
	)

	sweep := func() {
		result, err := rec.Reconcile(ctx)
		info := runInfo(result, err)
		if err != nil {
			logger.Error("sweep failed", slog.String("error", err.Error()))
		}
		if healthServer != nil {
			healthServer.RecordRun(info)
		}
		if cfg.MetricsFile != "" {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn("metrics textfile not written", slog.String("error", err.Error()))
			}
		}
	}

	sweep()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			sweep()
		}
	}
}

// runInfo summarises a sweep for the health endpoints.
func runInfo(result *reconciler.Result, err error) health.RunInfo {
	info := health.RunInfo{At: time.Now()}
	if result != nil {
		info.At = result.EndTime
		if result.IP.IsValid() {
			info.IP = result.IP.String()
		}
	}

	switch {
	case err != nil:
		info.Status = "failed"
		info.Detail = err.Error()
	case result.HasErrors():
		info.Status = result.Status()
		info.Detail = fmt.Sprintf("%d of %d operations failed", result.FailedCount(), len(result.Actions))
	default:
		info.Status = "success"
		info.Detail = fmt.Sprintf("%d records updated", result.UpdatedCount())
	}
	return info
}
