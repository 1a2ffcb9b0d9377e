// Package reconciler points every non-excluded A record of the configured
// domains at the current IP address.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"time"

	"gitlab.bluewillows.net/root/doddns/internal/matcher"
	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/internal/resolver"
	"gitlab.bluewillows.net/root/doddns/internal/retry"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

// ErrResolve wraps every failure to determine the current IP. A run that
// fails this way touches no records.
var ErrResolve = errors.New("determining server IP")

// Config holds reconciler configuration options.
type Config struct {
	// Domains are the zones whose A records are updated, in order.
	Domains []string

	// Exclusions lists subdomain names that are never updated.
	Exclusions matcher.Exclusions

	// Retry applies to IP resolution and to every provider call.
	Retry retry.Policy

	// DryRun if true, lists and filters records without patching them.
	DryRun bool
}

// DefaultConfig returns a Config with the default retry policy.
func DefaultConfig() Config {
	return Config{
		Retry: retry.DefaultPolicy(),
	}
}

// Reconciler runs update sweeps. A Reconciler is not safe for concurrent
// use; callers serialise runs.
type Reconciler struct {
	resolver resolver.Resolver
	provider provider.Provider
	config   Config
	logger   *slog.Logger
	out      io.Writer
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput sets where the human-readable progress report is written.
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) {
		if w != nil {
			r.out = w
		}
	}
}

// New creates a Reconciler that resolves the IP with res and updates records through prov.
func New(res resolver.Resolver, prov provider.Provider, cfg Config, opts ...Option) *Reconciler {
	r := &Reconciler{
		resolver: res,
		provider: prov,
		config:   cfg,
		logger:   slog.Default(),
		out:      io.Discard,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Config returns the current configuration.
func (r *Reconciler) Config() Config {
	return r.config
}

// ResolveIP determines the current IPv4 address, retrying transient failures.
func (r *Reconciler) ResolveIP(ctx context.Context) (netip.Addr, error) {
	mode := r.resolver.Mode().String()

	ip, err := retry.Do(ctx, r.policy("resolve", nil), func(ctx context.Context) (netip.Addr, error) {
		addr, err := r.resolver.Resolve(ctx)
		if err != nil {
			metrics.ResolveAttemptsTotal.WithLabelValues(mode, "error").Inc()
			return netip.Addr{}, err
		}
		metrics.ResolveAttemptsTotal.WithLabelValues(mode, "success").Inc()

		// A wrong address family will not change on retry.
		v4, err := resolver.RequireIPv4(addr)
		if err != nil {
			return netip.Addr{}, retry.Permanent(err)
		}
		return v4, nil
	})
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w (%s mode): %w", ErrResolve, mode, err)
	}

	metrics.SetResolvedIP(ip.String(), mode)
	return ip, nil
}

// Reconcile performs one update sweep over all configured domains.
//
// The returned Result is never nil. The error is non-nil only when the IP
// could not be determined, in which case no domain was touched. Per-domain and
// per-record failures are recorded in the Result and do not stop the sweep.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	result := NewResult(r.config.DryRun)
	result.Domains = len(r.config.Domains)
	out := progress{w: r.out}

	r.logger.Info("starting reconciliation",
		slog.Int("domains", len(r.config.Domains)),
		slog.String("mode", r.resolver.Mode().String()),
		slog.Bool("dry_run", r.config.DryRun),
	)

	ip, err := r.ResolveIP(ctx)
	if err != nil {
		result.Complete()
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		metrics.RunDuration.Observe(result.Duration().Seconds())
		r.logger.Error("reconciliation aborted", slog.String("error", err.Error()))
		return result, err
	}
	result.IP = ip

	r.logger.Info("resolved server IP", slog.String("ip", ip.String()))
	out.start(len(r.config.Domains), ip)

	for _, domain := range r.config.Domains {
		r.reconcileDomain(ctx, domain, ip, result, out)
	}

	result.Complete()
	out.summary(result)
	r.recordMetrics(result)

	r.logger.Info("reconciliation complete",
		slog.Int("updated", result.UpdatedCount()),
		slog.Int("excluded", result.ExcludedCount()),
		slog.Int("failed", result.FailedCount()),
		slog.Duration("duration", result.Duration()),
	)

	return result, nil
}

func (r *Reconciler) reconcileDomain(ctx context.Context, domain string, ip netip.Addr, result *Result, out progress) {
	logger := r.logger.With(slog.String("domain", domain))

	records, err := retry.Do(ctx, r.policy("list", provider.IsPermanent), func(ctx context.Context) (provider.Records, error) {
		return r.provider.ListA(ctx, domain)
	})
	if err != nil {
		logger.Error("failed to list records", slog.String("error", err.Error()))
		out.listFailed(domain, err)
		result.AddAction(Action{
			Type:   ActionList,
			Status: StatusFailed,
			Domain: domain,
			Error:  err.Error(),
		})
		return
	}

	kept, excluded := r.config.Exclusions.Filter(records)
	for _, rec := range excluded {
		out.excluding(rec)
		result.AddAction(Action{
			Type:       ActionExclude,
			Status:     StatusSkipped,
			Domain:     domain,
			RecordID:   rec.ID,
			RecordName: rec.Name,
		})
	}

	result.RecordsFound += len(kept)
	out.found(len(kept), domain)
	logger.Debug("records selected",
		slog.Int("found", len(records)),
		slog.Int("excluded", len(excluded)),
	)

	for _, rec := range kept {
		action := Action{
			Type:       ActionUpdate,
			Domain:     domain,
			RecordID:   rec.ID,
			RecordName: rec.Name,
			Target:     ip.String(),
		}

		if r.config.DryRun {
			action.Status = StatusSuccess
			out.wouldUpdate(rec, ip)
			logger.Info("would update record (dry-run)",
				slog.String("record_id", rec.ID),
				slog.String("name", rec.Name),
				slog.String("from", rec.Data),
				slog.String("to", ip.String()),
			)
			result.AddAction(action)
			continue
		}

		echoed, err := retry.Do(ctx, r.policy("update", provider.IsPermanent), func(ctx context.Context) (provider.Record, error) {
			return r.provider.UpdateA(ctx, domain, rec.ID, ip.String())
		})
		if err != nil {
			action.Status = StatusFailed
			action.Error = err.Error()
			out.updateFailed(rec.Name, err)
			logger.Error("failed to update record",
				slog.String("record_id", rec.ID),
				slog.String("name", rec.Name),
				slog.String("error", err.Error()),
			)
			result.AddAction(action)
			continue
		}

		action.Status = StatusSuccess
		out.updated(rec.Name, echoed)
		logger.Info("updated record",
			slog.String("record_id", rec.ID),
			slog.String("name", rec.Name),
			slog.String("ip", ip.String()),
		)
		result.AddAction(action)
	}
}

// policy derives the retry policy for one kind of operation from the
// configured one, adding logging and metrics.
func (r *Reconciler) policy(operation string, isPermanent func(error) bool) retry.Policy {
	p := r.config.Retry
	if isPermanent != nil {
		p.IsPermanent = isPermanent
	}
	next := p.OnRetry
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.RetriesTotal.WithLabelValues(operation).Inc()
		r.logger.Warn("operation failed, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
		if next != nil {
			next(attempt, err, wait)
		}
	}
	return p
}

// recordMetrics records metrics from a completed sweep.
func (r *Reconciler) recordMetrics(result *Result) {
	status := result.Status()
	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(result.Duration().Seconds())
	if status == "success" {
		metrics.LastSuccessTimestamp.Set(float64(result.EndTime.Unix()))
	}

	for _, action := range result.Actions {
		switch {
		case action.Status == StatusFailed:
			metrics.RecordsFailedTotal.WithLabelValues(action.Domain, string(action.Type)).Inc()
		case action.Type == ActionUpdate && !action.DryRun:
			metrics.RecordsUpdatedTotal.WithLabelValues(action.Domain).Inc()
		case action.Type == ActionExclude:
			metrics.RecordsExcludedTotal.WithLabelValues(action.Domain).Inc()
		}
	}
}
