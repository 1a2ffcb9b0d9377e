package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/doddns/internal/config"
	"gitlab.bluewillows.net/root/doddns/internal/matcher"
	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/internal/reconciler"
	"gitlab.bluewillows.net/root/doddns/internal/resolver"
	"gitlab.bluewillows.net/root/doddns/pkg/httputil"
	"gitlab.bluewillows.net/root/doddns/providers/digitalocean"
)

// globalFlags are the persistent flags shared by every subcommand. Flags only
// override configuration when set explicitly.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	mode       string
	domains    []string
	exclude    []string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "doddns",
		Short: "Keep DigitalOcean DNS A records pointed at this server",
		Long: `doddns resolves the server's current public IP address and patches every
A record of the configured DigitalOcean domains to it, except the excluded
subdomains.

Configuration is read from DODDNS_* environment variables, an optional
.env file and an optional YAML or TOML file. Flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (YAML, or TOML by .toml extension); overrides DODDNS_CONFIG")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file to load; overrides DODDNS_ENV_FILE")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text, json")
	pf.StringVar(&flags.mode, "mode", "", "IP resolution mode: direct, delegate, static")
	pf.StringSliceVarP(&flags.domains, "domains", "d", nil, "domains to update (comma-separated)")
	pf.StringSliceVarP(&flags.exclude, "exclude", "x", nil, "subdomain names to leave untouched (comma-separated)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "list and filter records without updating them")

	cmd.AddCommand(
		newRunCmd(flags),
		newWatchCmd(flags),
		newIPCmd(flags),
		newRecordsCmd(flags),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig loads configuration, applies explicitly set flags and sets up
// logging to the command's stderr.
func loadConfig(cmd *cobra.Command, flags *globalFlags, needs config.Need, extra ...func(*config.Config)) (*config.Config, *slog.Logger, error) {
	overrides := flags.overrides(cmd)
	overrides = append(overrides, extra...)

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: flags.configFile,
		EnvFile:    flags.envFile,
		Overrides:  overrides,
		Needs:      needs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	metrics.SetBuildInfo(Version, runtime.Version())

	return cfg, logger, nil
}

func (f *globalFlags) overrides(cmd *cobra.Command) []func(*config.Config) {
	var out []func(*config.Config)
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("log-level") {
		out = append(out, func(c *config.Config) { c.LogLevel = strings.ToLower(f.logLevel) })
	}
	if changed("log-format") {
		out = append(out, func(c *config.Config) { c.LogFormat = strings.ToLower(f.logFormat) })
	}
	if changed("mode") {
		// An invalid value is reported by validation.
		out = append(out, func(c *config.Config) { c.Mode = resolver.Mode(strings.ToLower(strings.TrimSpace(f.mode))) })
	}
	if changed("domains") {
		out = append(out, func(c *config.Config) { c.Domains = f.domains })
	}
	if changed("exclude") {
		out = append(out, func(c *config.Config) { c.Exclude = f.exclude })
	}
	if changed("dry-run") {
		out = append(out, func(c *config.Config) { c.DryRun = f.dryRun })
	}

	return out
}

func setupLogger(level, format string, w io.Writer) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func userAgent() string {
	return "doddns/" + Version
}

func newResolver(cfg *config.Config, logger *slog.Logger) (resolver.Resolver, error) {
	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
			Timeout:   cfg.HTTPTimeout,
			UserAgent: userAgent(),
			Logger:    logger,
		})),
	}
	if cfg.Nameserver != "" {
		opts = append(opts, resolver.WithNameserver(cfg.Nameserver))
	}

	res, err := resolver.New(cfg.ResolverConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("creating %s resolver: %w", cfg.Mode, err)
	}
	return res, nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) (*digitalocean.Provider, error) {
	prov, err := digitalocean.New(&digitalocean.Config{
		Token:       cfg.Token,
		APIEndpoint: cfg.APIEndpoint,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   userAgent(),
	}, digitalocean.WithProviderLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	return prov, nil
}

func newReconciler(cfg *config.Config, logger *slog.Logger, out io.Writer) (*reconciler.Reconciler, *digitalocean.Provider, error) {
	res, err := newResolver(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	prov, err := newProvider(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	rec := reconciler.New(res, prov, reconciler.Config{
		Domains:    cfg.Domains,
		Exclusions: matcher.NewExclusions(cfg.Exclude...),
		Retry:      cfg.RetryPolicy(),
		DryRun:     cfg.DryRun,
	},
		reconciler.WithLogger(logger),
		reconciler.WithOutput(out),
	)
	return rec, prov, nil
}
