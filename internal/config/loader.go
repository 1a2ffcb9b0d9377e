package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gitlab.bluewillows.net/root/doddns/internal/resolver"
)

// DefaultEnvFile is loaded from the working directory when present and no
// other dotenv file is configured.
const DefaultEnvFile = ".env"

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile overrides DODDNS_CONFIG.
	ConfigFile string

	// EnvFile overrides DODDNS_ENV_FILE.
	EnvFile string

	// Overrides run after all other sources and before validation. The CLI
	// uses them to apply command-line flags.
	Overrides []func(*Config)

	// Needs selects which settings must be present. Zero means NeedAll.
	Needs Need
}

// Load builds the configuration from, in increasing precedence: defaults,
// the config file, the environment (after loading the dotenv file, which
// never overrides variables already set) and LoadOptions.Overrides.
//
// All problems are reported together as a *ValidationError.
func Load(opts LoadOptions) (*Config, error) {
	var errs []string

	if err := loadEnvFile(opts.EnvFile); err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Default()

	path := opts.ConfigFile
	if path == "" {
		path = getEnv("CONFIG")
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			errs = append(errs, "config file: "+err.Error())
		} else {
			slog.Debug("loaded configuration from file", slog.String("path", path))
			errs = append(errs, fileCfg.applyTo(cfg)...)
		}
	}

	errs = append(errs, applyEnv(cfg)...)

	for _, override := range opts.Overrides {
		override(cfg)
	}

	errs = append(errs, cfg.validate(opts.Needs)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return cfg, nil
}

// loadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. An explicitly named file must
// exist; the default .env is optional.
func loadEnvFile(path string) error {
	explicit := true
	if path == "" {
		path = getEnv("ENV_FILE")
	}
	if path == "" {
		path = DefaultEnvFile
		explicit = false
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}

	slog.Debug("loaded environment file", slog.String("path", path))
	return nil
}

// applyEnv overrides cfg with DODDNS_* environment variables that are set.
func applyEnv(cfg *Config) []string {
	var errs []string

	if v := getEnv("MODE"); v != "" {
		mode, err := resolver.ParseMode(v)
		if err != nil {
			errs = append(errs, EnvPrefix+"MODE: "+err.Error())
		} else {
			cfg.Mode = mode
		}
	}

	if v := getEnv("DOMAINS"); v != "" {
		cfg.Domains = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "EXCLUDE"); ok {
		cfg.Exclude = splitList(v)
	}

	token, found, err := getEnvOrFile("TOKEN")
	if err != nil {
		errs = append(errs, err.Error())
	} else if found {
		cfg.Token = token
	}

	if v := getEnv("ECHO_URLS"); v != "" {
		cfg.EchoURLs = splitList(v)
	}
	if v := getEnv("DELEGATE_HOSTNAME"); v != "" {
		cfg.DelegateHostname = strings.TrimSpace(v)
	}
	if v := getEnv("NAMESERVER"); v != "" {
		cfg.Nameserver = strings.TrimSpace(v)
	}
	if v := getEnv("STATIC_IP"); v != "" {
		cfg.StaticIP = strings.TrimSpace(v)
	}

	errs = appendEnvInt(errs, "RETRY_ATTEMPTS", &cfg.RetryAttempts)
	errs = appendEnvDuration(errs, "RETRY_DELAY", &cfg.RetryDelay)

	if v := getEnv("API_ENDPOINT"); v != "" {
		cfg.APIEndpoint = strings.TrimSpace(v)
	}
	errs = appendEnvDuration(errs, "HTTP_TIMEOUT", &cfg.HTTPTimeout)

	if v := getEnv("DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}
	errs = appendEnvDuration(errs, "INTERVAL", &cfg.Interval)
	errs = appendEnvInt(errs, "HEALTH_PORT", &cfg.HealthPort)

	if v := getEnv("METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := getEnv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return errs
}

func appendEnvInt(errs []string, key string, dst *int) []string {
	v := getEnv(key)
	if v == "" {
		return errs
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return append(errs, fmt.Sprintf("%s%s: invalid integer %q", EnvPrefix, key, v))
	}
	*dst = n
	return errs
}

func appendEnvDuration(errs []string, key string, dst *time.Duration) []string {
	v := getEnv(key)
	if v == "" {
		return errs
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return append(errs, fmt.Sprintf("%s%s: invalid duration %q (use format like 5s, 5m)", EnvPrefix, key, v))
	}
	*dst = d
	return errs
}
