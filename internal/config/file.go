package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/doddns/internal/resolver"
)

// FileConfig represents the configuration file structure. The same shape is
// accepted as YAML or TOML.
type FileConfig struct {
	Mode      string   `yaml:"mode,omitempty" toml:"mode"`
	Domains   []string `yaml:"domains,omitempty" toml:"domains"`
	Exclude   []string `yaml:"exclude,omitempty" toml:"exclude"`
	Token     string   `yaml:"token,omitempty" toml:"token"`
	TokenFile string   `yaml:"token_file,omitempty" toml:"token_file"`
	DryRun    *bool    `yaml:"dry_run,omitempty" toml:"dry_run"` // Pointer to distinguish unset from false

	Resolver *FileResolverConfig `yaml:"resolver,omitempty" toml:"resolver"`
	Retry    *FileRetryConfig    `yaml:"retry,omitempty" toml:"retry"`
	API      *FileAPIConfig      `yaml:"api,omitempty" toml:"api"`
	Watch    *FileWatchConfig    `yaml:"watch,omitempty" toml:"watch"`
	Metrics  *FileMetricsConfig  `yaml:"metrics,omitempty" toml:"metrics"`
	Logging  *FileLoggingConfig  `yaml:"logging,omitempty" toml:"logging"`
}

// FileResolverConfig holds IP resolution settings.
type FileResolverConfig struct {
	EchoURLs         []string `yaml:"echo_urls,omitempty" toml:"echo_urls"`
	DelegateHostname string   `yaml:"delegate_hostname,omitempty" toml:"delegate_hostname"`
	Nameserver       string   `yaml:"nameserver,omitempty" toml:"nameserver"`
	StaticIP         string   `yaml:"static_ip,omitempty" toml:"static_ip"`
}

// FileRetryConfig holds retry settings.
type FileRetryConfig struct {
	Attempts int    `yaml:"attempts,omitempty" toml:"attempts"`
	Delay    string `yaml:"delay,omitempty" toml:"delay"` // Go duration format (e.g., "5s")
}

// FileAPIConfig holds DigitalOcean API settings.
type FileAPIConfig struct {
	Endpoint string `yaml:"endpoint,omitempty" toml:"endpoint"`
	Timeout  string `yaml:"timeout,omitempty" toml:"timeout"`
}

// FileWatchConfig holds watch mode settings.
type FileWatchConfig struct {
	Interval   string `yaml:"interval,omitempty" toml:"interval"`
	HealthPort *int   `yaml:"health_port,omitempty" toml:"health_port"`
}

// FileMetricsConfig holds metrics export settings.
type FileMetricsConfig struct {
	File string `yaml:"file,omitempty" toml:"file"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func interpolateAll(values []string) {
	for i := range values {
		values[i] = InterpolateEnvVars(values[i])
	}
}

// interpolateEnvVars interpolates environment variables in all string fields.
func (c *FileConfig) interpolateEnvVars() {
	c.Mode = InterpolateEnvVars(c.Mode)
	c.Token = InterpolateEnvVars(c.Token)
	c.TokenFile = InterpolateEnvVars(c.TokenFile)
	interpolateAll(c.Domains)
	interpolateAll(c.Exclude)

	if r := c.Resolver; r != nil {
		interpolateAll(r.EchoURLs)
		r.DelegateHostname = InterpolateEnvVars(r.DelegateHostname)
		r.Nameserver = InterpolateEnvVars(r.Nameserver)
		r.StaticIP = InterpolateEnvVars(r.StaticIP)
	}
	if c.Retry != nil {
		c.Retry.Delay = InterpolateEnvVars(c.Retry.Delay)
	}
	if c.API != nil {
		c.API.Endpoint = InterpolateEnvVars(c.API.Endpoint)
		c.API.Timeout = InterpolateEnvVars(c.API.Timeout)
	}
	if c.Watch != nil {
		c.Watch.Interval = InterpolateEnvVars(c.Watch.Interval)
	}
	if c.Metrics != nil {
		c.Metrics.File = InterpolateEnvVars(c.Metrics.File)
	}
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}
}

// LoadFile reads and parses a configuration file. Files ending in .toml are
// parsed as TOML; everything else as YAML. Environment variables in ${VAR}
// format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// applyTo overlays the file values onto cfg. Empty values leave cfg unchanged.
// Returns a list of problems found while converting values.
func (c *FileConfig) applyTo(cfg *Config) []string {
	var errs []string

	if c.Mode != "" {
		mode, err := resolver.ParseMode(c.Mode)
		if err != nil {
			errs = append(errs, "config file mode: "+err.Error())
		} else {
			cfg.Mode = mode
		}
	}
	if len(c.Domains) > 0 {
		cfg.Domains = c.Domains
	}
	if len(c.Exclude) > 0 {
		cfg.Exclude = c.Exclude
	}
	if c.TokenFile != "" {
		token, err := readSecretFile(c.TokenFile)
		if err != nil {
			errs = append(errs, "config file token_file: "+err.Error())
		} else {
			cfg.Token = token
		}
	} else if c.Token != "" {
		cfg.Token = c.Token
	}
	if c.DryRun != nil {
		cfg.DryRun = *c.DryRun
	}

	if r := c.Resolver; r != nil {
		if len(r.EchoURLs) > 0 {
			cfg.EchoURLs = r.EchoURLs
		}
		if r.DelegateHostname != "" {
			cfg.DelegateHostname = r.DelegateHostname
		}
		if r.Nameserver != "" {
			cfg.Nameserver = r.Nameserver
		}
		if r.StaticIP != "" {
			cfg.StaticIP = r.StaticIP
		}
	}

	if r := c.Retry; r != nil {
		if r.Attempts != 0 {
			cfg.RetryAttempts = r.Attempts
		}
		errs = appendDuration(errs, "config file retry.delay", r.Delay, &cfg.RetryDelay)
	}

	if a := c.API; a != nil {
		if a.Endpoint != "" {
			cfg.APIEndpoint = a.Endpoint
		}
		errs = appendDuration(errs, "config file api.timeout", a.Timeout, &cfg.HTTPTimeout)
	}

	if w := c.Watch; w != nil {
		errs = appendDuration(errs, "config file watch.interval", w.Interval, &cfg.Interval)
		if w.HealthPort != nil {
			cfg.HealthPort = *w.HealthPort
		}
	}

	if c.Metrics != nil && c.Metrics.File != "" {
		cfg.MetricsFile = c.Metrics.File
	}

	if l := c.Logging; l != nil {
		if l.Level != "" {
			cfg.LogLevel = strings.ToLower(l.Level)
		}
		if l.Format != "" {
			cfg.LogFormat = strings.ToLower(l.Format)
		}
	}

	return errs
}

// appendDuration parses s into dst if s is non-empty, recording a problem on failure.
func appendDuration(errs []string, name, s string, dst *time.Duration) []string {
	if s == "" {
		return errs
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: invalid duration %q (use format like 5s, 5m)", name, s))
	}
	*dst = d
	return errs
}
