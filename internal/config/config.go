// Package config handles loading and validation of doddns configuration
// from defaults, an optional YAML or TOML file, a dotenv file and DODDNS_*
// environment variables.
package config

import (
	"time"

	"gitlab.bluewillows.net/root/doddns/internal/resolver"
	"gitlab.bluewillows.net/root/doddns/internal/retry"
)

// EnvPrefix prefixes every environment variable doddns reads.
const EnvPrefix = "DODDNS_"

// Configuration defaults.
const (
	DefaultMode          = resolver.ModeDirect
	DefaultRetryAttempts = retry.DefaultMaxAttempts
	DefaultRetryDelay    = retry.DefaultDelay
	DefaultAPIEndpoint   = "https://api.digitalocean.com/v2"
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultInterval      = 5 * time.Minute
	DefaultHealthPort    = 8080
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"

	// MinInterval keeps watch mode from hammering the API.
	MinInterval = time.Minute
)

// DefaultEchoURLs are queried in direct mode when none are configured.
var DefaultEchoURLs = []string{resolver.DefaultEchoURL}

// Config holds the complete runtime configuration.
type Config struct {
	// Resolver
	Mode             resolver.Mode
	EchoURLs         []string
	DelegateHostname string
	Nameserver       string // Optional; system resolver when empty
	StaticIP         string

	// Records
	Domains []string
	Exclude []string

	// DigitalOcean
	Token       string
	APIEndpoint string
	HTTPTimeout time.Duration

	// Retry
	RetryAttempts int
	RetryDelay    time.Duration

	// Behavior
	DryRun      bool
	Interval    time.Duration // watch mode
	HealthPort  int           // watch mode; 0 disables
	MetricsFile string        // node_exporter textfile written after a run

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		Mode:          DefaultMode,
		EchoURLs:      append([]string(nil), DefaultEchoURLs...),
		APIEndpoint:   DefaultAPIEndpoint,
		HTTPTimeout:   DefaultHTTPTimeout,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
		Interval:      DefaultInterval,
		HealthPort:    DefaultHealthPort,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// ResolverConfig returns the resolver settings.
func (c *Config) ResolverConfig() resolver.Config {
	return resolver.Config{
		Mode:             c.Mode,
		EchoURLs:         c.EchoURLs,
		DelegateHostname: c.DelegateHostname,
		StaticIP:         c.StaticIP,
	}
}

// RetryPolicy returns the retry policy for resolution and API calls.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.RetryAttempts,
		Delay:       c.RetryDelay,
	}
}
