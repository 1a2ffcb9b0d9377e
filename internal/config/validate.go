package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/doddns/internal/resolver"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Need selects which groups of settings a command requires.
type Need uint8

const (
	// NeedResolver requires mode-specific resolver settings.
	NeedResolver Need = 1 << iota
	// NeedProvider requires the API token and endpoint.
	NeedProvider
	// NeedDomains requires at least one domain.
	NeedDomains

	// NeedAll is what a full update run requires.
	NeedAll = NeedResolver | NeedProvider | NeedDomains
)

// Validate checks the complete configuration for a full update run.
func (c *Config) Validate() error {
	if errs := c.validate(NeedAll); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validate returns every problem with the settings selected by needs.
func (c *Config) validate(needs Need) []string {
	if needs == 0 {
		needs = NeedAll
	}

	var errs []string

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL: invalid value %q (must be debug, info, warn, or error)", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT: invalid value %q (must be json or text)", c.LogFormat))
	}

	if c.RetryAttempts < 1 {
		errs = append(errs, fmt.Sprintf("RETRY_ATTEMPTS: must be at least 1, got %d", c.RetryAttempts))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, "RETRY_DELAY: must not be negative")
	}
	if c.Interval < MinInterval {
		errs = append(errs, fmt.Sprintf("INTERVAL: must be at least %s, got %s", MinInterval, c.Interval))
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("HEALTH_PORT: must be between 0 and 65535, got %d", c.HealthPort))
	}

	if needs&NeedResolver != 0 {
		errs = append(errs, c.validateResolver()...)
	}
	if needs&NeedProvider != 0 {
		errs = append(errs, c.validateProvider()...)
	}
	if needs&NeedDomains != 0 {
		errs = append(errs, c.validateDomains()...)
	}

	return errs
}

func (c *Config) validateResolver() []string {
	var errs []string

	switch c.Mode {
	case resolver.ModeDirect:
		if len(c.EchoURLs) == 0 {
			errs = append(errs, "ECHO_URLS: at least one URL is required in direct mode")
		}
		for _, s := range c.EchoURLs {
			u, err := url.Parse(s)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Sprintf("ECHO_URLS: %q is not an http(s) URL", s))
			}
		}
	case resolver.ModeDelegate:
		if c.DelegateHostname == "" {
			errs = append(errs, "DELEGATE_HOSTNAME: required in delegate mode")
		}
	case resolver.ModeStatic:
		addr, err := netip.ParseAddr(c.StaticIP)
		if err != nil || !addr.Unmap().Is4() {
			errs = append(errs, fmt.Sprintf("STATIC_IP: %q is not an IPv4 address", c.StaticIP))
		}
	default:
		errs = append(errs, fmt.Sprintf("MODE: invalid value %q (must be direct, delegate, or static)", c.Mode))
	}

	return errs
}

func (c *Config) validateProvider() []string {
	var errs []string

	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, "TOKEN: required (set DODDNS_TOKEN or DODDNS_TOKEN_FILE)")
	}
	u, err := url.Parse(c.APIEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("API_ENDPOINT: %q is not an http(s) URL", c.APIEndpoint))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT: must be positive")
	}

	return errs
}

func (c *Config) validateDomains() []string {
	var errs []string

	if len(c.Domains) == 0 {
		errs = append(errs, "DOMAINS: at least one domain is required")
	}
	for _, d := range c.Domains {
		errs = append(errs, validateDomain(d)...)
	}

	return errs
}

// validateDomain checks that d looks like a bare zone name.
func validateDomain(d string) []string {
	switch {
	case strings.Contains(d, "://"):
		return []string{fmt.Sprintf("DOMAINS: %q must be a bare domain name without a scheme", d)}
	case strings.ContainsAny(d, "/ "):
		return []string{fmt.Sprintf("DOMAINS: %q is not a domain name", d)}
	case !strings.Contains(strings.TrimSuffix(d, "."), "."):
		return []string{fmt.Sprintf("DOMAINS: %q must contain a dot", d)}
	}
	return nil
}
