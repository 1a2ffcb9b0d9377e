package digitalocean

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds DigitalOcean-specific configuration.
type Config struct {
	Token       string        // Personal access token with domain read/write scope
	APIEndpoint string        // Defaults to DefaultAPIEndpoint
	Timeout     time.Duration // Per-request HTTP timeout
	UserAgent   string
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, "TOKEN is required")
	}
	if c.APIEndpoint != "" {
		u, err := url.Parse(c.APIEndpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("API_ENDPOINT %q must be an absolute http(s) URL", c.APIEndpoint))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, "HTTP_TIMEOUT must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("digitalocean config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
