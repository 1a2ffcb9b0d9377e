package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// DefaultEchoURL returns the caller's public address as plain text.
const DefaultEchoURL = "https://api.ipify.org"

// maxEchoBody limits how much of an echo response is read.
const maxEchoBody = 512

// EchoResolver asks one or more IP-echo services for the caller's public
// address. Services are queried in order and every answer must be identical,
// byte for byte, to the first one.
type EchoResolver struct {
	urls       []*url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewEchoResolver creates a direct-mode resolver. With no URLs, DefaultEchoURL is used.
func NewEchoResolver(serviceURLs []string, opts ...Option) (*EchoResolver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(serviceURLs) == 0 {
		serviceURLs = []string{DefaultEchoURL}
	}

	r := &EchoResolver{
		httpClient: o.httpClient,
		logger:     o.logger,
	}
	for _, s := range serviceURLs {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parsing echo URL %q: %w", s, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("echo URL %q: scheme must be http or https", s)
		}
		r.urls = append(r.urls, u)
	}
	return r, nil
}

// Mode returns ModeDirect.
func (r *EchoResolver) Mode() Mode { return ModeDirect }

// Resolve implements Resolver.
func (r *EchoResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	if len(r.urls) == 0 {
		return netip.Addr{}, errors.New("no IP echo services configured")
	}

	var first string
	for i, u := range r.urls {
		got, err := r.lookup(ctx, u)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("querying %s: %w", u.Host, err)
		}

		r.logger.Debug("echo service answered",
			slog.String("url", u.String()),
			slog.String("ip", got),
		)

		if i == 0 {
			first = got
			continue
		}
		if got != first {
			return netip.Addr{}, fmt.Errorf("%w: %s returned %q but %s returned %q",
				ErrInconsistent, u, got, r.urls[0], first)
		}
	}

	addr, err := netip.ParseAddr(first)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parsing IP from echo response: %w", err)
	}
	return addr, nil
}

func (r *EchoResolver) lookup(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "text/plain")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	line, err := bufio.NewReader(io.LimitReader(resp.Body, maxEchoBody)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%w: empty response body", ErrNoAddress)
	}
	return line, nil
}
