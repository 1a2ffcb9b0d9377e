// Package resolver determines the public IP address that DNS records should
// point at.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"gitlab.bluewillows.net/root/doddns/pkg/httputil"
)

var (
	// ErrInconsistent is returned when IP-echo services disagree.
	ErrInconsistent = errors.New("ip lookup results are inconsistent")

	// ErrNoAddress is returned when a lookup completes without an address.
	ErrNoAddress = errors.New("no address found")

	// ErrNotIPv4 is returned when an address cannot be used in an A record.
	ErrNotIPv4 = errors.New("address is not IPv4")
)

// Resolver produces the single current IP address for a run.
type Resolver interface {
	// Resolve returns the current address or an error.
	Resolve(ctx context.Context) (netip.Addr, error)

	// Mode reports how the address is determined.
	Mode() Mode
}

// RequireIPv4 returns addr as a plain IPv4 address or ErrNotIPv4.
// IPv4-mapped IPv6 addresses are unmapped.
func RequireIPv4(addr netip.Addr) (netip.Addr, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotIPv4, addr)
	}
	return addr, nil
}

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	nameserver string
	lookup     lookupFunc
}

func defaultOptions() options {
	return options{
		httpClient: httputil.NewClient(nil),
		logger:     slog.Default(),
	}
}

// Option configures a resolver.
type Option func(*options)

// WithHTTPClient sets the HTTP client used by the direct resolver.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNameserver makes the delegate resolver query server ("host" or
// "host:port") directly instead of using the system resolver.
func WithNameserver(server string) Option {
	return func(o *options) {
		o.nameserver = server
	}
}

// Config selects and parameterises a resolver.
type Config struct {
	Mode             Mode
	EchoURLs         []string
	DelegateHostname string
	StaticIP         string
}

// New builds the resolver selected by cfg.Mode.
func New(cfg Config, opts ...Option) (Resolver, error) {
	switch cfg.Mode {
	case ModeDirect, "":
		return NewEchoResolver(cfg.EchoURLs, opts...)
	case ModeDelegate:
		return NewDelegateResolver(cfg.DelegateHostname, opts...)
	case ModeStatic:
		return NewStaticResolver(cfg.StaticIP)
	default:
		return nil, fmt.Errorf("unknown resolver mode %q", cfg.Mode)
	}
}
