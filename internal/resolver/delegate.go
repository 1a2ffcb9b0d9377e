package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// dnsTimeout bounds a single query to an explicit nameserver.
const dnsTimeout = 5 * time.Second

type lookupFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

// DelegateResolver resolves a hostname kept current by another dynamic DNS
// service and uses its address.
type DelegateResolver struct {
	hostname   string
	nameserver string
	lookup     lookupFunc
	dnsClient  *dns.Client
	logger     *slog.Logger
}

// NewDelegateResolver creates a delegate-mode resolver for hostname.
func NewDelegateResolver(hostname string, opts ...Option) (*DelegateResolver, error) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return nil, fmt.Errorf("delegate hostname is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &DelegateResolver{
		hostname: hostname,
		lookup:   o.lookup,
		logger:   o.logger,
	}
	if r.lookup == nil {
		r.lookup = net.DefaultResolver.LookupNetIP
	}
	if o.nameserver != "" {
		r.nameserver = withDefaultPort(o.nameserver)
		r.dnsClient = &dns.Client{Net: "udp", Timeout: dnsTimeout}
	}
	return r, nil
}

// Mode returns ModeDelegate.
func (r *DelegateResolver) Mode() Mode { return ModeDelegate }

// Resolve implements Resolver.
func (r *DelegateResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	if r.dnsClient != nil {
		return r.queryNameserver(ctx)
	}

	addrs, err := r.lookup(ctx, "ip4", r.hostname)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("looking up %s: %w", r.hostname, err)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("looking up %s: %w", r.hostname, ErrNoAddress)
	}
	return addrs[0].Unmap(), nil
}

func (r *DelegateResolver) queryNameserver(ctx context.Context) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(r.hostname), dns.TypeA)

	r.logger.Debug("querying nameserver",
		slog.String("name", r.hostname),
		slog.String("server", r.nameserver),
	)

	resp, _, err := r.dnsClient.ExchangeContext(ctx, msg, r.nameserver)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying %s for %s: %w", r.nameserver, r.hostname, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return netip.Addr{}, fmt.Errorf("%s: %w (NXDOMAIN)", r.hostname, ErrNoAddress)
	default:
		return netip.Addr{}, fmt.Errorf("querying %s for %s: server returned %s",
			r.nameserver, r.hostname, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.A); ok {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%s: %w", r.hostname, ErrNoAddress)
}

func withDefaultPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}
