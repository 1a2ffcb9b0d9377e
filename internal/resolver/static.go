package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// StaticResolver always returns the same configured address.
type StaticResolver struct {
	addr netip.Addr
}

// NewStaticResolver parses addr into a resolver.
func NewStaticResolver(addr string) (*StaticResolver, error) {
	a, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return nil, fmt.Errorf("parsing static IP: %w", err)
	}
	return &StaticResolver{addr: a}, nil
}

// Mode returns ModeStatic.
func (r *StaticResolver) Mode() Mode { return ModeStatic }

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(context.Context) (netip.Addr, error) {
	return r.addr, nil
}
