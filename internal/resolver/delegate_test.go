package resolver

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/miekg/dns"
)

func withLookup(f lookupFunc) Option {
	return func(o *options) { o.lookup = f }
}

// startDNSServer runs an in-process UDP nameserver answering A queries from zone.
func startDNSServer(t *testing.T, zone map[string]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		ip, ok := zone[q.Name]
		if !ok {
			m.Rcode = dns.RcodeNameError
		} else if ip != "" && q.Qtype == dns.TypeA {
			rr, err := dns.NewRR(q.Name + " 60 IN A " + ip)
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDelegateResolver_Nameserver(t *testing.T) {
	addr := startDNSServer(t, map[string]string{
		"home.example.net.":  "203.0.113.7",
		"empty.example.net.": "",
	})

	tests := []struct {
		name     string
		hostname string
		want     string
		wantErr  error
	}{
		{name: "A answer", hostname: "home.example.net", want: "203.0.113.7"},
		{name: "trailing dot", hostname: "home.example.net.", want: "203.0.113.7"},
		{name: "nxdomain", hostname: "missing.example.net", wantErr: ErrNoAddress},
		{name: "no A answers", hostname: "empty.example.net", wantErr: ErrNoAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewDelegateResolver(tt.hostname, WithNameserver(addr))
			if err != nil {
				t.Fatalf("NewDelegateResolver() error = %v", err)
			}
			got, err := r.Resolve(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDelegateResolver_SystemLookup(t *testing.T) {
	var gotNetwork, gotHost string
	lookup := func(_ context.Context, network, host string) ([]netip.Addr, error) {
		gotNetwork, gotHost = network, host
		return []netip.Addr{netip.MustParseAddr("::ffff:198.51.100.9"), netip.MustParseAddr("198.51.100.10")}, nil
	}

	r, _ := NewDelegateResolver("home.example.net", withLookup(lookup))
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.String() != "198.51.100.9" {
		t.Errorf("Resolve() = %s, want 198.51.100.9", got)
	}
	if gotNetwork != "ip4" || gotHost != "home.example.net" {
		t.Errorf("lookup(%q, %q), want (ip4, home.example.net)", gotNetwork, gotHost)
	}
}

func TestDelegateResolver_SystemLookupEmpty(t *testing.T) {
	lookup := func(context.Context, string, string) ([]netip.Addr, error) { return nil, nil }

	r, _ := NewDelegateResolver("home.example.net", withLookup(lookup))
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("Resolve() error = %v, want ErrNoAddress", err)
	}
}

func TestWithDefaultPort(t *testing.T) {
	tests := map[string]string{
		"192.0.2.53":      "192.0.2.53:53",
		"192.0.2.53:5353": "192.0.2.53:5353",
		"ns1.example.net": "ns1.example.net:53",
		"2001:db8::53":    "[2001:db8::53]:53",
		"[2001:db8::53]":  "[2001:db8::53]:53",
	}
	for in, want := range tests {
		if got := withDefaultPort(in); got != want {
			t.Errorf("withDefaultPort(%q) = %q, want %q", in, got, want)
		}
	}
}
