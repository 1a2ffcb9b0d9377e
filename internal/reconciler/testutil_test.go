package reconciler

import (
	"context"
	"log/slog"
	"net/netip"
	"os"
	"sync"

	"gitlab.bluewillows.net/root/doddns/internal/resolver"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

// testMockResolver implements resolver.Resolver for testing.
// It returns errs in order, then ip.
type testMockResolver struct {
	ip   netip.Addr
	errs []error

	mu    sync.Mutex
	calls int
}

func newTestMockResolver(ip string, errs ...error) *testMockResolver {
	return &testMockResolver{ip: netip.MustParseAddr(ip), errs: errs}
}

func (m *testMockResolver) Mode() resolver.Mode { return resolver.ModeStatic }

func (m *testMockResolver) Resolve(_ context.Context) (netip.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= len(m.errs) {
		return netip.Addr{}, m.errs[m.calls-1]
	}
	return m.ip, nil
}

func (m *testMockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// updateCall records one UpdateA invocation.
type updateCall struct {
	Domain string
	ID     string
	IP     string
}

// testMockProvider implements provider.Provider for testing.
// It tracks all ListA/UpdateA calls for verification.
type testMockProvider struct {
	mu       sync.Mutex
	records  map[string]provider.Records
	listErr  map[string]error
	updateFn func(domain, id string) error
	lists    []string
	updates  []updateCall
}

func newTestMockProvider() *testMockProvider {
	return &testMockProvider{
		records: make(map[string]provider.Records),
		listErr: make(map[string]error),
	}
}

func (m *testMockProvider) Name() string { return "mock" }

func (m *testMockProvider) Ping(_ context.Context) error { return nil }

func (m *testMockProvider) ListA(_ context.Context, domain string) (provider.Records, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = append(m.lists, domain)
	if err := m.listErr[domain]; err != nil {
		return nil, err
	}
	// Return a copy
	result := make(provider.Records, len(m.records[domain]))
	copy(result, m.records[domain])
	return result, nil
}

func (m *testMockProvider) UpdateA(_ context.Context, domain, id, ip string) (provider.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, updateCall{Domain: domain, ID: id, IP: ip})

	if m.updateFn != nil {
		if err := m.updateFn(domain, id); err != nil {
			return provider.Record{}, err
		}
	}

	for i, r := range m.records[domain] {
		if r.ID == id {
			m.records[domain][i].Data = ip
			return m.records[domain][i], nil
		}
	}
	return provider.Record{}, &provider.APIError{StatusCode: 404, ID: "not_found"}
}

// Helper methods for tests
func (m *testMockProvider) AddRecord(domain, id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[domain] = append(m.records[domain], provider.Record{
		ID:   id,
		Name: name,
		Type: provider.RecordTypeA,
		Data: "198.51.100.1",
		TTL:  1800,
	})
}

func (m *testMockProvider) SetListError(domain string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr[domain] = err
}

func (m *testMockProvider) GetUpdates() []updateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]updateCall, len(m.updates))
	copy(result, m.updates)
	return result
}

func (m *testMockProvider) GetLists() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.lists))
	copy(result, m.lists)
	return result
}

// quietLogger returns a logger that discards all output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
