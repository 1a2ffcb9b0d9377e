// Package provider defines the interface a DNS hosting provider must implement
// for doddns to discover and patch A records.
package provider

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// RecordTypeA is the only record type doddns manages.
const RecordTypeA = "A"

// ApexName is the provider's name for a record at the zone apex.
const ApexName = "@"

// Record represents a DNS record as reported by the provider.
type Record struct {
	ID   string // Provider-assigned opaque identifier
	Name string // Subdomain label, "@" for the apex
	Type string
	Data string // IP address for A records
	TTL  int
}

// String returns a compact representation used in progress output.
func (r Record) String() string {
	return fmt.Sprintf("{id: %s, type: %s, name: %s, data: %s, ttl: %d}", r.ID, r.Type, r.Name, r.Data, r.TTL)
}

// Records is an ordered list of records for a single domain.
type Records []Record

// IDs returns the record identifiers, index-aligned with Names.
func (rs Records) IDs() []string {
	return lo.Map(rs, func(r Record, _ int) string { return r.ID })
}

// Names returns the record names, index-aligned with IDs.
func (rs Records) Names() []string {
	return lo.Map(rs, func(r Record, _ int) string { return r.Name })
}

// Provider defines the operations the reconciler needs from a DNS provider.
type Provider interface {
	// Name returns the provider name (e.g., "digitalocean").
	Name() string

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// ListA returns all A records under domain, in provider order.
	ListA(ctx context.Context, domain string) (Records, error)

	// UpdateA points the record identified by id at ip and returns the
	// record as echoed by the provider.
	UpdateA(ctx context.Context, domain, id, ip string) (Record, error)
}
