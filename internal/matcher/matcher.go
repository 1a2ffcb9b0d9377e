// Package matcher decides which A records are left alone because their
// subdomain name is on the exclusion list.
package matcher

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

// Exclusions is a set of subdomain names whose records must never be patched.
// The zero value excludes nothing.
type Exclusions struct {
	names map[string]struct{}
}

// NewExclusions builds an exclusion set from subdomain names. Names compare
// case-insensitively, surrounding whitespace and a trailing dot are ignored,
// and both "" and "@" denote the zone apex.
func NewExclusions(names ...string) Exclusions {
	e := Exclusions{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		e.names[normalize(n)] = struct{}{}
	}
	return e
}

// Len returns the number of distinct excluded names.
func (e Exclusions) Len() int {
	return len(e.names)
}

// Names returns the normalized excluded names in no particular order.
func (e Exclusions) Names() []string {
	return lo.Keys(e.names)
}

// Excludes reports whether a record named name is excluded.
func (e Exclusions) Excludes(name string) bool {
	if len(e.names) == 0 {
		return false
	}
	_, ok := e.names[normalize(name)]
	return ok
}

// Filter splits records into those to update and those excluded. Both results
// are new slices in input order; records is not modified.
func (e Exclusions) Filter(records provider.Records) (kept, excluded provider.Records) {
	kept = lo.Filter(records, func(r provider.Record, _ int) bool { return !e.Excludes(r.Name) })
	excluded = lo.Filter(records, func(r provider.Record, _ int) bool { return e.Excludes(r.Name) })
	return kept, excluded
}

// FilterParallel applies Filter to index-aligned id and name sequences and
// returns the kept sequences, still index-aligned.
func (e Exclusions) FilterParallel(ids, names []string) (keptIDs, keptNames []string, err error) {
	if len(ids) != len(names) {
		return nil, nil, fmt.Errorf("mismatched record sequences: %d ids, %d names", len(ids), len(names))
	}

	records := lo.Map(ids, func(id string, i int) provider.Record {
		return provider.Record{ID: id, Name: names[i]}
	})
	kept, _ := e.Filter(records)
	return kept.IDs(), kept.Names(), nil
}

func normalize(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return provider.ApexName
	}
	return strings.ToLower(name)
}
