package reconciler

import (
	"fmt"
	"io"
	"net/netip"

	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

// plural returns "s" when n is greater than one.
func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// progress writes the line-oriented human report of a run. Write errors are
// ignored; the report is informational only.
type progress struct {
	w io.Writer
}

func (p progress) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p progress) start(domains int, ip netip.Addr) {
	p.printf("Now updating all \"A\" records under %d domain%s to the new server IP address %s\n",
		domains, plural(domains), ip)
}

func (p progress) listFailed(domain string, err error) {
	p.printf("\tThe records under the domain %s could not be listed: %v\n", domain, err)
}

func (p progress) excluding(r provider.Record) {
	p.printf("\tExcluding record with name %s and id %s.\n", r.Name, r.ID)
}

func (p progress) found(n int, domain string) {
	p.printf("\t%d record%s were found under the domain %s\n", n, plural(n), domain)
}

func (p progress) updated(name string, echoed provider.Record) {
	p.printf("\t\tThe record \"%s\" was updated successfully!\n", name)
	p.printf("\t\t\t%s\n", echoed)
}

func (p progress) wouldUpdate(r provider.Record, ip netip.Addr) {
	p.printf("\t\tThe record \"%s\" would be updated from %s to %s (dry run).\n", r.Name, r.Data, ip)
}

func (p progress) updateFailed(name string, err error) {
	p.printf("\t\tThe record \"%s\" could not be updated: %v\n", name, err)
}

func (p progress) summary(r *Result) {
	switch {
	case r.HasErrors():
		failed := r.FailedCount()
		p.printf("\n%d operation%s failed under %d domain%s; %d of %d record%s updated.\n",
			failed, plural(failed), r.Domains, plural(r.Domains), r.UpdatedCount(), r.RecordsFound, plural(r.RecordsFound))
		for _, a := range r.Failed() {
			p.printf("\t%s\n", a)
		}
		p.printf("\n")
	case r.DryRun:
		p.printf("\nAll %d record%s under all %d domain%s would be updated (dry run).\n\n",
			r.RecordsFound, plural(r.RecordsFound), r.Domains, plural(r.Domains))
	default:
		p.printf("\nAll %d record%s under all %d domain%s have been updated successfully!\n\n",
			r.RecordsFound, plural(r.RecordsFound), r.Domains, plural(r.Domains))
	}
}
