package reconciler

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// ActionType represents the type of reconciliation action.
type ActionType string

const (
	// ActionList is a failed attempt to list the records of a domain.
	ActionList ActionType = "list"
	// ActionUpdate indicates a record was (or would be) patched to the resolved IP.
	ActionUpdate ActionType = "update"
	// ActionExclude indicates a record was left alone because its name is excluded.
	ActionExclude ActionType = "exclude"
)

// ActionStatus represents the outcome of an action.
type ActionStatus string

const (
	// StatusSuccess indicates the action completed successfully.
	StatusSuccess ActionStatus = "success"
	// StatusFailed indicates the action failed.
	StatusFailed ActionStatus = "failed"
	// StatusSkipped indicates the action was intentionally not performed.
	StatusSkipped ActionStatus = "skipped"
)

// Action represents a single reconciliation step on a domain or record.
type Action struct {
	Type   ActionType
	Status ActionStatus

	// Domain is the configured domain the record lives under.
	Domain string

	// RecordID and RecordName identify the record; both are empty for list actions.
	RecordID   string
	RecordName string

	// Target is the IP the record was pointed at.
	Target string

	// Error contains the error message if Status is StatusFailed.
	Error string

	// DryRun indicates this action was not actually executed.
	DryRun bool
}

// String returns a human-readable representation of the action.
func (a Action) String() string {
	status := string(a.Status)
	if a.DryRun && a.Status == StatusSuccess {
		status = "dry-run"
	}

	subject := a.Domain
	if a.RecordID != "" {
		subject = fmt.Sprintf("%s record %q (id %s)", a.Domain, a.RecordName, a.RecordID)
	}

	if a.Error != "" {
		return fmt.Sprintf("[%s] %s %s: %s", status, a.Type, subject, a.Error)
	}
	if a.Target != "" {
		return fmt.Sprintf("[%s] %s %s -> %s", status, a.Type, subject, a.Target)
	}
	return fmt.Sprintf("[%s] %s %s", status, a.Type, subject)
}

// Result holds the complete result of a reconciliation run.
type Result struct {
	StartTime time.Time
	EndTime   time.Time

	// IP is the address every record was pointed at. Invalid if resolution failed.
	IP netip.Addr

	// Domains is the number of configured domains.
	Domains int

	// RecordsFound is the number of records selected for update across all
	// domains whose records could be listed.
	RecordsFound int

	// Actions contains all actions taken (or planned in dry-run), in order.
	Actions []Action

	// DryRun indicates if this was a dry-run (no changes applied).
	DryRun bool
}

// NewResult creates a new Result with the start time set to now.
func NewResult(dryRun bool) *Result {
	return &Result{
		StartTime: time.Now(),
		Actions:   make([]Action, 0),
		DryRun:    dryRun,
	}
}

// Complete marks the result as complete with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total reconciliation duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddAction adds an action to the result.
func (r *Result) AddAction(action Action) {
	action.DryRun = r.DryRun
	r.Actions = append(r.Actions, action)
}

// Updated returns all successful update actions.
func (r *Result) Updated() []Action {
	return r.filterActions(ActionUpdate, StatusSuccess)
}

// Excluded returns all exclusion actions.
func (r *Result) Excluded() []Action {
	return r.filterActions(ActionExclude, StatusSkipped)
}

// Failed returns all failed actions.
func (r *Result) Failed() []Action {
	var failed []Action
	for _, a := range r.Actions {
		if a.Status == StatusFailed {
			failed = append(failed, a)
		}
	}
	return failed
}

func (r *Result) filterActions(actionType ActionType, status ActionStatus) []Action {
	var filtered []Action
	for _, a := range r.Actions {
		if a.Type == actionType && a.Status == status {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// UpdatedCount returns the number of records updated (or that would be in dry-run).
func (r *Result) UpdatedCount() int {
	return len(r.Updated())
}

// ExcludedCount returns the number of records skipped by the exclusion list.
func (r *Result) ExcludedCount() int {
	return len(r.Excluded())
}

// FailedCount returns the number of failed actions.
func (r *Result) FailedCount() int {
	return len(r.Failed())
}

// HasErrors returns true if any actions failed.
func (r *Result) HasErrors() bool {
	return r.FailedCount() > 0
}

// Status classifies the run for metrics: success, partial or failed.
func (r *Result) Status() string {
	switch {
	case !r.HasErrors():
		return "success"
	case r.UpdatedCount() > 0:
		return "partial"
	default:
		return "failed"
	}
}

// Summary returns a human-readable summary of the reconciliation.
func (r *Result) Summary() string {
	var sb strings.Builder

	mode := "applied"
	if r.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(&sb, "Reconciliation complete (%s) in %s\n", mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  IP: %s\n", r.IP)
	fmt.Fprintf(&sb, "  Domains: %d\n", r.Domains)
	fmt.Fprintf(&sb, "  Records updated: %d\n", r.UpdatedCount())
	fmt.Fprintf(&sb, "  Records excluded: %d\n", r.ExcludedCount())

	if r.HasErrors() {
		fmt.Fprintf(&sb, "  Failed: %d\n", r.FailedCount())
		for _, a := range r.Failed() {
			fmt.Fprintf(&sb, "    - %s\n", a.String())
		}
	}

	return sb.String()
}
