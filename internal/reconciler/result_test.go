package reconciler

import (
	"strings"
	"testing"
	"time"
)

func TestAction_String(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{
			name: "successful update",
			action: Action{
				Type:       ActionUpdate,
				Status:     StatusSuccess,
				Domain:     "example.com",
				RecordID:   "3",
				RecordName: "api",
				Target:     "203.0.113.7",
			},
			want: `[success] update example.com record "api" (id 3) -> 203.0.113.7`,
		},
		{
			name: "dry-run update",
			action: Action{
				Type:       ActionUpdate,
				Status:     StatusSuccess,
				Domain:     "example.com",
				RecordID:   "1",
				RecordName: "@",
				Target:     "203.0.113.7",
				DryRun:     true,
			},
			want: `[dry-run] update example.com record "@" (id 1) -> 203.0.113.7`,
		},
		{
			name: "failed list",
			action: Action{
				Type:   ActionList,
				Status: StatusFailed,
				Domain: "example.org",
				Error:  "connection refused",
			},
			want: "[failed] list example.org: connection refused",
		},
		{
			name: "exclusion",
			action: Action{
				Type:       ActionExclude,
				Status:     StatusSkipped,
				Domain:     "example.com",
				RecordID:   "2",
				RecordName: "www",
			},
			want: `[skipped] exclude example.com record "www" (id 2)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult_Counts(t *testing.T) {
	r := NewResult(false)
	r.AddAction(Action{Type: ActionExclude, Status: StatusSkipped, Domain: "a"})
	r.AddAction(Action{Type: ActionUpdate, Status: StatusSuccess, Domain: "a"})
	r.AddAction(Action{Type: ActionUpdate, Status: StatusSuccess, Domain: "a"})
	r.AddAction(Action{Type: ActionUpdate, Status: StatusFailed, Domain: "a", Error: "boom"})
	r.AddAction(Action{Type: ActionList, Status: StatusFailed, Domain: "b", Error: "boom"})

	if r.UpdatedCount() != 2 {
		t.Errorf("UpdatedCount() = %d, want 2", r.UpdatedCount())
	}
	if r.ExcludedCount() != 1 {
		t.Errorf("ExcludedCount() = %d, want 1", r.ExcludedCount())
	}
	if r.FailedCount() != 2 || !r.HasErrors() {
		t.Errorf("FailedCount() = %d, want 2", r.FailedCount())
	}
	if r.Status() != "partial" {
		t.Errorf("Status() = %q, want partial", r.Status())
	}
}

func TestResult_Status(t *testing.T) {
	ok := NewResult(false)
	ok.AddAction(Action{Type: ActionUpdate, Status: StatusSuccess})
	if ok.Status() != "success" {
		t.Errorf("Status() = %q, want success", ok.Status())
	}

	empty := NewResult(false)
	if empty.Status() != "success" {
		t.Errorf("empty Status() = %q, want success", empty.Status())
	}

	bad := NewResult(false)
	bad.AddAction(Action{Type: ActionList, Status: StatusFailed})
	if bad.Status() != "failed" {
		t.Errorf("Status() = %q, want failed", bad.Status())
	}
}

func TestResult_AddActionMarksDryRun(t *testing.T) {
	r := NewResult(true)
	r.AddAction(Action{Type: ActionUpdate, Status: StatusSuccess})
	if !r.Actions[0].DryRun {
		t.Error("AddAction should mark actions dry-run")
	}
}

func TestResult_Duration(t *testing.T) {
	r := NewResult(false)
	r.StartTime = time.Now().Add(-2 * time.Second)
	r.Complete()

	if d := r.Duration(); d < 2*time.Second || d > 3*time.Second {
		t.Errorf("Duration() = %v, want about 2s", d)
	}
}

func TestResult_Summary(t *testing.T) {
	r := NewResult(true)
	r.Domains = 2
	r.AddAction(Action{Type: ActionUpdate, Status: StatusSuccess, Domain: "a"})
	r.AddAction(Action{Type: ActionList, Status: StatusFailed, Domain: "b", Error: "timeout"})
	r.Complete()

	s := r.Summary()
	for _, want := range []string{"(dry-run)", "Domains: 2", "Records updated: 1", "Failed: 1", "[failed] list b: timeout"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() missing %q:\n%s", want, s)
		}
	}
}

func TestPlural(t *testing.T) {
	tests := map[int]string{0: "", 1: "", 2: "s", 10: "s"}
	for n, want := range tests {
		if got := plural(n); got != want {
			t.Errorf("plural(%d) = %q, want %q", n, got, want)
		}
	}
}
