package resolver

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr bool
	}{
		{name: "empty defaults to direct", input: "", want: ModeDirect},
		{name: "direct", input: "direct", want: ModeDirect},
		{name: "delegate uppercase", input: "DELEGATE", want: ModeDelegate},
		{name: "static with whitespace", input: "  static ", want: ModeStatic},
		{name: "invalid", input: "dyndns", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMode_IsValid(t *testing.T) {
	for _, m := range ValidModes {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false", m)
		}
	}
	if Mode("bogus").IsValid() {
		t.Error("bogus mode reported valid")
	}
}
