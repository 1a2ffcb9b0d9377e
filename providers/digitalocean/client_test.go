package digitalocean

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-token")

	if client.apiEndpoint != DefaultAPIEndpoint {
		t.Errorf("expected apiEndpoint %s, got %s", DefaultAPIEndpoint, client.apiEndpoint)
	}
	if client.token != "test-token" {
		t.Errorf("expected token test-token, got %s", client.token)
	}
	if client.httpClient == nil {
		t.Error("expected httpClient to be initialized")
	}
	if client.logger == nil {
		t.Error("expected logger to be initialized")
	}
}

func TestClient_WithAPIEndpoint(t *testing.T) {
	client := NewClient("test-token", WithAPIEndpoint("http://custom-endpoint/v2/"))

	if client.apiEndpoint != "http://custom-endpoint/v2" {
		t.Errorf("expected trailing slash trimmed, got %s", client.apiEndpoint)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected Authorization header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"account":{"status":"active"}}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestClient_Ping_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"id":"Unauthorized","message":"Unable to authenticate you."}`)
	}))
	defer server.Close()

	client := NewClient("bad-token", WithAPIEndpoint(server.URL))
	err := client.Ping(context.Background())
	if !provider.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestClient_ListARecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/domains/example.com/records" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "A" {
			t.Errorf("type = %q, want A", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "200" {
			t.Errorf("per_page = %q, want 200", got)
		}
		// Mixed numeric and string ids.
		_, _ = io.WriteString(w, `{"domain_records":[
			{"id":1,"type":"A","name":"@","data":"198.51.100.1","ttl":1800},
			{"id":"2","type":"A","name":"www","data":"198.51.100.1","ttl":300}
		],"links":{},"meta":{"total":2}}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	records, err := client.ListARecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := provider.Records{
		{ID: "1", Type: "A", Name: "@", Data: "198.51.100.1", TTL: 1800},
		{ID: "2", Type: "A", Name: "www", Data: "198.51.100.1", TTL: 300},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestClient_ListARecords_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"domain_records":[]}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	records, err := client.ListARecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestClient_ListARecords_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantAPIErr bool
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"id":"not_found","message":"The resource you were accessing could not be found."}`,
			wantErr:    provider.ErrNotFound,
			wantAPIErr: true,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"id":"too_many_requests","message":"API Rate limit exceeded."}`,
			wantErr:    provider.ErrRateLimited,
			wantAPIErr: true,
		},
		{
			name:       "server error with html body",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantErr:    provider.ErrProviderUnavailable,
			wantAPIErr: true,
		},
		{
			name:   "2xx with garbage body",
			status: http.StatusOK,
			body:   `not json`,
		},
		{
			name:   "2xx without domain_records",
			status: http.StatusOK,
			body:   `{"domain_record":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient("test-token", WithAPIEndpoint(server.URL))
			_, err := client.ListARecords(context.Background(), "example.com")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			var apiErr *provider.APIError
			if got := errors.As(err, &apiErr); got != tt.wantAPIErr {
				t.Errorf("errors.As(APIError) = %v, want %v (err %v)", got, tt.wantAPIErr, err)
			}
		})
	}
}

func TestClient_ListARecords_APIErrorFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"id":"not_found","message":"The resource you were accessing could not be found."}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	_, err := client.ListARecords(context.Background(), "missing.example")

	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 404 || apiErr.ID != "not_found" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
}

func TestClient_UpdateARecord(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/domains/example.com/records/3" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_, _ = io.WriteString(w, `{"domain_record":{"id":3,"type":"A","name":"api","data":"203.0.113.7","ttl":1800}}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	rec, err := client.UpdateARecord(context.Background(), "example.com", "3", "203.0.113.7")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotBody["data"] != "203.0.113.7" || gotBody["type"] != "A" || len(gotBody) != 2 {
		t.Errorf("unexpected request body %v", gotBody)
	}
	want := provider.Record{ID: "3", Type: "A", Name: "api", Data: "203.0.113.7", TTL: 1800}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
}

func TestClient_UpdateARecord_Unprocessable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"id":"unprocessable_entity","message":"Data needs to be a valid IP address."}`)
	}))
	defer server.Close()

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	_, err := client.UpdateARecord(context.Background(), "example.com", "3", "nope")
	if !errors.Is(err, provider.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if !provider.IsPermanent(err) {
		t.Error("expected error to be permanent")
	}
}

func TestClient_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"domain_records":[]}`)
	}))
	defer server.Close()

	counter := metrics.ProviderAPIRequestsTotal.WithLabelValues(ProviderName, "list", "success")
	before := testutil.ToFloat64(counter)

	client := NewClient("test-token", WithAPIEndpoint(server.URL))
	if _, err := client.ListARecords(context.Background(), "example.com"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("list success counter increased by %v, want 1", got)
	}
}

func TestRecordID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: `12345678`, want: "12345678"},
		{input: `"abc-123"`, want: "abc-123"},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id recordID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && string(id) != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, id, tt.want)
			}
		})
	}
}
