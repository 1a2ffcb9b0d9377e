// Package digitalocean implements the doddns provider interface for
// DigitalOcean DNS.
package digitalocean

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/doddns/internal/metrics"
	"gitlab.bluewillows.net/root/doddns/pkg/httputil"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

const (
	// DefaultAPIEndpoint is the base URL for the DigitalOcean API v2.
	DefaultAPIEndpoint = "https://api.digitalocean.com/v2"

	// PageSize is the number of records requested per list call. Only the
	// first page is read.
	PageSize = 200

	// maxErrorBody limits how much of an unparseable error body is echoed.
	maxErrorBody = 256
)

// recordID accepts the record id as either a JSON number or a JSON string.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

// domainRecord is a record as returned by the API.
type domainRecord struct {
	ID   recordID `json:"id"`
	Type string   `json:"type"`
	Name string   `json:"name"`
	Data string   `json:"data"`
	TTL  int      `json:"ttl"`
}

func (r domainRecord) toRecord() provider.Record {
	return provider.Record{
		ID:   string(r.ID),
		Name: r.Name,
		Type: r.Type,
		Data: r.Data,
		TTL:  r.TTL,
	}
}

// domainRecordsResponse wraps the records list response.
type domainRecordsResponse struct {
	DomainRecords []domainRecord `json:"domain_records"`
}

// domainRecordResponse wraps a single-record response.
type domainRecordResponse struct {
	DomainRecord domainRecord `json:"domain_record"`
}

// updateRecordRequest is the PATCH body for an A record.
type updateRecordRequest struct {
	Data string `json:"data"`
	Type string `json:"type"`
}

// errorResponse is the body of a non-2xx response.
type errorResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Client is a DigitalOcean DNS API client.
type Client struct {
	apiEndpoint string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAPIEndpoint sets a custom API endpoint (useful for testing).
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.apiEndpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// NewClient creates a new DigitalOcean API client.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		apiEndpoint: DefaultAPIEndpoint,
		token:       token,
		httpClient:  httputil.NewClient(nil),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest performs an HTTP request against the API and decodes a 2xx JSON
// body into out (if out is non-nil). Non-2xx responses become *provider.APIError.
func (c *Client) doRequest(ctx context.Context, operation, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ProviderAPIRequestsTotal.WithLabelValues(ProviderName, operation, status).Inc()
		metrics.ProviderAPIDuration.WithLabelValues(ProviderName, operation).Observe(time.Since(start).Seconds())
	}()

	reqURL := c.apiEndpoint + path

	c.logger.Debug("making API request",
		slog.String("method", method),
		slog.String("path", path),
	)

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

func parseAPIError(status int, body []byte) error {
	apiErr := &provider.APIError{StatusCode: status}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && (er.ID != "" || er.Message != "") {
		apiErr.ID = er.ID
		apiErr.Message = er.Message
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	apiErr.Message = msg
	return apiErr
}

// Ping checks connectivity and credentials using the lightweight /account endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doRequest(ctx, "ping", http.MethodGet, "/account", nil, nil); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// ListARecords returns the first page of A records under domain.
func (c *Client) ListARecords(ctx context.Context, domain string) (provider.Records, error) {
	q := url.Values{}
	q.Set("type", provider.RecordTypeA)
	q.Set("per_page", strconv.Itoa(PageSize))
	path := fmt.Sprintf("/domains/%s/records?%s", url.PathEscape(domain), q.Encode())

	var resp domainRecordsResponse
	if err := c.doRequest(ctx, "list", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.DomainRecords == nil {
		return nil, errors.New("response has no domain_records field")
	}

	records := make(provider.Records, 0, len(resp.DomainRecords))
	for _, r := range resp.DomainRecords {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// UpdateARecord sets the data of record id under domain to ip.
func (c *Client) UpdateARecord(ctx context.Context, domain, id, ip string) (provider.Record, error) {
	path := fmt.Sprintf("/domains/%s/records/%s", url.PathEscape(domain), url.PathEscape(id))
	body := updateRecordRequest{Data: ip, Type: provider.RecordTypeA}

	var resp domainRecordResponse
	if err := c.doRequest(ctx, "update", http.MethodPatch, path, body, &resp); err != nil {
		return provider.Record{}, err
	}
	return resp.DomainRecord.toRecord(), nil
}
