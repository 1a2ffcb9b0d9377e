package digitalocean

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gitlab.bluewillows.net/root/doddns/pkg/httputil"
	"gitlab.bluewillows.net/root/doddns/pkg/provider"
)

// ProviderName identifies this provider in logs, errors and metrics.
const ProviderName = "digitalocean"

// Provider implements provider.Provider for DigitalOcean DNS.
type Provider struct {
	client *Client
	logger *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	logger     *slog.Logger
	clientOpts []ClientOption
}

// WithProviderLogger sets a custom logger for the provider and its client.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClientOptions passes options through to the API client.
func WithClientOptions(opts ...ClientOption) ProviderOption {
	return func(o *providerOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// New creates a DigitalOcean provider.
func New(config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := providerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := httputil.NewClient(&httputil.ClientConfig{
		Timeout:   config.Timeout,
		UserAgent: config.UserAgent,
		Logger:    o.logger,
	})

	clientOpts := []ClientOption{
		WithHTTPClient(httpClient),
		WithLogger(o.logger),
		WithAPIEndpoint(config.APIEndpoint),
	}
	clientOpts = append(clientOpts, o.clientOpts...)

	return &Provider{
		client: NewClient(strings.TrimSpace(config.Token), clientOpts...),
		logger: o.logger,
	}, nil
}

// Name returns ProviderName.
func (p *Provider) Name() string {
	return ProviderName
}

// Ping checks connectivity and credentials.
func (p *Provider) Ping(ctx context.Context) error {
	return provider.WrapError(ProviderName, "ping", p.client.Ping(ctx))
}

// ListA returns the A records under domain in API order.
func (p *Provider) ListA(ctx context.Context, domain string) (provider.Records, error) {
	records, err := p.client.ListARecords(ctx, domain)
	if err != nil {
		return nil, provider.WrapError(ProviderName, "list "+domain, err)
	}

	// The type filter is applied server-side; anything else is ignored.
	kept := make(provider.Records, 0, len(records))
	for _, r := range records {
		if !strings.EqualFold(r.Type, provider.RecordTypeA) {
			p.logger.Debug("ignoring non-A record",
				slog.String("domain", domain),
				slog.String("record_id", r.ID),
				slog.String("type", r.Type),
			)
			continue
		}
		kept = append(kept, r)
	}

	p.logger.Debug("listed A records",
		slog.String("domain", domain),
		slog.Int("count", len(kept)),
	)
	return kept, nil
}

// UpdateA points record id under domain at ip.
func (p *Provider) UpdateA(ctx context.Context, domain, id, ip string) (provider.Record, error) {
	rec, err := p.client.UpdateARecord(ctx, domain, id, ip)
	if err != nil {
		return provider.Record{}, provider.WrapError(ProviderName, fmt.Sprintf("update %s record %s", domain, id), err)
	}
	return rec, nil
}

var _ provider.Provider = (*Provider)(nil)
