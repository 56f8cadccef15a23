package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
	"github.com/numberdesk/numberdesk/internal/number_service/registry"
)

// ListOptions narrows a number listing. Zero values mean "no prefix filter"
// and "default page size".
type ListOptions struct {
	Prefix   string
	PageSize int
}

// Client is the provider-facing contract: single synchronous remote calls,
// no retry policy of our own, errors surfaced to the caller.
type Client interface {
	ListNumbers(ctx context.Context, orgName, providerName string, opts ListOptions) ([]domain.PhoneNumberRecord, error)
	CheckAvailability(ctx context.Context, orgName, providerName string, numbers []string) (map[string]bool, error)
	CreateEndpoints(ctx context.Context, orgName, providerName string, numbers []string) ([]domain.CreateResult, error)
}

const defaultPageSize = 100

// HTTPClient talks to an organization's telephony API over HTTP using the
// organization's resolved bearer token.
type HTTPClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	registry   *registry.Registry
	creds      registry.CredentialResolver
	pageSize   int
}

// NewHTTPClient builds a provider client. A nil httpClient gets a sane
// timeout default.
func NewHTTPClient(logger *slog.Logger, reg *registry.Registry, creds registry.CredentialResolver, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		logger:     logger.With("component", "provider_client"),
		httpClient: httpClient,
		registry:   reg,
		creds:      creds,
		pageSize:   defaultPageSize,
	}
}

// target bundles everything needed to address one provider connection.
type target struct {
	org      *domain.OrganizationConfig
	provider *domain.ProviderConfig
	token    string
}

func (c *HTTPClient) resolveTarget(orgName, providerName string) (*target, error) {
	org, prov, err := c.registry.Provider(orgName, providerName)
	if err != nil {
		return nil, err
	}
	token, err := c.creds.Resolve(org.CredentialKey)
	if err != nil {
		return nil, err
	}
	return &target{org: org, provider: prov, token: token}, nil
}

// phoneNumbersURL addresses the channel-scoped free-number listing.
func (t *target) phoneNumbersURL() string {
	return fmt.Sprintf(
		"%s/api/app-authoring/orgs/%s/workspaces/%s/channels/v2v/providers/%s/connections/%s/phone-numbers",
		t.org.Domain, t.org.OrgID, t.org.WorkspaceID, t.provider.ChannelProvider, t.provider.ConnectionID,
	)
}

// endpointsURL addresses the connection-scoped endpoint collection. Some
// providers (e.g. tata_tele) only expose this listing.
func (t *target) endpointsURL() string {
	return fmt.Sprintf(
		"%s/api/app-authoring/orgs/%s/workspaces/%s/connections/%s/endpoints",
		t.org.Domain, t.org.OrgID, t.org.WorkspaceID, t.provider.ConnectionID,
	)
}

func (t *target) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}
