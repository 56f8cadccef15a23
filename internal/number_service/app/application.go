package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
	"github.com/numberdesk/numberdesk/internal/number_service/provider"
	"github.com/numberdesk/numberdesk/internal/number_service/registry"
)

// Application coordinates the registry, provider client and per-session
// caches behind the user-facing operations. Each operation is one or more
// synchronous remote calls; failures surface to the caller, never kill the
// process.
type Application struct {
	registry        *registry.Registry
	providerClient  provider.Client
	sessions        *SessionManager
	logger          *slog.Logger
	defaultPageSize int
}

// NewApplication wires the application service.
func NewApplication(reg *registry.Registry, client provider.Client, sessions *SessionManager, logger *slog.Logger, defaultPageSize int) *Application {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	return &Application{
		registry:        reg,
		providerClient:  client,
		sessions:        sessions,
		logger:          logger.With("component", "number_app"),
		defaultPageSize: defaultPageSize,
	}
}

// Sessions exposes the session manager to the transport layer.
func (a *Application) Sessions() *SessionManager { return a.sessions }

// Organizations lists all registered organization names.
func (a *Application) Organizations() []string {
	return a.registry.Organizations()
}

// Providers lists the providers configured for one organization.
func (a *Application) Providers(orgName string) ([]domain.ProviderConfig, error) {
	org, err := a.registry.Lookup(orgName)
	if err != nil {
		return nil, err
	}
	return org.Providers, nil
}

// SelectOrganization switches the session to another organization. Cached
// listings of the previously selected organization are invalidated; entries
// of other organizations (none exist within one session by construction, but
// the contract is per-org) stay untouched.
func (a *Application) SelectOrganization(ctx context.Context, s *Session, orgName string) error {
	if _, err := a.registry.Lookup(orgName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.organization == orgName {
		return nil
	}
	if s.organization != "" {
		s.cache.Clear(s.organization)
	}
	s.organization = orgName
	s.provider = ""
	a.logger.InfoContext(ctx, "Session switched organization", "session_id", s.ID, "org", orgName)
	return nil
}

// SelectProvider selects a provider within the session's organization.
// Providers of other organizations are not reachable from here.
func (a *Application) SelectProvider(ctx context.Context, s *Session, providerName string) error {
	org, _ := s.Selection()
	if org == "" {
		return fmt.Errorf("no organization selected: %w", domain.ErrNotFound)
	}
	if _, _, err := a.registry.Provider(org, providerName); err != nil {
		return err
	}

	s.mu.Lock()
	s.provider = providerName
	s.mu.Unlock()
	a.logger.InfoContext(ctx, "Session selected provider", "session_id", s.ID, "org", org, "provider", providerName)
	return nil
}

// selection returns the session's org/provider pair or fails when either is
// missing.
func (a *Application) selection(s *Session) (string, string, error) {
	org, prov := s.Selection()
	if org == "" || prov == "" {
		return "", "", fmt.Errorf("organization and provider must be selected: %w", domain.ErrNotFound)
	}
	return org, prov, nil
}

// RefreshNumbers fetches the provider's current listing and replaces the
// session's cached entry for that (org, provider).
func (a *Application) RefreshNumbers(ctx context.Context, s *Session) ([]domain.PhoneNumberRecord, time.Time, error) {
	org, prov, err := a.selection(s)
	if err != nil {
		return nil, time.Time{}, err
	}

	providerRequestsTotal.WithLabelValues("list_numbers").Inc()
	records, err := a.providerClient.ListNumbers(ctx, org, prov, provider.ListOptions{PageSize: a.defaultPageSize})
	if err != nil {
		providerRequestFailuresTotal.WithLabelValues("list_numbers").Inc()
		a.logger.ErrorContext(ctx, "Listing refresh failed", "session_id", s.ID, "org", org, "provider", prov, "error", err)
		return nil, time.Time{}, err
	}

	s.cache.Put(org, prov, records)
	fetched, at, _ := s.cache.Get(org, prov)
	a.logger.InfoContext(ctx, "Listing refreshed into session cache", "session_id", s.ID, "org", org, "provider", prov, "count", len(fetched))
	return fetched, at, nil
}

// cachedRecords returns the session's cached listing, fetching it first when
// the cache has no entry yet.
func (a *Application) cachedRecords(ctx context.Context, s *Session) ([]domain.PhoneNumberRecord, time.Time, error) {
	org, prov, err := a.selection(s)
	if err != nil {
		return nil, time.Time{}, err
	}
	if records, at, ok := s.cache.Get(org, prov); ok {
		return records, at, nil
	}
	return a.RefreshNumbers(ctx, s)
}

// Listing is a browsable page of cached records.
type Listing struct {
	Records   []domain.PhoneNumberRecord
	Total     int
	FetchedAt time.Time
}

// BrowseNumbers filters the cached listing by prefix and truncates it to
// limit records. Total counts the matches before truncation.
func (a *Application) BrowseNumbers(ctx context.Context, s *Session, prefix string, limit int) (*Listing, error) {
	records, at, err := a.cachedRecords(ctx, s)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = a.defaultPageSize
	}

	var matched []domain.PhoneNumberRecord
	for _, r := range records {
		if prefix == "" || strings.HasPrefix(r.Number, prefix) {
			matched = append(matched, r)
		}
	}

	page := matched
	if len(page) > limit {
		page = page[:limit]
	}
	return &Listing{Records: page, Total: len(matched), FetchedAt: at}, nil
}

// CheckNumbers reports availability for each input number against the cached
// listing; refresh forces a fresh fetch first.
func (a *Application) CheckNumbers(ctx context.Context, s *Session, numbers []string, refresh bool) (map[string]bool, error) {
	var (
		records []domain.PhoneNumberRecord
		err     error
	)
	if refresh {
		records, _, err = a.RefreshNumbers(ctx, s)
	} else {
		records, _, err = a.cachedRecords(ctx, s)
	}
	if err != nil {
		return nil, err
	}

	free := make(map[string]struct{}, len(records))
	for _, r := range records {
		free[r.Number] = struct{}{}
	}

	result := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		_, ok := free[domain.NormalizeNumber(n)]
		result[n] = ok
	}
	return result, nil
}

// CreateEndpoints registers numbers as endpoints, optionally pre-checking
// availability against the cached listing: numbers missing from the listing
// are reported failed without calling the remote API. One result per input,
// in input order; partial failure never aborts the rest.
func (a *Application) CreateEndpoints(ctx context.Context, s *Session, numbers []string, precheck bool) ([]domain.CreateResult, error) {
	org, prov, err := a.selection(s)
	if err != nil {
		return nil, err
	}

	toCreate := numbers
	precheckFailed := make(map[string]bool)
	if precheck {
		availability, err := a.CheckNumbers(ctx, s, numbers, false)
		if err != nil {
			return nil, err
		}
		toCreate = nil
		for _, n := range numbers {
			if availability[n] {
				toCreate = append(toCreate, n)
			} else {
				precheckFailed[domain.NormalizeNumber(n)] = true
			}
		}
	}

	var created []domain.CreateResult
	if len(toCreate) > 0 {
		providerRequestsTotal.WithLabelValues("create_endpoints").Inc()
		created, err = a.providerClient.CreateEndpoints(ctx, org, prov, toCreate)
		if err != nil {
			providerRequestFailuresTotal.WithLabelValues("create_endpoints").Inc()
			return nil, err
		}
	}

	createdByNumber := make(map[string]domain.CreateResult, len(created))
	for _, r := range created {
		createdByNumber[r.Number] = r
	}

	results := make([]domain.CreateResult, 0, len(numbers))
	for _, n := range numbers {
		normalized := domain.NormalizeNumber(n)
		if precheckFailed[normalized] {
			results = append(results, domain.CreateResult{
				Number: normalized,
				Error:  "number is not available in the current listing",
			})
			continue
		}
		if r, ok := createdByNumber[normalized]; ok {
			results = append(results, r)
			continue
		}
		results = append(results, domain.CreateResult{Number: normalized, Error: "no result returned for number"})
	}
	return results, nil
}

// EndSession tears the session down, discarding all cached data.
func (a *Application) EndSession(ctx context.Context, s *Session) {
	a.sessions.End(s.ID)
	a.logger.InfoContext(ctx, "Session ended", "session_id", s.ID)
}
