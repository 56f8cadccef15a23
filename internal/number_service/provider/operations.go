package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

// ListNumbers fetches the free-number inventory for one provider connection,
// paginating until the remote API is exhausted. An optional prefix filter is
// applied to the flattened result; the remote APIs don't filter server-side.
func (c *HTTPClient) ListNumbers(ctx context.Context, orgName, providerName string, opts ListOptions) ([]domain.PhoneNumberRecord, error) {
	t, err := c.resolveTarget(orgName, providerName)
	if err != nil {
		return nil, err
	}

	limit := opts.PageSize
	if limit <= 0 {
		limit = c.pageSize
	}

	logger := c.logger.With("org", orgName, "provider", providerName)
	numbers, err := c.fetchAllPages(ctx, logger, t, limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.PhoneNumberRecord, 0, len(numbers))
	for _, n := range numbers {
		record := domain.NewPhoneNumberRecord(n, true)
		if opts.Prefix != "" && !strings.HasPrefix(record.Number, opts.Prefix) {
			continue
		}
		records = append(records, record)
	}
	logger.InfoContext(ctx, "Fetched provider number listing", "total", len(numbers), "after_filter", len(records))
	return records, nil
}

// fetchAllPages walks the phone-numbers listing page by page. A 404 on the
// first page switches to the connection-scoped /endpoints listing, which is
// the only inventory surface some providers expose.
func (c *HTTPClient) fetchAllPages(ctx context.Context, logger *slog.Logger, t *target, limit int) ([]string, error) {
	baseURL := t.phoneNumbersURL()
	query := "show_free_phone_numbers=true"

	var all []string
	seen := make(map[string]struct{})
	offset := 0

	for {
		url := fmt.Sprintf("%s?%s&offset=%d&limit=%d", baseURL, query, offset, limit)
		statusCode, body, err := c.get(ctx, t, url)
		if err != nil {
			return nil, err
		}

		if statusCode == http.StatusNotFound && offset == 0 && baseURL == t.phoneNumbersURL() {
			logger.InfoContext(ctx, "Phone-numbers listing not found, falling back to endpoints listing")
			baseURL = t.endpointsURL()
			query = "show_free_endpoints=false"
			continue
		}
		if err := classifyStatus(statusCode, body); err != nil {
			return nil, err
		}

		page, err := decodeListPage(body, limit)
		if err != nil {
			return nil, err
		}
		if len(page.Numbers) == 0 {
			break
		}

		for _, n := range page.Numbers {
			normalized := domain.NormalizeNumber(n)
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			all = append(all, normalized)
		}

		if len(page.Numbers) < limit || !page.HasMore {
			break
		}
		offset += limit
	}
	return all, nil
}

// CheckAvailability fetches the free listing once and reports, for each input
// number, whether it appears there.
func (c *HTTPClient) CheckAvailability(ctx context.Context, orgName, providerName string, numbers []string) (map[string]bool, error) {
	records, err := c.ListNumbers(ctx, orgName, providerName, ListOptions{})
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

type createEndpointRequest struct {
	Endpoints []string `json:"endpoints"`
}

// CreateEndpoints registers each number as an endpoint, one request per
// number so a rejection of one never aborts the rest. The result slice always
// has one entry per input, in input order.
func (c *HTTPClient) CreateEndpoints(ctx context.Context, orgName, providerName string, numbers []string) ([]domain.CreateResult, error) {
	t, err := c.resolveTarget(orgName, providerName)
	if err != nil {
		return nil, err
	}
	logger := c.logger.With("org", orgName, "provider", providerName)

	results := make([]domain.CreateResult, 0, len(numbers))
	for _, n := range numbers {
		normalized := domain.NormalizeNumber(n)
		result := domain.CreateResult{Number: normalized}

		reqBody, err := json.Marshal(createEndpointRequest{Endpoints: []string{normalized}})
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		statusCode, body, err := c.post(ctx, t, t.endpointsURL(), reqBody)
		switch {
		case err != nil:
			result.Error = err.Error()
		case statusCode >= 200 && statusCode < 300:
			result.Created = true
		default:
			result.Error = errorMessage(statusCode, body)
			logger.WarnContext(ctx, "Endpoint creation rejected", "number", normalized, "status_code", statusCode)
		}
		results = append(results, result)
	}

	created := 0
	for _, r := range results {
		if r.Created {
			created++
		}
	}
	logger.InfoContext(ctx, "Endpoint creation batch finished", "requested", len(numbers), "created", created)
	return results, nil
}

func (c *HTTPClient) get(ctx context.Context, t *target, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	t.authorize(req)
	return c.do(req)
}

func (c *HTTPClient) post(ctx context.Context, t *target, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	t.authorize(req)
	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading response body: %v", domain.ErrProviderUnreachable, err)
	}
	return resp.StatusCode, body, nil
}

// classifyStatus maps non-success HTTP statuses onto the domain error kinds,
// keeping the provider's own message in the chain.
func classifyStatus(statusCode int, body []byte) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredential, errorMessage(statusCode, body))
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", domain.ErrProviderUnreachable, errorMessage(statusCode, body))
	default:
		return fmt.Errorf("%w (status %d): %s", domain.ErrProviderRejected, statusCode, errorMessage(statusCode, body))
	}
}
