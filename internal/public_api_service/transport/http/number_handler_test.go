package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numberdesk/numberdesk/internal/number_service/app"
	"github.com/numberdesk/numberdesk/internal/number_service/domain"
	"github.com/numberdesk/numberdesk/internal/number_service/provider"
	"github.com/numberdesk/numberdesk/internal/number_service/registry"
	"github.com/numberdesk/numberdesk/internal/public_api_service/middleware"
	httptransport "github.com/numberdesk/numberdesk/internal/public_api_service/transport/http"
)

// stubProviderClient implements provider.Client with function fields.
type stubProviderClient struct {
	ListNumbersFunc     func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error)
	CreateEndpointsFunc func(ctx context.Context, orgName, providerName string, numbers []string) ([]domain.CreateResult, error)
}

func (s *stubProviderClient) ListNumbers(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
	if s.ListNumbersFunc != nil {
		return s.ListNumbersFunc(ctx, orgName, providerName, opts)
	}
	return nil, nil
}

func (s *stubProviderClient) CheckAvailability(ctx context.Context, orgName, providerName string, numbers []string) (map[string]bool, error) {
	return nil, nil
}

func (s *stubProviderClient) CreateEndpoints(ctx context.Context, orgName, providerName string, numbers []string) ([]domain.CreateResult, error) {
	if s.CreateEndpointsFunc != nil {
		return s.CreateEndpointsFunc(ctx, orgName, providerName, numbers)
	}
	return nil, nil
}

type numberTestEnv struct {
	server  *httptest.Server
	app     *app.Application
	session *app.Session
}

func newNumberTestEnv(t *testing.T, client provider.Client) *numberTestEnv {
	t.Helper()

	reg, err := registry.NewFromConfigs(validator.New(), domain.OrganizationConfig{
		Name:          "IDFC",
		Domain:        "https://idfc.example.com",
		OrgID:         "org_idfc",
		WorkspaceID:   "ws_idfc",
		CredentialKey: "IDFC_TOKEN",
		Providers: []domain.ProviderConfig{
			{Name: "Sarvam 1M", ChannelProvider: "sarvam", ConnectionID: "conn_sarvam"},
			{Name: "Axonwise 1M", ChannelProvider: "axonwise", ConnectionID: "conn_axonwise"},
		},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := app.NewSessionManager()
	application := app.NewApplication(reg, client, sessions, logger, 50)
	session := sessions.Create()

	handler := httptransport.NewNumberHandler(application, logger, validator.New())
	router := chi.NewRouter()
	// Inject the session the way AuthMiddleware would.
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &numberTestEnv{server: server, app: application, session: session}
}

func (e *numberTestEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *numberTestEnv) selectTarget(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPut, "/session/organization", httptransport.SelectOrganizationRequest{Organization: "IDFC"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodPut, "/session/provider", httptransport.SelectProviderRequest{Provider: "Sarvam 1M"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func availableRecords(numbers ...string) []domain.PhoneNumberRecord {
	out := make([]domain.PhoneNumberRecord, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, domain.NewPhoneNumberRecord(n, true))
	}
	return out
}

func TestNumberHandler_ListOrganizations(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})

	resp := env.do(t, http.MethodGet, "/organizations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"IDFC"}, body["organizations"])
}

func TestNumberHandler_ListProviders(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})

	resp := env.do(t, http.MethodGet, "/organizations/IDFC/providers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string][]httptransport.ProviderDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body["providers"], 2)
	assert.Equal(t, "Sarvam 1M", body["providers"][0].Name)
	assert.Equal(t, "Axonwise 1M", body["providers"][1].Name)
}

func TestNumberHandler_ListProviders_UnknownOrg(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})
	resp := env.do(t, http.MethodGet, "/organizations/Acme/providers", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNumberHandler_SelectOrganization_Unknown(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})
	resp := env.do(t, http.MethodPut, "/session/organization", httptransport.SelectOrganizationRequest{Organization: "Acme"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNumberHandler_RefreshAndBrowse(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return availableRecords("+918012345678", "+918012345679", "+912212345678"), nil
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/numbers/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refresh httptransport.RefreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refresh))
	assert.Equal(t, 3, refresh.Count)

	resp = env.do(t, http.MethodGet, "/numbers?prefix=%2B9180&limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Numbers []domain.PhoneNumberRecord `json:"numbers"`
		Total   int                        `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, 2, listing.Total)
	require.Len(t, listing.Numbers, 1)
}

func TestNumberHandler_Browse_BadLimit(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})
	env.selectTarget(t)

	resp := env.do(t, http.MethodGet, "/numbers?limit=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNumberHandler_Refresh_NoSelection(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})
	resp := env.do(t, http.MethodPost, "/numbers/refresh", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNumberHandler_Refresh_ProviderUnreachable(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return nil, domain.ErrProviderUnreachable
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/numbers/refresh", nil)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestNumberHandler_CheckNumbers(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return availableRecords("+10000000002"), nil
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/numbers/check", httptransport.CheckNumbersRequest{
		Numbers: []string{"+10000000001", "+10000000002"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httptransport.CheckNumbersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]bool{
		"+10000000001": false,
		"+10000000002": true,
	}, body.Results)
}

func TestNumberHandler_CheckNumbers_EmptyList(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/numbers/check", httptransport.CheckNumbersRequest{Numbers: []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNumberHandler_CreateEndpoints(t *testing.T) {
	stub := &stubProviderClient{
		CreateEndpointsFunc: func(ctx context.Context, orgName, providerName string, numbers []string) ([]domain.CreateResult, error) {
			results := make([]domain.CreateResult, 0, len(numbers))
			for _, n := range numbers {
				if n == "+10000000001" {
					results = append(results, domain.CreateResult{Number: n, Error: "number already taken"})
					continue
				}
				results = append(results, domain.CreateResult{Number: n, Created: true})
			}
			return results, nil
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/endpoints", httptransport.CreateEndpointsRequest{
		Numbers: []string{"+10000000001", "+10000000002"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []domain.CreateResult `json:"results"`
		Created int                   `json:"created"`
		Failed  int                   `json:"failed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Created)
	assert.Equal(t, 1, body.Failed)
	require.Len(t, body.Results, 2)
	assert.Contains(t, body.Results[0].Error, "already taken")
}

func TestNumberHandler_ExportCSV(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return availableRecords("+918012345678"), nil
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodGet, "/numbers/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "phone_number,prefix,area_code,available")
	assert.Contains(t, string(raw), "+918012345678")
}

func TestNumberHandler_ExportCSV_NoSelection(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})

	resp := env.do(t, http.MethodGet, "/numbers/export", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a failed export must not look like an empty download")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body httptransport.GenericErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)
}

func TestNumberHandler_ExportCSV_ProviderFailure(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return nil, domain.ErrProviderUnreachable
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodGet, "/numbers/export", nil)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestNumberHandler_Refresh_ProviderRejected(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return nil, fmt.Errorf("%w (status 400): bad connection id", domain.ErrProviderRejected)
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodPost, "/numbers/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body httptransport.GenericErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "bad connection id")
}

func TestNumberHandler_Stats(t *testing.T) {
	stub := &stubProviderClient{
		ListNumbersFunc: func(ctx context.Context, orgName, providerName string, opts provider.ListOptions) ([]domain.PhoneNumberRecord, error) {
			return availableRecords("+918012345678", "+918012345679"), nil
		},
	}
	env := newNumberTestEnv(t, stub)
	env.selectTarget(t)

	resp := env.do(t, http.MethodGet, "/numbers/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats app.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.UniquePrefixes)
}

func TestNumberHandler_EndSession(t *testing.T) {
	env := newNumberTestEnv(t, &stubProviderClient{})

	resp := env.do(t, http.MethodDelete, "/session", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err := env.app.Sessions().Get(env.session.ID)
	assert.Error(t, err)
}
