package http

import "time"

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session token issued at login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	SessionID   string `json:"session_id"`
	ExpiresAt   string `json:"expires_at"`
}

// SelectOrganizationRequest switches the session's organization.
type SelectOrganizationRequest struct {
	Organization string `json:"organization" validate:"required"`
}

// SelectProviderRequest selects a provider within the session's organization.
type SelectProviderRequest struct {
	Provider string `json:"provider" validate:"required"`
}

// ProviderDTO is one provider row of an organization.
type ProviderDTO struct {
	Name            string `json:"name"`
	ChannelProvider string `json:"channel_provider"`
	ConnectionID    string `json:"connection_id"`
}

// CheckNumbersRequest asks for availability of one or more numbers.
type CheckNumbersRequest struct {
	Numbers []string `json:"numbers" validate:"required,min=1,dive,required"`
	Refresh bool     `json:"refresh"`
}

// CheckNumbersResponse maps each requested number to its availability.
type CheckNumbersResponse struct {
	Results map[string]bool `json:"results"`
}

// CreateEndpointsRequest registers numbers as endpoints.
type CreateEndpointsRequest struct {
	Numbers  []string `json:"numbers" validate:"required,min=1,dive,required"`
	Precheck bool     `json:"precheck"`
}

// RefreshResponse reports the outcome of a listing refresh.
type RefreshResponse struct {
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GenericErrorResponse is the JSON error envelope.
type GenericErrorResponse struct {
	Error string `json:"error"`
}
