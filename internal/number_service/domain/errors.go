package domain

import "errors"

var (
	// ErrNotFound indicates an unknown organization or provider reference.
	ErrNotFound = errors.New("resource not found")
	// ErrMissingCredential indicates the credential environment variable is absent.
	ErrMissingCredential = errors.New("credential not configured")
	// ErrProviderUnreachable indicates a network failure or timeout reaching the remote API.
	ErrProviderUnreachable = errors.New("provider unreachable")
	// ErrInvalidCredential indicates the remote API rejected the credential.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrProviderRejected indicates the remote API refused the request itself.
	ErrProviderRejected = errors.New("provider rejected request")
	// ErrMalformedResponse indicates an unexpected remote API payload shape.
	ErrMalformedResponse = errors.New("malformed provider response")
)
