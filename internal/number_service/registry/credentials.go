package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

// CredentialResolver resolves an organization's credential key (e.g.
// "IDFC_TOKEN") to a secret value. Values come from the process environment,
// established once at startup, and are never logged.
type CredentialResolver interface {
	Resolve(credentialKey string) (string, error)
}

// EnvCredentialResolver reads credentials from environment variables.
type EnvCredentialResolver struct{}

// NewEnvCredentialResolver returns a resolver backed by the process environment.
func NewEnvCredentialResolver() *EnvCredentialResolver {
	return &EnvCredentialResolver{}
}

// Resolve returns the secret for credentialKey.
func (r *EnvCredentialResolver) Resolve(credentialKey string) (string, error) {
	value := strings.TrimSpace(os.Getenv(credentialKey))
	if value == "" {
		return "", fmt.Errorf("environment variable %s: %w", credentialKey, domain.ErrMissingCredential)
	}
	return value, nil
}
