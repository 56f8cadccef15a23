package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

func TestEnvCredentialResolver_Resolve(t *testing.T) {
	t.Setenv("IDFC_TOKEN", "  secret-token  ")

	resolver := NewEnvCredentialResolver()
	token, err := resolver.Resolve("IDFC_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)
}

func TestEnvCredentialResolver_Missing(t *testing.T) {
	t.Setenv("EMPTY_TOKEN", "")

	resolver := NewEnvCredentialResolver()
	_, err := resolver.Resolve("EMPTY_TOKEN")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCredential))
	assert.Contains(t, err.Error(), "EMPTY_TOKEN")
}
