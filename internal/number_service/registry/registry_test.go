package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

const testRegistryYAML = `
organizations:
  - name: "IDFC"
    domain: "https://idfc.example.com"
    org_id: "org_idfc"
    workspace_id: "ws_idfc"
    credential_key: "IDFC_TOKEN"
    providers:
      - name: "Sarvam 1M"
        channel_provider: "sarvam"
        connection_id: "conn_sarvam"
      - name: "Axonwise 1M"
        channel_provider: "axonwise"
        connection_id: "conn_axonwise"
  - name: "Meesho"
    domain: "https://meesho.example.com"
    org_id: "org_meesho"
    workspace_id: "ws_meesho"
    credential_key: "MEESHO_TOKEN"
    providers:
      - name: "Tata Tele"
        channel_provider: "tata_tele"
        connection_id: "conn_tata"
`

func writeRegistryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "organizations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	reg, err := Load(writeRegistryFile(t, testRegistryYAML), validator.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"IDFC", "Meesho"}, reg.Organizations())

	org, err := reg.Lookup("IDFC")
	require.NoError(t, err)
	assert.Equal(t, "IDFC_TOKEN", org.CredentialKey)
	require.Len(t, org.Providers, 2)
	assert.Equal(t, "Sarvam 1M", org.Providers[0].Name)
	assert.Equal(t, "Axonwise 1M", org.Providers[1].Name)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	incomplete := `
organizations:
  - name: "Broken"
    domain: "https://broken.example.com"
    org_id: "org_broken"
    providers:
      - name: "P"
        channel_provider: "p"
        connection_id: "c"
`
	_, err := Load(writeRegistryFile(t, incomplete), validator.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestLoad_EmptyProviders(t *testing.T) {
	noProviders := `
organizations:
  - name: "Empty"
    domain: "https://empty.example.com"
    org_id: "org_empty"
    workspace_id: "ws_empty"
    credential_key: "EMPTY_TOKEN"
    providers: []
`
	_, err := Load(writeRegistryFile(t, noProviders), validator.New())
	require.Error(t, err)
}

func TestLoad_DuplicateOrganization(t *testing.T) {
	duplicated := testRegistryYAML + `
  - name: "IDFC"
    domain: "https://idfc2.example.com"
    org_id: "org_idfc2"
    workspace_id: "ws_idfc2"
    credential_key: "IDFC2_TOKEN"
    providers:
      - name: "P"
        channel_provider: "p"
        connection_id: "c"
`
	_, err := Load(writeRegistryFile(t, duplicated), validator.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), validator.New())
	require.Error(t, err)
}

func TestLookup_NotFound(t *testing.T) {
	reg, err := Load(writeRegistryFile(t, testRegistryYAML), validator.New())
	require.NoError(t, err)

	_, err = reg.Lookup("Acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProvider_ScopedToOrganization(t *testing.T) {
	reg, err := Load(writeRegistryFile(t, testRegistryYAML), validator.New())
	require.NoError(t, err)

	org, prov, err := reg.Provider("IDFC", "Sarvam 1M")
	require.NoError(t, err)
	assert.Equal(t, "IDFC", org.Name)
	assert.Equal(t, "conn_sarvam", prov.ConnectionID)

	// A provider of another organization is not visible.
	_, _, err = reg.Provider("Meesho", "Sarvam 1M")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNewFromConfigs_Validates(t *testing.T) {
	_, err := NewFromConfigs(validator.New(), domain.OrganizationConfig{Name: "Only a name"})
	require.Error(t, err)
}
