package registry

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

// Registry is the static organization table. Read-only after Load; adding an
// organization means adding an entry to the registry file, not a runtime call.
type Registry struct {
	orgs map[string]*domain.OrganizationConfig
}

type registryFile struct {
	Organizations []domain.OrganizationConfig `mapstructure:"organizations"`
}

// Load reads and validates the organization registry from a YAML file.
// Any missing required field fails the load; a half-configured registry is
// worse than no registry.
func Load(path string, validate *validator.Validate) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read organization registry %s: %w", path, err)
	}

	var file registryFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse organization registry %s: %w", path, err)
	}

	if len(file.Organizations) == 0 {
		return nil, fmt.Errorf("organization registry %s contains no organizations", path)
	}

	orgs := make(map[string]*domain.OrganizationConfig, len(file.Organizations))
	for i := range file.Organizations {
		org := file.Organizations[i]
		if err := validate.Struct(org); err != nil {
			return nil, fmt.Errorf("invalid organization entry %q: %w", org.Name, err)
		}
		if _, exists := orgs[org.Name]; exists {
			return nil, fmt.Errorf("duplicate organization entry %q", org.Name)
		}
		orgs[org.Name] = &org
	}

	return &Registry{orgs: orgs}, nil
}

// NewFromConfigs builds a registry from in-memory entries. Used by tests and
// embedded setups; applies the same validation as Load.
func NewFromConfigs(validate *validator.Validate, configs ...domain.OrganizationConfig) (*Registry, error) {
	orgs := make(map[string]*domain.OrganizationConfig, len(configs))
	for i := range configs {
		org := configs[i]
		if err := validate.Struct(org); err != nil {
			return nil, fmt.Errorf("invalid organization entry %q: %w", org.Name, err)
		}
		if _, exists := orgs[org.Name]; exists {
			return nil, fmt.Errorf("duplicate organization entry %q", org.Name)
		}
		orgs[org.Name] = &org
	}
	return &Registry{orgs: orgs}, nil
}

// Lookup returns the configuration for an organization name.
func (r *Registry) Lookup(name string) (*domain.OrganizationConfig, error) {
	org, ok := r.orgs[name]
	if !ok {
		return nil, fmt.Errorf("organization %q: %w", name, domain.ErrNotFound)
	}
	return org, nil
}

// Provider resolves a provider by name within a single organization.
// Providers belong exclusively to their organization; there is no
// cross-organization lookup.
func (r *Registry) Provider(orgName, providerName string) (*domain.OrganizationConfig, *domain.ProviderConfig, error) {
	org, err := r.Lookup(orgName)
	if err != nil {
		return nil, nil, err
	}
	for i := range org.Providers {
		if org.Providers[i].Name == providerName {
			return org, &org.Providers[i], nil
		}
	}
	return nil, nil, fmt.Errorf("provider %q in organization %q: %w", providerName, orgName, domain.ErrNotFound)
}

// Organizations returns all organization names, sorted.
func (r *Registry) Organizations() []string {
	names := make([]string, 0, len(r.orgs))
	for name := range r.orgs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
