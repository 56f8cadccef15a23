package domain

import "strings"

// OrganizationConfig is the static configuration for one organization.
// Loaded once at startup; immutable afterwards.
type OrganizationConfig struct {
	Name          string           `mapstructure:"name" yaml:"name" validate:"required"`
	Domain        string           `mapstructure:"domain" yaml:"domain" validate:"required,url"`
	OrgID         string           `mapstructure:"org_id" yaml:"org_id" validate:"required"`
	WorkspaceID   string           `mapstructure:"workspace_id" yaml:"workspace_id" validate:"required"`
	CredentialKey string           `mapstructure:"credential_key" yaml:"credential_key" validate:"required"`
	Providers     []ProviderConfig `mapstructure:"providers" yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderConfig identifies one telephony connection under an organization.
// It has no lifecycle of its own outside its OrganizationConfig.
type ProviderConfig struct {
	Name            string `mapstructure:"name" yaml:"name" validate:"required"`
	ChannelProvider string `mapstructure:"channel_provider" yaml:"channel_provider" validate:"required"`
	ConnectionID    string `mapstructure:"connection_id" yaml:"connection_id" validate:"required"`
}

// PhoneNumberRecord is one row of provider inventory. Created per API
// response, held only in the session cache, never persisted.
type PhoneNumberRecord struct {
	Number    string `json:"number"`
	Prefix    string `json:"prefix"`
	AreaCode  string `json:"area_code"`
	Available bool   `json:"available"`
}

// CreateResult reports the outcome of one endpoint creation attempt.
// Bulk creation returns one CreateResult per input number.
type CreateResult struct {
	Number  string `json:"number"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// NormalizeNumber strips spaces and dashes so formatting differences don't
// break availability lookups.
func NormalizeNumber(number string) string {
	number = strings.TrimSpace(number)
	number = strings.ReplaceAll(number, " ", "")
	return strings.ReplaceAll(number, "-", "")
}

// NewPhoneNumberRecord derives the display fields from the raw number.
func NewPhoneNumberRecord(number string, available bool) PhoneNumberRecord {
	normalized := NormalizeNumber(number)
	return PhoneNumberRecord{
		Number:    normalized,
		Prefix:    NumberPrefix(normalized),
		AreaCode:  NumberAreaCode(normalized),
		Available: available,
	}
}

// NumberPrefix returns the leading 5 characters used for prefix grouping.
func NumberPrefix(number string) string {
	if len(number) < 5 {
		return number
	}
	return number[:5]
}

// NumberAreaCode extracts the area code of an Indian number: the three
// digits following the +91 country code. Other numbers yield "".
func NumberAreaCode(number string) string {
	if strings.HasPrefix(number, "+91") && len(number) >= 6 {
		return number[3:6]
	}
	return ""
}
