// Package providers defines the third-party services a user can connect.
//
// Each provider is a static strategy entry (authorization endpoint, required
// scopes, extra authorization parameters) living in its own sub-package. The
// deployment binds its OAuth client credentials at startup through the Registry.
// The orchestrator never branches on provider names: everything provider-specific
// is data in this table.
package providers

import "errors"

// Category groups providers for the integrations overview.
type Category string

const (
	CategoryCRM       Category = "crm"
	CategoryEmail     Category = "email"
	CategoryAnalytics Category = "analytics"
	CategoryWorkspace Category = "workspace"
)

// ErrUnsupportedProvider is returned for provider ids that are not registered.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Descriptor is the static, deployment-independent metadata of a provider.
type Descriptor struct {
	ID                    string
	DisplayName           string
	Category              Category
	AuthorizationEndpoint string
	TokenEndpoint         string
	RequiredScopes        []string

	// ExtraParams are appended to the authorization URL as-is
	// (e.g. access_type=offline so a refresh token is issued).
	ExtraParams map[string]string

	// SupportsPKCE adds code_challenge/code_challenge_method=S256.
	SupportsPKCE bool

	// ProbeURL is a cheap authenticated GET used by connection tests.
	ProbeURL string
	// ProbeAuthScheme defaults to "Bearer".
	ProbeAuthScheme string
}

// Credentials are the deployment's OAuth client settings for one provider.
type Credentials struct {
	ClientID    string
	RedirectURI string
}

// Provider is a Descriptor bound to deployment credentials.
type Provider struct {
	Descriptor
	Credentials
}

// Scopes returns a copy of the required scopes.
func (p Provider) Scopes() []string {
	out := make([]string, len(p.RequiredScopes))
	copy(out, p.RequiredScopes)
	return out
}

// AuthScheme returns the Authorization scheme used against ProbeURL.
func (p Provider) AuthScheme() string {
	if p.ProbeAuthScheme == "" {
		return "Bearer"
	}
	return p.ProbeAuthScheme
}
