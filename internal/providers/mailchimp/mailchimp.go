// Package mailchimp describes the Mailchimp email marketing provider.
package mailchimp

import "github.com/dropDatabas3/hellojohn-connect/internal/providers"

const ProviderName = "mailchimp"

// Descriptor returns the Mailchimp OAuth metadata.
// Mailchimp has no scopes and its tokens do not expire, so no extras are needed.
// The metadata endpoint expects "OAuth <token>" instead of a bearer token.
func Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:                    ProviderName,
		DisplayName:           "Mailchimp",
		Category:              providers.CategoryEmail,
		AuthorizationEndpoint: "https://login.mailchimp.com/oauth2/authorize",
		TokenEndpoint:         "https://login.mailchimp.com/oauth2/token",
		ProbeURL:              "https://login.mailchimp.com/oauth2/metadata",
		ProbeAuthScheme:       "OAuth",
	}
}
