// Package microsoft describes the Microsoft 365 provider (Outlook mail, profile).
package microsoft

import "github.com/dropDatabas3/hellojohn-connect/internal/providers"

const ProviderName = "microsoft"

// Descriptor returns the Microsoft identity platform metadata.
// offline_access is the scope that makes Azure AD issue a refresh token.
func Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:                    ProviderName,
		DisplayName:           "Microsoft 365",
		Category:              providers.CategoryEmail,
		AuthorizationEndpoint: "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		TokenEndpoint:         "https://login.microsoftonline.com/common/oauth2/v2.0/token",
		RequiredScopes:        []string{"offline_access", "User.Read", "Mail.Read"},
		ExtraParams: map[string]string{
			"prompt":        "consent",
			"response_mode": "query",
		},
		SupportsPKCE: true,
		ProbeURL:     "https://graph.microsoft.com/v1.0/me",
	}
}
