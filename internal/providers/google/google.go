// Package google describes the Google Workspace provider (Gmail, Analytics).
package google

import "github.com/dropDatabas3/hellojohn-connect/internal/providers"

const ProviderName = "google"

// Descriptor returns the Google OAuth metadata.
// access_type=offline + prompt=consent guarantee a refresh token on every grant.
func Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:                    ProviderName,
		DisplayName:           "Google Workspace",
		Category:              providers.CategoryWorkspace,
		AuthorizationEndpoint: "https://accounts.google.com/o/oauth2/v2/auth",
		TokenEndpoint:         "https://oauth2.googleapis.com/token",
		RequiredScopes: []string{
			"openid",
			"email",
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/analytics.readonly",
		},
		ExtraParams: map[string]string{
			"access_type":            "offline",
			"prompt":                 "consent",
			"include_granted_scopes": "true",
		},
		SupportsPKCE: true,
		ProbeURL:     "https://www.googleapis.com/oauth2/v3/userinfo",
	}
}
