// Package salesforce describes the Salesforce CRM provider.
package salesforce

import "github.com/dropDatabas3/hellojohn-connect/internal/providers"

const ProviderName = "salesforce"

// Descriptor returns the Salesforce OAuth metadata.
// refresh_token must be requested as a scope for Salesforce to issue one.
func Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:                    ProviderName,
		DisplayName:           "Salesforce",
		Category:              providers.CategoryCRM,
		AuthorizationEndpoint: "https://login.salesforce.com/services/oauth2/authorize",
		TokenEndpoint:         "https://login.salesforce.com/services/oauth2/token",
		RequiredScopes:        []string{"api", "refresh_token"},
		ExtraParams:           map[string]string{"prompt": "consent"},
		SupportsPKCE:          true,
		ProbeURL:              "https://login.salesforce.com/services/oauth2/userinfo",
	}
}
