// Package hubspot describes the HubSpot CRM provider.
package hubspot

import "github.com/dropDatabas3/hellojohn-connect/internal/providers"

const ProviderName = "hubspot"

// Descriptor returns the HubSpot OAuth metadata.
func Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:                    ProviderName,
		DisplayName:           "HubSpot",
		Category:              providers.CategoryCRM,
		AuthorizationEndpoint: "https://app.hubspot.com/oauth/authorize",
		TokenEndpoint:         "https://api.hubapi.com/oauth/v1/token",
		RequiredScopes: []string{
			"oauth",
			"crm.objects.contacts.read",
			"crm.objects.contacts.write",
			"crm.objects.companies.read",
		},
		ProbeURL: "https://api.hubapi.com/account-info/v3/details",
	}
}
