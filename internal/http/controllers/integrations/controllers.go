// Package integrations contiene los controllers de /v2/integrations.
package integrations

import (
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

// ProviderLister lista los providers habilitados. *providers.Registry lo implementa.
type ProviderLister interface {
	List() []providers.Provider
}

// Controllers agrupa todos los controllers del dominio integrations.
type Controllers struct {
	Providers    *ProvidersController
	Integrations *IntegrationsController
}

// NewControllers crea el agregador de controllers integrations.
func NewControllers(svc integrations.Service, providers ProviderLister) *Controllers {
	return &Controllers{
		Providers:    NewProvidersController(providers, svc),
		Integrations: NewIntegrationsController(svc),
	}
}
