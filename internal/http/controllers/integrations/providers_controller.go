package integrations

import (
	"net/http"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/integrations"
	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// ProvidersController lista los providers conectables.
type ProvidersController struct {
	providers ProviderLister
	service   integrations.Service
}

// NewProvidersController crea un ProvidersController.
func NewProvidersController(providers ProviderLister, service integrations.Service) *ProvidersController {
	return &ProvidersController{providers: providers, service: service}
}

// List maneja GET /v2/integrations/providers, marcando los ya conectados por el usuario.
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProvidersController.List"))

	records, err := c.service.ListForUser(ctx, mw.GetIdentity(ctx).UserIDs()...)
	if err != nil {
		log.Error("list integrations failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
		return
	}
	connected := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Status == integrations.StatusConnected {
			connected[rec.Provider] = true
		}
	}

	list := c.providers.List()
	resp := dto.ProvidersResponse{Providers: make([]dto.ProviderItem, 0, len(list))}
	for _, p := range list {
		resp.Providers = append(resp.Providers, dto.ProviderItem{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			Category:     string(p.Category),
			Scopes:       p.Scopes(),
			SupportsTest: p.ProbeURL != "",
			Connected:    connected[p.ID],
		})
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
