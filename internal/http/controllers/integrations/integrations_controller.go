package integrations

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/integrations"
	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

// IntegrationsController gestiona las integraciones del usuario de la sesión.
type IntegrationsController struct {
	service integrations.Service
}

// NewIntegrationsController crea un IntegrationsController.
func NewIntegrationsController(service integrations.Service) *IntegrationsController {
	return &IntegrationsController{service: service}
}

// List maneja GET /v2/integrations
func (c *IntegrationsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntegrationsController.List"))

	records, err := c.service.ListForUser(ctx, mw.GetIdentity(ctx).UserIDs()...)
	if err != nil {
		log.Error("list integrations failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	resp := dto.ListResponse{Integrations: make([]dto.IntegrationItem, 0, len(records))}
	for i := range records {
		resp.Integrations = append(resp.Integrations, toItem(&records[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Disconnect maneja DELETE /v2/integrations/{id}
func (c *IntegrationsController) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntegrationsController.Disconnect"))

	rec, ok := c.owned(w, r)
	if !ok {
		return
	}
	if err := c.service.Disconnect(ctx, rec.ID); err != nil {
		log.Error("disconnect failed", logger.IntegrationID(rec.ID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync maneja POST /v2/integrations/{id}/sync
func (c *IntegrationsController) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntegrationsController.Sync"))

	rec, ok := c.owned(w, r)
	if !ok {
		return
	}
	res, err := c.service.TriggerSync(ctx, rec.ID)
	if err != nil {
		log.Warn("sync failed", logger.IntegrationID(rec.ID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Test maneja POST /v2/integrations/test
func (c *IntegrationsController) Test(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IntegrationsController.Test"))

	var req dto.TestRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Provider) == "" || strings.TrimSpace(req.AccessToken) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("provider and accessToken are required"))
		return
	}

	res, err := c.service.TestConnection(ctx, req.Provider, req.AccessToken)
	if err != nil {
		log.Info("connection test rejected", logger.Provider(req.Provider), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// owned carga la integración del path y exige que pertenezca a la sesión.
// Una integración ajena responde 404 igual que una inexistente.
func (c *IntegrationsController) owned(w http.ResponseWriter, r *http.Request) (*integrations.Record, bool) {
	ctx := r.Context()
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("id"))
		return nil, false
	}
	rec, err := c.service.Get(ctx, id)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return nil, false
	}
	if !mw.GetIdentity(ctx).Matches(rec.UserID) {
		httperrors.WriteError(w, httperrors.ErrIntegrationNotFound)
		return nil, false
	}
	return rec, true
}

func mapError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return httperrors.ErrIntegrationNotFound.WithCause(err)
	case errors.Is(err, integrations.ErrNotConnected):
		return httperrors.ErrIntegrationNotConnected.WithCause(err)
	case errors.Is(err, integrations.ErrSyncUnavailable):
		return httperrors.ErrServiceUnavailable.WithCause(err)
	case errors.Is(err, integrations.ErrInvalidInput):
		return httperrors.ErrBadRequest.WithCause(err)
	case errors.Is(err, integrations.ErrProbeUnsupported):
		return httperrors.ErrInvalidParameter.WithDetail("provider does not support connection tests").WithCause(err)
	case errors.Is(err, providers.ErrUnsupportedProvider):
		return httperrors.ErrUnsupportedProvider.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

func toItem(rec *integrations.Record) dto.IntegrationItem {
	return dto.IntegrationItem{
		ID:                rec.ID,
		Provider:          rec.Provider,
		Status:            string(rec.Status),
		ExternalAccountID: rec.Credentials.ExternalAccountID,
		Scopes:            rec.Credentials.Scopes,
		ConnectedAt:       rec.ConnectedAt,
		LastSyncAt:        rec.LastSyncAt,
		LastError:         rec.LastError,
		UpdatedAt:         rec.UpdatedAt,
	}
}
