package oauth

import (
	"net/http"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
)

// PendingController expone el flujo en curso del contexto de navegación.
type PendingController struct {
	flows PendingReader
}

// NewPendingController crea un PendingController.
func NewPendingController(flows PendingReader) *PendingController {
	return &PendingController{flows: flows}
}

// Pending maneja GET /v2/integrations/oauth/pending. Sólo revela el flujo si
// pertenece al usuario de la sesión; nunca expone state ni verifier.
func (c *PendingController) Pending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flow := c.flows.Peek(ctx, mw.GetFlowScope(ctx))
	if flow == nil || !mw.GetIdentity(ctx).Matches(flow.UserID) {
		helpers.WriteJSON(w, http.StatusOK, dto.PendingResponse{Pending: false})
		return
	}

	resp := dto.PendingResponse{
		Pending:        true,
		Provider:       flow.Provider,
		Mode:           string(flow.Mode),
		ReturnTo:       flow.ReturnTo,
		CorrelationID:  flow.CorrelationID,
		ConversationID: flow.ConversationID,
	}
	if !flow.StartedAt.IsZero() {
		started := flow.StartedAt.UTC()
		expires := started.Add(c.flows.TTL())
		resp.StartedAt, resp.ExpiresAt = &started, &expires
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
