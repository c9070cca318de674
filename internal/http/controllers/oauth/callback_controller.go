package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// CallbackController atiende la vuelta desde el provider.
type CallbackController struct {
	deps    oauthflow.ProcessorDeps
	handoff Deliverer
}

// NewCallbackController crea un CallbackController.
func NewCallbackController(deps oauthflow.ProcessorDeps, handoff Deliverer) *CallbackController {
	return &CallbackController{deps: deps, handoff: handoff}
}

// Callback maneja GET /integrations/oauth/callback. Todo resultado, éxito o
// fallo, se entrega como página HTML; nunca redirige a una URL tomada del request.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	result := oauthflow.NewProcessor(c.deps, oauthflow.Visit{
		Scope:   mw.GetFlowScope(ctx),
		Params:  oauthflow.ParseCallback(r.URL.Query()),
		Session: mw.GetIdentity(ctx),
	}).Run(ctx)

	page, err := c.handoff.Deliver(ctx, result)
	if err != nil {
		log.Error("handoff failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	page.ServeHTTP(w, r)
}
