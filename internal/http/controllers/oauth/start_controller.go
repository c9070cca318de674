package oauth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/integrations"
	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// StartController inicia flujos de conexión.
type StartController struct {
	initiator oauthflow.Initiator
}

// NewStartController crea un StartController.
func NewStartController(initiator oauthflow.Initiator) *StartController {
	return &StartController{initiator: initiator}
}

// Start maneja POST /v2/integrations/oauth/{provider}/start y devuelve la
// URL de autorización para que la SPA navegue o abra el popup.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, ok := c.start(w, r, req)
	if !ok {
		return
	}

	resp := dto.StartResponse{
		Provider:         res.Provider,
		AuthorizationURL: res.AuthorizationURL,
		Mode:             string(res.Mode),
	}
	if res.Popup != nil {
		resp.Popup = &dto.PopupFeatures{Width: res.Popup.Width, Height: res.Popup.Height}
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// StartRedirect maneja GET /v2/integrations/oauth/{provider}/start: navegación
// de página completa (reintentos desde el callback). Responde 302 al provider.
func (c *StartController) StartRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("mode")
	if mode == "" {
		mode = "redirect"
	}
	res, ok := c.start(w, r, dto.StartRequest{
		Mode:           mode,
		ReturnTo:       q.Get("returnTo"),
		CorrelationID:  q.Get("correlationId"),
		ConversationID: q.Get("conversationId"),
	})
	if !ok {
		return
	}
	http.Redirect(w, r, res.AuthorizationURL, http.StatusFound)
}

func (c *StartController) start(w http.ResponseWriter, r *http.Request, req dto.StartRequest) (*oauthflow.StartResult, bool) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("StartController.Start"),
		logger.Provider(provider),
	)

	res, err := c.initiator.Start(ctx, oauthflow.StartRequest{
		Scope:          mw.GetFlowScope(ctx),
		Provider:       provider,
		UserID:         mw.GetUserID(ctx),
		Mode:           req.Mode,
		ReturnTo:       req.ReturnTo,
		CorrelationID:  req.CorrelationID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		appErr := mapStartError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("start flow failed", logger.Err(err))
		} else {
			log.Info("start flow rejected", logger.ErrorCode(appErr.Code), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return nil, false
	}
	return res, true
}

func mapStartError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, oauthflow.ErrUnsupportedProvider):
		return httperrors.ErrUnsupportedProvider.WithCause(err)
	case errors.Is(err, oauthflow.ErrMissingUser):
		return httperrors.ErrTokenMissing.WithCause(err)
	case errors.Is(err, oauthflow.ErrInvalidMode):
		return httperrors.ErrInvalidParameter.WithDetail("mode must be redirect or popup").WithCause(err)
	case errors.Is(err, oauthflow.ErrInvalidReturnTo):
		return httperrors.ErrInvalidParameter.WithDetail("returnTo must be a relative path").WithCause(err)
	case errors.Is(err, oauthflow.ErrMissingScope):
		return httperrors.ErrBadRequest.WithDetail("missing browsing context").WithCause(err)
	default:
		return httperrors.ErrServiceUnavailable.WithCause(err)
	}
}
