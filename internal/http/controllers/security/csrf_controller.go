// Package security contiene controllers de endpoints de seguridad.
package security

import (
	"net/http"
	"time"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/security"
	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-connect/internal/security/token"
)

const csrfTTL = 12 * time.Hour

// CSRFController handles GET /v2/csrf.
type CSRFController struct {
	cookie helpers.CookieConfig
}

// NewCSRFController creates a new CSRF controller. cookie.Name must match
// the name the CSRF middleware reads.
func NewCSRFController(cookie helpers.CookieConfig) *CSRFController {
	if cookie.Name == "" {
		cookie.Name = "csrf_token"
	}
	return &CSRFController{cookie: cookie}
}

// GetToken sets the token cookie and returns the same value in the body
// (double-submit).
func (c *CSRFController) GetToken(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("CSRFController.GetToken"))

	tok, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Error("failed to generate CSRF token", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	ck := helpers.BuildCookie(c.cookie, tok, csrfTTL)
	// el frontend lee la cookie para reenviarla en el header
	ck.HttpOnly = false
	http.SetCookie(w, ck)

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.CSRFResponse{CSRFToken: tok})
	log.Debug("csrf token issued")
}
