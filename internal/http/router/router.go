// Package router arma el árbol de rutas HTTP del servicio sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	healthctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/health"
	intctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/integrations"
	oauthctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/oauth"
	secctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/security"
	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/rate"
)

// Paths públicos que también usan otros componentes (handoff, proveedores).
const (
	CallbackPath  = "/integrations/oauth/callback"
	StartPathTmpl = "/v2/integrations/oauth/{provider}/start"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Health       *healthctrl.Controllers
	OAuth        *oauthctrl.Controllers
	Integrations *intctrl.Controllers
	CSRF         *secctrl.CSRFController // nil: sin endpoint /v2/csrf

	Sessions  mw.SessionResolver
	FlowScope helpers.CookieConfig

	CORSAllowedOrigins []string
	CSRFEnabled        bool
	CSRFCookie         string

	// StartLimiter limita inicios de flujo por usuario; nil lo deshabilita.
	StartLimiter rate.Limiter

	// Gatherer de /metrics; nil usa el registry por defecto.
	Metrics prometheus.Gatherer

	SecurityHeaders mw.SecurityHeadersConfig
}

// New construye el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Std(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithTracing(),
		mw.WithMetrics(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(d.SecurityHeaders),
	)...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	registerCallbackRoutes(r, d)
	registerIntegrationsRoutes(r, d)
	return r
}

func registerHealthRoutes(r chi.Router, d Deps) {
	if d.Health != nil {
		r.Get("/livez", d.Health.Health.Livez)
		r.Get("/readyz", d.Health.Health.Readyz)
	}
	gatherer := d.Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
