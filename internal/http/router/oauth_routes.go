package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
)

// registerCallbackRoutes registra el callback del provider. Queda fuera de
// /v2: lo visita el navegador, no la SPA, y la falta de sesión es un
// resultado del flujo y no un 401.
func registerCallbackRoutes(r chi.Router, d Deps) {
	if d.OAuth == nil {
		return
	}
	r.With(mw.Std(
		mw.WithNoStore(),
		mw.WithFlowScope(d.FlowScope),
		mw.OptionalSession(d.Sessions),
	)...).Get(CallbackPath, d.OAuth.Callback.Callback)
}

// registerOAuthRoutes registra /v2/integrations/oauth (requiere sesión).
func registerOAuthRoutes(r chi.Router, d Deps) {
	if d.OAuth == nil {
		return
	}
	r.Route("/oauth", func(r chi.Router) {
		r.Use(mw.Std(mw.WithFlowScope(d.FlowScope))...)

		r.Get("/pending", d.OAuth.Pending.Pending)

		limited := mw.Std(mw.WithRateLimit(d.StartLimiter, mw.UserRateKey))
		r.With(limited...).Post("/{provider}/start", d.OAuth.Start.Start)
		r.With(limited...).Get("/{provider}/start", d.OAuth.Start.StartRedirect)
	})
}
