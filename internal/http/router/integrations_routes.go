package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
)

// registerIntegrationsRoutes registra la API /v2 consumida por la SPA.
func registerIntegrationsRoutes(r chi.Router, d Deps) {
	r.Route("/v2", func(r chi.Router) {
		r.Use(mw.Std(
			mw.WithCORS(d.CORSAllowedOrigins),
			mw.WithNoStore(),
		)...)

		if d.CSRF != nil {
			r.Get("/csrf", d.CSRF.GetToken)
		}

		r.Route("/integrations", func(r chi.Router) {
			r.Use(mw.Std(
				mw.RequireSession(d.Sessions),
				mw.When(d.CSRFEnabled, mw.WithCSRF(mw.CSRFConfig{CookieName: d.CSRFCookie})),
			)...)

			if c := d.Integrations; c != nil {
				r.Get("/", c.Integrations.List)
				r.Get("/providers", c.Providers.List)
				r.Post("/test", c.Integrations.Test)
				r.Delete("/{id}", c.Integrations.Disconnect)
				r.Post("/{id}/sync", c.Integrations.Sync)
			}

			registerOAuthRoutes(r, d)
		})
	})
}
