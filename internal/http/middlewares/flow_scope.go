package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	tokens "github.com/dropDatabas3/hellojohn-connect/internal/security/token"
)

const (
	flowScopeBytes  = 24
	maxFlowScopeLen = 64
)

// WithFlowScope asegura la cookie que identifica el contexto de navegación.
// El popup comparte cookies con su opener, así ambos ven el mismo slot de
// correlación. La cookie es SameSite=Lax para viajar en la navegación de
// vuelta desde el provider.
func WithFlowScope(cfg helpers.CookieConfig) Middleware {
	if cfg.Name == "" {
		cfg.Name = "hjc_flow"
	}
	if cfg.SameSite == "" {
		cfg.SameSite = "lax"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := ""
			if ck, err := r.Cookie(cfg.Name); err == nil && tokens.IsOpaque(ck.Value, maxFlowScopeLen) {
				scope = ck.Value
			}
			if scope == "" {
				v, err := tokens.GenerateOpaqueToken(flowScopeBytes)
				if err != nil {
					next.ServeHTTP(w, r)
					return
				}
				scope = v
				http.SetCookie(w, helpers.BuildCookie(cfg, scope, 0))
			}
			next.ServeHTTP(w, r.WithContext(WithFlowScopeValue(r.Context(), scope)))
		})
	}
}
