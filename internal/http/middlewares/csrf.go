package middlewares

import (
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	tokens "github.com/dropDatabas3/hellojohn-connect/internal/security/token"
)

// CSRFConfig configura el middleware CSRF.
type CSRFConfig struct {
	HeaderName string // Default: "X-CSRF-Token"
	CookieName string // Default: "csrf_token"
}

var ErrInvalidCSRF = httperrors.New(http.StatusForbidden, "INVALID_CSRF_TOKEN", "CSRF token ausente o inválido.")

// WithCSRF aplica double-submit a las mutaciones autenticadas por cookie.
// Un request con Authorization: Bearer no lleva credenciales ambientes y
// pasa directo; el resto de POST/DELETE necesita el header igual a la cookie
// emitida por GET /v2/csrf.
func WithCSRF(cfg CSRFConfig) Middleware {
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = "csrf_token"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if ah := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			var cookie string
			if ck, err := r.Cookie(cookieName); err == nil {
				cookie = ck.Value
			}
			if !tokens.Equal(strings.TrimSpace(r.Header.Get(headerName)), cookie) {
				httperrors.WriteError(w, ErrInvalidCSRF)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
