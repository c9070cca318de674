package middlewares

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/hellojohn-connect/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
)

// SessionResolver resuelve la identidad del request (bearer o cookie de sesión).
// *identity.Resolver lo implementa.
type SessionResolver interface {
	FromRequest(r *http.Request) (*identity.Identity, error)
}

// RequireSession exige una sesión válida; responde 401 si no la hay.
func RequireSession(resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.FromRequest(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="integrations", error="invalid_token"`)
				if errors.Is(err, identity.ErrNoCredentials) {
					httperrors.WriteError(w, httperrors.ErrTokenMissing)
					return
				}
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalSession resuelve la sesión si existe y nunca falla. El callback la
// usa: la falta de sesión es un resultado del flujo, no un 401.
func OptionalSession(resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := resolver.FromRequest(r); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
