package middlewares

import "net/http"

// WithNoStore evita que proxies o el navegador guarden respuestas con datos
// de integraciones o con el resultado de un callback (el botón "atrás" no
// debe mostrar un outcome viejo).
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store, max-age=0")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			next.ServeHTTP(w, r)
		})
	}
}
