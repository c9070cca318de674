package middlewares

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SecurityHeadersConfig configura WithSecurityHeaders.
type SecurityHeadersConfig struct {
	// HSTSMaxAge > 0 emite Strict-Transport-Security en requests HTTPS.
	HSTSMaxAge time.Duration
	// TrustForwardedProto acepta X-Forwarded-Proto para decidir si es HTTPS.
	TrustForwardedProto bool
}

// WithSecurityHeaders pone las cabeceras base de una API JSON. Las páginas
// del callback pisan la CSP con una propia (nonce del script de handoff).
// No se emite Cross-Origin-Opener-Policy: el popup necesita conservar
// window.opener para el postMessage.
func WithSecurityHeaders(cfg SecurityHeadersConfig) Middleware {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(cfg.HSTSMaxAge.Seconds()))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
			if hsts != "" && (r.TLS != nil || cfg.TrustForwardedProto && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")) {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
