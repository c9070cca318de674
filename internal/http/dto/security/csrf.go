// Package security contiene DTOs de endpoints de seguridad.
package security

// CSRFResponse devuelve el token double-submit.
type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}
