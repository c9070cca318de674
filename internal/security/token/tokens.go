// Package tokens genera y compara los valores opacos que viajan en cookies
// y URLs (nonces de handoff, flow scope, CSRF).
package tokens

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// GenerateOpaqueToken devuelve nBytes aleatorios en base64url sin padding.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IsOpaque reporta si v tiene forma de token generado acá: no vacío, hasta
// maxLen caracteres y solo alfabeto base64url.
func IsOpaque(v string, maxLen int) bool {
	if v == "" || (maxLen > 0 && len(v) > maxLen) {
		return false
	}
	return strings.IndexFunc(v, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	}) < 0
}

// Equal compara en tiempo constante. Dos vacíos no son iguales.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
