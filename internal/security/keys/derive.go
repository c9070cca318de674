// Package keys deriva claves independientes por propósito a partir de la
// clave maestra del servicio (HKDF-SHA256).
package keys

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Propósitos conocidos. Cambiar un valor invalida todo lo firmado/cifrado con él.
const (
	PurposeFlowState   = "hellojohn-connect/flow-state/v1"
	PurposeCredentials = "hellojohn-connect/credentials/v1"
)

// MinMasterKeyLen es el largo mínimo aceptado para la clave maestra.
const MinMasterKeyLen = 32

var ErrMasterKeyTooShort = errors.New("keys: master key must be at least 32 bytes")

// Derive devuelve 32 bytes derivados de master para el propósito indicado.
func Derive(master []byte, purpose string) ([]byte, error) {
	if len(master) < MinMasterKeyLen {
		return nil, ErrMasterKeyTooShort
	}
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, master, nil, []byte(purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
