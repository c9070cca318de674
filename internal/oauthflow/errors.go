package oauthflow

import (
	"errors"

	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

// Error codes carried by a failed Result. Provider-reported errors are passed
// through verbatim and are not listed here.
const (
	CodeUnsupportedProvider    = "UnsupportedProvider"
	CodeInvalidCallback        = "InvalidCallback"
	CodeMissingFlowState       = "MissingFlowState"
	CodeStateMismatch          = "StateMismatch"
	CodeIdentityMismatch       = "IdentityMismatch"
	CodeExchangeTransportError = "ExchangeTransportError"
	CodeExchangeRejected       = "ExchangeRejected"
	CodeReconcileFailed        = "ReconcileFailed"
)

// Errors returned by Initiator.Start.
var (
	ErrUnsupportedProvider = providers.ErrUnsupportedProvider
	ErrMissingUser         = errors.New("oauthflow: user id is required")
	ErrMissingScope        = errors.New("oauthflow: flow scope is required")
	ErrInvalidMode         = errors.New("oauthflow: invalid flow mode")
	ErrInvalidReturnTo     = errors.New("oauthflow: returnTo must be a same-origin relative path")
)

// Errors for state token operations.
var (
	ErrStateInvalid  = errors.New("invalid state token")
	ErrStateExpired  = errors.New("state token expired")
	ErrStateProvider = errors.New("state provider mismatch")
)

var errorMessages = map[string]string{
	CodeUnsupportedProvider:    "This provider is not supported.",
	CodeInvalidCallback:        "The provider returned an incomplete response.",
	CodeMissingFlowState:       "This connection attempt has expired or was already completed. Please try again.",
	CodeStateMismatch:          "This connection attempt could not be verified. Please start again.",
	CodeIdentityMismatch:       "You are signed in as a different user than the one who started this connection.",
	CodeExchangeTransportError: "We could not reach the integration service. Please try again.",
	CodeExchangeRejected:       "The integration service rejected the authorization.",
	CodeReconcileFailed:        "The connection succeeded but could not be saved. Please try again.",
}

// MessageFor returns the human message for an error code, falling back to
// the code itself for provider-reported errors.
func MessageFor(code string) string {
	if m, ok := errorMessages[code]; ok {
		return m
	}
	return code
}
