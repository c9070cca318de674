package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
)

type ctxKey string

const (
	ctxIdentityKey  ctxKey = "identity"
	ctxRequestIDKey ctxKey = "request_id"
	ctxFlowScopeKey ctxKey = "flow_scope"
)

// WithIdentity inyecta la identidad de sesión en el contexto.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// WithFlowScopeValue inyecta el scope de correlación del contexto de navegación.
func WithFlowScopeValue(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, ctxFlowScopeKey, scope)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetIdentity devuelve la identidad de sesión o nil.
func GetIdentity(ctx context.Context) *identity.Identity {
	if v, ok := ctx.Value(ctxIdentityKey).(*identity.Identity); ok {
		return v
	}
	return nil
}

// GetUserID devuelve el user id de la sesión o "".
func GetUserID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return ""
}

// GetRequestID devuelve el request ID o "".
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetFlowScope devuelve el scope de correlación o "".
func GetFlowScope(ctx context.Context) string {
	if s, ok := ctx.Value(ctxFlowScopeKey).(string); ok {
		return s
	}
	return ""
}
