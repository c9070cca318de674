package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey struct{}

// ToContext guarda l en ctx. Los middlewares lo usan para propagar un logger
// con los campos del request.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From devuelve el logger de ctx (o el global). Si ctx lleva un span válido
// agrega trace_id y span_id para cruzar logs con trazas.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	if !ok || l == nil {
		l = L()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(TraceID(sc.TraceID().String()), SpanID(sc.SpanID().String()))
	}
	return l
}
