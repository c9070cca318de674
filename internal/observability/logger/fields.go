package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Duration crea un campo para una duración arbitraria.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - FLUJO OAUTH
// =================================================================================

// UserID crea un campo para el ID canónico del usuario.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Provider crea un campo para el provider de la integración (hubspot, google...).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Mode crea un campo para el modo del flujo (redirect | popup).
func Mode(v string) zap.Field { return zap.String("flow_mode", v) }

// CorrelationID crea un campo para el correlation id propagado por el caller.
func CorrelationID(v string) zap.Field { return zap.String("correlation_id", v) }

// IntegrationID crea un campo para el ID del registro de integración.
func IntegrationID(v string) zap.Field { return zap.String("integration_id", v) }

// ErrorCode crea un campo para el código de error del outcome.
func ErrorCode(v string) zap.Field { return zap.String("error_code", v) }

// Prefix loguea solo los primeros 8 caracteres de un valor sensible
// (state token, authorization code).
func Prefix(key, v string) zap.Field {
	if len(v) > 8 {
		v = v[:8]
	}
	return zap.String(key+"_prefix", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// TraceID y SpanID correlacionan la línea con la traza OTel activa.
func TraceID(v string) zap.Field { return zap.String("trace_id", v) }

func SpanID(v string) zap.Field { return zap.String("span_id", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
