// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: una instancia global inicializada con Init(); Replace() la
//     cambia en tests.
//   - Context Scoping: cada request lleva su propio logger "scoped" con campos
//     adicionales (request_id, provider, correlation_id) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON; Format
//     fuerza uno u otro.
//   - Trazas: From() agrega trace_id/span_id cuando el contexto lleva un span.
//   - Secretos: nunca loguear state tokens ni authorization codes completos,
//     usar Prefix() para dejar solo los primeros caracteres.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Format: cfg.Log.Format})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.callback"))
//	log.Info("flow completed", logger.Provider("hubspot"))
package logger
