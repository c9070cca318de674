// Package cache provee el key/value store con TTL que respalda el estado efímero
// de los flujos OAuth.
//
// Soporta:
//   - Memory (in-process, go-cache, para desarrollo/testing o una sola instancia)
//   - Redis (distribuido, para producción con varias réplicas)
//
// Las operaciones multi-key (SetMany, Take) son atómicas en ambos backends: un
// lector nunca ve una mezcla de dos flujos distintos.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetMany guarda todas las entradas en una sola operación atómica.
	SetMany(ctx context.Context, entries map[string]string, ttl time.Duration) error

	// Delete elimina una o más keys. Keys inexistentes no son error.
	Delete(ctx context.Context, keys ...string) error

	// Take lee y elimina las keys en una sola operación atómica.
	// Las keys inexistentes no aparecen en el map resultante.
	Take(ctx context.Context, keys ...string) (map[string]string, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver     string // "memory" | "redis"
	Addr       string // host:port (redis)
	Password   string
	DB         int
	Prefix     string        // Prefijo para todas las keys
	DefaultTTL time.Duration // memory: TTL por defecto cuando Set recibe 0
}

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	default:
		return nil, errors.New("cache: unknown driver " + cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
