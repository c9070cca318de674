// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"os"
	"time"

	dto "github.com/dropDatabas3/hellojohn-connect/internal/http/dto/health"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Checker es un componente verificable (cache, base de datos).
type Checker struct {
	Name     string
	Critical bool // si falla, el servicio queda "unavailable"
	Check    func(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Checkers []Checker
	Timeout  time.Duration // por componente; default 2s
	Now      func() time.Time
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus, len(s.deps.Checkers)),
		Version:    os.Getenv("SERVICE_VERSION"),
		Commit:     os.Getenv("SERVICE_COMMIT"),
		Timestamp:  s.deps.Now().UTC(),
	}

	hasErrors, hasCriticalErrors := false, false
	for _, c := range s.deps.Checkers {
		if c.Check == nil {
			response.Components[c.Name] = dto.HealthStatus{Status: "disabled"}
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := c.Check(cctx)
		cancel()
		if err != nil {
			response.Components[c.Name] = dto.HealthStatus{
				Status:  "error",
				Message: fmt.Sprintf("unavailable: %v", err),
			}
			hasErrors = true
			if c.Critical {
				hasCriticalErrors = true
			}
			log.Error("component unavailable", logger.String("component", c.Name), logger.Err(err))
			continue
		}
		response.Components[c.Name] = dto.HealthStatus{Status: "ok"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	}
	return response
}
