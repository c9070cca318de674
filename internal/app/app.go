// Package app arma el grafo de dependencias del servicio a partir de la config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dropDatabas3/hellojohn-connect/internal/backend"
	"github.com/dropDatabas3/hellojohn-connect/internal/cache"
	"github.com/dropDatabas3/hellojohn-connect/internal/config"
	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/handoff"
	healthctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/health"
	intctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/integrations"
	oauthctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/oauth"
	secctrl "github.com/dropDatabas3/hellojohn-connect/internal/http/controllers/security"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-connect/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-connect/internal/http/router"
	healthsvc "github.com/dropDatabas3/hellojohn-connect/internal/http/services/health"
	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/metrics"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/builtin"
	"github.com/dropDatabas3/hellojohn-connect/internal/rate"
	"github.com/dropDatabas3/hellojohn-connect/internal/security/keys"
	"github.com/dropDatabas3/hellojohn-connect/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-connect/internal/store"
	migrations "github.com/dropDatabas3/hellojohn-connect/migrations/postgres"
)

// Container expone los componentes armados. Close libera cache y pool.
type Container struct {
	Config       *config.Config
	Handler      http.Handler
	Providers    *providers.Registry
	Integrations integrations.Service
	Sessions     *identity.Resolver

	cache cache.Client
	pool  *pgxpool.Pool
}

// Close libera los recursos abiertos por Build.
func (c *Container) Close() error {
	var errs error
	if c.cache != nil {
		errs = multierr.Append(errs, c.cache.Close())
	}
	if c.pool != nil {
		c.pool.Close()
	}
	return errs
}

// Build arma el servicio completo. reg recibe las métricas (nil: registry por defecto).
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (_ *Container, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	master, err := cfg.MasterKeyBytes()
	if err != nil {
		return nil, err
	}
	stateKey, err := keys.Derive(master, keys.PurposeFlowState)
	if err != nil {
		return nil, err
	}
	credKey, err := keys.Derive(master, keys.PurposeCredentials)
	if err != nil {
		return nil, err
	}

	// Cache: slots de correlación y rate limit
	c.cache, err = cache.New(cache.Config{
		Driver:     cfg.Cache.Driver,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Flow.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	// Storage de integraciones
	repo, err := c.openRepository(ctx, cfg, credKey, reg)
	if err != nil {
		return nil, err
	}

	c.Providers, err = BuildRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.Sessions, err = identity.NewResolver(identity.Config{
		Secret:     cfg.Auth.Session.Secret,
		Issuer:     cfg.Auth.Session.Issuer,
		Audience:   cfg.Auth.Session.Audience,
		CookieName: cfg.Auth.Session.CookieName,
	})
	if err != nil {
		return nil, err
	}

	be, err := backend.New(backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		ServiceToken: cfg.Backend.ServiceToken,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	c.Integrations = integrations.NewService(integrations.Deps{
		Repo:      repo,
		Backend:   be,
		Providers: c.Providers,
	})

	signer, err := oauthflow.NewStateSigner(stateKey, cfg.Flow.TTL)
	if err != nil {
		return nil, err
	}
	flows := flowstate.NewStore(flowstate.Config{KV: c.cache, TTL: cfg.Flow.TTL, Sealer: signer})

	c.Handler = router.New(router.Deps{
		Health: healthctrl.NewControllers(healthsvc.NewHealthService(healthsvc.Deps{
			Checkers: c.checkers(),
		})),
		OAuth: oauthctrl.NewControllers(oauthctrl.Deps{
			Initiator: oauthflow.NewInitiator(oauthflow.InitiatorDeps{
				Providers:       c.Providers,
				Flows:           flows,
				DefaultReturnTo: cfg.Flow.DefaultReturnTo,
			}),
			Pending: flows,
			Processor: oauthflow.ProcessorDeps{
				Providers:       c.Providers,
				Flows:           flows,
				States:          signer,
				Exchanger:       be,
				Reconciler:      c.Integrations,
				ExchangeTimeout: cfg.Flow.ExchangeTimeout,
				DefaultReturnTo: cfg.Flow.DefaultReturnTo,
			},
			Handoff: handoff.New(handoff.Config{
				AppOrigin:        cfg.App.Origin,
				RedirectDelay:    cfg.Flow.RedirectDelay,
				IntegrationsPath: cfg.Flow.DefaultReturnTo,
				StartPath:        router.StartPathTmpl,
			}),
		}),
		Integrations: intctrl.NewControllers(c.Integrations, c.Providers),
		CSRF:         secctrl.NewCSRFController(helpers.CookieConfig{Secure: cfg.Auth.Session.Secure}),
		Sessions:     c.Sessions,
		FlowScope: helpers.CookieConfig{
			Name:   cfg.Flow.ContextCookie,
			Secure: cfg.Auth.Session.Secure,
		},
		CORSAllowedOrigins: corsOrigins(cfg),
		CSRFEnabled:        cfg.Server.CSRF,
		StartLimiter:       c.startLimiter(cfg),
		Metrics:            gathererOf(reg),
		SecurityHeaders:    securityHeaders(cfg),
	})

	log.Info("service wired",
		logger.String("cache", cfg.Cache.Driver),
		logger.String("storage", cfg.Storage.Driver),
		logger.Int("providers", len(c.Providers.List())),
	)
	return c, nil
}

func (c *Container) openRepository(ctx context.Context, cfg *config.Config, credKey []byte, reg prometheus.Registerer) (integrations.Repository, error) {
	if cfg.Storage.Driver != "postgres" {
		return integrations.NewMemoryRepository(), nil
	}
	pool, err := OpenPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.pool = pool

	if cfg.Storage.Migrate {
		res, err := store.NewMigrator(migrations.IntegrationsFS, migrations.IntegrationsDir).Run(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.From(ctx).Info("migrations applied",
			logger.Component("app"),
			logger.Int("applied", len(res.Applied)),
			logger.Int("skipped", len(res.Skipped)),
		)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := metrics.RegisterPool(reg, func() *pgxpool.Pool { return c.pool }); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	box, err := secretbox.New(credKey)
	if err != nil {
		return nil, err
	}
	return integrations.NewPostgresRepository(pool, box), nil
}

func (c *Container) checkers() []healthsvc.Checker {
	out := []healthsvc.Checker{{Name: "cache", Critical: true, Check: c.cache.Ping}}
	if c.pool != nil {
		out = append(out, healthsvc.Checker{Name: "db", Critical: true, Check: c.pool.Ping})
	}
	return out
}

func (c *Container) startLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if rc, ok := cache.RedisOf(c.cache); ok {
		return rate.NewRedisLimiter(rc, cfg.Cache.Redis.Prefix+":rl:start", cfg.Rate.StartLimit, cfg.Rate.Window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.StartLimit, cfg.Rate.Window)
}

func gathererOf(reg prometheus.Registerer) prometheus.Gatherer {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return g
	}
	return nil
}

// corsOrigins usa el origin de la SPA cuando no hay lista explícita.
func corsOrigins(cfg *config.Config) []string {
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		return cfg.Server.CORSAllowedOrigins
	}
	return []string{cfg.App.Origin}
}

// OpenPostgres abre el pool configurado en storage.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	octx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return store.OpenPool(octx, store.PoolConfig{
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		MaxConnLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

// BuildRegistry enlaza los providers incluidos con las credenciales
// configuradas. Los providers sin client_id quedan deshabilitados.
func BuildRegistry(ctx context.Context, cfg *config.Config) (*providers.Registry, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	descriptors := builtin.Descriptors()
	reg := providers.NewRegistry()

	for _, id := range cfg.ConfiguredProviders() {
		d, ok := descriptors[id]
		if !ok {
			log.Warn("configured provider is not built in; ignoring", logger.Provider(id))
			continue
		}
		pc := cfg.Providers[id]
		if err := reg.Register(d, providers.Credentials{ClientID: pc.ClientID, RedirectURI: pc.RedirectURI}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// securityHeaders emite HSTS sólo en prod, donde el servicio vive detrás de un
// proxy TLS.
func securityHeaders(cfg *config.Config) mw.SecurityHeadersConfig {
	if !cfg.IsProd() {
		return mw.SecurityHeadersConfig{}
	}
	return mw.SecurityHeadersConfig{HSTSMaxAge: 180 * 24 * time.Hour, TrustForwardedProto: true}
}
