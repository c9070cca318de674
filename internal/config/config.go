// Package config carga la configuración del servicio: YAML opcional
// (CONFIG_PATH) y luego overrides por variables de entorno con prefijo HJC_.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix antecede a todas las variables de entorno leídas.
const EnvPrefix = "HJC_"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	App struct {
		// dev | staging | prod
		Env         string `yaml:"env" env:"APP_ENV"`
		ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
		// Origin de la SPA: target del postMessage y base de los enlaces de retorno.
		Origin string `yaml:"origin" env:"APP_ORIGIN"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr" env:"SERVER_ADDR"`
		ReadTimeout        time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout       time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
		// CSRF double-submit sobre /v2/integrations cuando la sesión viaja en cookie.
		CSRF bool `yaml:"csrf" env:"CSRF_ENABLED"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"` // json | console; vacío = según app.env
	} `yaml:"log"`

	Flow struct {
		TTL             time.Duration `yaml:"ttl" env:"FLOW_TTL"`
		ExchangeTimeout time.Duration `yaml:"exchange_timeout" env:"FLOW_EXCHANGE_TIMEOUT"`
		RedirectDelay   time.Duration `yaml:"redirect_delay" env:"FLOW_REDIRECT_DELAY"`
		DefaultReturnTo string        `yaml:"default_return_to" env:"FLOW_DEFAULT_RETURN_TO"`
		// CallbackURL es el redirect_uri usado por los providers que no definen uno propio.
		CallbackURL string `yaml:"callback_url" env:"FLOW_CALLBACK_URL"`
		// ContextCookie identifica el contexto de navegación compartido por popup y opener.
		ContextCookie string `yaml:"context_cookie" env:"FLOW_CONTEXT_COOKIE"`
	} `yaml:"flow"`

	Cache struct {
		Driver string `yaml:"driver" env:"CACHE_DRIVER"` // memory | redis
		Redis  struct {
			Addr     string `yaml:"addr" env:"REDIS_ADDR"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"REDIS_DB"`
			Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Storage struct {
		Driver   string `yaml:"driver" env:"STORAGE_DRIVER"` // memory | postgres
		DSN      string `yaml:"dsn" env:"STORAGE_DSN"`
		Migrate  bool   `yaml:"migrate" env:"STORAGE_MIGRATE"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns" env:"PG_MAX_CONNS"`
			MinConns        int32         `yaml:"min_conns" env:"PG_MIN_CONNS"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"PG_CONN_MAX_LIFETIME"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Backend struct {
		BaseURL      string        `yaml:"base_url" env:"BACKEND_BASE_URL"`
		Timeout      time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT"`
		ServiceToken string        `yaml:"service_token" env:"BACKEND_SERVICE_TOKEN"`
	} `yaml:"backend"`

	Auth struct {
		Session struct {
			Secret     string `yaml:"secret" env:"SESSION_SECRET"`
			Issuer     string `yaml:"issuer" env:"SESSION_ISSUER"`
			Audience   string `yaml:"audience" env:"SESSION_AUDIENCE"`
			CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE"`
			Secure     bool   `yaml:"secure" env:"SESSION_SECURE"`
		} `yaml:"session"`
	} `yaml:"auth"`

	Security struct {
		// base64 de al menos 32 bytes; de ella se derivan las claves de firma y cifrado.
		MasterKey string `yaml:"master_key" env:"MASTER_KEY"`
	} `yaml:"security"`

	// Rate limita los inicios de flujo por usuario.
	Rate struct {
		Enabled    bool          `yaml:"enabled" env:"RATE_ENABLED"`
		StartLimit int           `yaml:"start_limit" env:"RATE_START_LIMIT"`
		Window     time.Duration `yaml:"window" env:"RATE_WINDOW"`
	} `yaml:"rate"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED"`
		Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	} `yaml:"tracing"`

	// Providers: credenciales de cliente OAuth por provider id.
	Providers map[string]ProviderConfig `yaml:"providers" env:"-"`
}

// ProviderConfig son las credenciales del deployment para un provider.
// Overrides: HJC_PROVIDER_<ID>_CLIENT_ID / HJC_PROVIDER_<ID>_REDIRECT_URI.
type ProviderConfig struct {
	ClientID    string `yaml:"client_id" env:"CLIENT_ID"`
	RedirectURI string `yaml:"redirect_uri" env:"REDIRECT_URI"`
}

// Load lee el YAML (si path no es vacío), aplica overrides de entorno,
// defaults y valida. providerIDs son los providers conocidos que pueden
// configurarse sólo por entorno.
func Load(path string, providerIDs ...string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: yaml: %w", err)
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if err := c.applyProviderEnv(providerIDs); err != nil {
		return nil, err
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyProviderEnv(ids []string) error {
	normalized := make(map[string]ProviderConfig, len(c.Providers))
	for id, pc := range c.Providers {
		normalized[normalizeID(id)] = pc
	}
	c.Providers = normalized

	all := make([]string, 0, len(ids)+len(c.Providers))
	all = append(all, c.providerKeys()...)
	for _, id := range ids {
		if id = normalizeID(id); id != "" {
			if _, ok := c.Providers[id]; !ok {
				all = append(all, id)
			}
		}
	}

	for _, id := range all {
		pc := c.Providers[id]
		prefix := EnvPrefix + "PROVIDER_" + strings.ToUpper(id) + "_"
		if err := env.ParseWithOptions(&pc, env.Options{Prefix: prefix}); err != nil {
			return fmt.Errorf("config: env provider %s: %w", id, err)
		}
		if pc.ClientID == "" && pc.RedirectURI == "" {
			continue
		}
		c.Providers[id] = pc
	}
	return nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func (c *Config) providerKeys() []string {
	out := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.ServiceName == "" {
		c.App.ServiceName = "hellojohn-connect"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Flow.TTL == 0 {
		c.Flow.TTL = 15 * time.Minute
	}
	if c.Flow.ExchangeTimeout == 0 {
		c.Flow.ExchangeTimeout = 15 * time.Second
	}
	if c.Flow.RedirectDelay == 0 {
		c.Flow.RedirectDelay = 1500 * time.Millisecond
	}
	if c.Flow.DefaultReturnTo == "" {
		c.Flow.DefaultReturnTo = "/integrations"
	}
	if c.Flow.ContextCookie == "" {
		c.Flow.ContextCookie = "hjc_flow"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hjc"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = c.Flow.ExchangeTimeout
	}
	if c.Rate.StartLimit == 0 {
		c.Rate.StartLimit = 20
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "sid"
	}
	// redirect_uri global para los providers que no definen uno propio
	for id, pc := range c.Providers {
		if pc.RedirectURI == "" {
			pc.RedirectURI = c.Flow.CallbackURL
			c.Providers[id] = pc
		}
	}
}

// Validate acumula todos los problemas encontrados en un único error.
func (c *Config) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !isAbsoluteURL(c.App.Origin) {
		fail("app.origin must be an absolute http(s) origin, got %q", c.App.Origin)
	}
	if !isAbsoluteURL(c.Backend.BaseURL) {
		fail("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if len(c.Auth.Session.Secret) < 32 {
		fail("auth.session.secret must be at least 32 bytes")
	}
	if _, err := c.MasterKeyBytes(); err != nil {
		fail("security.master_key: %v", err)
	}
	if !strings.HasPrefix(c.Flow.DefaultReturnTo, "/") || strings.HasPrefix(c.Flow.DefaultReturnTo, "//") {
		fail("flow.default_return_to must be a relative path, got %q", c.Flow.DefaultReturnTo)
	}
	if c.Flow.TTL < time.Minute {
		fail("flow.ttl must be at least 1m, got %s", c.Flow.TTL)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			fail("cache.redis.addr required with driver redis")
		}
	default:
		fail("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			fail("storage.dsn required with driver postgres")
		}
	default:
		fail("storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	}

	if c.Rate.Enabled && (c.Rate.StartLimit < 0 || c.Rate.Window < time.Second) {
		fail("rate.start_limit must be positive and rate.window at least 1s")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		fail("tracing.endpoint required when tracing is enabled")
	}

	for _, id := range c.providerKeys() {
		pc := c.Providers[id]
		if pc.ClientID != "" && !isAbsoluteURL(pc.RedirectURI) {
			fail("providers.%s.redirect_uri must be absolute (or set flow.callback_url)", id)
		}
	}
	return errs
}

// MasterKeyBytes decodifica security.master_key (base64 estándar o URL).
func (c *Config) MasterKeyBytes() ([]byte, error) {
	raw := strings.TrimSpace(c.Security.MasterKey)
	if raw == "" {
		return nil, errors.New("required")
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return nil, errors.New("must be base64")
		}
	}
	if len(b) < 32 {
		return nil, fmt.Errorf("must decode to at least 32 bytes, got %d", len(b))
	}
	return b, nil
}

// IsProd indica si el entorno es producción.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// ConfiguredProviders devuelve los ids con client_id, ordenados.
func (c *Config) ConfiguredProviders() []string {
	out := make([]string, 0, len(c.Providers))
	for _, id := range c.providerKeys() {
		if c.Providers[id].ClientID != "" {
			out = append(out, id)
		}
	}
	return out
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
