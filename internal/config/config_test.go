package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var testMasterKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
app:
  origin: https://app.example.com
backend:
  base_url: https://backend.internal
auth:
  session:
    secret: 0123456789abcdef0123456789abcdef
flow:
  callback_url: https://connect.example.com/integrations/oauth/callback
providers:
  HubSpot:
    client_id: hs-client
  google:
    client_id: g-client
    redirect_uri: https://connect.example.com/google/callback
`

func TestLoad_YAMLWithDefaults(t *testing.T) {
	t.Setenv("HJC_MASTER_KEY", testMasterKey)

	c, err := Load(writeYAML(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 15*time.Minute, c.Flow.TTL)
	assert.Equal(t, 1500*time.Millisecond, c.Flow.RedirectDelay)
	assert.Equal(t, "/integrations", c.Flow.DefaultReturnTo)
	assert.Equal(t, "memory", c.Cache.Driver)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, c.Flow.ExchangeTimeout, c.Backend.Timeout)

	// ids normalizados y redirect_uri global heredado
	require.Contains(t, c.Providers, "hubspot")
	assert.Equal(t, "https://connect.example.com/integrations/oauth/callback", c.Providers["hubspot"].RedirectURI)
	assert.Equal(t, "https://connect.example.com/google/callback", c.Providers["google"].RedirectURI)
	assert.Equal(t, []string{"google", "hubspot"}, c.ConfiguredProviders())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("HJC_MASTER_KEY", testMasterKey)
	t.Setenv("HJC_SERVER_ADDR", ":9090")
	t.Setenv("HJC_FLOW_TTL", "5m")
	t.Setenv("HJC_CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("HJC_PROVIDER_HUBSPOT_CLIENT_ID", "hs-from-env")
	t.Setenv("HJC_PROVIDER_SALESFORCE_CLIENT_ID", "sf-from-env")

	c, err := Load(writeYAML(t, minimalYAML), "salesforce", "mailchimp")
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 5*time.Minute, c.Flow.TTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, "hs-from-env", c.Providers["hubspot"].ClientID)
	assert.Equal(t, "sf-from-env", c.Providers["salesforce"].ClientID)
	assert.NotContains(t, c.Providers, "mailchimp")
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("HJC_MASTER_KEY", testMasterKey)
	t.Setenv("HJC_APP_ORIGIN", "http://localhost:3000")
	t.Setenv("HJC_BACKEND_BASE_URL", "http://localhost:4000")
	t.Setenv("HJC_SESSION_SECRET", strings.Repeat("s", 32))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", c.App.Origin)
	assert.False(t, c.IsProd())
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	var c Config
	c.applyDefaults()
	c.Cache.Driver = "memcached"
	c.Storage.Driver = "postgres"

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	msgs := make([]string, 0)
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "app.origin")
	assert.Contains(t, joined, "backend.base_url")
	assert.Contains(t, joined, "auth.session.secret")
	assert.Contains(t, joined, "security.master_key")
	assert.Contains(t, joined, "cache.driver")
	assert.Contains(t, joined, "storage.dsn")
}

func TestValidate_ProviderNeedsAbsoluteRedirect(t *testing.T) {
	t.Setenv("HJC_MASTER_KEY", testMasterKey)
	body := strings.Replace(minimalYAML, "  callback_url: https://connect.example.com/integrations/oauth/callback\n", "", 1)

	_, err := Load(writeYAML(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "providers.hubspot.redirect_uri")
}

func TestMasterKeyBytes(t *testing.T) {
	var c Config
	c.Security.MasterKey = base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("x", 40)))
	b, err := c.MasterKeyBytes()
	require.NoError(t, err)
	assert.Len(t, b, 40)

	c.Security.MasterKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = c.MasterKeyBytes()
	assert.Error(t, err)
}
