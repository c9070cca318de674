package app

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-connect/internal/config"
)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HJC_MASTER_KEY", base64.StdEncoding.EncodeToString([]byte(strings.Repeat("m", 32))))
	t.Setenv("HJC_APP_ORIGIN", "https://app.example.com")
	t.Setenv("HJC_BACKEND_BASE_URL", "https://backend.internal")
	t.Setenv("HJC_SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("HJC_FLOW_CALLBACK_URL", "https://connect.example.com/integrations/oauth/callback")
	t.Setenv("HJC_PROVIDER_HUBSPOT_CLIENT_ID", "hs-client")
	t.Setenv("HJC_PROVIDER_GOOGLE_CLIENT_ID", "g-client")
	t.Setenv("HJC_RATE_ENABLED", "true")

	cfg, err := config.Load("", "hubspot", "google", "salesforce")
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryStack(t *testing.T) {
	cfg := loadTestConfig(t)

	c, err := Build(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ids := make([]string, 0)
	for _, p := range c.Providers.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"google", "hubspot"}, ids)

	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestBuildRegistry_UsesConfiguredRedirect(t *testing.T) {
	cfg := loadTestConfig(t)

	reg, err := BuildRegistry(context.Background(), cfg)
	require.NoError(t, err)

	p, err := reg.Resolve("hubspot")
	require.NoError(t, err)
	assert.Equal(t, "hs-client", p.ClientID)
	assert.Equal(t, "https://connect.example.com/integrations/oauth/callback", p.RedirectURI)

	_, err = reg.Resolve("salesforce")
	assert.Error(t, err)
}
