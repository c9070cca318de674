package handoff

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
)

func render(t *testing.T, p *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	return buf.String()
}

func TestDeliver_PopupSuccessPostsOnceAndCloses(t *testing.T) {
	h := New(Config{AppOrigin: "https://app.example.com/"})
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status:        oauthflow.StatusConnected,
		Provider:      "hubspot",
		IntegrationID: "i1",
		ConnectedAt:   &at,
		CorrelationID: "c1",
		Mode:          flowstate.ModePopup,
		ReturnTo:      "/integrations",
	})
	require.NoError(t, err)
	assert.Equal(t, PagePopup, p.Kind)
	require.NotNil(t, p.Message)
	assert.Equal(t, MessageType, p.Message.Type)
	assert.Equal(t, "connected", p.Message.Status)
	assert.Equal(t, "i1", p.Message.IntegrationID)
	assert.Equal(t, "https://app.example.com", p.TargetOrigin)

	html := render(t, p)
	assert.Equal(t, 1, strings.Count(html, "postMessage("))
	assert.Contains(t, html, "window.close()")
	assert.Contains(t, html, `"type":"oauth:completed"`)
	assert.Contains(t, html, `"integrationId":"i1"`)
	assert.Contains(t, html, `"https://app.example.com"`)
	assert.Contains(t, html, `nonce="`+p.Nonce+`"`)
}

func TestDeliver_PopupWithoutOriginFallsBack(t *testing.T) {
	h := New(Config{})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusFailed, Provider: "google", ErrorCode: "access_denied",
		ErrorMessage: "User denied", Mode: flowstate.ModePopup,
	})
	require.NoError(t, err)
	assert.Nil(t, p.Message)
	assert.Equal(t, "/v2/integrations/oauth/google/start?mode=redirect&returnTo=%2Fintegrations", p.RetryURL)

	html := render(t, p)
	assert.NotContains(t, html, "postMessage")
	assert.Contains(t, html, "User denied")
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Back to integrations")
}

func TestDeliver_PopupFailureWithOpenerKeepsActions(t *testing.T) {
	h := New(Config{AppOrigin: "https://app"})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusFailed, Provider: "hubspot", ErrorCode: oauthflow.CodeExchangeTransportError,
		ErrorMessage: "Try later", Mode: flowstate.ModePopup,
	})
	require.NoError(t, err)
	require.NotNil(t, p.Message)

	// shown when the opener is gone
	html := render(t, p)
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Back to integrations")
}

func TestDeliver_PopupSuccessWithoutOrigin(t *testing.T) {
	h := New(Config{})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusConnected, Provider: "google", Mode: flowstate.ModePopup,
	})
	require.NoError(t, err)

	html := render(t, p)
	assert.Contains(t, html, "Return to the application")
	assert.NotContains(t, html, "Try again")
}

func TestDeliver_RedirectSuccessNavigatesAfterDelay(t *testing.T) {
	h := New(Config{AppOrigin: "https://app"})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusConnected, Provider: "google",
		Mode: flowstate.ModeRedirect, ReturnTo: "/integrations/google",
	})
	require.NoError(t, err)
	assert.Equal(t, PageRedirectSuccess, p.Kind)
	assert.Equal(t, 1500, p.DelayMs)

	html := render(t, p)
	assert.Contains(t, html, "window.location.replace(")
	assert.Contains(t, html, `"/integrations/google"`)
	assert.Contains(t, html, "1500")
	assert.NotContains(t, html, "postMessage")
}

func TestDeliver_RedirectFailureOffersRetryAndBack(t *testing.T) {
	h := New(Config{})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusFailed, Provider: "hubspot", ErrorCode: oauthflow.CodeStateMismatch,
		ErrorMessage: oauthflow.MessageFor(oauthflow.CodeStateMismatch),
		Mode:         flowstate.ModeRedirect, ReturnTo: "/settings",
	})
	require.NoError(t, err)
	assert.Equal(t, PageRedirectFailure, p.Kind)
	assert.Equal(t, "/v2/integrations/oauth/hubspot/start?mode=redirect&returnTo=%2Fsettings", p.RetryURL)
	assert.Equal(t, "/integrations", p.BackURL)

	html := render(t, p)
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Back to integrations")
	assert.Contains(t, html, "StateMismatch")
	assert.NotContains(t, html, "location.replace")
}

func TestDeliver_UnknownProviderRetriesFromIntegrations(t *testing.T) {
	h := New(Config{IntegrationsPath: "/settings/integrations"})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{
		Status: oauthflow.StatusFailed, ErrorCode: oauthflow.CodeMissingFlowState,
	})
	require.NoError(t, err)
	assert.Equal(t, PageRedirectFailure, p.Kind)
	assert.Equal(t, "/settings/integrations", p.RetryURL)
	assert.Equal(t, "/settings/integrations", p.BackURL)

	html := render(t, p)
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Back to integrations")
}

func TestPage_ServeHTTPHeaders(t *testing.T) {
	h := New(Config{AppOrigin: "https://app"})
	p, err := h.Deliver(context.Background(), &oauthflow.Result{Status: oauthflow.StatusConnected, Provider: "hubspot"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-"+p.Nonce+"'")
}

func TestPopupNotifier_AtMostOnce(t *testing.T) {
	n := NewPopupNotifier("https://app")
	require.True(t, n.IsAvailable())
	require.NoError(t, n.Notify(context.Background(), Message{Type: MessageType}))
	assert.False(t, n.IsAvailable())
	assert.ErrorIs(t, n.Notify(context.Background(), Message{}), ErrAlreadyNotified)
}
