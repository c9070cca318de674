package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Timeout: timeout, ServiceToken: "svc"})
	require.NoError(t, err)
	return c
}

func TestExchange_Success(t *testing.T) {
	var got ExchangeRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/hubspot/exchange", r.URL.Path)
		assert.Equal(t, "Bearer svc", r.Header.Get("Authorization"))
		assert.Equal(t, "c1", r.Header.Get("X-Correlation-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"provider":"hubspot","integrationId":"i1","connectedAt":"2024-05-01T10:00:00Z","correlationId":"c1","credentials":{"accessToken":"at","scopes":["oauth"]}}`))
	}, time.Second)

	res, err := c.Exchange(context.Background(), ExchangeRequest{
		Code: "abc", State: "S", UserID: "u1", RedirectURI: "https://app/cb", Provider: "hubspot", CorrelationID: "c1",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "i1", res.IntegrationID)
	require.NotNil(t, res.ConnectedAt)
	require.NotNil(t, res.Credentials)
	assert.Equal(t, "at", res.Credentials.AccessToken)

	assert.Equal(t, "abc", got.Code)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "https://app/cb", got.RedirectURI)
	assert.Empty(t, got.CodeVerifier)
}

func TestExchange_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"code expired","errorCode":"invalid_grant"}`))
	}, time.Second)

	res, err := c.Exchange(context.Background(), ExchangeRequest{Provider: "google"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid_grant", res.ErrorCode)
	assert.Equal(t, "code expired", res.Error)
}

func TestExchange_SuccessFalseOn200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	}, time.Second)

	res, err := c.Exchange(context.Background(), ExchangeRequest{Provider: "google"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.ErrorCode)
}

func TestExchange_TransportErrors(t *testing.T) {
	t.Run("5xx", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, time.Second)
		_, err := c.Exchange(context.Background(), ExchangeRequest{Provider: "hubspot"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}, 50*time.Millisecond)
		_, err := c.Exchange(context.Background(), ExchangeRequest{Provider: "hubspot"})
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("garbage body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}, time.Second)
		_, err := c.Exchange(context.Background(), ExchangeRequest{Provider: "hubspot"})
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestSync(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/integrations/i%201/sync", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"success":true,"itemsSynced":3}`))
	}, time.Second)

	res, err := c.Sync(context.Background(), "i 1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.ItemsSynced)
	assert.EqualValues(t, 1, calls.Load())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
