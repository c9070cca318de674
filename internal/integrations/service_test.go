package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-connect/internal/backend"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

type fakeSync struct {
	calls atomic.Int32
	delay time.Duration
	resp  *backend.SyncResponse
	err   error

	// entered/release, when set, hold the call open until the test lets go
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSync) Sync(ctx context.Context, _ string) (*backend.SyncResponse, error) {
	f.calls.Add(1)
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.resp, f.err
}

func newTestService(t *testing.T, sb SyncBackend, reg ProviderResolver) (Service, Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	return NewService(Deps{Repo: repo, Backend: sb, Providers: reg}), repo
}

func TestConnect_IdempotentPerIntegration(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)

	res := ExchangeResult{IntegrationID: "i1", Credentials: Credentials{AccessToken: "at"}}
	a, err := svc.Connect(ctx, "u1", "hubspot", res)
	require.NoError(t, err)
	b, err := svc.Connect(ctx, "u1", "HubSpot", res)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	list, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusConnected, list[0].Status)
	assert.Equal(t, "at", list[0].Credentials.AccessToken)
}

func TestConnect_ReconnectReplaces(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)

	first, err := svc.Connect(ctx, "u1", "google", ExchangeResult{IntegrationID: "old"})
	require.NoError(t, err)
	second, err := svc.Connect(ctx, "u1", "google", ExchangeResult{IntegrationID: "new"})
	require.NoError(t, err)

	list, _ := svc.ListForUser(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = svc.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnect_GeneratesID(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	rec, err := svc.Connect(context.Background(), "u1", "mailchimp", ExchangeResult{})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	require.NotNil(t, rec.ConnectedAt)
}

func TestConnect_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	_, err := svc.Connect(context.Background(), "", "hubspot", ExchangeResult{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDisconnect_ClearsCredentialsKeepsAudit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)
	rec, err := svc.Connect(ctx, "u1", "hubspot", ExchangeResult{
		IntegrationID: "i1",
		Credentials:   Credentials{AccessToken: "at", RefreshToken: "rt", Scopes: []string{"oauth"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx, "i1"))
	require.NoError(t, svc.Disconnect(ctx, "i1"))

	got, err := svc.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, got.Status)
	assert.True(t, got.Credentials.IsZero())
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.NotNil(t, got.ConnectedAt)

	assert.ErrorIs(t, svc.Disconnect(ctx, "missing"), ErrNotFound)
}

func TestTriggerSync_Success(t *testing.T) {
	ctx := context.Background()
	fs := &fakeSync{resp: &backend.SyncResponse{Success: true, ItemsSynced: 4}}
	svc, _ := newTestService(t, fs, nil)
	_, err := svc.Connect(ctx, "u1", "hubspot", ExchangeResult{IntegrationID: "i1"})
	require.NoError(t, err)

	res, err := svc.TriggerSync(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, res.Status)
	assert.Equal(t, 4, res.ItemsSynced)

	got, _ := svc.Get(ctx, "i1")
	require.NotNil(t, got.LastSyncAt)
	assert.Empty(t, got.LastError)
}

func TestTriggerSync_Deduplicated(t *testing.T) {
	ctx := context.Background()
	fs := &fakeSync{delay: 50 * time.Millisecond, resp: &backend.SyncResponse{Success: true}}
	svc, _ := newTestService(t, fs, nil)
	_, err := svc.Connect(ctx, "u1", "hubspot", ExchangeResult{IntegrationID: "i1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TriggerSync(ctx, "i1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, fs.calls.Load())
}

func TestTriggerSync_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected", func(t *testing.T) {
		fs := &fakeSync{resp: &backend.SyncResponse{Success: false, Error: "token revoked"}}
		svc, _ := newTestService(t, fs, nil)
		_, _ = svc.Connect(ctx, "u1", "hubspot", ExchangeResult{IntegrationID: "i1"})

		res, err := svc.TriggerSync(ctx, "i1")
		require.NoError(t, err)
		assert.Equal(t, StatusError, res.Status)
		got, _ := svc.Get(ctx, "i1")
		assert.Equal(t, "token revoked", got.LastError)
	})

	t.Run("transport", func(t *testing.T) {
		fs := &fakeSync{err: errors.New("dial tcp: refused")}
		svc, _ := newTestService(t, fs, nil)
		_, _ = svc.Connect(ctx, "u1", "hubspot", ExchangeResult{IntegrationID: "i1"})

		_, err := svc.TriggerSync(ctx, "i1")
		assert.ErrorIs(t, err, ErrSyncUnavailable)
		got, _ := svc.Get(ctx, "i1")
		assert.Equal(t, StatusError, got.Status)
	})

	t.Run("disconnected", func(t *testing.T) {
		fs := &fakeSync{resp: &backend.SyncResponse{Success: true}}
		svc, _ := newTestService(t, fs, nil)
		_, _ = svc.Connect(ctx, "u1", "hubspot", ExchangeResult{IntegrationID: "i1"})
		require.NoError(t, svc.Disconnect(ctx, "i1"))

		_, err := svc.TriggerSync(ctx, "i1")
		assert.ErrorIs(t, err, ErrNotConnected)
		assert.EqualValues(t, 0, fs.calls.Load())
	})
}

func TestTriggerSync_DisconnectDuringSyncWins(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		fs   *fakeSync
	}{
		{"success", &fakeSync{resp: &backend.SyncResponse{Success: true, ItemsSynced: 3}}},
		{"rejected", &fakeSync{resp: &backend.SyncResponse{Success: false, Error: "token revoked"}}},
		{"transport", &fakeSync{err: errors.New("dial tcp: refused")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.fs.entered = make(chan struct{})
			tc.fs.release = make(chan struct{})
			svc, _ := newTestService(t, tc.fs, nil)
			_, err := svc.Connect(ctx, "u1", "hubspot", ExchangeResult{
				IntegrationID: "i1",
				Credentials:   Credentials{AccessToken: "at", RefreshToken: "rt"},
			})
			require.NoError(t, err)

			errc := make(chan error, 1)
			go func() {
				_, err := svc.TriggerSync(ctx, "i1")
				errc <- err
			}()

			<-tc.fs.entered
			require.NoError(t, svc.Disconnect(ctx, "i1"))
			close(tc.fs.release)

			assert.ErrorIs(t, <-errc, ErrNotConnected)
			got, err := svc.Get(ctx, "i1")
			require.NoError(t, err)
			assert.Equal(t, StatusDisconnected, got.Status)
			assert.True(t, got.Credentials.IsZero())
			assert.Nil(t, got.LastSyncAt)
			assert.Empty(t, got.LastError)
		})
	}
}

func TestListForUser_Aliases(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil, nil)
	_, err := svc.Connect(ctx, "u-new", "hubspot", ExchangeResult{IntegrationID: "i1"})
	require.NoError(t, err)
	_, err = svc.Connect(ctx, "u-old", "google", ExchangeResult{IntegrationID: "i2"})
	require.NoError(t, err)
	_, err = svc.Connect(ctx, "someone-else", "mailchimp", ExchangeResult{IntegrationID: "i3"})
	require.NoError(t, err)

	list, err := svc.ListForUser(ctx, "u-new", "u-old", "u-old", " ")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "google", list[0].Provider)
	assert.Equal(t, "hubspot", list[1].Provider)

	_, err = svc.ListForUser(ctx)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.ListForUser(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "OAuth good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	reg := providers.NewRegistry()
	require.NoError(t, reg.Register(providers.Descriptor{
		ID: "mailchimp", ProbeURL: srv.URL, ProbeAuthScheme: "OAuth",
	}, providers.Credentials{ClientID: "c", RedirectURI: "https://app/cb"}))
	require.NoError(t, reg.Register(providers.Descriptor{ID: "noprobe"},
		providers.Credentials{ClientID: "c", RedirectURI: "https://app/cb"}))

	svc, _ := newTestService(t, nil, reg)
	ctx := context.Background()

	ok, err := svc.TestConnection(ctx, "mailchimp", "good")
	require.NoError(t, err)
	assert.True(t, ok.Connected)

	bad, err := svc.TestConnection(ctx, "mailchimp", "bad")
	require.NoError(t, err)
	assert.False(t, bad.Connected)
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)

	_, err = svc.TestConnection(ctx, "noprobe", "x")
	assert.ErrorIs(t, err, ErrProbeUnsupported)

	_, err = svc.TestConnection(ctx, "nope", "x")
	assert.ErrorIs(t, err, providers.ErrUnsupportedProvider)
}
