package oauthflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-connect/internal/backend"
	"github.com/dropDatabas3/hellojohn-connect/internal/cache"
	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/builtin"
)

const testRedirectURI = "https://app.example.com/integrations/oauth/callback"

type fakeExchanger struct {
	mu    sync.Mutex
	calls []backend.ExchangeRequest
	resp  *backend.ExchangeResponse
	err   error
}

func (f *fakeExchanger) Exchange(_ context.Context, req backend.ExchangeRequest) (*backend.ExchangeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func (f *fakeExchanger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// hangingExchanger never answers on its own; it returns when ctx ends.
type hangingExchanger struct {
	deadline chan bool // reports whether ctx carried a deadline
}

func (f *hangingExchanger) Exchange(ctx context.Context, _ backend.ExchangeRequest) (*backend.ExchangeResponse, error) {
	_, ok := ctx.Deadline()
	f.deadline <- ok
	<-ctx.Done()
	return nil, &backend.TransportError{Op: "exchange", Err: ctx.Err()}
}

type failingReconciler struct{}

func (failingReconciler) Connect(context.Context, string, string, integrations.ExchangeResult) (*integrations.Record, error) {
	return nil, integrations.ErrInvalidInput
}

type harness struct {
	registry  *providers.Registry
	flows     *flowstate.Store
	signer    *StateSigner
	exchanger *fakeExchanger
	recon     integrations.Service
	initiator Initiator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	reg := providers.NewRegistry()
	for _, d := range builtin.Descriptors() {
		require.NoError(t, reg.Register(d, providers.Credentials{ClientID: "cid-" + d.ID, RedirectURI: testRedirectURI}))
	}

	signer, err := NewStateSigner(testKey(), flowstate.DefaultTTL)
	require.NoError(t, err)

	kv := cache.NewMemory("", 0)
	t.Cleanup(func() { _ = kv.Close() })
	flows := flowstate.NewStore(flowstate.Config{KV: kv, Sealer: signer})

	h := &harness{
		registry:  reg,
		flows:     flows,
		signer:    signer,
		exchanger: &fakeExchanger{resp: &backend.ExchangeResponse{Success: true, Provider: "hubspot", IntegrationID: "i1"}},
		recon:     integrations.NewService(integrations.Deps{Repo: integrations.NewMemoryRepository()}),
	}
	h.initiator = NewInitiator(InitiatorDeps{Providers: reg, Flows: flows})
	return h
}

func (h *harness) deps() ProcessorDeps {
	return ProcessorDeps{
		Providers:  h.registry,
		Flows:      h.flows,
		States:     h.signer,
		Exchanger:  h.exchanger,
		Reconciler: h.recon,
	}
}

func (h *harness) callback(ctx context.Context, scope string, params CallbackParams, userID string) *Result {
	var session *identity.Identity
	if userID != "" {
		session = &identity.Identity{UserID: userID}
	}
	return NewProcessor(h.deps(), Visit{Scope: scope, Params: params, Session: session}).Run(ctx)
}
