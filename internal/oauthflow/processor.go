package oauthflow

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/hellojohn-connect/internal/backend"
	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/identity"
	"github.com/dropDatabas3/hellojohn-connect/internal/integrations"
	"github.com/dropDatabas3/hellojohn-connect/internal/metrics"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// DefaultExchangeTimeout bounds the backend code exchange.
const DefaultExchangeTimeout = 15 * time.Second

// CallbackParams are the query parameters of the callback URL.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback extracts the callback parameters from a query string.
func ParseCallback(q url.Values) CallbackParams {
	return CallbackParams{
		Code:             strings.TrimSpace(q.Get("code")),
		State:            strings.TrimSpace(q.Get("state")),
		Error:            strings.TrimSpace(q.Get("error")),
		ErrorDescription: strings.TrimSpace(q.Get("error_description")),
	}
}

// StateVerifier checks the signature and expiry of a state token.
type StateVerifier interface {
	Verify(token, provider string) (*StateClaims, error)
}

// ProviderHinter recovers the provider of a state token whose flow is gone.
// *StateSigner satisfies it.
type ProviderHinter interface {
	ProviderHint(token string) string
}

// Exchanger trades an authorization code through the backend.
type Exchanger interface {
	Exchange(ctx context.Context, req backend.ExchangeRequest) (*backend.ExchangeResponse, error)
}

// Reconciler persists a successful exchange.
type Reconciler interface {
	Connect(ctx context.Context, userID, provider string, res integrations.ExchangeResult) (*integrations.Record, error)
}

// ProcessorDeps contains dependencies shared by every Processor.
type ProcessorDeps struct {
	Providers       ProviderResolver
	Flows           FlowStore
	States          StateVerifier // optional: nil skips the signature check
	Exchanger       Exchanger
	Reconciler      Reconciler
	ExchangeTimeout time.Duration
	DefaultReturnTo string
	Now             func() time.Time
}

// Visit is one arrival on the callback URL.
type Visit struct {
	Scope   string
	Params  CallbackParams
	Session *identity.Identity // nil when the request carries no valid session
}

// Processor runs the callback state machine for one visit. Run executes the
// transition logic once; later calls return the same Result.
type Processor struct {
	deps  ProcessorDeps
	visit Visit

	once   sync.Once
	result *Result
}

// NewProcessor creates a Processor for one callback visit.
func NewProcessor(deps ProcessorDeps, visit Visit) *Processor {
	if deps.ExchangeTimeout <= 0 {
		deps.ExchangeTimeout = DefaultExchangeTimeout
	}
	if deps.DefaultReturnTo == "" {
		deps.DefaultReturnTo = DefaultReturnTo
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Processor{deps: deps, visit: visit}
}

// Run returns the terminal outcome of the visit.
func (p *Processor) Run(ctx context.Context) *Result {
	p.once.Do(func() {
		p.result = p.run(ctx)
		if !p.result.OK() && p.result.Provider == "" {
			p.result.Provider = p.providerHint(p.visit.Params.State)
		}

		provider := p.result.Provider
		if provider == "" {
			provider = "unknown"
		}
		metrics.RecordCallback(provider, string(p.result.Status), p.result.ErrorCode)

		log := logger.From(ctx).With(
			logger.Layer("service"),
			logger.Component("oauth.callback"),
			logger.Provider(p.result.Provider),
			logger.Mode(string(p.result.Mode)),
			logger.CorrelationID(p.result.CorrelationID),
		)
		if p.result.OK() {
			log.Info("oauth callback connected", logger.IntegrationID(p.result.IntegrationID))
		} else {
			log.Warn("oauth callback failed", logger.ErrorCode(p.result.ErrorCode))
		}
	})
	return p.result
}

func (p *Processor) run(ctx context.Context) *Result {
	params := p.visit.Params
	def := p.deps.DefaultReturnTo

	// Provider-reported error: no exchange, and the slot is left for expiry
	// or the next Begin.
	if params.Error != "" {
		flow := p.deps.Flows.Peek(ctx, p.visit.Scope)
		msg := params.ErrorDescription
		if msg == "" {
			msg = params.Error
		}
		return failed(flow, "", params.Error, msg, def)
	}

	if params.Code == "" || params.State == "" {
		return failed(p.deps.Flows.Peek(ctx, p.visit.Scope), "", CodeInvalidCallback, "", def)
	}

	// From here on the flow is finalized exactly once.
	flow := p.deps.Flows.Consume(ctx, p.visit.Scope)
	if flow == nil {
		return failed(nil, "", CodeMissingFlowState, "", def)
	}

	if subtle.ConstantTimeCompare([]byte(params.State), []byte(flow.State)) != 1 {
		return failed(flow, "", CodeStateMismatch, "", def)
	}
	if p.deps.States != nil {
		if _, err := p.deps.States.Verify(params.State, flow.Provider); err != nil {
			if errors.Is(err, ErrStateExpired) {
				return failed(flow, "", CodeMissingFlowState, "", def)
			}
			return failed(flow, "", CodeStateMismatch, "", def)
		}
	}

	if !p.visit.Session.Matches(flow.UserID) {
		return failed(flow, "", CodeIdentityMismatch, "", def)
	}

	prov, err := p.deps.Providers.Resolve(flow.Provider)
	if err != nil {
		return failed(flow, "", CodeUnsupportedProvider, "", def)
	}

	resp, outcome := p.exchange(ctx, flow, params.Code, prov.RedirectURI)
	switch outcome {
	case "transport":
		return failed(flow, "", CodeExchangeTransportError, "", def)
	case "rejected":
		code := resp.ErrorCode
		if code == "" {
			code = CodeExchangeRejected
		}
		return failed(flow, "", code, resp.Error, def)
	}

	connectedAt := p.deps.Now().UTC()
	if resp.ConnectedAt != nil {
		connectedAt = resp.ConnectedAt.UTC()
	}
	rec, err := p.deps.Reconciler.Connect(ctx, flow.UserID, flow.Provider, integrations.ExchangeResult{
		IntegrationID: resp.IntegrationID,
		ConnectedAt:   connectedAt,
		Credentials:   credentialsFrom(resp.Credentials),
	})
	if err != nil {
		logger.From(ctx).Error("reconcile after exchange failed",
			logger.Component("oauth.callback"),
			logger.Provider(flow.Provider),
			logger.Err(err),
		)
		return failed(flow, "", CodeReconcileFailed, "", def)
	}

	r := &Result{
		Status:        StatusConnected,
		Provider:      flow.Provider,
		IntegrationID: rec.ID,
		ConnectedAt:   &connectedAt,
		ReturnTo:      def,
	}
	applyFlow(r, flow)
	if resp.CorrelationID != "" && r.CorrelationID == "" {
		r.CorrelationID = resp.CorrelationID
	}
	return r
}

// providerHint names the provider of an orphaned state token, if it is one
// of ours and still registered.
func (p *Processor) providerHint(state string) string {
	h, ok := p.deps.States.(ProviderHinter)
	if !ok || state == "" {
		return ""
	}
	id := h.ProviderHint(state)
	if id == "" || p.deps.Providers == nil {
		return ""
	}
	prov, err := p.deps.Providers.Resolve(id)
	if err != nil {
		return ""
	}
	return prov.ID
}

// exchange performs the single code exchange of a flow.
// outcome: ok | rejected | transport
func (p *Processor) exchange(ctx context.Context, flow *flowstate.FlowState, code, redirectURI string) (*backend.ExchangeResponse, string) {
	ctx, cancel := context.WithTimeout(ctx, p.deps.ExchangeTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.deps.Exchanger.Exchange(ctx, backend.ExchangeRequest{
		Code:          code,
		State:         flow.State,
		UserID:        flow.UserID,
		RedirectURI:   redirectURI,
		Provider:      flow.Provider,
		CodeVerifier:  flow.CodeVerifier,
		CorrelationID: flow.CorrelationID,
	})

	outcome := "ok"
	switch {
	case err != nil || resp == nil:
		outcome = "transport"
		logger.From(ctx).Warn("code exchange transport failure",
			logger.Component("oauth.callback"),
			logger.Provider(flow.Provider),
			logger.Err(err),
		)
	case !resp.Success:
		outcome = "rejected"
	}
	metrics.ObserveExchange(flow.Provider, outcome, time.Since(start))
	return resp, outcome
}

func credentialsFrom(c *backend.Credentials) integrations.Credentials {
	if c == nil {
		return integrations.Credentials{}
	}
	return integrations.Credentials{
		AccessToken:       c.AccessToken,
		RefreshToken:      c.RefreshToken,
		ExpiresAt:         c.ExpiresAt,
		Scopes:            c.Scopes,
		ExternalAccountID: c.ExternalAccountID,
	}
}
