package oauthflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/metrics"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

// DefaultReturnTo is where flows resume when the caller gives no returnTo.
const DefaultReturnTo = "/integrations"

// Popup window size for a typical consent screen.
const (
	PopupWidth  = 600
	PopupHeight = 700
)

// ProviderResolver resolves provider metadata by id.
type ProviderResolver interface {
	Resolve(id string) (providers.Provider, error)
}

// FlowStore is the correlation store used by the initiator and the processor.
type FlowStore interface {
	Begin(ctx context.Context, scope, provider, userID string, opts flowstate.Options) (*flowstate.FlowState, error)
	Peek(ctx context.Context, scope string) *flowstate.FlowState
	Consume(ctx context.Context, scope string) *flowstate.FlowState
}

// StartRequest is the input of Initiator.Start.
type StartRequest struct {
	Scope          string // browsing context
	Provider       string
	UserID         string
	Mode           string
	ReturnTo       string
	CorrelationID  string
	ConversationID string
}

// PopupFeatures sizes the window the caller opens in popup mode.
type PopupFeatures struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StartResult is what the caller needs to hand control to the provider.
type StartResult struct {
	Provider         string
	AuthorizationURL string
	State            string
	Mode             flowstate.Mode
	Popup            *PopupFeatures
}

// Initiator starts OAuth flows.
type Initiator interface {
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// InitiatorDeps contains dependencies for the initiator.
type InitiatorDeps struct {
	Providers       ProviderResolver
	Flows           FlowStore
	DefaultReturnTo string
}

type initiator struct {
	deps InitiatorDeps
}

// NewInitiator creates a new Initiator.
func NewInitiator(deps InitiatorDeps) Initiator {
	if deps.DefaultReturnTo == "" {
		deps.DefaultReturnTo = DefaultReturnTo
	}
	return &initiator{deps: deps}
}

// Start resolves the provider, durably records the flow and builds the
// authorization URL. The URL is returned only after the flow is stored.
func (i *initiator) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.start"),
		logger.Provider(req.Provider),
	)

	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}
	if strings.TrimSpace(req.Scope) == "" {
		return nil, ErrMissingScope
	}

	mode, err := flowstate.ParseMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	returnTo, err := NormalizeReturnTo(req.ReturnTo, i.deps.DefaultReturnTo)
	if err != nil {
		return nil, err
	}

	p, err := i.deps.Providers.Resolve(req.Provider)
	if err != nil {
		log.Debug("provider not resolvable", logger.Err(err))
		return nil, err
	}

	flow, err := i.deps.Flows.Begin(ctx, req.Scope, p.ID, req.UserID, flowstate.Options{
		Mode:           mode,
		ReturnTo:       returnTo,
		CorrelationID:  req.CorrelationID,
		ConversationID: req.ConversationID,
		PKCE:           p.SupportsPKCE,
	})
	if err != nil {
		log.Error("begin flow failed", logger.Err(err))
		return nil, fmt.Errorf("oauthflow: begin flow: %w", err)
	}

	res := &StartResult{
		Provider:         p.ID,
		AuthorizationURL: AuthorizationURL(p, flow.State, flow.CodeVerifier),
		State:            flow.State,
		Mode:             flow.Mode,
	}
	if flow.Mode == flowstate.ModePopup {
		res.Popup = &PopupFeatures{Width: PopupWidth, Height: PopupHeight}
	}

	metrics.RecordFlowStarted(p.ID, string(flow.Mode))
	log.Info("oauth flow started",
		logger.Mode(string(flow.Mode)),
		logger.UserID(req.UserID),
		logger.CorrelationID(req.CorrelationID),
		logger.Prefix("state", flow.State),
	)
	return res, nil
}

// AuthorizationURL builds the provider authorization URL: client_id,
// redirect_uri, response_type=code, scope, state, provider extras and the PKCE
// challenge when verifier is set.
func AuthorizationURL(p providers.Provider, state, verifier string) string {
	cfg := &oauth2.Config{
		ClientID:    p.ClientID,
		RedirectURL: p.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthorizationEndpoint,
			TokenURL: p.TokenEndpoint,
		},
		Scopes: p.Scopes(),
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(p.ExtraParams)+2)
	for k, v := range p.ExtraParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return cfg.AuthCodeURL(state, opts...)
}

// NormalizeReturnTo accepts only same-origin relative paths ("/x", not "//x").
// Empty input yields def.
func NormalizeReturnTo(raw, def string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "", ErrInvalidReturnTo
	}
	if strings.ContainsAny(raw, "\r\n\t") {
		return "", ErrInvalidReturnTo
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", ErrInvalidReturnTo
	}
	return raw, nil
}
