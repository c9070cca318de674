package handoff

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-connect/internal/security/token"
)

// DefaultRedirectDelay keeps the success state visible before navigating.
const DefaultRedirectDelay = 1500 * time.Millisecond

// Config configures the handoff.
type Config struct {
	// AppOrigin is the only origin the popup message is posted to.
	AppOrigin string
	// RedirectDelay before a successful redirect-mode flow navigates back.
	RedirectDelay time.Duration
	// IntegrationsPath is the "back to integrations" target.
	IntegrationsPath string
	// StartPath is the redirect-mode start endpoint; "{provider}" is replaced.
	StartPath string
}

// Handoff turns a Result into the page served on the callback URL.
type Handoff struct {
	cfg      Config
	fallback Notifier
}

// New creates a Handoff.
func New(cfg Config) *Handoff {
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	if cfg.IntegrationsPath == "" {
		cfg.IntegrationsPath = oauthflow.DefaultReturnTo
	}
	if cfg.StartPath == "" {
		cfg.StartPath = "/v2/integrations/oauth/{provider}/start"
	}
	cfg.AppOrigin = strings.TrimRight(cfg.AppOrigin, "/")
	return &Handoff{cfg: cfg, fallback: LogNotifier{}}
}

// Deliver builds the page for r. Popup outcomes are queued for exactly one
// postMessage; redirect outcomes navigate on success. Every failure page
// offers both retry and back.
func (h *Handoff) Deliver(ctx context.Context, r *oauthflow.Result) (*Page, error) {
	if r == nil {
		return nil, errors.New("handoff: nil result")
	}
	nonce, err := tokens.GenerateOpaqueToken(16)
	if err != nil {
		return nil, err
	}

	msg := MessageFromResult(r)
	returnTo := r.ReturnTo
	if returnTo == "" {
		returnTo = h.cfg.IntegrationsPath
	}

	p := &Page{
		Nonce:    nonce,
		Success:  r.OK(),
		Provider: r.Provider,
		ReturnTo: returnTo,
		BackURL:  h.cfg.IntegrationsPath,
	}
	if r.OK() {
		p.Heading = "Connected"
		p.Body = "Your account was connected successfully."
	} else {
		p.Heading = "Connection failed"
		p.Body = r.ErrorMessage
		p.ErrorCode = r.ErrorCode
		p.RetryURL = h.retryURL(r.Provider, returnTo)
	}

	if r.Mode == flowstate.ModePopup {
		p.Kind = PagePopup
		n := NewPopupNotifier(h.cfg.AppOrigin)
		if n.IsAvailable() {
			if err := n.Notify(ctx, msg); err != nil {
				return nil, err
			}
			p.Message = n.Pending()
			p.TargetOrigin = n.TargetOrigin
		} else {
			// no origin to post to: render the outcome in the popup itself
			_ = h.fallback.Notify(ctx, msg)
		}
		return p, nil
	}

	if r.OK() {
		p.Kind = PageRedirectSuccess
		p.DelayMs = int(h.cfg.RedirectDelay / time.Millisecond)
	} else {
		p.Kind = PageRedirectFailure
	}

	logger.From(ctx).Debug("handoff page built",
		logger.Component("handoff"),
		logger.String("kind", string(p.Kind)),
		logger.Provider(r.Provider),
	)
	return p, nil
}

// retryURL starts a brand-new redirect-mode flow for the same provider.
// Without a provider the user picks one again from the integrations page.
func (h *Handoff) retryURL(provider, returnTo string) string {
	if provider == "" {
		return h.cfg.IntegrationsPath
	}
	path := strings.ReplaceAll(h.cfg.StartPath, "{provider}", url.PathEscape(provider))
	q := url.Values{}
	q.Set("mode", string(flowstate.ModeRedirect))
	q.Set("returnTo", returnTo)
	return path + "?" + q.Encode()
}
