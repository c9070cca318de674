package flowstate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dropDatabas3/hellojohn-connect/internal/cache"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-connect/internal/security/token"
)

// DefaultTTL bounds how long an abandoned flow stays valid.
const DefaultTTL = 15 * time.Minute

// nonceBytes is the entropy of the state nonce (256 bits).
const nonceBytes = 32

// Sealer turns a random nonce into the opaque state token sent to the provider.
type Sealer interface {
	Seal(provider, nonce string) (string, error)
}

// Config contains dependencies for the Store.
type Config struct {
	KV     cache.Client
	TTL    time.Duration
	Sealer Sealer // optional: when nil the raw nonce is the state token
}

// Store is the correlation store. It is safe for concurrent use as long as the
// underlying cache.Client is.
type Store struct {
	kv     cache.Client
	ttl    time.Duration
	sealer Sealer
	now    func() time.Time
}

// NewStore creates a Store.
func NewStore(cfg Config) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		kv:     cfg.KV,
		ttl:    ttl,
		sealer: cfg.Sealer,
		now:    time.Now,
	}
}

// TTL returns the flow expiry window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Begin creates a new flow for scope, replacing any previous one, and returns
// only after the slot has been durably written.
func (s *Store) Begin(ctx context.Context, scope, provider, userID string, opts Options) (*FlowState, error) {
	scope = strings.TrimSpace(scope)
	switch {
	case scope == "":
		return nil, ErrScopeRequired
	case strings.TrimSpace(userID) == "":
		return nil, ErrUserRequired
	case strings.TrimSpace(provider) == "":
		return nil, ErrProviderRequired
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeRedirect
	}
	if mode != ModeRedirect && mode != ModePopup {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	nonce, err := tokens.GenerateOpaqueToken(nonceBytes)
	if err != nil {
		return nil, fmt.Errorf("flowstate: generate nonce: %w", err)
	}
	state := nonce
	if s.sealer != nil {
		if state, err = s.sealer.Seal(provider, nonce); err != nil {
			return nil, fmt.Errorf("flowstate: seal state: %w", err)
		}
	}

	f := &FlowState{
		Provider:       provider,
		State:          state,
		UserID:         userID,
		ReturnTo:       opts.ReturnTo,
		Mode:           mode,
		ConversationID: opts.ConversationID,
		CorrelationID:  opts.CorrelationID,
		StartedAt:      s.now().UTC(),
	}
	if opts.PKCE {
		f.CodeVerifier = oauth2.GenerateVerifier()
	}

	// Every key is rewritten (optional ones as ""), so nothing of a previous
	// flow survives in the slot.
	entries := make(map[string]string, len(slotKeys))
	for k, v := range f.encode() {
		entries[slotKey(scope, k)] = v
	}
	if err := s.kv.SetMany(ctx, entries, s.ttl); err != nil {
		return nil, fmt.Errorf("flowstate: persist slot: %w", err)
	}
	return f, nil
}

// Peek returns the in-flight flow without clearing it, or nil.
// Only for rendering; never use it to finalize a flow.
func (s *Store) Peek(ctx context.Context, scope string) *FlowState {
	if strings.TrimSpace(scope) == "" {
		return nil
	}
	raw := make(map[string]string, len(slotKeys))
	for _, k := range slotKeys {
		v, err := s.kv.Get(ctx, slotKey(scope, k))
		if err != nil {
			if !cache.IsNotFound(err) {
				logger.From(ctx).Warn("flow slot peek failed", logger.Component("flowstate"), logger.Err(err))
				return nil
			}
			continue
		}
		raw[k] = v
	}
	return s.materialize(ctx, raw)
}

// Consume returns the in-flight flow and clears the slot atomically.
// A second call returns nil.
func (s *Store) Consume(ctx context.Context, scope string) *FlowState {
	if strings.TrimSpace(scope) == "" {
		return nil
	}
	full := make([]string, len(slotKeys))
	for i, k := range slotKeys {
		full[i] = slotKey(scope, k)
	}
	taken, err := s.kv.Take(ctx, full...)
	if err != nil {
		logger.From(ctx).Warn("flow slot consume failed", logger.Component("flowstate"), logger.Err(err))
		return nil
	}
	raw := make(map[string]string, len(taken))
	for i, k := range slotKeys {
		if v, ok := taken[full[i]]; ok {
			raw[k] = v
		}
	}
	return s.materialize(ctx, raw)
}

func (s *Store) materialize(ctx context.Context, raw map[string]string) *FlowState {
	if len(raw) == 0 {
		return nil
	}
	f, err := decode(raw)
	if err != nil {
		logger.From(ctx).Warn("discarding corrupted flow slot", logger.Component("flowstate"), logger.Err(err))
		return nil
	}
	if !f.StartedAt.IsZero() && s.now().After(f.StartedAt.Add(s.ttl)) {
		return nil
	}
	return f
}

func slotKey(scope, key string) string {
	return "flow:" + scope + ":" + key
}
