package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-connect/internal/backend"
	"github.com/dropDatabas3/hellojohn-connect/internal/metrics"
	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
)

// ExchangeResult is what a successful code exchange hands to Connect.
type ExchangeResult struct {
	IntegrationID string // empty: a new id is generated
	ConnectedAt   time.Time
	Credentials   Credentials
}

// SyncResult is the outcome of TriggerSync.
type SyncResult struct {
	IntegrationID string     `json:"integrationId"`
	Status        Status     `json:"status"`
	SyncedAt      *time.Time `json:"syncedAt,omitempty"`
	ItemsSynced   int        `json:"itemsSynced"`
	Error         string     `json:"error,omitempty"`
}

// TestResult is the outcome of TestConnection.
type TestResult struct {
	Connected  bool   `json:"connected"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SyncBackend triggers provider data syncs. *backend.Client satisfies it.
type SyncBackend interface {
	Sync(ctx context.Context, integrationID string) (*backend.SyncResponse, error)
}

// ProviderResolver resolves provider metadata by id.
type ProviderResolver interface {
	Resolve(id string) (providers.Provider, error)
}

// Service is the integration reconciler.
type Service interface {
	Connect(ctx context.Context, userID, provider string, res ExchangeResult) (*Record, error)
	Disconnect(ctx context.Context, integrationID string) error
	Get(ctx context.Context, integrationID string) (*Record, error)
	ListForUser(ctx context.Context, userIDs ...string) ([]Record, error)
	TriggerSync(ctx context.Context, integrationID string) (*SyncResult, error)
	TestConnection(ctx context.Context, provider, token string) (*TestResult, error)
}

// Deps contains dependencies for the reconciler.
type Deps struct {
	Repo       Repository
	Backend    SyncBackend
	Providers  ProviderResolver
	HTTPClient *http.Client // connection probes
	Now        func() time.Time
}

type service struct {
	deps  Deps
	syncs singleflight.Group
}

// NewService creates a new reconciler Service.
func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &service{deps: deps}
}

// Connect upserts the record for (userID, provider). Calling it again with
// the same integration id yields the same single record.
func (s *service) Connect(ctx context.Context, userID, provider string, res ExchangeResult) (*Record, error) {
	userID = strings.TrimSpace(userID)
	provider = strings.ToLower(strings.TrimSpace(provider))
	if userID == "" || provider == "" {
		return nil, fmt.Errorf("%w: user and provider are required", ErrInvalidInput)
	}

	now := s.deps.Now().UTC()
	connectedAt := res.ConnectedAt
	if connectedAt.IsZero() {
		connectedAt = now
	}
	id := res.IntegrationID
	if id == "" {
		id = uuid.NewString()
	}

	rec, err := s.deps.Repo.Upsert(ctx, &Record{
		ID:          id,
		UserID:      userID,
		Provider:    provider,
		Credentials: res.Credentials,
		Status:      StatusConnected,
		ConnectedAt: &connectedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("integration connected",
		logger.Layer("service"),
		logger.Component("integrations.connect"),
		logger.IntegrationID(rec.ID),
		logger.UserID(userID),
		logger.Provider(provider),
	)
	return rec, nil
}

// Disconnect clears the credentials and keeps the audit fields.
func (s *service) Disconnect(ctx context.Context, integrationID string) error {
	rec, err := s.deps.Repo.Get(ctx, integrationID)
	if err != nil {
		return err
	}
	if rec.Status == StatusDisconnected && rec.Credentials.IsZero() {
		return nil
	}
	if err := s.deps.Repo.MarkDisconnected(ctx, rec.ID, s.deps.Now().UTC()); err != nil {
		return err
	}

	logger.From(ctx).Info("integration disconnected",
		logger.Layer("service"),
		logger.Component("integrations.disconnect"),
		logger.IntegrationID(rec.ID),
		logger.Provider(rec.Provider),
	)
	return nil
}

func (s *service) Get(ctx context.Context, integrationID string) (*Record, error) {
	return s.deps.Repo.Get(ctx, integrationID)
}

// ListForUser lists the records owned by any of userIDs: the canonical id
// of a session plus its aliases.
func (s *service) ListForUser(ctx context.Context, userIDs ...string) ([]Record, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrInvalidInput
	}
	return s.deps.Repo.ListByUser(ctx, ids...)
}

// TriggerSync asks the backend to sync one integration. Concurrent calls for
// the same id share a single backend request.
func (s *service) TriggerSync(ctx context.Context, integrationID string) (*SyncResult, error) {
	if s.deps.Backend == nil {
		return nil, ErrSyncUnavailable
	}
	// shared by every waiter, so it must not die with the first caller
	detached := context.WithoutCancel(ctx)

	v, err, _ := s.syncs.Do(integrationID, func() (any, error) {
		return s.sync(detached, integrationID)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*SyncResult)
	return &res, nil
}

func (s *service) sync(ctx context.Context, integrationID string) (*SyncResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("integrations.sync"),
		logger.IntegrationID(integrationID),
	)

	rec, err := s.deps.Repo.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusDisconnected {
		return nil, ErrNotConnected
	}

	resp, callErr := s.deps.Backend.Sync(ctx, integrationID)
	now := s.deps.Now().UTC()
	upd := SyncUpdate{ID: integrationID, UpdatedAt: now}
	out := &SyncResult{IntegrationID: integrationID}

	switch {
	case callErr != nil:
		upd.Status = StatusError
		upd.LastError = callErr.Error()
	case !resp.Success:
		upd.Status = StatusError
		upd.LastError = firstNonEmpty(resp.Error, resp.ErrorCode, "sync rejected")
	default:
		syncedAt := now
		if resp.SyncedAt != nil {
			syncedAt = resp.SyncedAt.UTC()
		}
		upd.Status = StatusConnected
		upd.LastSyncAt = &syncedAt
		out.SyncedAt = &syncedAt
		out.ItemsSynced = resp.ItemsSynced
	}
	out.Status = upd.Status
	out.Error = upd.LastError

	// a Disconnect that landed while the backend was working wins
	if err := s.deps.Repo.RecordSync(ctx, upd); err != nil {
		if errors.Is(err, ErrNotConnected) {
			log.Info("integration disconnected during sync, outcome dropped")
		}
		return nil, err
	}

	if upd.Status == StatusConnected {
		metrics.RecordSync(rec.Provider, "ok")
		log.Info("integration synced", logger.Int("items", out.ItemsSynced))
	} else {
		metrics.RecordSync(rec.Provider, "failed")
		log.Warn("integration sync failed", logger.String("last_error", upd.LastError))
	}

	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncUnavailable, callErr)
	}
	return out, nil
}

// TestConnection probes the provider API with token.
func (s *service) TestConnection(ctx context.Context, provider, token string) (*TestResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	p, err := s.deps.Providers.Resolve(provider)
	if err != nil {
		return nil, err
	}
	if p.ProbeURL == "" {
		return nil, ErrProbeUnsupported
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProbeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.AuthScheme()+" "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.deps.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return &TestResult{Connected: false, Error: "provider unreachable"}, nil
	}
	defer resp.Body.Close()

	res := &TestResult{
		Connected:  resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
	if !res.Connected {
		res.Error = http.StatusText(resp.StatusCode)
	}
	return res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
