package integrations

import (
	"context"
	"time"
)

// Repository persists integration records.
type Repository interface {
	// Upsert stores rec keyed by (UserID, Provider). An existing record for the
	// pair is replaced, keeping its CreatedAt. Returns the stored record.
	// ErrConflict when rec.ID already identifies a record of another pair.
	Upsert(ctx context.Context, rec *Record) (*Record, error)

	// MarkDisconnected clears the credentials of the record and sets it
	// disconnected. Audit fields are kept. Repeating it is a no-op.
	MarkDisconnected(ctx context.Context, id string, at time.Time) error

	// RecordSync writes a sync outcome. It never touches credentials and
	// returns ErrNotConnected, writing nothing, when the record is disconnected.
	RecordSync(ctx context.Context, u SyncUpdate) error

	Get(ctx context.Context, id string) (*Record, error)
	GetByUserProvider(ctx context.Context, userID, provider string) (*Record, error)

	// ListByUser returns the records owned by any of userIDs, ordered by provider.
	ListByUser(ctx context.Context, userIDs ...string) ([]Record, error)
}

// SyncUpdate is the outcome of one sync attempt.
type SyncUpdate struct {
	ID         string
	Status     Status
	LastSyncAt *time.Time // nil keeps the stored value
	LastError  string
	UpdatedAt  time.Time
}
