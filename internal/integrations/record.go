// Package integrations owns the durable integration records: one active
// record per (user, provider), connected from a successful code exchange,
// disconnected on request, synced through the backend.
package integrations

import (
	"errors"
	"time"
)

// Status of an integration record.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
	StatusPending      Status = "pending"
)

var (
	ErrNotFound         = errors.New("integration not found")
	ErrInvalidInput     = errors.New("invalid integration input")
	ErrNotConnected     = errors.New("integration is not connected")
	ErrProbeUnsupported = errors.New("provider has no connection probe")
	ErrSyncUnavailable  = errors.New("sync backend unavailable")
	ErrConflict         = errors.New("integration id belongs to another user or provider")
)

// Credentials are provider tokens. They are opaque here and encrypted at rest.
type Credentials struct {
	AccessToken       string
	RefreshToken      string
	ExpiresAt         *time.Time
	Scopes            []string
	ExternalAccountID string
}

// IsZero reports whether no credential is held.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.ExpiresAt == nil &&
		len(c.Scopes) == 0 && c.ExternalAccountID == ""
}

// Record is a user's integration with one provider.
type Record struct {
	ID          string
	UserID      string
	Provider    string
	Credentials Credentials
	Status      Status
	ConnectedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastSyncAt  *time.Time
	LastError   string
}

func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Credentials.Scopes != nil {
		cp.Credentials.Scopes = append([]string(nil), r.Credentials.Scopes...)
	}
	return &cp
}
