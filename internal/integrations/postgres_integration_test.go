//go:build integration

package integrations

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgmigrations "github.com/dropDatabas3/hellojohn-connect/migrations/postgres"
	"github.com/dropDatabas3/hellojohn-connect/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-connect/internal/store"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("connect"),
		postgres.WithUsername("connect"),
		postgres.WithPassword("connect"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = store.NewMigrator(pgmigrations.IntegrationsFS, pgmigrations.IntegrationsDir).Run(ctx, pool)
	require.NoError(t, err)

	box, err := secretbox.New([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	repo := NewPostgresRepository(pool, box)

	now := time.Now().UTC().Truncate(time.Millisecond)
	first, err := repo.Upsert(ctx, &Record{
		ID: "i1", UserID: "u1", Provider: "hubspot", Status: StatusConnected,
		Credentials: Credentials{AccessToken: "at", RefreshToken: "rt", Scopes: []string{"oauth"}},
		CreatedAt:   now, UpdatedAt: now,
	})
	require.NoError(t, err)

	var stored string
	require.NoError(t, pool.QueryRow(ctx, `SELECT access_token_enc FROM user_integration WHERE id = 'i1'`).Scan(&stored))
	assert.NotEqual(t, "at", stored)

	_, err = repo.Upsert(ctx, &Record{
		ID: "i2", UserID: "u1", Provider: "hubspot", Status: StatusConnected,
		CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "i2", list[0].ID)
	assert.True(t, first.CreatedAt.Equal(list[0].CreatedAt))

	got, err := repo.GetByUserProvider(ctx, "u1", "hubspot")
	require.NoError(t, err)
	synced := now.Add(2 * time.Hour)
	require.NoError(t, repo.RecordSync(ctx, SyncUpdate{
		ID: got.ID, Status: StatusError, LastSyncAt: &synced, LastError: "revoked", UpdatedAt: synced,
	}))
	require.NoError(t, repo.MarkDisconnected(ctx, got.ID, synced.Add(time.Minute)))
	require.NoError(t, repo.MarkDisconnected(ctx, got.ID, synced.Add(time.Hour)))

	again, err := repo.Get(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, again.Status)
	assert.True(t, again.Credentials.IsZero())
	assert.Equal(t, "revoked", again.LastError)
	assert.True(t, synced.Add(time.Minute).Equal(again.UpdatedAt))

	err = repo.RecordSync(ctx, SyncUpdate{ID: "i2", Status: StatusConnected, UpdatedAt: synced.Add(2 * time.Hour)})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, repo.RecordSync(ctx, SyncUpdate{ID: "i9", Status: StatusConnected}), ErrNotFound)
	assert.ErrorIs(t, repo.MarkDisconnected(ctx, "i9", synced), ErrNotFound)

	_, err = repo.Upsert(ctx, &Record{ID: "i2", UserID: "u2", Provider: "hubspot", Status: StatusConnected})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = repo.Get(ctx, "i1")
	assert.ErrorIs(t, err, ErrNotFound)
}
