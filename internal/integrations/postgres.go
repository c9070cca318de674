package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cipher encrypts credentials at rest. *secretbox.Box satisfies it.
type Cipher interface {
	Encrypt(plainText string) (string, error)
	Decrypt(cipherText string) (string, error)
}

const (
	integrationTable = "user_integration"
	integrationPKey  = "user_integration_pkey"
	uniqueViolation  = "23505"
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var integrationColumns = []string{
	"id", "user_id", "provider", "status",
	"access_token_enc", "refresh_token_enc", "token_expires_at", "scopes", "external_account_id",
	"connected_at", "created_at", "updated_at", "last_sync_at", "last_error",
}

type pgRepo struct {
	pool   *pgxpool.Pool
	cipher Cipher
}

// NewPostgresRepository creates a Repository over the user_integration table.
func NewPostgresRepository(pool *pgxpool.Pool, cipher Cipher) Repository {
	return &pgRepo{pool: pool, cipher: cipher}
}

func (r *pgRepo) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil || rec.ID == "" || rec.UserID == "" || rec.Provider == "" {
		return nil, ErrInvalidInput
	}
	access, refresh, err := r.seal(rec.Credentials)
	if err != nil {
		return nil, err
	}

	query, args, err := psq.Insert(integrationTable).
		Columns(integrationColumns...).
		Values(
			rec.ID, rec.UserID, rec.Provider, string(rec.Status),
			access, refresh, rec.Credentials.ExpiresAt, scopesOrEmpty(rec.Credentials.Scopes), rec.Credentials.ExternalAccountID,
			rec.ConnectedAt, rec.CreatedAt, rec.UpdatedAt, rec.LastSyncAt, rec.LastError,
		).
		Suffix(`ON CONFLICT (user_id, provider) DO UPDATE SET
			id = EXCLUDED.id,
			status = EXCLUDED.status,
			access_token_enc = EXCLUDED.access_token_enc,
			refresh_token_enc = EXCLUDED.refresh_token_enc,
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			external_account_id = EXCLUDED.external_account_id,
			connected_at = EXCLUDED.connected_at,
			updated_at = EXCLUDED.updated_at,
			last_sync_at = EXCLUDED.last_sync_at,
			last_error = EXCLUDED.last_error
		RETURNING created_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	out := rec.clone()
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&out.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == integrationPKey {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("upsert integration: %w", err)
	}
	return out, nil
}

func (r *pgRepo) MarkDisconnected(ctx context.Context, id string, at time.Time) error {
	query, args, err := psq.Update(integrationTable).
		Set("status", string(StatusDisconnected)).
		Set("access_token_enc", "").
		Set("refresh_token_enc", "").
		Set("token_expires_at", nil).
		Set("scopes", []string{}).
		Set("external_account_id", "").
		Set("updated_at", at).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Or{
				sq.NotEq{"status": string(StatusDisconnected)},
				sq.NotEq{"access_token_enc": ""},
				sq.NotEq{"refresh_token_enc": ""},
			},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build disconnect: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("disconnect integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// already disconnected, or missing
		_, err := r.Get(ctx, id)
		return err
	}
	return nil
}

func (r *pgRepo) RecordSync(ctx context.Context, u SyncUpdate) error {
	if u.ID == "" || u.Status == "" {
		return ErrInvalidInput
	}

	b := psq.Update(integrationTable).
		Set("status", string(u.Status)).
		Set("last_error", u.LastError).
		Set("updated_at", u.UpdatedAt).
		Where(sq.And{
			sq.Eq{"id": u.ID},
			sq.NotEq{"status": string(StatusDisconnected)},
		})
	if u.LastSyncAt != nil {
		b = b.Set("last_sync_at", *u.LastSyncAt)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build sync update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// nothing written: tell a missing row from a disconnected one
	if _, err := r.Get(ctx, u.ID); err != nil {
		return err
	}
	return ErrNotConnected
}

func (r *pgRepo) Get(ctx context.Context, id string) (*Record, error) {
	return r.selectOne(ctx, sq.Eq{"id": id})
}

func (r *pgRepo) GetByUserProvider(ctx context.Context, userID, provider string) (*Record, error) {
	return r.selectOne(ctx, sq.Eq{"user_id": userID, "provider": provider})
}

func (r *pgRepo) ListByUser(ctx context.Context, userIDs ...string) ([]Record, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := psq.Select(integrationColumns...).
		From(integrationTable).
		Where(sq.Eq{"user_id": userIDs}).
		OrderBy("provider", "user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *pgRepo) selectOne(ctx context.Context, where sq.Eq) (*Record, error) {
	query, args, err := psq.Select(integrationColumns...).
		From(integrationTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rec, err := r.scan(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *pgRepo) scan(row pgx.Row) (*Record, error) {
	var (
		rec             Record
		status          string
		access, refresh string
		expires         *time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Provider, &status,
		&access, &refresh, &expires, &rec.Credentials.Scopes, &rec.Credentials.ExternalAccountID,
		&rec.ConnectedAt, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastSyncAt, &rec.LastError,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.Credentials.ExpiresAt = expires

	if rec.Credentials.AccessToken, err = r.cipher.Decrypt(access); err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	if rec.Credentials.RefreshToken, err = r.cipher.Decrypt(refresh); err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}
	return &rec, nil
}

func (r *pgRepo) seal(c Credentials) (access, refresh string, err error) {
	if access, err = r.cipher.Encrypt(c.AccessToken); err != nil {
		return "", "", fmt.Errorf("encrypt access token: %w", err)
	}
	if refresh, err = r.cipher.Encrypt(c.RefreshToken); err != nil {
		return "", "", fmt.Errorf("encrypt refresh token: %w", err)
	}
	return access, refresh, nil
}

func scopesOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
