package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"healthgate/internal/upstream"
)

// PostgresRepository implements Repository using PostgreSQL. The user snapshot
// is stored as a JSONB column next to the upstream token so one INSERT and one
// DELETE cover the whole session lifecycle.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type sessionRow struct {
	ID            uuid.UUID `db:"id"`
	TokenHash     string    `db:"token_hash"`
	UpstreamToken string    `db:"upstream_token"`
	UserSnapshot  []byte    `db:"user_snapshot"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
	UserAgent     string    `db:"user_agent"`
	IPAddress     string    `db:"ip_address"`
}

func (row sessionRow) toRecord() (*Record, error) {
	var user upstream.User
	if err := json.Unmarshal(row.UserSnapshot, &user); err != nil {
		return nil, fmt.Errorf("decode user snapshot: %w", err)
	}

	return &Record{
		ID:            row.ID,
		UpstreamToken: row.UpstreamToken,
		User:          user,
		ExpiresAt:     row.ExpiresAt,
		CreatedAt:     row.CreatedAt,
		UserAgent:     row.UserAgent,
		IPAddress:     row.IPAddress,
	}, nil
}

// Create inserts a new session.
func (r *PostgresRepository) Create(ctx context.Context, rec Record, tokenHash string) error {
	const query = `
		INSERT INTO gateway_sessions (id, token_hash, upstream_token, user_snapshot, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	snapshot, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		tokenHash,
		rec.UpstreamToken,
		snapshot,
		rec.ExpiresAt,
		rec.CreatedAt,
		rec.UserAgent,
		rec.IPAddress,
	)
	return err
}

// FindByTokenHash looks up a session by token hash.
func (r *PostgresRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Record, error) {
	const query = `
		SELECT id, token_hash, upstream_token, user_snapshot, expires_at, created_at, user_agent, ip_address
		FROM gateway_sessions
		WHERE token_hash = $1
	`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toRecord()
}

// ReplaceUser overwrites the stored user snapshot for a session.
func (r *PostgresRepository) ReplaceUser(ctx context.Context, id uuid.UUID, user upstream.User) error {
	const query = `
		UPDATE gateway_sessions
		SET user_snapshot = $2
		WHERE id = $1
	`

	snapshot, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, id, snapshot)
	return err
}

// Delete removes a session by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM gateway_sessions WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteExpired removes all sessions whose expiry has passed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM gateway_sessions WHERE expires_at < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
