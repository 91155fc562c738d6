// Package resettokens provides a PostgreSQL-backed repository for password
// reset codes. Only the digest of a code is stored.
package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// PostgresRepository works over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, codeDigest string, expiresAt time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, code_digest, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, codeDigest, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the token for codeDigest or common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, codeDigest string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, code_digest, expires_at, created_at
		FROM password_reset_tokens
		WHERE code_digest = $1
	`
	t := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, codeDigest).Scan(&t.ID, &t.UserID, &t.CodeDigest, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// DeleteForUser drops every outstanding code of the user.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM password_reset_tokens WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
