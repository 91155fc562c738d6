// Package users provides the PostgreSQL repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// mapWriteError turns unique index violations into common.ErrorAlreadyExists.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return fmt.Errorf("db error: %w", err)
}

const userColumns = `id, document_id, username, email, password_hash, provider, confirmed, blocked,
       role_id, slug, location, phone_number, avatar_url, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.DocumentID, &u.Username, &u.Email, &u.PasswordHash, &u.Provider,
		&u.Confirmed, &u.Blocked, &u.RoleID, &u.Slug, &u.Location, &u.PhoneNumber, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (document_id, username, email, password_hash, provider, confirmed, blocked, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.DocumentID, user.Username, user.Email, user.PasswordHash, user.Provider,
		user.Confirmed, user.Blocked, user.RoleID).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE lower(username) = lower($1) OR lower(email) = lower($1)
		ORDER BY id LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) Taken(ctx context.Context, username, email string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM users
		WHERE id <> $3 AND ((lower(username) = lower($1) AND $1 <> '') OR (lower(email) = lower($2) AND $2 <> ''))
	)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

// Update writes the non-nil fields of patch and returns the updated row.
// An empty patch only reloads the user.
func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 7)
	args := make([]any, 0, 7)
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("username", patch.Username)
	add("email", patch.Email)
	add("location", patch.Location)
	add("phone_number", patch.PhoneNumber)
	add("slug", patch.Slug)
	add("avatar_url", patch.AvatarURL)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, mapWriteError(pgErr)
		}
	}
	return u, err
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
