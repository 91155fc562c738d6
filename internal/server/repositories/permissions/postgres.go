// Package permissions stores roles and the actions granted to them.
package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) role(ctx context.Context, where string, arg any) (*models.Role, error) {
	query := `SELECT id, name, type, description FROM roles WHERE ` + where

	role := &models.Role{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name, &role.Type, &role.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

func (r *PostgresRepository) RoleByType(ctx context.Context, roleType string) (*models.Role, error) {
	return r.role(ctx, "type = $1", roleType)
}

func (r *PostgresRepository) RoleByID(ctx context.Context, id int64) (*models.Role, error) {
	return r.role(ctx, "id = $1", id)
}

func (r *PostgresRepository) Grant(ctx context.Context, roleID int64, action string) (bool, error) {
	query := `INSERT INTO permissions (action, role_id) VALUES ($1, $2) ON CONFLICT (role_id, action) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, action, roleID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Actions(ctx context.Context, roleType string) ([]string, error) {
	query := `SELECT p.action FROM permissions p JOIN roles r ON r.id = p.role_id WHERE r.type = $1 ORDER BY p.action`

	rows, err := r.db.QueryContext(ctx, query, roleType)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return actions, nil
}
