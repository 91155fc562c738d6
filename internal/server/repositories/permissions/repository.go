package permissions

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	RoleByType(ctx context.Context, roleType string) (*models.Role, error)
	RoleByID(ctx context.Context, id int64) (*models.Role, error)
	// Grant adds action to the role; created is false when it was already granted.
	Grant(ctx context.Context, roleID int64, action string) (created bool, err error)
	Actions(ctx context.Context, roleType string) ([]string, error)
}
