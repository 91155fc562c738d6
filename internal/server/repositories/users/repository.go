package users

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// FindByIdentifier matches username or email, case-insensitively.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Taken reports whether username or email is used by a user other than excludeID.
	Taken(ctx context.Context, username, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) error
}
