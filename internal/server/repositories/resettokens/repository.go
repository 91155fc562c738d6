package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID int64, codeDigest string, expiresAt time.Time) error
	Find(ctx context.Context, codeDigest string) (*models.PasswordResetToken, error)
	DeleteForUser(ctx context.Context, userID int64) error
}
