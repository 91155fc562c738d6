package files

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.UploadFile) (*models.UploadFile, error)
	FindByID(ctx context.Context, id int64) (*models.UploadFile, error)
}
