package client

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

type Client interface {
	Login(ctx context.Context, identifier, password string) (*models.Session, error)
	Register(ctx context.Context, username, email, password string) (*models.Session, error)
	Me(ctx context.Context, token string) (*models.Profile, error)
	ProfileExtras(ctx context.Context, token, username string) (*models.ProfileExtras, error)
	UpdateUser(ctx context.Context, token string, id int64, patch models.ProfilePatch) (*models.Profile, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password, passwordConfirmation string) (*models.Session, error)
	UploadAvatar(ctx context.Context, token, path string) (*models.UploadedFile, error)

	Articles(ctx context.Context, category string) ([]models.Article, error)
	ArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Products(ctx context.Context, category string) ([]models.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*models.Product, error)

	// Ping checks that the API answers its health probe.
	Ping(ctx context.Context) error

	// AbsoluteURL resolves a media path returned by the API against the
	// API base URL. An empty path yields "".
	AbsoluteURL(path string) string
}
