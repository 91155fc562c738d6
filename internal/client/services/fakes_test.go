package services

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewTextSlogLogger(io.Discard, "error")
}

// openTestDB returns a migrated SQLite database in a temp dir. The path is
// returned too so a test can reopen it as a fresh process would.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := client.OpenDB(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

// fakeClient implements client.Client with canned responses.
type fakeClient struct {
	mu sync.Mutex

	sessions   map[string]*models.Session // by identifier
	loginErr   error
	registerFn func(username, email string) (*models.Session, error)
	resetFn    func(code string) (*models.Session, error)
	forgotErr  error

	extras          map[string]*models.ProfileExtras // by username
	extrasErr       error
	extrasUsernames []string

	me       *models.Profile
	meErr    error
	meTokens []string

	updateFn    func(id int64, patch models.ProfilePatch) (*models.Profile, error)
	updateCalls int
	lastToken   string
	lastPatch   models.ProfilePatch

	uploaded  *models.UploadedFile
	uploadErr error

	articles   []models.Article
	categories []models.Category
	products   []models.Product
	contentErr error
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Login(_ context.Context, identifier, _ string) (*models.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s, ok := f.sessions[identifier]
	if !ok {
		return nil, &client.APIError{Kind: client.ErrAuth, Status: 400, Message: "Invalid identifier or password"}
	}
	return s, nil
}

func (f *fakeClient) Register(_ context.Context, username, email, _ string) (*models.Session, error) {
	return f.registerFn(username, email)
}

func (f *fakeClient) ProfileExtras(_ context.Context, _, username string) (*models.ProfileExtras, error) {
	f.mu.Lock()
	f.extrasUsernames = append(f.extrasUsernames, username)
	f.mu.Unlock()
	if f.extrasErr != nil {
		return nil, f.extrasErr
	}
	return f.extras[username], nil
}

func (f *fakeClient) Me(_ context.Context, token string) (*models.Profile, error) {
	f.mu.Lock()
	f.meTokens = append(f.meTokens, token)
	f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	if f.me == nil {
		return nil, &client.APIError{Kind: client.ErrAuth, Status: 401, Message: "Unauthorized"}
	}
	c := *f.me
	return &c, nil
}

func (f *fakeClient) UpdateUser(_ context.Context, token string, id int64, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	f.updateCalls++
	f.lastToken = token
	f.lastPatch = patch
	f.mu.Unlock()
	return f.updateFn(id, patch)
}

func (f *fakeClient) ForgotPassword(context.Context, string) error {
	return f.forgotErr
}

func (f *fakeClient) ResetPassword(_ context.Context, code, _, _ string) (*models.Session, error) {
	return f.resetFn(code)
}

func (f *fakeClient) UploadAvatar(context.Context, string, string) (*models.UploadedFile, error) {
	return f.uploaded, f.uploadErr
}

func (f *fakeClient) Articles(context.Context, string) ([]models.Article, error) {
	return f.articles, f.contentErr
}

func (f *fakeClient) ArticleBySlug(_ context.Context, slug string) (*models.Article, error) {
	for i := range f.articles {
		if f.articles[i].Slug == slug {
			return &f.articles[i], nil
		}
	}
	return nil, &client.APIError{Kind: client.ErrNotFound, Message: "not found"}
}

func (f *fakeClient) Categories(context.Context) ([]models.Category, error) {
	return f.categories, f.contentErr
}

func (f *fakeClient) Products(context.Context, string) ([]models.Product, error) {
	return f.products, f.contentErr
}

func (f *fakeClient) ProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, &client.APIError{Kind: client.ErrNotFound, Message: "not found"}
}

func (f *fakeClient) Ping(context.Context) error {
	return f.contentErr
}

func (f *fakeClient) AbsoluteURL(path string) string {
	if path == "" {
		return ""
	}
	return "http://cms.test" + path
}
