package services

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/content"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/files"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func testLogger() logging.Logger {
	return logging.NewTextSlogLogger(io.Discard, "error")
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	err    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{nextID: 1, byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) add(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.byID[u.ID] = &u
	return &u
}

func (f *fakeUsersRepo) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	return f.add(*u), nil
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			return f.copyOf(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier)
	})
}

func (f *fakeUsersRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsersRepo) Taken(_ context.Context, username, email string, excludeID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.ID == excludeID {
			continue
		}
		if (username != "" && strings.EqualFold(u.Username, username)) || (email != "" && strings.EqualFold(u.Email, email)) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	patch.Apply(u)
	u.UpdatedAt = time.Now()
	return f.copyOf(u), nil
}

func (f *fakeUsersRepo) SetPassword(_ context.Context, id int64, hash string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

// --- reset tokens ---

type fakeResetTokensRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken
}

func newFakeResetTokensRepo() *fakeResetTokensRepo {
	return &fakeResetTokensRepo{tokens: map[string]*models.PasswordResetToken{}}
}

func (f *fakeResetTokensRepo) Create(_ context.Context, userID int64, digest string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[digest] = &models.PasswordResetToken{UserID: userID, CodeDigest: digest, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeResetTokensRepo) Find(_ context.Context, digest string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[digest]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeResetTokensRepo) DeleteForUser(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

// --- permissions ---

type fakePermissionsRepo struct {
	mu          sync.Mutex
	roles       map[string]*models.Role
	grants      map[int64]map[string]bool
	actionCalls int
}

func newFakePermissionsRepo() *fakePermissionsRepo {
	return &fakePermissionsRepo{
		roles: map[string]*models.Role{
			models.RoleTypePublic:        {ID: 1, Name: "Public", Type: models.RoleTypePublic},
			models.RoleTypeAuthenticated: {ID: 2, Name: "Authenticated", Type: models.RoleTypeAuthenticated},
		},
		grants: map[int64]map[string]bool{},
	}
}

func (f *fakePermissionsRepo) RoleByType(_ context.Context, roleType string) (*models.Role, error) {
	r, ok := f.roles[roleType]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakePermissionsRepo) RoleByID(_ context.Context, id int64) (*models.Role, error) {
	for _, r := range f.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakePermissionsRepo) Grant(_ context.Context, roleID int64, action string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grants[roleID] == nil {
		f.grants[roleID] = map[string]bool{}
	}
	if f.grants[roleID][action] {
		return false, nil
	}
	f.grants[roleID][action] = true
	return true, nil
}

func (f *fakePermissionsRepo) Actions(_ context.Context, roleType string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionCalls++
	r, ok := f.roles[roleType]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(f.grants[r.ID]))
	for a := range f.grants[r.ID] {
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}

// --- files ---

type fakeFilesRepo struct {
	created []*models.UploadFile
	err     error
}

func (f *fakeFilesRepo) Create(_ context.Context, file *models.UploadFile) (*models.UploadFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *file
	c.ID = int64(len(f.created) + 1)
	c.CreatedAt = time.Now()
	f.created = append(f.created, &c)
	return &c, nil
}

func (f *fakeFilesRepo) FindByID(_ context.Context, id int64) (*models.UploadFile, error) {
	for _, file := range f.created {
		if file.ID == id {
			return file, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- content ---

type fakeContentRepo struct {
	mu         sync.Mutex
	articles   []*models.Article
	categories []*models.Category
	authors    []*models.Author
	products   []*models.Product
	lastLimit  int
	lastFilter models.ContentFilter
	txCount    int
	err        error
}

func (f *fakeContentRepo) Articles(_ context.Context, filter models.ContentFilter, limit int) ([]*models.Article, error) {
	f.lastLimit, f.lastFilter = limit, filter
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func (f *fakeContentRepo) Categories(context.Context) ([]*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeContentRepo) Products(_ context.Context, filter models.ContentFilter, limit int) ([]*models.Product, error) {
	f.lastLimit, f.lastFilter = limit, filter
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeContentRepo) UpsertCategory(_ context.Context, c *models.Category) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.categories = append(f.categories, c)
	return int64(len(f.categories)), nil
}

func (f *fakeContentRepo) UpsertAuthor(_ context.Context, a *models.Author) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.authors = append(f.authors, a)
	return int64(len(f.authors)), nil
}

func (f *fakeContentRepo) UpsertArticle(_ context.Context, a *models.Article) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.articles = append(f.articles, a)
	return int64(len(f.articles)), nil
}

func (f *fakeContentRepo) UpsertProduct(_ context.Context, p *models.Product) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.products = append(f.products, p)
	return int64(len(f.products)), nil
}

func (f *fakeContentRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txCount++
	return fn(ctx)
}

// --- manager ---

type fakeRepoManager struct {
	users       *fakeUsersRepo
	resetTokens *fakeResetTokensRepo
	permissions *fakePermissionsRepo
	files       *fakeFilesRepo
	content     *fakeContentRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:       newFakeUsersRepo(),
		resetTokens: newFakeResetTokensRepo(),
		permissions: newFakePermissionsRepo(),
		files:       &fakeFilesRepo{},
		content:     &fakeContentRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) ResetTokens(dbx.DBTX) resettokens.Repository  { return m.resetTokens }
func (m *fakeRepoManager) Permissions(dbx.DBTX) permissions.Repository  { return m.permissions }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository              { return m.files }
func (m *fakeRepoManager) Content() content.Repository                  { return m.content }
