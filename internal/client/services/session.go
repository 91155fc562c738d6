// Package services contains application services for the storefront client.
// This file defines the session manager: the single owner of the bearer
// token and cached profile, persisted in the local metadata store.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// Storage keys. Nothing else is written to the metadata store.
const (
	KeyToken = "auth.jwt"
	KeyUser  = "auth.user"
)

const msgNotAuthenticated = "Not authenticated"

// HydrationState tracks whether the persisted session has been read yet.
type HydrationState int

const (
	Uninitialized HydrationState = iota
	HydratedAnonymous
	HydratedAuthenticated
)

func (s HydrationState) String() string {
	switch s {
	case HydratedAnonymous:
		return "anonymous"
	case HydratedAuthenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// SessionManager owns the session. Reads before hydration report no user,
// so callers that need a definite answer wait with WaitHydrated first.
type SessionManager struct {
	client client.Client
	db     *sql.DB
	store  metadata.Repository
	logger logging.Logger

	mu      sync.RWMutex
	token   string
	profile *models.Profile
	state   HydrationState

	hydrated     chan struct{}
	hydratedOnce sync.Once
}

func NewSessionManager(c client.Client, db *sql.DB, logger logging.Logger) *SessionManager {
	return &SessionManager{
		client:   c,
		db:       db,
		store:    metadata.NewSQLiteRepository(db),
		logger:   logger,
		hydrated: make(chan struct{}),
	}
}

func notAuthenticated() error {
	return &client.APIError{Kind: client.ErrNotAuthenticated, Message: msgNotAuthenticated}
}

func cloneProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// setLocked replaces the in-memory session and completes hydration.
func (m *SessionManager) setLocked(token string, p *models.Profile) {
	m.token = token
	m.profile = p
	if token != "" {
		m.state = HydratedAuthenticated
	} else {
		m.token, m.profile = "", nil
		m.state = HydratedAnonymous
	}
	m.hydratedOnce.Do(func() { close(m.hydrated) })
}

// State reports the hydration state.
func (m *SessionManager) State() HydrationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// WaitHydrated blocks until Restore (or an authentication call) has
// settled the session, or ctx is done.
func (m *SessionManager) WaitHydrated(ctx context.Context) error {
	select {
	case <-m.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsAuthenticated is false until hydration completes.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == HydratedAuthenticated
}

// User returns a copy of the cached profile, or nil when anonymous, not
// yet hydrated, or signed in with a profile that has not been loaded.
func (m *SessionManager) User() *models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != HydratedAuthenticated {
		return nil
	}
	return cloneProfile(m.profile)
}

// Token returns the bearer token, or "" when anonymous or not yet hydrated.
func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != HydratedAuthenticated {
		return ""
	}
	return m.token
}

// Restore reads the persisted session. A stored token marks the session
// authenticated without contacting the server. When the cached profile is
// missing or unreadable it is fetched again after hydration completes; a
// failed fetch leaves the session signed in without a profile. A session
// established meanwhile by Login or Register is kept.
func (m *SessionManager) Restore(ctx context.Context) error {
	token, profile, err := m.load(ctx)

	m.mu.Lock()
	if m.state != Uninitialized {
		m.mu.Unlock()
		return err
	}
	if err != nil {
		m.setLocked("", nil)
		m.mu.Unlock()
		return err
	}
	m.setLocked(token, profile)
	m.logger.Debug(ctx, "session restored", "state", m.state.String())
	m.mu.Unlock()

	if token != "" && profile == nil {
		if _, err := m.refreshProfile(ctx, token); err != nil {
			m.logger.Warn(ctx, "cached profile not refreshed", "error", err)
		}
	}
	return nil
}

func (m *SessionManager) load(ctx context.Context) (string, *models.Profile, error) {
	token, ok, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return "", nil, fmt.Errorf("restore session: %w", err)
	}
	if !ok || token == "" {
		return "", nil, nil
	}

	raw, ok, err := m.store.Get(ctx, KeyUser)
	if err != nil {
		return "", nil, fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return token, nil, nil
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.logger.Warn(ctx, "discarding unreadable cached profile", "error", err)
		return token, nil, nil
	}
	return token, &p, nil
}

// refreshProfile fetches the profile for token and caches it, unless the
// session changed or a profile was cached meanwhile.
func (m *SessionManager) refreshProfile(ctx context.Context, token string) (*models.Profile, error) {
	p, err := m.client.Me(ctx, token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		return nil, notAuthenticated()
	}
	if m.profile == nil {
		if err := m.saveProfile(ctx, p); err != nil {
			return nil, fmt.Errorf("persist profile: %w", err)
		}
		m.profile = p
	}
	return cloneProfile(m.profile), nil
}

func (m *SessionManager) saveSession(ctx context.Context, token string, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, _ dbx.DBTX) error {
		if err := m.store.Set(ctx, KeyToken, token); err != nil {
			return err
		}
		return m.store.Set(ctx, KeyUser, string(raw))
	})
}

func (m *SessionManager) saveProfile(ctx context.Context, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, KeyUser, string(raw))
}

// mergeExtras overlays the GraphQL profile fields on the base user.
// Extended values win; empty ones fall back to the base.
func mergeExtras(base *models.Profile, ext *models.ProfileExtras) *models.Profile {
	p := cloneProfile(base)
	if ext == nil {
		return p
	}
	if ext.AvatarURL != "" {
		p.AvatarURL = ext.AvatarURL
	}
	if ext.CreatedAt != "" {
		p.CreatedAt = ext.CreatedAt
	}
	return p
}

// establish enriches the profile, persists the session and installs it.
// The extended profile query is best effort.
func (m *SessionManager) establish(ctx context.Context, s *models.Session) (*models.Profile, error) {
	ext, err := m.client.ProfileExtras(ctx, s.Token, s.Profile.Username)
	if err != nil {
		m.logger.Warn(ctx, "extended profile unavailable", "username", s.Profile.Username, "error", err)
		ext = nil
	}
	profile := mergeExtras(s.Profile, ext)

	if err := m.saveSession(ctx, s.Token, profile); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.setLocked(s.Token, profile)
	m.mu.Unlock()

	return cloneProfile(profile), nil
}

// Login exchanges credentials for a session. On failure the previous
// session, if any, is left as it was.
func (m *SessionManager) Login(ctx context.Context, identifier, password string) (*models.Profile, error) {
	s, err := m.client.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	p, err := m.establish(ctx, s)
	if err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "logged in", "username", p.Username)
	return p, nil
}

func (m *SessionManager) Register(ctx context.Context, username, email, password string) (*models.Profile, error) {
	s, err := m.client.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	p, err := m.establish(ctx, s)
	if err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "registered", "username", p.Username)
	return p, nil
}

// ForgotPassword asks the server to issue a reset code. The session is
// not touched.
func (m *SessionManager) ForgotPassword(ctx context.Context, email string) error {
	return m.client.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password with a reset code and signs in with
// the session the server returns.
func (m *SessionManager) ResetPassword(ctx context.Context, code, password, passwordConfirmation string) (*models.Profile, error) {
	s, err := m.client.ResetPassword(ctx, code, password, passwordConfirmation)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, s)
}

// current returns the token and profile, fetching the profile when the
// session has none cached.
func (m *SessionManager) current(ctx context.Context) (string, *models.Profile, error) {
	m.mu.RLock()
	token, p := m.token, cloneProfile(m.profile)
	m.mu.RUnlock()
	if token == "" {
		return "", nil, notAuthenticated()
	}
	if p != nil {
		return token, p, nil
	}
	p, err := m.refreshProfile(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Profile returns the signed-in user's profile, loading it from the server
// when only the token survived a restore.
func (m *SessionManager) Profile(ctx context.Context) (*models.Profile, error) {
	_, p, err := m.current(ctx)
	return p, err
}

// mergeUpdate combines the server response with the cached profile.
// Patched fields take the server's value. Other fields take the server's
// value when it is non-empty and keep the cached one otherwise.
func mergeUpdate(cached, updated *models.Profile, patch models.ProfilePatch) *models.Profile {
	pick := func(patched *string, server, local string) string {
		if patched != nil {
			if server != "" {
				return server
			}
			return *patched
		}
		if server != "" {
			return server
		}
		return local
	}

	out := cloneProfile(cached)
	if updated.ID != 0 {
		out.ID = updated.ID
	}
	out.Username = pick(patch.Username, updated.Username, cached.Username)
	out.Email = pick(patch.Email, updated.Email, cached.Email)
	out.Location = pick(patch.Location, updated.Location, cached.Location)
	out.PhoneNumber = pick(patch.PhoneNumber, updated.PhoneNumber, cached.PhoneNumber)
	out.AvatarURL = pick(patch.AvatarURL, updated.AvatarURL, cached.AvatarURL)
	out.Slug = pick(nil, updated.Slug, cached.Slug)
	out.CreatedAt = pick(nil, updated.CreatedAt, cached.CreatedAt)
	return out
}

// UpdateProfile sends the fields set in patch and caches the merged
// result. Concurrent updates are not ordered: the last response wins.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.Profile, error) {
	token, cached, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return cached, nil
	}

	updated, err := m.client.UpdateUser(ctx, token, cached.ID, patch)
	if err != nil {
		return nil, err
	}
	merged := mergeUpdate(cached, updated, patch)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		// signed out or switched account while the request was in flight
		return nil, notAuthenticated()
	}
	if err := m.saveProfile(ctx, merged); err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}
	m.profile = merged
	return cloneProfile(merged), nil
}

// UploadAvatar uploads the image at path and points the profile at it.
func (m *SessionManager) UploadAvatar(ctx context.Context, path string) (*models.Profile, error) {
	token, _, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	f, err := m.client.UploadAvatar(ctx, token, path)
	if err != nil {
		return nil, err
	}
	url := f.URL
	return m.UpdateProfile(ctx, models.ProfilePatch{AvatarURL: &url})
}

// Logout forgets the session in memory and in storage. It never contacts
// the server and is safe to call repeatedly. A storage error is returned
// after the in-memory session is already gone.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.setLocked("", nil)
	m.mu.Unlock()

	if err := m.store.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// IsNotAuthenticated reports whether err means there is no session.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, client.ErrNotAuthenticated)
}
