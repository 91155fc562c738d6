// Package services contains server-side business logic. This file implements
// UserService: registration, login, password reset and profile updates of
// the users-permissions plugin.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/cryptox"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	minPasswordLength = 6
	resetCodeValidity = time.Hour
)

// User-facing messages.
const (
	msgInvalidCredentials = "Invalid identifier or password"
	msgBlocked            = "Your account has been blocked by an administrator"
	msgTaken              = "Email or Username are already taken"
	msgPasswordsMismatch  = "Passwords do not match"
	msgIncorrectCode      = "Incorrect code provided"
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	logger      logging.Logger
	jwtSecret   []byte
	jwtValidity time.Duration
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, publisher events.Publisher, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		publisher:   publisher,
		logger:      logger,
		jwtSecret:   []byte(cfg.SecretKey),
		jwtValidity: cfg.JWTValidity,
		now:         time.Now,
	}
}

func validationError(msg string) error {
	return common.NewError(common.ErrorValidation, msg)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates an account with the authenticated role and signs it in.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case username == "" || email == "" || password == "":
		return nil, validationError("username, email and password are required")
	case !validEmail(email):
		return nil, validationError("email must be a valid email")
	case len(password) < minPasswordLength:
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, validationError("password is too long")
		}
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		taken, err := users.Taken(ctx, username, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return common.NewError(common.ErrorAlreadyExists, msgTaken)
		}

		role, err := s.repomanager.Permissions(tx).RoleByType(ctx, models.RoleTypeAuthenticated)
		if err != nil {
			return fmt.Errorf("authenticated role: %w", err)
		}

		user, err = users.Create(ctx, &models.User{
			DocumentID:   uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Provider:     "local",
			Confirmed:    true,
			RoleID:       role.ID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.ErrorAlreadyExists, msgTaken)
		}
		s.logger.Error(ctx, "register failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.authResult(user)
}

// Login accepts either username or email as identifier.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.AuthResult, error) {
	if identifier == "" || password == "" {
		return nil, common.NewError(common.ErrorInvalidCredentials, msgInvalidCredentials)
	}

	user, err := s.repomanager.Users(s.db).FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorInvalidCredentials, msgInvalidCredentials)
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.NewError(common.ErrorInvalidCredentials, msgInvalidCredentials)
	}
	if user.Blocked {
		return nil, common.NewError(common.ErrorBlocked, msgBlocked)
	}

	return s.authResult(user)
}

// ForgotPassword issues a reset code for the account with this email.
// Unknown emails succeed silently so callers cannot probe for accounts.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return validationError("email must be a valid email")
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	if user.Blocked {
		return nil
	}

	code := cryptox.NewResetCode()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.ResetTokens(tx)
		if err := tokens.DeleteForUser(ctx, user.ID); err != nil {
			return err
		}
		return tokens.Create(ctx, user.ID, cryptox.DigestCode(code), s.now().Add(resetCodeValidity))
	})
	if err != nil {
		s.logger.Error(ctx, "storing reset code failed", "error", err)
		return common.ErrorInternal
	}

	// Mail delivery is left to whoever consumes the event.
	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	s.publish(ctx, events.New(events.UserForgotPassword, "user", map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"code":  code,
	}))
	return nil
}

// ResetPassword consumes a reset code and signs the user in with the new password.
func (s *UserService) ResetPassword(ctx context.Context, code, password, confirmation string) (*models.AuthResult, error) {
	if code == "" || password == "" || confirmation == "" {
		return nil, validationError("code, password and passwordConfirmation are required")
	}
	if password != confirmation {
		return nil, validationError(msgPasswordsMismatch)
	}
	if len(password) < minPasswordLength {
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	token, err := s.repomanager.ResetTokens(s.db).Find(ctx, cryptox.DigestCode(code))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrResetCodeInvalid, msgIncorrectCode)
		}
		return nil, common.ErrorInternal
	}
	if !token.ExpiresAt.After(s.now()) {
		return nil, common.NewError(common.ErrResetCodeInvalid, msgIncorrectCode)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, validationError("password is too long")
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		if err := users.SetPassword(ctx, token.UserID, hash); err != nil {
			return err
		}
		if err := s.repomanager.ResetTokens(tx).DeleteForUser(ctx, token.UserID); err != nil {
			return err
		}
		var err error
		user, err = users.FindByID(ctx, token.UserID)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "password reset failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.publish(ctx, events.New(events.UserPasswordReset, "user", map[string]any{"id": user.ID}))
	return s.authResult(user)
}

// Me returns the user behind a validated token.
func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Authenticate resolves a bearer token into an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	user, err := s.Me(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if user.Blocked {
		return nil, common.NewError(common.ErrorBlocked, msgBlocked)
	}
	return user, nil
}

// FindByUsername returns the exact-match user or common.ErrorNotFound.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// UpdateUser applies patch to targetID on behalf of actorID. Only the owner
// may update a profile. Present fields are written as given.
func (s *UserService) UpdateUser(ctx context.Context, actorID, targetID int64, patch models.UserPatch) (*models.User, error) {
	if actorID != targetID {
		return nil, common.NewError(common.ErrorForbidden, "You can only update your own profile")
	}
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		return nil, validationError("username cannot be empty")
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return nil, validationError("email cannot be empty")
	}
	return s.update(ctx, targetID, patch)
}

// UpdateMe is the self-service variant: empty username or email are ignored
// rather than rejected.
func (s *UserService) UpdateMe(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error) {
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		patch.Username = nil
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		patch.Email = nil
	}
	return s.update(ctx, userID, patch)
}

func (s *UserService) update(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error) {
	if patch.Username != nil {
		patch.Username = common.Ptr(strings.TrimSpace(*patch.Username))
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if !validEmail(email) {
			return nil, validationError("email must be a valid email")
		}
		patch.Email = &email
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if patch.Username != nil || patch.Email != nil {
			taken, err := users.Taken(ctx, common.Deref(patch.Username), common.Deref(patch.Email), userID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrorAlreadyExists
			}
		}

		var err error
		user, err = users.Update(ctx, userID, patch)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorAlreadyExists):
		return nil, common.NewError(common.ErrorAlreadyExists, "Username or email already taken")
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.NewError(common.ErrorNotFound, "User not found")
	default:
		s.logger.Error(ctx, "profile update failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	s.publish(ctx, events.New(events.UserProfileUpdate, "user", user))
	return user, nil
}

func (s *UserService) authResult(user *models.User) (*models.AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.jwtValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.AuthResult{JWT: token, User: user}, nil
}

// publish never fails the calling operation; delivery problems are logged.
func (s *UserService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "event publish failed", "event", e.Name, "error", err)
	}
}
