// Package httpapi serves the REST and GraphQL endpoints of the CMS.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/gqlapi"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/graphql-go/graphql"
)

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*models.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password, confirmation string) (*models.AuthResult, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, targetID int64, patch models.UserPatch) (*models.User, error)
	UpdateMe(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error)
}

type UploadService interface {
	UploadAvatar(ctx context.Context, user *models.User, in *services.UploadInput) (*models.UploadFile, error)
}

type PermissionService interface {
	Authorize(ctx context.Context, roleType, action string) error
	RoleType(ctx context.Context, user *models.User) (string, error)
}

type GraphQL interface {
	Execute(ctx context.Context, req gqlapi.Request) *graphql.Result
}

// Deps are the services behind the handlers. UploadsDir, when set, is
// served under /uploads/.
type Deps struct {
	Users       UserService
	Uploads     UploadService
	Permissions PermissionService
	GraphQL     GraphQL
	UploadsDir  string
	UploadLimit int64
}

type Server struct {
	address string
	logger  logging.Logger
	deps    Deps
}

const shutdownTimeout = 5 * time.Second

func NewServer(address string, l logging.Logger, deps Deps) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		deps:    deps,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-stopped
	return nil
}
