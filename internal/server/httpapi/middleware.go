package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if h == "" {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix)), true
}

// withAuthentication resolves the bearer token, if any, into the request
// principal. A token that does not resolve is rejected with 401.
func (s *Server) withAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := auth.Principal{RoleType: models.RoleTypePublic}

		if token, ok := bearerToken(r); ok {
			user, err := s.deps.Users.Authenticate(ctx, token)
			if err != nil {
				if statusFor(err) == http.StatusInternalServerError {
					s.logger.Error(ctx, "authentication failed", "error", err)
				}
				writeError(w, err)
				return
			}
			roleType, err := s.deps.Permissions.RoleType(ctx, user)
			if err != nil {
				s.logger.Error(ctx, "role lookup failed", "user_id", user.ID, "error", err)
				writeError(w, common.ErrorInternal)
				return
			}
			principal = auth.Principal{User: user, RoleType: roleType}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, principal)))
	})
}

// requirePermission rejects callers whose role lacks action.
func (s *Server) requirePermission(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFrom(r.Context())
		if err := s.deps.Permissions.Authorize(r.Context(), principal.RoleType, action); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}
