package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/server/services"
)

type route struct {
	pattern string
	// action is checked against the caller's role; empty means no gate.
	action  string
	handler func(*Server) http.HandlerFunc
}

var routes = []route{
	{"POST /api/auth/local", services.ActionAuthCallback, func(s *Server) http.HandlerFunc { return s.handleLogin }},
	{"POST /api/auth/local/register", services.ActionAuthRegister, func(s *Server) http.HandlerFunc { return s.handleRegister }},
	{"POST /api/auth/forgot-password", services.ActionAuthForgot, func(s *Server) http.HandlerFunc { return s.handleForgotPassword }},
	{"POST /api/auth/reset-password", services.ActionAuthReset, func(s *Server) http.HandlerFunc { return s.handleResetPassword }},
	{"GET /api/users/me", services.ActionUserMe, func(s *Server) http.HandlerFunc { return s.handleMe }},
	{"PUT /api/users/me", services.ActionUserUpdate, func(s *Server) http.HandlerFunc { return s.handleUpdateMe }},
	{"PUT /api/users/{id}", services.ActionUserUpdate, func(s *Server) http.HandlerFunc { return s.handleUpdateUser }},
	{"POST /api/avatar-upload", "", func(s *Server) http.HandlerFunc { return s.handleAvatarUpload }},
	{"POST /graphql", "", func(s *Server) http.HandlerFunc { return s.handleGraphQL }},
	{"GET /healthz", "", func(*Server) http.HandlerFunc { return handleHealthz }},
}

// Handler builds the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, rt := range routes {
		h := rt.handler(s)
		if rt.action != "" {
			h = s.requirePermission(rt.action, h)
		}
		mux.Handle(rt.pattern, h)
	}
	if s.deps.UploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.deps.UploadsDir))))
	}
	return s.withLogging(s.withAuthentication(mux))
}
