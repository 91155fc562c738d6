package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/gqlapi"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

const (
	maxJSONBody     = 1 << 20
	multipartMemory = 32 << 20
	uploadFormField = "files"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, common.NewError(common.ErrorValidation, "Invalid JSON body"))
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.deps.Users.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info(r.Context(), "Logged in", "user_id", res.User.ID)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.deps.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.deps.Users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.deps.Users.ResetPassword(r.Context(), req.Code, req.Password, req.PasswordConfirmation)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// caller returns the authenticated user or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		writeError(w, common.NewError(common.ErrorUnauthorized, "Not authenticated"))
		return nil, false
	}
	return u, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := s.deps.Users.Me(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	var patch models.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := s.deps.Users.UpdateMe(r.Context(), u.ID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, common.NewError(common.ErrorNotFound, "Not Found"))
		return
	}
	var patch models.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := s.deps.Users.UpdateUser(r.Context(), u.ID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFrom(r.Context())
	if u == nil {
		writeError(w, common.NewError(common.ErrorUnauthorized, services.MsgUploadUnauthenticated))
		return
	}

	if s.deps.UploadLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.deps.UploadLimit+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, common.NewError(common.ErrFileTooLarge, "File too large"))
			return
		}
		writeError(w, common.NewError(common.ErrNoFile, services.MsgNoFile))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeError(w, common.NewError(common.ErrNoFile, services.MsgNoFile))
		return
	}
	defer func() { _ = file.Close() }()

	uploaded, err := s.deps.Uploads.UploadAvatar(r.Context(), u, &services.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploaded)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req gqlapi.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, common.NewError(common.ErrorValidation, "Missing query"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.GraphQL.Execute(r.Context(), req))
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
