package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/gqlapi"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceToken = "alice-token"

type fakeUsers struct {
	alice     *models.User
	lastPatch models.UserPatch
	lastEmail string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{alice: &models.User{ID: 1, Username: "alice", Email: "alice@example.com", RoleID: 2}}
}

func (f *fakeUsers) result() *models.AuthResult {
	return &models.AuthResult{JWT: aliceToken, User: f.alice}
}

func (f *fakeUsers) Register(_ context.Context, username, _, _ string) (*models.AuthResult, error) {
	if username == f.alice.Username {
		return nil, common.NewError(common.ErrorAlreadyExists, "Email or Username are already taken")
	}
	return f.result(), nil
}

func (f *fakeUsers) Login(_ context.Context, identifier, password string) (*models.AuthResult, error) {
	if identifier != "alice" || password != "secret1" {
		return nil, common.NewError(common.ErrorInvalidCredentials, "Invalid identifier or password")
	}
	return f.result(), nil
}

func (f *fakeUsers) ForgotPassword(_ context.Context, email string) error {
	f.lastEmail = email
	return nil
}

func (f *fakeUsers) ResetPassword(_ context.Context, code, password, confirmation string) (*models.AuthResult, error) {
	if password != confirmation {
		return nil, common.NewError(common.ErrorValidation, "Passwords do not match")
	}
	if code != "good" {
		return nil, common.NewError(common.ErrResetCodeInvalid, "Incorrect code provided")
	}
	return f.result(), nil
}

func (f *fakeUsers) Me(context.Context, int64) (*models.User, error) { return f.alice, nil }

func (f *fakeUsers) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == aliceToken {
		return f.alice, nil
	}
	return nil, common.ErrInvalidToken
}

func (f *fakeUsers) UpdateUser(ctx context.Context, actorID, targetID int64, patch models.UserPatch) (*models.User, error) {
	if actorID != targetID {
		return nil, common.NewError(common.ErrorForbidden, "You can only update your own profile")
	}
	return f.UpdateMe(ctx, actorID, patch)
}

func (f *fakeUsers) UpdateMe(_ context.Context, _ int64, patch models.UserPatch) (*models.User, error) {
	f.lastPatch = patch
	u := *f.alice
	patch.Apply(&u)
	return &u, nil
}

type fakeUploads struct {
	got  *services.UploadInput
	body string
}

func (f *fakeUploads) UploadAvatar(_ context.Context, user *models.User, in *services.UploadInput) (*models.UploadFile, error) {
	f.got = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &models.UploadFile{ID: 9, Name: in.Filename, URL: "/uploads/avatar_1_x.png", Caption: "Avatar for user " + user.Username}, nil
}

// fakePermissions: the public role may only use the auth endpoints.
type fakePermissions struct{}

func (fakePermissions) Authorize(_ context.Context, roleType, action string) error {
	if roleType == models.RoleTypeAuthenticated || strings.HasPrefix(action, "plugin::users-permissions.auth.") {
		return nil
	}
	return common.NewError(common.ErrorForbidden, "Forbidden")
}

func (fakePermissions) RoleType(_ context.Context, u *models.User) (string, error) {
	if u == nil {
		return models.RoleTypePublic, nil
	}
	return models.RoleTypeAuthenticated, nil
}

type fakeGraphQL struct {
	principal auth.Principal
}

func (f *fakeGraphQL) Execute(ctx context.Context, req gqlapi.Request) *graphql.Result {
	f.principal = auth.PrincipalFrom(ctx)
	return &graphql.Result{Data: map[string]any{"echo": req.Query}}
}

type fixture struct {
	users   *fakeUsers
	uploads *fakeUploads
	gql     *fakeGraphQL
	handler http.Handler
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{users: newFakeUsers(), uploads: &fakeUploads{}, gql: &fakeGraphQL{}, dir: t.TempDir()}
	s := NewServer("127.0.0.1:0", logging.NewTextSlogLogger(io.Discard, "error"), Deps{
		Users:       f.users,
		Uploads:     f.uploads,
		Permissions: fakePermissions{},
		GraphQL:     f.gql,
		UploadsDir:  f.dir,
		UploadLimit: 1 << 20,
	})
	f.handler = s.Handler()
	return f
}

func (f *fixture) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(method, path, token, body string) *httptest.ResponseRecorder {
	return f.do(method, path, token, strings.NewReader(body), "application/json")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Data)
	assert.Equal(t, rec.Code, body.Error.Status)
	return body.Error
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPost, "/api/auth/local", "", `{"identifier":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jwt":"alice-token","user":{"id":1,"documentId":"","username":"alice","email":"alice@example.com",
		"provider":"","confirmed":false,"blocked":false,"createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}}`,
		rec.Body.String())

	rec = f.doJSON(http.MethodPost, "/api/auth/local", "", `{"identifier":"alice","password":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "ValidationError", e.Name)
	assert.Equal(t, "Invalid identifier or password", e.Message)

	rec = f.doJSON(http.MethodPost, "/api/auth/local", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPost, "/api/auth/local/register", "", `{"username":"alice","email":"a@b.io","password":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email or Username are already taken", decodeError(t, rec).Message)

	rec = f.doJSON(http.MethodPost, "/api/auth/local/register", "", `{"username":"bob","email":"b@b.io","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPost, "/api/auth/forgot-password", "", `{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "alice@example.com", f.users.lastEmail)

	rec = f.doJSON(http.MethodPost, "/api/auth/reset-password", "", `{"code":"good","password":"a","passwordConfirmation":"b"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match", decodeError(t, rec).Message)

	rec = f.doJSON(http.MethodPost, "/api/auth/reset-password", "", `{"code":"bad","password":"a","passwordConfirmation":"a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect code provided", decodeError(t, rec).Message)

	rec = f.doJSON(http.MethodPost, "/api/auth/reset-password", "", `{"code":"good","password":"a","passwordConfirmation":"a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/users/me", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodGet, "/api/users/me", "", nil, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ForbiddenError", decodeError(t, rec).Name)

	rec = f.do(http.MethodGet, "/api/users/me", "stale", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing or invalid credentials", decodeError(t, rec).Message)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPut, "/api/users/1", aliceToken, `{"location":"Riga","avatarUrl":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":"Riga"`)
	assert.Equal(t, "Riga", common.Deref(f.users.lastPatch.Location))
	assert.Nil(t, f.users.lastPatch.AvatarURL)
	assert.Nil(t, f.users.lastPatch.Email)

	rec = f.doJSON(http.MethodPut, "/api/users/2", aliceToken, `{"location":"Riga"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only update your own profile", decodeError(t, rec).Message)

	rec = f.doJSON(http.MethodPut, "/api/users/abc", aliceToken, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPut, "/api/users/me", aliceToken, `{"phoneNumber":"+371"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+371", common.Deref(f.users.lastPatch.PhoneNumber))
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestAvatarUpload(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartBody(t, "files", "me.png", "PNGDATA")
	rec := f.do(http.MethodPost, "/api/avatar-upload", aliceToken, body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "me.png", f.uploads.got.Filename)
	assert.EqualValues(t, 7, f.uploads.got.Size)
	assert.Equal(t, "PNGDATA", f.uploads.body)
	assert.Contains(t, rec.Body.String(), `"url":"/uploads/avatar_1_x.png"`)

	body, ct = multipartBody(t, "files", "me.png", "PNGDATA")
	rec = f.do(http.MethodPost, "/api/avatar-upload", "", body, ct)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "You must be logged in to upload avatar", decodeError(t, rec).Message)

	body, ct = multipartBody(t, "", "", "")
	rec = f.do(http.MethodPost, "/api/avatar-upload", aliceToken, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", decodeError(t, rec).Message)
}

func TestGraphQL_CarriesPrincipal(t *testing.T) {
	f := newFixture(t)

	rec := f.doJSON(http.MethodPost, "/graphql", aliceToken, `{"query":"{ me { id } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"echo":"{ me { id } }"}}`, rec.Body.String())
	assert.Equal(t, models.RoleTypeAuthenticated, f.gql.principal.RoleType)

	rec = f.doJSON(http.MethodPost, "/graphql", "", `{"query":"{ articles { title } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleTypePublic, f.gql.principal.RoleType)
	assert.Nil(t, f.gql.principal.User)

	rec = f.doJSON(http.MethodPost, "/graphql", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticUploadsAndHealthz(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "a.txt"), []byte("hello"), 0o644))

	rec := f.do(http.MethodGet, "/uploads/a.txt", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = f.do(http.MethodGet, "/healthz", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrorValidation, http.StatusBadRequest},
		{common.ErrorAlreadyExists, http.StatusBadRequest},
		{common.ErrNoFile, http.StatusBadRequest},
		{common.ErrTokenExpired, http.StatusUnauthorized},
		{common.ErrorBlocked, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{common.ErrorInternal, http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
