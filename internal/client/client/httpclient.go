package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/netx"
)

// Collection queries ask for one page this large; slug lookups ask for one.
const (
	listPageSize = 50
	avatarField  = "files"
)

// Fallback messages used when the server does not supply one.
const (
	msgRegisterFailed = "Failed to register"
	msgForgotFailed   = "Failed to send reset email"
	msgResetFailed    = "Failed to reset password"
	msgUploadFailed   = "Upload failed"
)

// HTTPClient implements Client over the CMS REST and GraphQL endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewHTTPClient returns a client for the API at baseURL. A positive timeout
// bounds every request; zero leaves requests bounded only by their context.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

func (c *HTTPClient) AbsoluteURL(path string) string {
	return netx.JoinURL(c.baseURL, path)
}

// errorEnvelope covers both {"error":{"message":...}} and {"message":...}.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func serverMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return env.Message
}

// fallbackFn builds the message used when the response carries none.
type fallbackFn func(status int, statusText string) string

func fixed(msg string) fallbackFn {
	return func(int, string) string { return msg }
}

func statusFallback(status int, statusText string) string {
	return netx.StatusText(status, statusText)
}

func updateFallback(status int, _ string) string {
	return fmt.Sprintf("Update failed: %d", status)
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

// do sends req and decodes a 2xx JSON response into out (when non-nil).
// Non-2xx responses become *APIError of the given kind.
func (c *HTTPClient) do(ctx context.Context, req request, kind error, fallback fallbackFn, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, netx.Endpoint(c.baseURL, req.path), req.body)
	if err != nil {
		return networkError(err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn(ctx, "request failed", "method", req.method, "path", req.path, "error", err)
		return networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(body)
		if msg == "" {
			msg = fallback(resp.StatusCode, resp.Status)
		}
		c.logger.Debug(ctx, "request rejected", "method", req.method, "path", req.path, "status", resp.StatusCode)
		return newAPIError(kind, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newAPIError(kind, resp.StatusCode, fmt.Sprintf("invalid response: %v", err))
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path, token string, payload any, kind error, fallback fallbackFn, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, token, payload, kind, fallback, out)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, path, token string, payload any, kind error, fallback fallbackFn, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return newAPIError(kind, 0, err.Error())
	}
	return c.do(ctx, request{
		method:      method,
		path:        path,
		token:       token,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, kind, fallback, out)
}

func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*models.Session, error) {
	var s models.Session
	err := c.postJSON(ctx, "/api/auth/local", "",
		map[string]string{"identifier": identifier, "password": password},
		ErrAuth, statusFallback, &s)
	if err != nil {
		return nil, serverFault(err)
	}
	return checkSession(&s, ErrAuth)
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	var s models.Session
	err := c.postJSON(ctx, "/api/auth/local/register", "",
		map[string]string{"username": username, "email": email, "password": password},
		ErrValidation, fixed(msgRegisterFailed), &s)
	if err != nil {
		return nil, serverFault(err)
	}
	return checkSession(&s, ErrValidation)
}

// Me fetches the profile of the token's owner.
func (c *HTTPClient) Me(ctx context.Context, token string) (*models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/users/me", token: token}, ErrAuth, statusFallback, &p)
	if err != nil {
		return nil, serverFault(err)
	}
	if p.ID == 0 || p.Username == "" {
		return nil, newAPIError(ErrAuth, http.StatusOK, "invalid response: missing user")
	}
	return &p, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/healthz"}, ErrNetwork, statusFallback, nil)
}

func checkSession(s *models.Session, kind error) (*models.Session, error) {
	if s.Token == "" || s.Profile == nil {
		return nil, newAPIError(kind, http.StatusOK, "invalid response: missing jwt or user")
	}
	return s, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) error {
	return serverFault(c.postJSON(ctx, "/api/auth/forgot-password", "",
		map[string]string{"email": email},
		ErrValidation, fixed(msgForgotFailed), nil))
}

func (c *HTTPClient) ResetPassword(ctx context.Context, code, password, passwordConfirmation string) (*models.Session, error) {
	var s models.Session
	err := c.postJSON(ctx, "/api/auth/reset-password", "",
		map[string]string{"code": code, "password": password, "passwordConfirmation": passwordConfirmation},
		ErrValidation, fixed(msgResetFailed), &s)
	if err != nil {
		return nil, serverFault(err)
	}
	return checkSession(&s, ErrValidation)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token string, id int64, patch models.ProfilePatch) (*models.Profile, error) {
	var p models.Profile
	path := "/api/users/" + strconv.FormatInt(id, 10)
	if err := c.sendJSON(ctx, http.MethodPut, path, token, patch, ErrUpdate, updateFallback, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UploadAvatar(ctx context.Context, token, path string) (*models.UploadedFile, error) {
	body, contentType, err := netx.MultipartFile(avatarField, path)
	if err != nil {
		return nil, newAPIError(ErrValidation, 0, fmt.Sprintf("read %s: %v", path, err))
	}
	var f models.UploadedFile
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/avatar-upload",
		token:       token,
		body:        body,
		contentType: contentType,
	}, ErrUpdate, fixed(msgUploadFailed), &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// graphql runs query and decodes its data object into out. A response
// carrying GraphQL errors fails with the first error's message.
func (c *HTTPClient) graphql(ctx context.Context, token, query string, vars map[string]any, kind error, out any) error {
	var resp gqlResponse
	if err := c.postJSON(ctx, "/graphql", token, gqlRequest{Query: query, Variables: vars}, kind, statusFallback, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return newAPIError(kind, http.StatusOK, resp.Errors[0].Message)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return newAPIError(kind, http.StatusOK, "empty response")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return newAPIError(kind, http.StatusOK, fmt.Sprintf("invalid response: %v", err))
	}
	return nil
}

const profileExtrasQuery = `query ProfileExtras($username: String!) {
  usersPermissionsUsers(filters: { username: { eq: $username } }) {
    avatarUrl
    createdAt
  }
}`

// ProfileExtras returns nil without error when the user is not listed.
func (c *HTTPClient) ProfileExtras(ctx context.Context, token, username string) (*models.ProfileExtras, error) {
	var data struct {
		Users []models.ProfileExtras `json:"usersPermissionsUsers"`
	}
	if err := c.graphql(ctx, token, profileExtrasQuery, map[string]any{"username": username}, ErrQuery, &data); err != nil {
		return nil, err
	}
	if len(data.Users) == 0 {
		return nil, nil
	}
	return &data.Users[0], nil
}

const articleFields = `
    documentId
    title
    description
    slug
    displaySize
    publishedAt
    cover { url alternativeText }
    category { name slug }
    author { name email avatar { url alternativeText } }
    blocks { component body files { url alternativeText } }`

var (
	articlesQuery = `query Articles($category: String, $pageSize: Int) {
  articles(filters: { category: { name: { eq: $category } } }, pagination: { pageSize: $pageSize }) {` + articleFields + `
  }
}`
	articleBySlugQuery = `query Article($slug: String!) {
  articles(filters: { slug: { eq: $slug } }, pagination: { pageSize: 1 }) {` + articleFields + `
  }
}`
)

const productFields = `
    documentId
    title
    description
    slug
    price
    category
    inStock
    image { url alternativeText }`

var (
	productsQuery = `query Products($category: String, $pageSize: Int) {
  products(filters: { category: { eq: $category } }, pagination: { pageSize: $pageSize }) {` + productFields + `
  }
}`
	productBySlugQuery = `query Product($slug: String!) {
  products(filters: { slug: { eq: $slug } }, pagination: { pageSize: 1 }) {` + productFields + `
  }
}`
)

const categoriesQuery = `query Categories {
  categories { documentId name slug description }
}`

// optionalString maps "" to a GraphQL null.
func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Articles lists published articles, newest first. An empty category
// lists every category.
func (c *HTTPClient) Articles(ctx context.Context, category string) ([]models.Article, error) {
	var data struct {
		Articles []models.Article `json:"articles"`
	}
	vars := map[string]any{"category": optionalString(category), "pageSize": listPageSize}
	if err := c.graphql(ctx, "", articlesQuery, vars, ErrQuery, &data); err != nil {
		return nil, err
	}
	return data.Articles, nil
}

func (c *HTTPClient) ArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var data struct {
		Articles []models.Article `json:"articles"`
	}
	if err := c.graphql(ctx, "", articleBySlugQuery, map[string]any{"slug": slug}, ErrQuery, &data); err != nil {
		return nil, err
	}
	if len(data.Articles) == 0 {
		return nil, newAPIError(ErrNotFound, http.StatusOK, fmt.Sprintf("article %q not found", slug))
	}
	return &data.Articles[0], nil
}

func (c *HTTPClient) Categories(ctx context.Context) ([]models.Category, error) {
	var data struct {
		Categories []models.Category `json:"categories"`
	}
	if err := c.graphql(ctx, "", categoriesQuery, nil, ErrQuery, &data); err != nil {
		return nil, err
	}
	return data.Categories, nil
}

func (c *HTTPClient) Products(ctx context.Context, category string) ([]models.Product, error) {
	var data struct {
		Products []models.Product `json:"products"`
	}
	vars := map[string]any{"category": optionalString(category), "pageSize": listPageSize}
	if err := c.graphql(ctx, "", productsQuery, vars, ErrQuery, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

func (c *HTTPClient) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var data struct {
		Products []models.Product `json:"products"`
	}
	if err := c.graphql(ctx, "", productBySlugQuery, map[string]any{"slug": slug}, ErrQuery, &data); err != nil {
		return nil, err
	}
	if len(data.Products) == 0 {
		return nil, newAPIError(ErrNotFound, http.StatusOK, fmt.Sprintf("product %q not found", slug))
	}
	return &data.Products[0], nil
}
