// Package gqlapi exposes users and content over GraphQL.
package gqlapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/graphql-go/graphql"
)

type Users interface {
	Me(ctx context.Context, userID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateMe(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error)
}

type Content interface {
	Articles(ctx context.Context, filter models.ContentFilter, page services.Page) ([]*models.Article, error)
	Categories(ctx context.Context) ([]*models.Category, error)
	Products(ctx context.Context, filter models.ContentFilter, page services.Page) ([]*models.Product, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, roleType, action string) error
}

// Request is the body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type Schema struct {
	schema graphql.Schema
	logger logging.Logger
}

type resolvers struct {
	users   Users
	content Content
	perms   Authorizer
}

func NewSchema(users Users, content Content, perms Authorizer, logger logging.Logger) (*Schema, error) {
	r := &resolvers{users: users, content: content, perms: perms}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    r.queryType(),
		Mutation: r.mutationType(),
	})
	if err != nil {
		return nil, err
	}
	return &Schema{schema: schema, logger: logger.With("module", "graphql")}, nil
}

// Execute runs req with the caller carried by ctx.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	res := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if res.HasErrors() {
		s.logger.Debug(ctx, "graphql errors", "operation", req.OperationName, "errors", len(res.Errors))
	}
	return res
}

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func isoTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// guard checks action against the caller's role before running fn.
func (r *resolvers) guard(action string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		principal := auth.PrincipalFrom(p.Context)
		if err := r.perms.Authorize(p.Context, principal.RoleType, action); err != nil {
			return nil, err
		}
		return fn(p)
	}
}

func eqInput(name string) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMap{
			"eq": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
}

// eqArg walks nested filter maps down to the "eq" operand.
func eqArg(args map[string]any, path ...string) string {
	cur := args
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return ""
		}
		cur = next
	}
	s, _ := cur["eq"].(string)
	return s
}

func pageArg(args map[string]any) services.Page {
	var page services.Page
	pagination, ok := args["pagination"].(map[string]any)
	if !ok {
		return page
	}
	if v, ok := pagination["pageSize"].(int); ok {
		page.PageSize = v
	}
	if v, ok := pagination["limit"].(int); ok {
		page.Limit = v
	}
	return page
}

func userMap(u *models.User) map[string]any {
	m := map[string]any{
		"id":          strconv.FormatInt(u.ID, 10),
		"documentId":  u.DocumentID,
		"username":    u.Username,
		"email":       u.Email,
		"provider":    u.Provider,
		"confirmed":   u.Confirmed,
		"blocked":     u.Blocked,
		"location":    optional(u.Location),
		"phoneNumber": optional(u.PhoneNumber),
		"slug":        optional(u.Slug),
		"avatarUrl":   optional(u.AvatarURL),
		"createdAt":   nil,
		"updatedAt":   nil,
	}
	if !u.CreatedAt.IsZero() {
		m["createdAt"] = isoTime(u.CreatedAt)
	}
	if !u.UpdatedAt.IsZero() {
		m["updatedAt"] = isoTime(u.UpdatedAt)
	}
	return m
}

// optional unwraps nullable columns so absent values serialize as null.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func mediaMap(url, alt string) any {
	if url == "" {
		return nil
	}
	return map[string]any{"url": url, "alternativeText": alt}
}

func categoryMap(c *models.Category) any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"documentId":  c.DocumentID,
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
	}
}

func articleMap(a *models.Article) map[string]any {
	m := map[string]any{
		"documentId":  a.DocumentID,
		"title":       a.Title,
		"description": a.Description,
		"slug":        a.Slug,
		"displaySize": a.DisplaySize,
		"cover":       mediaMap(a.CoverURL, a.Title),
		"category":    categoryMap(a.Category),
		"author":      nil,
		"publishedAt": nil,
	}
	if a.PublishedAt != nil {
		m["publishedAt"] = isoTime(*a.PublishedAt)
	}
	if a.Author != nil {
		m["author"] = map[string]any{
			"name":   a.Author.Name,
			"email":  a.Author.Email,
			"avatar": mediaMap(a.Author.AvatarURL, a.Author.Name),
		}
	}
	blocks := make([]map[string]any, 0, len(a.Blocks))
	for _, b := range a.Blocks {
		files := make([]any, 0, len(b.Files))
		for _, f := range b.Files {
			files = append(files, mediaMap(f.URL, f.AlternativeText))
		}
		blocks = append(blocks, map[string]any{"component": b.Component, "body": b.Body, "files": files})
	}
	m["blocks"] = blocks
	return m
}

func productMap(p *models.Product) map[string]any {
	return map[string]any{
		"documentId":  p.DocumentID,
		"title":       p.Title,
		"description": p.Description,
		"slug":        p.Slug,
		"price":       p.Price,
		"category":    p.Category,
		"inStock":     p.InStock,
		"image":       mediaMap(p.ImageURL, p.Title),
	}
}

var (
	mediaType = graphql.NewObject(graphql.ObjectConfig{
		Name: "UploadFile",
		Fields: graphql.Fields{
			"url":             &graphql.Field{Type: graphql.String},
			"alternativeText": &graphql.Field{Type: graphql.String},
		},
	})

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "UsersPermissionsUser",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.ID},
			"documentId":  &graphql.Field{Type: graphql.ID},
			"username":    &graphql.Field{Type: graphql.String},
			"email":       &graphql.Field{Type: graphql.String},
			"provider":    &graphql.Field{Type: graphql.String},
			"confirmed":   &graphql.Field{Type: graphql.Boolean},
			"blocked":     &graphql.Field{Type: graphql.Boolean},
			"location":    &graphql.Field{Type: graphql.String},
			"phoneNumber": &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"avatarUrl":   &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: graphql.String},
			"updatedAt":   &graphql.Field{Type: graphql.String},
		},
	})

	categoryType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.Fields{
			"documentId":  &graphql.Field{Type: graphql.ID},
			"name":        &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	authorType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"name":   &graphql.Field{Type: graphql.String},
			"email":  &graphql.Field{Type: graphql.String},
			"avatar": &graphql.Field{Type: mediaType},
		},
	})

	blockType = graphql.NewObject(graphql.ObjectConfig{
		Name: "ArticleBlock",
		Fields: graphql.Fields{
			"component": &graphql.Field{Type: graphql.String},
			"body":      &graphql.Field{Type: graphql.String},
			"files":     &graphql.Field{Type: graphql.NewList(mediaType)},
		},
	})

	articleType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Article",
		Fields: graphql.Fields{
			"documentId":  &graphql.Field{Type: graphql.ID},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"displaySize": &graphql.Field{Type: graphql.String},
			"publishedAt": &graphql.Field{Type: graphql.String},
			"cover":       &graphql.Field{Type: mediaType},
			"category":    &graphql.Field{Type: categoryType},
			"author":      &graphql.Field{Type: authorType},
			"blocks":      &graphql.Field{Type: graphql.NewList(blockType)},
		},
	})

	productType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"documentId":  &graphql.Field{Type: graphql.ID},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: graphql.Float},
			"category":    &graphql.Field{Type: graphql.String},
			"inStock":     &graphql.Field{Type: graphql.Boolean},
			"image":       &graphql.Field{Type: mediaType},
		},
	})

	stringFilter = eqInput("StringFilterInput")

	paginationInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PaginationArg",
		Fields: graphql.InputObjectConfigFieldMap{
			"pageSize": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"limit":    &graphql.InputObjectFieldConfig{Type: graphql.Int},
		},
	})

	userFilters = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UsersPermissionsUserFiltersInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: stringFilter},
		},
	})

	articleFilters = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ArticleFiltersInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"slug": &graphql.InputObjectFieldConfig{Type: stringFilter},
			"category": &graphql.InputObjectFieldConfig{Type: graphql.NewInputObject(graphql.InputObjectConfig{
				Name: "CategoryFiltersInput",
				Fields: graphql.InputObjectConfigFieldMap{
					"name": &graphql.InputObjectFieldConfig{Type: stringFilter},
				},
			})},
		},
	})

	productFilters = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ProductFiltersInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"slug":     &graphql.InputObjectFieldConfig{Type: stringFilter},
			"category": &graphql.InputObjectFieldConfig{Type: stringFilter},
		},
	})
)

func (r *resolvers) queryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"usersPermissionsUsers": &graphql.Field{
				Type: graphql.NewList(userType),
				Args: graphql.FieldConfigArgument{
					"filters": &graphql.ArgumentConfig{Type: userFilters},
				},
				Resolve: r.guard(services.ActionUserFind, r.resolveUsers),
			},
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.guard(services.ActionUserMe, r.resolveMe),
			},
			"articles": &graphql.Field{
				Type: graphql.NewList(articleType),
				Args: graphql.FieldConfigArgument{
					"filters":    &graphql.ArgumentConfig{Type: articleFilters},
					"pagination": &graphql.ArgumentConfig{Type: paginationInput},
				},
				Resolve: r.guard(services.ActionArticleFind, r.resolveArticles),
			},
			"categories": &graphql.Field{
				Type:    graphql.NewList(categoryType),
				Resolve: r.guard(services.ActionCategoryFind, r.resolveCategories),
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"filters":    &graphql.ArgumentConfig{Type: productFilters},
					"pagination": &graphql.ArgumentConfig{Type: paginationInput},
				},
				Resolve: r.guard(services.ActionProductFind, r.resolveProducts),
			},
		},
	})
}

func (r *resolvers) mutationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"updateMe": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"username":    &graphql.ArgumentConfig{Type: graphql.String},
					"email":       &graphql.ArgumentConfig{Type: graphql.String},
					"location":    &graphql.ArgumentConfig{Type: graphql.String},
					"phoneNumber": &graphql.ArgumentConfig{Type: graphql.String},
					"slug":        &graphql.ArgumentConfig{Type: graphql.String},
					"avatar":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.guard(services.ActionUserUpdate, r.resolveUpdateMe),
			},
		},
	})
}

func (r *resolvers) resolveUsers(p graphql.ResolveParams) (any, error) {
	username := eqArg(p.Args, "filters", "username")
	if username == "" {
		return nil, common.NewError(common.ErrorValidation, "filters.username.eq is required")
	}
	u, err := r.users.FindByUsername(p.Context, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return []map[string]any{}, nil
		}
		return nil, err
	}
	return []map[string]any{userMap(u)}, nil
}

func currentUser(ctx context.Context) (*models.User, error) {
	u := auth.UserFrom(ctx)
	if u == nil {
		return nil, common.NewError(common.ErrorUnauthorized, "Unauthorized")
	}
	return u, nil
}

func (r *resolvers) resolveMe(p graphql.ResolveParams) (any, error) {
	caller, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}
	u, err := r.users.Me(p.Context, caller.ID)
	if err != nil {
		return nil, err
	}
	return userMap(u), nil
}

func (r *resolvers) resolveArticles(p graphql.ResolveParams) (any, error) {
	filter := models.ContentFilter{
		Slug:     eqArg(p.Args, "filters", "slug"),
		Category: eqArg(p.Args, "filters", "category", "name"),
	}
	articles, err := r.content.Articles(p.Context, filter, pageArg(p.Args))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleMap(a))
	}
	return out, nil
}

func (r *resolvers) resolveCategories(p graphql.ResolveParams) (any, error) {
	categories, err := r.content.Categories(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryMap(c))
	}
	return out, nil
}

func (r *resolvers) resolveProducts(p graphql.ResolveParams) (any, error) {
	filter := models.ContentFilter{
		Slug:     eqArg(p.Args, "filters", "slug"),
		Category: eqArg(p.Args, "filters", "category"),
	}
	products, err := r.content.Products(p.Context, filter, pageArg(p.Args))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(products))
	for _, pr := range products {
		out = append(out, productMap(pr))
	}
	return out, nil
}

func stringArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func (r *resolvers) resolveUpdateMe(p graphql.ResolveParams) (any, error) {
	caller, err := currentUser(p.Context)
	if err != nil {
		return nil, err
	}
	patch := models.UserPatch{
		Username:    stringArg(p.Args, "username"),
		Email:       stringArg(p.Args, "email"),
		Location:    stringArg(p.Args, "location"),
		PhoneNumber: stringArg(p.Args, "phoneNumber"),
		Slug:        stringArg(p.Args, "slug"),
		AvatarURL:   stringArg(p.Args, "avatar"),
	}
	u, err := r.users.UpdateMe(p.Context, caller.ID, patch)
	if err != nil {
		return nil, err
	}
	return userMap(u), nil
}
