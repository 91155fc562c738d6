package services

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"gopkg.in/yaml.v3"
)

// Actions checked by the transport layer.
const (
	ActionArticleFind     = "api::article.article.find"
	ActionArticleFindOne  = "api::article.article.findOne"
	ActionCategoryFind    = "api::category.category.find"
	ActionProductFind     = "api::product.product.find"
	ActionProductFindOne  = "api::product.product.findOne"
	ActionUserFind        = "plugin::users-permissions.user.find"
	ActionUserFindOne     = "plugin::users-permissions.user.findOne"
	ActionUserUpdate      = "plugin::users-permissions.user.update"
	ActionUserMe          = "plugin::users-permissions.user.me"
	ActionAuthCallback    = "plugin::users-permissions.auth.callback"
	ActionAuthRegister    = "plugin::users-permissions.auth.register"
	ActionAuthForgot      = "plugin::users-permissions.auth.forgotPassword"
	ActionAuthReset       = "plugin::users-permissions.auth.resetPassword"
	ActionUpload          = "plugin::upload.content-api.upload"
	ActionAuthorFind      = "api::author.author.find"
	ActionCategoryFindOne = "api::category.category.findOne"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Policy maps a role type to the actions it is granted.
type Policy struct {
	Roles map[string][]string `yaml:"roles"`
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if len(p.Roles) == 0 {
		return nil, fmt.Errorf("parse policy: no roles defined")
	}
	return &p, nil
}

// DefaultPolicy is the embedded policy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadPolicy reads a policy file, falling back to the embedded one when
// path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePolicy(data)
}

type PermissionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	mu    sync.RWMutex
	cache map[string]map[string]struct{}
}

func NewPermissionService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PermissionService {
	return &PermissionService{
		db:          db,
		repomanager: m,
		logger:      logger,
		cache:       make(map[string]map[string]struct{}),
	}
}

// Bootstrap grants every action of the policy in one transaction and
// reports how many grants were added and how many already existed.
func (s *PermissionService) Bootstrap(ctx context.Context, policy *Policy) (created, existing int, err error) {
	roleTypes := make([]string, 0, len(policy.Roles))
	for rt := range policy.Roles {
		roleTypes = append(roleTypes, rt)
	}
	sort.Strings(roleTypes)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Permissions(tx)
		for _, rt := range roleTypes {
			role, err := repo.RoleByType(ctx, rt)
			if err != nil {
				return fmt.Errorf("role %q: %w", rt, err)
			}
			for _, action := range policy.Roles[rt] {
				ok, err := repo.Grant(ctx, role.ID, action)
				if err != nil {
					return fmt.Errorf("grant %s to %s: %w", action, rt, err)
				}
				if ok {
					created++
				} else {
					existing++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.Invalidate()
	s.logger.Info(ctx, "permissions bootstrapped", "created", created, "existing", existing)
	return created, existing, nil
}

// Allowed reports whether roleType may perform action. Grants are cached
// per role until Invalidate is called.
func (s *PermissionService) Allowed(ctx context.Context, roleType, action string) (bool, error) {
	s.mu.RLock()
	actions, ok := s.cache[roleType]
	s.mu.RUnlock()

	if !ok {
		list, err := s.repomanager.Permissions(s.db).Actions(ctx, roleType)
		if err != nil {
			return false, err
		}
		actions = make(map[string]struct{}, len(list))
		for _, a := range list {
			actions[a] = struct{}{}
		}
		s.mu.Lock()
		s.cache[roleType] = actions
		s.mu.Unlock()
	}

	_, ok = actions[action]
	return ok, nil
}

// Authorize is Allowed turned into an error: common.ErrorForbidden on deny.
func (s *PermissionService) Authorize(ctx context.Context, roleType, action string) error {
	ok, err := s.Allowed(ctx, roleType, action)
	if err != nil {
		s.logger.Error(ctx, "permission lookup failed", "role", roleType, "action", action, "error", err)
		return common.ErrorInternal
	}
	if !ok {
		return common.NewError(common.ErrorForbidden, "Forbidden")
	}
	return nil
}

// RoleType resolves a user's role id; nil users are public.
func (s *PermissionService) RoleType(ctx context.Context, user *models.User) (string, error) {
	if user == nil {
		return models.RoleTypePublic, nil
	}
	role, err := s.repomanager.Permissions(s.db).RoleByID(ctx, user.RoleID)
	if err != nil {
		return "", err
	}
	return role.Type, nil
}

func (s *PermissionService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]map[string]struct{})
	s.mu.Unlock()
}
