package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin = "role:admin"

	ObjectCatalog = "catalog"

	ActionCatalogCreate = "catalog.create"
	ActionCatalogDelete = "catalog.delete"
	ActionCatalogWipe   = "catalog.wipe"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrForbidden    = errors.New("forbidden")
)

type Service interface {
	Authorize(ctx context.Context, userID string, object string, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads stored policies, then seeds role permissions and the configured admins.
func NewEnforcer(db *gorm.DB, cfg config.Config) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := seedAdmins(enforcer, cfg.Auth.AdminUserIDs); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID string, object string, action string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidActor
	}

	allowed, err := s.enforcer.Enforce(subject(userID), strings.TrimSpace(object), strings.TrimSpace(action))
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func subject(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{RoleAdmin, ObjectCatalog, ActionCatalogCreate},
		{RoleAdmin, ObjectCatalog, ActionCatalogDelete},
		{RoleAdmin, ObjectCatalog, ActionCatalogWipe},
	}
	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmins(enforcer *casbin.SyncedEnforcer, userIDs []string) error {
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		has, err := enforcer.HasGroupingPolicy(subject(id), RoleAdmin)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(subject(id), RoleAdmin); err != nil {
			return err
		}
	}
	return nil
}
