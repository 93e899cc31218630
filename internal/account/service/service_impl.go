package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/zalci/internal/account/domain"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	favoritedomain "github.com/smallbiznis/zalci/internal/favorite/domain"
	"github.com/smallbiznis/zalci/internal/providers/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Identity    identity.Admin
	FavoriteSvc favoritedomain.Service
	CreditSvc   creditdomain.Service
}

type Service struct {
	log         *zap.Logger
	identity    identity.Admin
	favoriteSvc favoritedomain.Service
	creditSvc   creditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("account.service"),
		identity:    p.Identity,
		favoriteSvc: p.FavoriteSvc,
		creditSvc:   p.CreditSvc,
	}
}

func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrInvalidUser
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		// an already removed identity still lets local cleanup run
		if !errors.Is(err, identity.ErrUserNotFound) {
			s.log.Error("identity user deletion failed", zap.Error(err))
			if errors.Is(err, identity.ErrNotConfigured) {
				return err
			}
			return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
		}
	}

	if err := s.favoriteSvc.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	if err := s.creditSvc.DeleteStats(ctx, userID); err != nil {
		return fmt.Errorf("delete stats: %w", err)
	}

	s.log.Info("account deleted")
	return nil
}
