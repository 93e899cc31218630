package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/zalci/internal/account/domain"
	"github.com/smallbiznis/zalci/internal/account/service"
	catalogrepo "github.com/smallbiznis/zalci/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/zalci/internal/catalog/service"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	creditrepo "github.com/smallbiznis/zalci/internal/credit/repository"
	creditservice "github.com/smallbiznis/zalci/internal/credit/service"
	favoriterepo "github.com/smallbiznis/zalci/internal/favorite/repository"
	favoriteservice "github.com/smallbiznis/zalci/internal/favorite/service"
	"github.com/smallbiznis/zalci/internal/providers/identity"
	"github.com/smallbiznis/zalci/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeIdentity struct {
	deleted []string
	err     error
}

func (f *fakeIdentity) DeleteUser(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

func newService(t *testing.T, admin identity.Admin) (domain.Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	node := testutil.Node(t)
	log := zap.NewNop()

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB: db, Log: log, GenID: node, Repo: catalogrepo.Provide(), Clock: clk,
	})
	svc := service.New(service.Params{
		Log:      log,
		Identity: admin,
		FavoriteSvc: favoriteservice.New(favoriteservice.Params{
			DB: db, Log: log, GenID: node, Clock: clk, Repo: favoriterepo.Provide(), CatalogSvc: catalogSvc,
		}),
		CreditSvc: creditservice.New(creditservice.Params{
			DB: db, Log: log, Repo: creditrepo.Provide(), Clock: clk,
			Ranks: config.NewStaticRankConfigHolder(config.DefaultRankConfig()),
		}),
	})
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Exec(`INSERT INTO favorites (id, user_id, track_id, created_at) VALUES (?, ?, 61, ?)`, len(userID)*100, userID, now).Error)
	require.NoError(t, db.Exec(`INSERT INTO user_stats (user_id, download_count, created_at, updated_at) VALUES (?, 3, ?, ?)`, userID, now, now).Error)
	require.NoError(t, db.Exec(`INSERT INTO purchases (id, user_id, track_id, amount, currency, status, created_at) VALUES (?, ?, 61, 0, 'jpy', 'completed', ?)`, len(userID)*100, userID, now).Error)
}

func TestDeleteAccountRemovesUserData(t *testing.T) {
	admin := &fakeIdentity{}
	svc, db := newService(t, admin)
	testutil.SeedTrack(t, db, 61, "ember", 100)
	seedUser(t, db, "u1")
	seedUser(t, db, "other")

	require.NoError(t, svc.DeleteAccount(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, admin.deleted)
	assert.Zero(t, testutil.CountRows(t, db, `SELECT COUNT(*) FROM favorites WHERE user_id = 'u1'`))
	assert.Zero(t, testutil.CountRows(t, db, `SELECT COUNT(*) FROM user_stats WHERE user_id = 'u1'`))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, `SELECT COUNT(*) FROM purchases WHERE user_id = 'u1'`))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, `SELECT COUNT(*) FROM favorites WHERE user_id = 'other'`))
}

func TestDeleteAccountIdentityFailureKeepsData(t *testing.T) {
	svc, db := newService(t, &fakeIdentity{err: errors.New("gotrue 500")})
	testutil.SeedTrack(t, db, 61, "ember", 100)
	seedUser(t, db, "u1")

	err := svc.DeleteAccount(context.Background(), "u1")
	require.ErrorIs(t, err, domain.ErrDeleteFailed)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, `SELECT COUNT(*) FROM favorites WHERE user_id = 'u1'`))
}

func TestDeleteAccountAlreadyGoneStillCleansUp(t *testing.T) {
	svc, db := newService(t, &fakeIdentity{err: identity.ErrUserNotFound})
	testutil.SeedTrack(t, db, 61, "ember", 100)
	seedUser(t, db, "u1")

	require.NoError(t, svc.DeleteAccount(context.Background(), "u1"))
	assert.Zero(t, testutil.CountRows(t, db, `SELECT COUNT(*) FROM user_stats`))
}

func TestDeleteAccountValidation(t *testing.T) {
	svc, _ := newService(t, &fakeIdentity{})
	require.ErrorIs(t, svc.DeleteAccount(context.Background(), " "), domain.ErrInvalidUser)

	svc, _ = newService(t, &fakeIdentity{err: identity.ErrNotConfigured})
	require.ErrorIs(t, svc.DeleteAccount(context.Background(), "u1"), identity.ErrNotConfigured)
}
