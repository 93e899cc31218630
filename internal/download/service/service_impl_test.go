package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/zalci/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/zalci/internal/catalog/service"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/download/domain"
	"github.com/smallbiznis/zalci/internal/download/service"
	purchaserepo "github.com/smallbiznis/zalci/internal/purchase/repository"
	purchaseservice "github.com/smallbiznis/zalci/internal/purchase/service"
	"github.com/smallbiznis/zalci/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeSigner struct {
	path string
	ttl  time.Duration
	err  error
}

func (f *fakeSigner) SignedURL(_ context.Context, objectPath string, ttl time.Duration) (string, error) {
	f.path = objectPath
	f.ttl = ttl
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example.com/" + objectPath + "?token=x", nil
}

func newService(t *testing.T, signer *fakeSigner) (domain.Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	node := testutil.Node(t)
	log := zap.NewNop()

	svc := service.New(service.Params{
		Cfg:   config.Config{Storage: config.StorageConfig{SignedURLTTL: 60}},
		Log:   log,
		Clock: clk,
		CatalogSvc: catalogservice.New(catalogservice.Params{
			DB: db, Log: log, GenID: node, Repo: catalogrepo.Provide(), Clock: clk,
		}),
		PurchaseSvc: purchaseservice.New(purchaseservice.Params{
			DB: db, Log: log, GenID: node, Repo: purchaserepo.Provide(), Clock: clk,
		}),
		Signer: signer,
	})
	return svc, db
}

func grant(t *testing.T, db *gorm.DB, userID string, trackID int64) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO purchases (id, user_id, track_id, amount, currency, status, created_at) VALUES (?, ?, ?, 0, 'jpy', 'completed', ?)`,
		trackID*10, userID, trackID, time.Now().UTC(),
	).Error)
}

func TestLinkSignsStoragePath(t *testing.T) {
	signer := &fakeSigner{}
	svc, db := newService(t, signer)
	testutil.SeedTrack(t, db, 41, "rain", 300)
	grant(t, db, "u1", 41)

	link, err := svc.Link(context.Background(), domain.LinkRequest{UserID: "u1", TrackID: "41"})
	require.NoError(t, err)
	assert.Equal(t, "rain.mp3", signer.path)
	assert.Equal(t, 60*time.Second, signer.ttl)
	assert.Equal(t, "https://signed.example.com/rain.mp3?token=x", link.URL)
	assert.Zero(t, testutil.CountRows(t, db, `SELECT COUNT(*) FROM user_stats`), "issuing a link does not count a download")
}

func TestLinkRequiresPurchase(t *testing.T) {
	signer := &fakeSigner{}
	svc, db := newService(t, signer)
	testutil.SeedTrack(t, db, 42, "wind", 300)

	_, err := svc.Link(context.Background(), domain.LinkRequest{UserID: "u1", TrackID: "42"})
	require.ErrorIs(t, err, domain.ErrNotPurchased)
	assert.Empty(t, signer.path)

	// unknown tracks are reported as not purchased
	_, err = svc.Link(context.Background(), domain.LinkRequest{UserID: "u1", TrackID: "999"})
	require.ErrorIs(t, err, domain.ErrNotPurchased)
}

func TestLinkEntitledButTrackMissing(t *testing.T) {
	svc, db := newService(t, &fakeSigner{})
	grant(t, db, "u1", 43)

	_, err := svc.Link(context.Background(), domain.LinkRequest{UserID: "u1", TrackID: "43"})
	require.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func TestLinkSignerFailure(t *testing.T) {
	svc, db := newService(t, &fakeSigner{err: errors.New("boom")})
	testutil.SeedTrack(t, db, 44, "storm", 300)
	grant(t, db, "u1", 44)

	_, err := svc.Link(context.Background(), domain.LinkRequest{UserID: "u1", TrackID: "44"})
	require.ErrorIs(t, err, domain.ErrLinkFailed)
	assert.Zero(t, testutil.CountRows(t, db, `SELECT COUNT(*) FROM user_stats`))
}

func TestLinkValidation(t *testing.T) {
	svc, _ := newService(t, &fakeSigner{})

	_, err := svc.Link(context.Background(), domain.LinkRequest{TrackID: "1"})
	require.ErrorIs(t, err, domain.ErrInvalidUser)
	_, err = svc.Link(context.Background(), domain.LinkRequest{UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrMissingTrack)
}

func TestStoragePath(t *testing.T) {
	tests := []struct {
		url  string
		want string
		err  error
	}{
		{"https://p.supabase.co/storage/v1/object/public/songs/a/b.mp3", "a/b.mp3", nil},
		{"https://p.supabase.co/songs/x/songs/y.mp3", "y.mp3", nil},
		{"https://p.supabase.co/storage/v1/object/public/songs/", "", domain.ErrFilePath},
		{"https://cdn.example.com/audio/a.mp3", "", domain.ErrFilePath},
	}
	for _, tt := range tests {
		got, err := service.StoragePath(tt.url)
		if tt.err != nil {
			require.ErrorIs(t, err, tt.err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}
