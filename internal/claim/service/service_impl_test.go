package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	catalogrepo "github.com/smallbiznis/zalci/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/zalci/internal/catalog/service"
	"github.com/smallbiznis/zalci/internal/claim/domain"
	"github.com/smallbiznis/zalci/internal/claim/service"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	creditrepo "github.com/smallbiznis/zalci/internal/credit/repository"
	creditservice "github.com/smallbiznis/zalci/internal/credit/service"
	notificationdomain "github.com/smallbiznis/zalci/internal/notification/domain"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	purchaserepo "github.com/smallbiznis/zalci/internal/purchase/repository"
	"github.com/smallbiznis/zalci/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	confirmations []notificationdomain.PurchaseConfirmation
	err           error
}

func (n *recordingNotifier) SendPurchaseConfirmation(_ context.Context, req notificationdomain.PurchaseConfirmation) error {
	n.confirmations = append(n.confirmations, req)
	return n.err
}

func (n *recordingNotifier) ForwardInquiry(context.Context, notificationdomain.Inquiry) error {
	return nil
}

// blindRepo hides existing purchases to force the insert-time uniqueness check.
type blindRepo struct {
	purchasedomain.Repository
}

func (blindRepo) Exists(context.Context, *gorm.DB, string, int64) (bool, error) {
	return false, nil
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	notifier *recordingNotifier
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, repo purchasedomain.Repository) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	clk := clock.NewFakeClock(time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC))
	node := testutil.Node(t)
	if repo == nil {
		repo = purchaserepo.Provide()
	}

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  catalogrepo.Provide(),
		Clock: clk,
	})
	notifier := &recordingNotifier{}
	core, logs := observer.New(zap.WarnLevel)
	svc := service.New(service.Params{
		DB:           db,
		Log:          zap.New(core),
		GenID:        node,
		Clock:        clk,
		CatalogSvc:   catalogSvc,
		PurchaseRepo: repo,
		CreditRepo:   creditrepo.Provide(),
		CreditSvc: creditservice.New(creditservice.Params{
			DB: db, Log: zap.NewNop(), Repo: creditrepo.Provide(), Clock: clk,
			Ranks: config.NewStaticRankConfigHolder(config.DefaultRankConfig()),
		}),
		Notifier: notifier,
	})
	return fixture{svc: svc, db: db, notifier: notifier, logs: logs}
}

func (f fixture) seedCredits(t *testing.T, userID string, credits int) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.db.Exec(
		`INSERT INTO user_stats (user_id, weekly_free_credits_left, credits_reset_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, credits, now, now, now,
	).Error)
}

func (f fixture) credits(t *testing.T, userID string) int {
	t.Helper()
	var credits int
	require.NoError(t, f.db.Raw(`SELECT weekly_free_credits_left FROM user_stats WHERE user_id = ?`, userID).Scan(&credits).Error)
	return credits
}

func (f fixture) downloads(t *testing.T, userID string) int64 {
	t.Helper()
	return testutil.CountRows(t, f.db, `SELECT COALESCE(MAX(download_count), 0) FROM user_stats WHERE user_id = ?`, userID)
}

func (f fixture) paymentID(t *testing.T, userID string, trackID int64) string {
	t.Helper()
	var id string
	require.NoError(t, f.db.Raw(`SELECT provider_payment_id FROM purchases WHERE user_id = ? AND track_id = ?`, userID, trackID).Scan(&id).Error)
	return id
}

func TestClaimFreeTrackSkipsCredits(t *testing.T) {
	f := newFixture(t, nil)
	trackID := testutil.SeedTrack(t, f.db, 11, "free", 0)

	res, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", Email: "u1@example.com", TrackID: "11"})
	require.NoError(t, err)
	assert.False(t, res.AlreadyOwned)
	assert.False(t, res.UsedCredit)

	assert.True(t, strings.HasPrefix(f.paymentID(t, "u1", trackID), "free_campaign_"))
	assert.Equal(t, int64(1), f.downloads(t, "u1"))
	assert.Zero(t, f.credits(t, "u1"), "free claims never touch credits")
	require.Len(t, f.notifier.confirmations, 1)
	assert.True(t, f.notifier.confirmations[0].IsFree)
	assert.Equal(t, "free", f.notifier.confirmations[0].TrackTitle)
}

func TestClaimPricedTrackConsumesOneCredit(t *testing.T) {
	f := newFixture(t, nil)
	trackID := testutil.SeedTrack(t, f.db, 12, "priced", 500)
	f.seedCredits(t, "u1", 2)

	res, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", TrackID: "12"})
	require.NoError(t, err)
	assert.True(t, res.UsedCredit)
	assert.Equal(t, 1, f.credits(t, "u1"))
	assert.True(t, strings.HasPrefix(f.paymentID(t, "u1", trackID), "credit_use_"))
	assert.Equal(t, int64(1), f.downloads(t, "u1"))

	var amount int64
	require.NoError(t, f.db.Raw(`SELECT amount FROM purchases WHERE user_id = 'u1'`).Scan(&amount).Error)
	assert.Zero(t, amount)
	assert.Empty(t, f.notifier.confirmations, "no email without an address")
}

func TestClaimWithoutCredits(t *testing.T) {
	f := newFixture(t, nil)
	testutil.SeedTrack(t, f.db, 13, "priced", 500)

	_, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "no-stats", TrackID: "13"})
	require.ErrorIs(t, err, domain.ErrNoCredits)

	f.seedCredits(t, "empty", 0)
	_, err = f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "empty", TrackID: "13"})
	require.ErrorIs(t, err, domain.ErrNoCredits)

	assert.Zero(t, testutil.CountRows(t, f.db, `SELECT COUNT(*) FROM purchases`))
	assert.Equal(t, 0, f.credits(t, "empty"))
}

func TestClaimTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	testutil.SeedTrack(t, f.db, 14, "priced", 500)
	f.seedCredits(t, "u1", 3)

	_, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", TrackID: "14"})
	require.NoError(t, err)

	res, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", TrackID: "14"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyOwned)
	assert.Equal(t, 2, f.credits(t, "u1"))
	assert.Equal(t, int64(1), testutil.CountRows(t, f.db, `SELECT COUNT(*) FROM purchases`))
	assert.Equal(t, int64(1), f.downloads(t, "u1"), "owned track is not counted again")
}

func TestClaimLogsConfirmationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.err = errors.New("template: purchase_confirmation: boom")
	testutil.SeedTrack(t, f.db, 16, "free", 0)

	res, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", Email: "u1@example.com", TrackID: "16"})
	require.NoError(t, err)
	assert.False(t, res.AlreadyOwned)

	entries := f.logs.FilterMessage("claim confirmation email failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
}

func TestClaimRaceRollsBackCredit(t *testing.T) {
	f := newFixture(t, blindRepo{Repository: purchaserepo.Provide()})
	testutil.SeedTrack(t, f.db, 15, "priced", 500)
	f.seedCredits(t, "u1", 1)
	require.NoError(t, f.db.Exec(`INSERT INTO purchases (id, user_id, track_id, amount, currency, status, created_at) VALUES (99, 'u1', 15, 500, 'jpy', 'completed', ?)`, time.Now().UTC()).Error)

	res, err := f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1", TrackID: "15"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyOwned)
	assert.Equal(t, 1, f.credits(t, "u1"), "decrement rolled back with the failed insert")
}

func TestClaimValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Claim(context.Background(), domain.ClaimRequest{TrackID: "1"})
	require.ErrorIs(t, err, domain.ErrInvalidUser)
	_, err = f.svc.Claim(context.Background(), domain.ClaimRequest{UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrMissingTrack)
}

