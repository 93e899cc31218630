package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/zalci/internal/auth/domain"
	"github.com/smallbiznis/zalci/internal/auth/session"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/zalci/internal/checkout/domain"
	claimdomain "github.com/smallbiznis/zalci/internal/claim/domain"
	"github.com/smallbiznis/zalci/internal/config"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	downloaddomain "github.com/smallbiznis/zalci/internal/download/domain"
	"github.com/smallbiznis/zalci/internal/observability"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	"github.com/smallbiznis/zalci/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyerToken = "buyer-token"
	adminToken = "admin-token"

	buyerID = "6f1c3a52-8d7e-4b6a-9c1e-2f3a4b5c6d7e"
	adminID = "0b9e7d3c-1a2b-4c5d-8e9f-a1b2c3d4e5f6"
)

type testServer struct {
	srv      *Server
	catalog  *fakeCatalog
	purchase *fakePurchase
	credit   *fakeCredit
	claim    *fakeClaim
	checkout *fakeCheckout
	payment  *fakePayment
	download *fakeDownload
	favorite *fakeFavorite
	account  *fakeAccount
	contact  *fakeContact
}

func newTestServer(t *testing.T, cfg config.Config, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if limiter == nil {
		limiter = &ratelimit.Limiter{}
	}

	ts := &testServer{
		catalog: &fakeCatalog{tracks: map[string]*catalogdomain.Track{
			"10": {ID: 10, Title: "Dawn", Price: 500},
		}},
		purchase: &fakePurchase{owned: map[int64]bool{}},
		credit:   &fakeCredit{},
		claim:    &fakeClaim{result: &claimdomain.ClaimResult{}},
		checkout: &fakeCheckout{resp: &checkoutdomain.SessionResponse{URL: "https://checkout.stripe.com/c/pay/cs_test_1"}},
		payment:  &fakePayment{result: &paymentdomain.WebhookResult{Received: true}},
		download: &fakeDownload{},
		favorite: &fakeFavorite{items: map[string]bool{}},
		account:  &fakeAccount{},
		contact:  &fakeContact{},
	}

	ts.srv = NewServer(ServerParams{
		Gin: NewEngine(cfg, observability.Config{Environment: "test"}, nil),
		Cfg: cfg,
		Verifier: &fakeVerifier{principals: map[string]*authdomain.Principal{
			buyerToken: {UserID: buyerID, Email: "buyer@example.com"},
			adminToken: {UserID: adminID, Email: "admin@example.com"},
		}},
		Sessions:    session.NewManager(cfg),
		AuthzSvc:    &fakeAuthz{admins: map[string]bool{adminID: true}},
		Limiter:     limiter,
		CatalogSvc:  ts.catalog,
		PurchaseSvc: ts.purchase,
		CreditSvc:   ts.credit,
		ClaimSvc:    ts.claim,
		CheckoutSvc: ts.checkout,
		PaymentSvc:  ts.payment,
		DownloadSvc: ts.download,
		FavoriteSvc: ts.favorite,
		AccountSvc:  ts.account,
		ContactSvc:  ts.contact,
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	rec := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	for _, path := range []string{"/api/library", "/api/user/stats", "/api/favorites"} {
		rec := ts.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
	}

	rec := ts.do(http.MethodPost, "/api/checkout", "forged", map[string]string{"songId": "10"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user/stats", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: buyerToken})
	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Novice Creator", body["current_badge"])
}

func TestListAndGetSongs(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodGet, "/api/songs?q=dawn&sort=newest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []catalogdomain.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)

	rec = ts.do(http.MethodGet, "/api/songs?sort=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/songs/10", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/songs/404", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Song not found", decodeBody(t, rec)["error"])
}

func TestCreateCheckout(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"songId":"10"}`))
	req.Header.Set("Authorization", "Bearer "+buyerToken)
	req.Header.Set("Origin", "https://zalci.net")
	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", decodeBody(t, rec)["url"])
	assert.Equal(t, buyerID, ts.checkout.last.UserID)
	assert.Equal(t, "10", ts.checkout.last.TrackID)
	assert.Equal(t, "https://zalci.net", ts.checkout.last.Origin)
}

func TestCreateCheckoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing track", checkoutdomain.ErrMissingTrack, http.StatusBadRequest, "Missing songId"},
		{"unknown track", catalogdomain.ErrNotFound, http.StatusNotFound, "Song not found"},
		{"not configured", checkoutdomain.ErrNotConfigured, http.StatusInternalServerError, "Configuration error"},
		{"already owned", checkoutdomain.ErrAlreadyPurchased, http.StatusConflict, "Already purchased"},
		{"upstream", fmt.Errorf("%w: card declined", checkoutdomain.ErrUpstream), http.StatusInternalServerError, "card declined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, config.Config{}, nil)
			ts.checkout.err = tt.err

			rec := ts.do(http.MethodPost, "/api/checkout", buyerToken, map[string]string{"songId": "10"})
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}

func TestWebhookResponses(t *testing.T) {
	tests := []struct {
		name   string
		result *paymentdomain.WebhookResult
		err    error
		status int
		body   map[string]any
	}{
		{"configuration", nil, paymentdomain.ErrNotConfigured, http.StatusInternalServerError, map[string]any{"error": "Configuration error"}},
		{"no signature", nil, paymentdomain.ErrMissingSignature, http.StatusBadRequest, map[string]any{"error": "No signature"}},
		{"invalid signature", nil, paymentdomain.ErrInvalidSignature, http.StatusBadRequest, map[string]any{"error": "Invalid signature"}},
		{"expired signature", nil, fmt.Errorf("%w: %w", paymentdomain.ErrInvalidSignature, paymentdomain.ErrSignatureExpired), http.StatusBadRequest, map[string]any{"error": "Invalid signature"}},
		{"recorded", &paymentdomain.WebhookResult{Received: true}, nil, http.StatusOK, map[string]any{"received": true}},
		{"duplicate", &paymentdomain.WebhookResult{Received: true, Duplicate: true}, nil, http.StatusOK, map[string]any{"received": true, "duplicate": true}},
		{"missing metadata", &paymentdomain.WebhookResult{Received: true, Error: paymentdomain.MessageMissingMetadata}, nil, http.StatusOK, map[string]any{"received": true, "error": "Missing metadata"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, config.Config{}, nil)
			ts.payment.result = tt.result
			ts.payment.err = tt.err

			rec := ts.do(http.MethodPost, "/api/webhook", "", map[string]string{"id": "evt_1"})
			require.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			for key, want := range tt.body {
				assert.Equal(t, want, body[key], key)
			}
			assert.Equal(t, paymentdomain.ProviderStripe, ts.payment.provider)
			assert.JSONEq(t, `{"id":"evt_1"}`, string(ts.payment.payload))
		})
	}
}

func TestWebhookProviderAlias(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/payments/webhooks/stripe", "", map[string]string{"id": "evt_2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stripe", ts.payment.provider)

	ts.payment.err = paymentdomain.ErrProviderNotFound
	rec = ts.do(http.MethodPost, "/api/payments/webhooks/paypal", "", map[string]string{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntitlementAndLibrary(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodGet, "/api/purchases/10/entitlement", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["owned"])

	ts.purchase.owned[10] = true
	rec = ts.do(http.MethodGet, "/api/purchases/10/entitlement", buyerToken, nil)
	assert.Equal(t, true, decodeBody(t, rec)["owned"])

	rec = ts.do(http.MethodGet, "/api/purchases/999/entitlement", buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/library", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.credit.resets, "library read triggers the weekly reset")
}

func TestFreeClaimResponses(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/free-claim", buyerToken, map[string]string{"songId": "10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Equal(t, "buyer@example.com", ts.claim.last.Email)

	ts.claim.result = &claimdomain.ClaimResult{AlreadyOwned: true}
	rec = ts.do(http.MethodPost, "/api/free-claim", buyerToken, map[string]string{"songId": "10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Already purchased", decodeBody(t, rec)["message"])

	ts.claim.err = claimdomain.ErrNoCredits
	rec = ts.do(http.MethodPost, "/api/free-claim", buyerToken, map[string]string{"songId": "10"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "No weekly credits left", decodeBody(t, rec)["error"])
}

func TestUserStatsActions(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/user/stats", buyerToken, map[string]string{"action": "increment_download"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["download_count"])

	rec = ts.do(http.MethodPost, "/api/user/stats", buyerToken, map[string]string{"action": "reset"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid action", decodeBody(t, rec)["error"])
}

func TestShareClaim(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	ts.credit.creditsLeft = 2

	rec := ts.do(http.MethodPost, "/api/share/claim", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["creditsLeft"])

	ts.credit.shareErr = creditdomain.ErrAlreadyClaimed
	rec = ts.do(http.MethodPost, "/api/share/claim", buyerToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Already claimed this week", body["error"])
	assert.Equal(t, true, body["alreadyClaimed"])
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	ts.download.link = &downloaddomain.Link{URL: "https://storage.example.com/signed/dawn.mp3?token=x", ExpiresAt: time.Now().Add(time.Minute)}

	rec := ts.do(http.MethodGet, "/api/download?songId=10", buyerToken, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://storage.example.com/signed/dawn.mp3?token=x", rec.Header().Get("Location"))

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{downloaddomain.ErrNotPurchased, http.StatusForbidden, "You have not purchased this song"},
		{catalogdomain.ErrNotFound, http.StatusNotFound, "Song not found"},
		{downloaddomain.ErrFilePath, http.StatusInternalServerError, "File path configuration error"},
		{downloaddomain.ErrMissingTrack, http.StatusBadRequest, "Missing songId"},
	}
	for _, tc := range cases {
		ts.download.err = tc.err
		rec = ts.do(http.MethodGet, "/api/download?songId=10", buyerToken, nil)
		require.Equal(t, tc.status, rec.Code, tc.message)
		assert.Equal(t, tc.message, decodeBody(t, rec)["error"])
	}
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/favorites", buyerToken, map[string]string{"songId": "10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = ts.do(http.MethodPost, "/api/favorites", buyerToken, map[string]string{"songId": "10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Already in favorites", decodeBody(t, rec)["message"])

	rec = ts.do(http.MethodDelete, "/api/favorites?songId=10", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.favorite.items)
}

func TestDeleteAccountClearsCookie(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/auth/delete-account", buyerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{buyerID}, ts.account.deleted)

	cookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, session.DefaultCookieName+"=")
	assert.Contains(t, cookie, "Max-Age=0")
}

func TestContact(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/api/contact", "", map[string]string{
		"email":   "fan@example.com",
		"subject": "license",
		"message": "Can I use Dawn in a podcast?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.contact.submitted, 1)

	rec = ts.do(http.MethodPost, "/api/contact", "", map[string]string{"email": "fan@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])
}

func TestAdminRoutesRequirePolicy(t *testing.T) {
	ts := newTestServer(t, config.Config{Environment: "development"}, nil)
	price := int64(800)
	song := catalogdomain.CreateRequest{
		Title:         "Dusk",
		Price:         &price,
		ImageURL:      "https://cdn.example.com/img/dusk.png",
		MP3URL:        "https://proj.supabase.co/storage/v1/object/public/songs/dusk.mp3",
		StripePriceID: "price_123",
	}

	rec := ts.do(http.MethodPost, "/api/admin/songs", buyerToken, song)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, ts.catalog.created)

	rec = ts.do(http.MethodPost, "/api/admin/songs", adminToken, song)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["song"])

	rec = ts.do(http.MethodPost, "/api/admin/songs", adminToken, map[string]string{"title": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", decodeBody(t, rec)["error"])

	rec = ts.do(http.MethodDelete, "/api/admin/songs/10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ts.catalog.tracks["11"] = &catalogdomain.Track{Title: "Owned"}
	ts.catalog.purchased = map[string]bool{"11": true}
	rec = ts.do(http.MethodDelete, "/api/admin/songs/11", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Song has been purchased", decodeBody(t, rec)["error"])

	rec = ts.do(http.MethodGet, "/api/admin/temp-wipe", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Library and purchases wiped successfully", decodeBody(t, rec)["message"])
	assert.True(t, ts.catalog.wiped)
}

func TestTempWipeNotRoutedInProduction(t *testing.T) {
	ts := newTestServer(t, config.Config{Environment: "production"}, nil)

	rec := ts.do(http.MethodPost, "/api/admin/temp-wipe", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, ts.catalog.wiped)
}

func TestRateLimitDeniesBurst(t *testing.T) {
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLocalLimiter(0.5, 1, func() time.Time { return now })
	ts := newTestServer(t, config.Config{}, limiter)

	body := map[string]string{"email": "fan@example.com", "message": "hello"}
	rec := ts.do(http.MethodPost, "/api/contact", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/contact", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, rateLimitReasonUserRate, rec.Header().Get("X-Rate-Limited-Reason"))
	assert.Len(t, ts.contact.submitted, 1)
}

func TestMapErrorDefaultsToInternal(t *testing.T) {
	payload := mapError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, payload.Status)
	assert.Equal(t, "Internal server error", payload.Message)

	payload = mapError(fmt.Errorf("%w: card declined", checkoutdomain.ErrUpstream))
	assert.Equal(t, http.StatusInternalServerError, payload.Status)
	assert.Equal(t, errorTypeUpstream, payload.Type)
	assert.Equal(t, "card declined", payload.Message)

	errType, code := classifyErrorForLog(claimdomain.ErrNoCredits)
	assert.Equal(t, errorTypeResourceExhausted, errType)
	assert.Equal(t, "no_weekly_credits_left", code)
}
