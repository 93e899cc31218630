package server

import (
	"context"
	"net/http"

	authdomain "github.com/smallbiznis/zalci/internal/auth/domain"
	"github.com/smallbiznis/zalci/internal/authorization"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/zalci/internal/checkout/domain"
	claimdomain "github.com/smallbiznis/zalci/internal/claim/domain"
	contactdomain "github.com/smallbiznis/zalci/internal/contact/domain"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	downloaddomain "github.com/smallbiznis/zalci/internal/download/domain"
	favoritedomain "github.com/smallbiznis/zalci/internal/favorite/domain"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
)

type fakeVerifier struct {
	principals map[string]*authdomain.Principal
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*authdomain.Principal, error) {
	_ = ctx
	principal, ok := f.principals[token]
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}
	return principal, nil
}

type fakeAuthz struct {
	admins map[string]bool
}

func (f *fakeAuthz) Authorize(ctx context.Context, userID, object, action string) error {
	_ = ctx
	_ = object
	_ = action
	if !f.admins[userID] {
		return authorization.ErrForbidden
	}
	return nil
}

// Fakes embed the domain interface; only the methods a test sets are callable.

type fakeCatalog struct {
	catalogdomain.Service

	tracks    map[string]*catalogdomain.Track
	purchased map[string]bool
	created   *catalogdomain.CreateRequest
	wiped     bool
}

func (f *fakeCatalog) List(ctx context.Context, req catalogdomain.ListRequest) ([]catalogdomain.Response, error) {
	_ = ctx
	if req.Sort == "bogus" {
		return nil, catalogdomain.ErrInvalidSort
	}
	out := make([]catalogdomain.Response, 0, len(f.tracks))
	for id, track := range f.tracks {
		out = append(out, catalogdomain.Response{ID: id, Title: track.Title, Price: track.Price})
	}
	return out, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (*catalogdomain.Response, error) {
	track, err := f.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return &catalogdomain.Response{ID: id, Title: track.Title, Price: track.Price}, nil
}

func (f *fakeCatalog) Lookup(ctx context.Context, id string) (*catalogdomain.Track, error) {
	_ = ctx
	track, ok := f.tracks[id]
	if !ok {
		return nil, catalogdomain.ErrNotFound
	}
	return track, nil
}

func (f *fakeCatalog) Create(ctx context.Context, req catalogdomain.CreateRequest) (*catalogdomain.Response, error) {
	_ = ctx
	if req.Title == "" || req.Price == nil {
		return nil, catalogdomain.ErrMissingFields
	}
	f.created = &req
	return &catalogdomain.Response{ID: "99", Title: req.Title, Price: *req.Price, PreviewURL: req.MP3URL}, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, id string) error {
	_ = ctx
	if _, ok := f.tracks[id]; !ok {
		return catalogdomain.ErrNotFound
	}
	if f.purchased[id] {
		return catalogdomain.ErrHasPurchases
	}
	delete(f.tracks, id)
	return nil
}

func (f *fakeCatalog) Wipe(ctx context.Context) error {
	_ = ctx
	f.wiped = true
	return nil
}

type fakePurchase struct {
	purchasedomain.Service

	owned map[int64]bool
}

func (f *fakePurchase) HasEntitlement(ctx context.Context, userID string, trackID int64) (bool, error) {
	_ = ctx
	_ = userID
	return f.owned[trackID], nil
}

func (f *fakePurchase) Library(ctx context.Context, userID string) ([]purchasedomain.LibraryItem, error) {
	_ = ctx
	return []purchasedomain.LibraryItem{{PurchaseID: "1", ID: "10", Title: "Dawn for " + userID}}, nil
}

type fakeCredit struct {
	creditdomain.Service

	resets      int
	downloads   int
	shareErr    error
	creditsLeft int
}

func (f *fakeCredit) Stats(ctx context.Context, userID string) (*creditdomain.StatsResponse, error) {
	_ = ctx
	return &creditdomain.StatsResponse{UserID: userID, DownloadCount: f.downloads, CurrentBadge: "Novice Creator", MaxCredits: 1}, nil
}

func (f *fakeCredit) EnsureWeeklyReset(ctx context.Context, userID string) error {
	_ = ctx
	_ = userID
	f.resets++
	return nil
}

func (f *fakeCredit) IncrementDownload(ctx context.Context, userID string) (*creditdomain.StatsResponse, error) {
	f.downloads++
	return f.Stats(ctx, userID)
}

func (f *fakeCredit) ClaimShareBonus(ctx context.Context, userID string) (int, error) {
	_ = ctx
	_ = userID
	if f.shareErr != nil {
		return 0, f.shareErr
	}
	return f.creditsLeft, nil
}

type fakeClaim struct {
	result *claimdomain.ClaimResult
	err    error
	last   claimdomain.ClaimRequest
}

func (f *fakeClaim) Claim(ctx context.Context, req claimdomain.ClaimRequest) (*claimdomain.ClaimResult, error) {
	_ = ctx
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCheckout struct {
	resp *checkoutdomain.SessionResponse
	err  error
	last checkoutdomain.SessionRequest
}

func (f *fakeCheckout) CreateSession(ctx context.Context, req checkoutdomain.SessionRequest) (*checkoutdomain.SessionResponse, error) {
	_ = ctx
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakePayment struct {
	result   *paymentdomain.WebhookResult
	err      error
	provider string
	payload  []byte
}

func (f *fakePayment) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*paymentdomain.WebhookResult, error) {
	_ = ctx
	_ = headers
	f.provider = provider
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDownload struct {
	link *downloaddomain.Link
	err  error
}

func (f *fakeDownload) Link(ctx context.Context, req downloaddomain.LinkRequest) (*downloaddomain.Link, error) {
	_ = ctx
	_ = req
	if f.err != nil {
		return nil, f.err
	}
	return f.link, nil
}

type fakeFavorite struct {
	favoritedomain.Service

	items map[string]bool
}

func (f *fakeFavorite) Add(ctx context.Context, userID, trackID string) (bool, error) {
	_ = ctx
	_ = userID
	if trackID == "" {
		return false, favoritedomain.ErrMissingTrack
	}
	if f.items[trackID] {
		return false, nil
	}
	f.items[trackID] = true
	return true, nil
}

func (f *fakeFavorite) Remove(ctx context.Context, userID, trackID string) error {
	_ = ctx
	_ = userID
	delete(f.items, trackID)
	return nil
}

type fakeAccount struct {
	deleted []string
	err     error
}

func (f *fakeAccount) DeleteAccount(ctx context.Context, userID string) error {
	_ = ctx
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeContact struct {
	submitted []contactdomain.SubmitRequest
}

func (f *fakeContact) Submit(ctx context.Context, req contactdomain.SubmitRequest) (*contactdomain.Inquiry, error) {
	_ = ctx
	if req.Email == "" || req.Message == "" {
		return nil, contactdomain.ErrMissingFields
	}
	f.submitted = append(f.submitted, req)
	return &contactdomain.Inquiry{ID: "01J0000000000000000000000", Email: req.Email}, nil
}
