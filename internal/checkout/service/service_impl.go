package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/checkout/domain"
	"github.com/smallbiznis/zalci/internal/config"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	CatalogSvc  catalogdomain.Service
	PurchaseSvc purchasedomain.Service
	Sessions    SessionCreator `optional:"true"`
}

type Service struct {
	cfg         config.Config
	log         *zap.Logger
	catalogSvc  catalogdomain.Service
	purchaseSvc purchasedomain.Service
	sessions    SessionCreator
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Cfg,
		log:         p.Log.Named("checkout.service"),
		catalogSvc:  p.CatalogSvc,
		purchaseSvc: p.PurchaseSvc,
		sessions:    p.Sessions,
	}
}

func (s *Service) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.SessionResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	if strings.TrimSpace(req.TrackID) == "" {
		return nil, domain.ErrMissingTrack
	}
	if s.sessions == nil || strings.TrimSpace(s.cfg.Stripe.SecretKey) == "" {
		return nil, domain.ErrNotConfigured
	}

	track, err := s.catalogSvc.Lookup(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}

	owned, err := s.purchaseSvc.HasEntitlement(ctx, userID, track.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, domain.ErrAlreadyPurchased
	}

	site := SiteOrigin(s.cfg.SiteURL, req.Origin)
	params := buildSessionParams(track, userID, site)
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		s.log.Error("checkout session creation failed",
			zap.Error(err),
			zap.String("track_id", snowflake.ID(track.ID).String()),
		)
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, upstreamMessage(err))
	}

	s.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("track_id", snowflake.ID(track.ID).String()),
		zap.Int64("amount", track.Price),
	)
	return &domain.SessionResponse{URL: sess.URL, SessionID: sess.ID}, nil
}

func buildSessionParams(track *catalogdomain.Track, userID, site string) *stripe.CheckoutSessionParams {
	currency := track.Currency
	if currency == "" {
		currency = catalogdomain.DefaultCurrency
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(track.Title),
		Description: stripe.String(domain.ProductDescription),
	}
	if img := strings.TrimSpace(track.ImageURL); img != "" {
		product.Images = stripe.StringSlice([]string{img})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(currency),
					UnitAmount:  stripe.Int64(track.Price),
					ProductData: product,
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(site + "/library?purchase=success"),
		CancelURL:  stripe.String(site + "/?purchase=cancelled"),
	}
	params.AddMetadata(domain.MetadataUserID, userID)
	params.AddMetadata(domain.MetadataTrackID, snowflake.ID(track.ID).String())
	return params
}

// SiteOrigin resolves the public origin for redirect URLs.
func SiteOrigin(configured, origin string) string {
	site := strings.TrimSpace(configured)
	if site == "" {
		site = strings.TrimSpace(origin)
	}
	if site == "" {
		return "http://localhost:3000"
	}
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "https://" + site
	}
	return strings.TrimRight(site, "/")
}

func upstreamMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
