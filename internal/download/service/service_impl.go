package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"github.com/smallbiznis/zalci/internal/download/domain"
	obsmetrics "github.com/smallbiznis/zalci/internal/observability/metrics"
	"github.com/smallbiznis/zalci/internal/providers/storage"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Clock       clock.Clock
	CatalogSvc  catalogdomain.Service
	PurchaseSvc purchasedomain.Service
	Signer      storage.Signer
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	ttl         time.Duration
	catalogSvc  catalogdomain.Service
	purchaseSvc purchasedomain.Service
	signer      storage.Signer
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	ttl := time.Duration(p.Cfg.Storage.SignedURLTTL) * time.Second
	if ttl <= 0 {
		ttl = domain.DefaultLinkTTL
	}
	return &Service{
		log:         p.Log.Named("download.service"),
		clock:       p.Clock,
		ttl:         ttl,
		catalogSvc:  p.CatalogSvc,
		purchaseSvc: p.PurchaseSvc,
		signer:      p.Signer,
		metrics:     p.Metrics,
	}
}

func (s *Service) Link(ctx context.Context, req domain.LinkRequest) (*domain.Link, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	trackRef := strings.TrimSpace(req.TrackID)
	if trackRef == "" {
		return nil, domain.ErrMissingTrack
	}

	// entitlement is checked before the track lookup so unknown ids read as not purchased
	trackID, err := parseTrackID(trackRef)
	if err != nil {
		s.metrics.RecordDownload(ctx, "not_purchased")
		return nil, domain.ErrNotPurchased
	}
	owned, err := s.purchaseSvc.HasEntitlement(ctx, userID, trackID)
	if err != nil {
		return nil, err
	}
	if !owned {
		s.metrics.RecordDownload(ctx, "not_purchased")
		return nil, domain.ErrNotPurchased
	}

	track, err := s.catalogSvc.Lookup(ctx, trackRef)
	if err != nil {
		return nil, err
	}

	objectPath, err := StoragePath(track.MP3URL)
	if err != nil {
		s.log.Error("failed to parse storage path",
			zap.String("track_id", trackRef),
			zap.String("mp3_url", track.MP3URL),
		)
		s.metrics.RecordDownload(ctx, "path_error")
		return nil, err
	}

	url, err := s.signer.SignedURL(ctx, objectPath, s.ttl)
	if err != nil {
		s.log.Error("signed url generation failed",
			zap.String("track_id", trackRef),
			zap.Error(err),
		)
		s.metrics.RecordDownload(ctx, "sign_failed")
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, err
		}
		return nil, domain.ErrLinkFailed
	}

	// downloads are counted when a track is acquired, not per issued link
	s.metrics.RecordDownload(ctx, "issued")

	return &domain.Link{URL: url, ExpiresAt: s.clock.Now().Add(s.ttl)}, nil
}

// StoragePath returns the object path after the last storage marker in a public file URL.
func StoragePath(fileURL string) (string, error) {
	idx := strings.LastIndex(fileURL, domain.StorageMarker)
	if idx < 0 {
		return "", domain.ErrFilePath
	}
	path := strings.TrimSpace(fileURL[idx+len(domain.StorageMarker):])
	if path == "" {
		return "", domain.ErrFilePath
	}
	return path, nil
}

func parseTrackID(raw string) (int64, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, err
	}
	return id.Int64(), nil
}
