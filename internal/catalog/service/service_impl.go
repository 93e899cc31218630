package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	cfg   config.Config
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Cfg,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	sort := strings.ToLower(strings.TrimSpace(req.Sort))
	switch sort {
	case "", domain.SortNewest, domain.SortPriceAsc, domain.SortPriceDesc:
	default:
		return nil, domain.ErrInvalidSort
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Query: strings.TrimSpace(req.Query),
		Sort:  sort,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Lookup(ctx context.Context, id string) (*domain.Track, error) {
	trackID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, trackID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	imageURL := strings.TrimSpace(req.ImageURL)
	mp3URL := strings.TrimSpace(req.MP3URL)
	priceID := strings.TrimSpace(req.StripePriceID)
	if title == "" || req.Price == nil || imageURL == "" || mp3URL == "" || priceID == "" {
		return nil, domain.ErrMissingFields
	}
	if *req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}

	var description *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			description = &d
		}
	}

	now := s.clock.Now()
	track := &domain.Track{
		ID:            s.genID.Generate().Int64(),
		Title:         title,
		Description:   description,
		Price:         *req.Price,
		Currency:      domain.DefaultCurrency,
		ImageURL:      imageURL,
		MP3URL:        mp3URL,
		PreviewURL:    mp3URL,
		StripePriceID: priceID,
		HasWAV:        req.HasWAV,
		HasLoop:       req.HasLoop,
		HasHighRes:    req.HasHighRes,
		HasMIDI:       req.HasMIDI,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, s.db, track); err != nil {
		return nil, err
	}

	s.log.Info("track created",
		zap.String("track_id", snowflake.ID(track.ID).String()),
		zap.Int64("price", track.Price),
	)
	resp := toResponse(track)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	trackID, err := parseID(id)
	if err != nil {
		return err
	}
	// purchases outlive catalog edits; only the bulk wipe removes them
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := s.repo.HasPurchases(ctx, tx, trackID)
		if err != nil {
			return err
		}
		if owned {
			return domain.ErrHasPurchases
		}
		deleted, err := s.repo.Delete(ctx, tx, trackID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("track deleted", zap.String("track_id", id))
	return nil
}

func (s *Service) Wipe(ctx context.Context) error {
	if s.cfg.IsProduction() {
		return domain.ErrWipeForbidden
	}

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.DeleteAll(ctx, tx)
		removed = n
		return err
	})
	if err != nil {
		return err
	}
	s.log.Warn("catalog wiped", zap.Int64("tracks_removed", removed))
	return nil
}

func parseID(id string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}

func toResponse(t *domain.Track) domain.Response {
	currency := t.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return domain.Response{
		ID:            snowflake.ID(t.ID).String(),
		Title:         t.Title,
		Slug:          slug.Make(t.Title),
		Description:   t.Description,
		Price:         t.Price,
		Currency:      currency,
		ImageURL:      t.ImageURL,
		MP3URL:        t.MP3URL,
		PreviewURL:    t.PreviewURL,
		StripePriceID: t.StripePriceID,
		HasWAV:        t.HasWAV,
		HasLoop:       t.HasLoop,
		HasHighRes:    t.HasHighRes,
		HasMIDI:       t.HasMIDI,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

