package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/zalci/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const trackColumns = `id, title, description, price, currency, image_url, mp3_url, preview_url,
	stripe_price_id, has_wav, has_loop, has_high_res, has_midi, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, track *domain.Track) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tracks (`+trackColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID,
		track.Title,
		track.Description,
		track.Price,
		track.Currency,
		track.ImageURL,
		track.MP3URL,
		track.PreviewURL,
		track.StripePriceID,
		track.HasWAV,
		track.HasLoop,
		track.HasHighRes,
		track.HasMIDI,
		track.CreatedAt,
		track.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Track, error) {
	var t domain.Track
	err := db.WithContext(ctx).Raw(
		`SELECT `+trackColumns+` FROM tracks WHERE id = ?`,
		id,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Track, error) {
	var items []domain.Track
	stmt := db.WithContext(ctx).Model(&domain.Track{}).Select(trackColumns)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		stmt = stmt.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\'`,
			pattern,
			pattern,
		)
	}

	switch filter.Sort {
	case domain.SortPriceAsc:
		stmt = stmt.Order("price ASC").Order("created_at DESC")
	case domain.SortPriceDesc:
		stmt = stmt.Order("price DESC").Order("created_at DESC")
	default:
		stmt = stmt.Order("created_at DESC")
	}
	stmt = stmt.Order("id DESC")

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) HasPurchases(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM purchases WHERE track_id = ?`, id).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a track and its favorites. Callers check purchases first.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	if err := db.WithContext(ctx).Exec(`DELETE FROM favorites WHERE track_id = ?`, id).Error; err != nil {
		return false, err
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteAll clears the catalog together with the rows that reference it.
func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	for _, stmt := range []string{
		`DELETE FROM purchases`,
		`DELETE FROM favorites`,
	} {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return 0, err
		}
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM tracks`)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
