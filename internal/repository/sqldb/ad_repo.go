package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"biscuits/internal/domain"
	"biscuits/internal/repository"
)

const adColumns = `id, title, image_url, link_url, is_active, display_order, views, clicks, created_by, created_at, updated_at`

// AdRepo implements repository.AdRepository
type AdRepo struct {
	db *DB
}

// NewAdRepo creates a new AdRepo
func NewAdRepo(db *DB) repository.AdRepository {
	return &AdRepo{db: db}
}

func (r *AdRepo) Create(ctx context.Context, ad *domain.PlatformAd) error {
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ad.CreatedAt, ad.UpdatedAt = now, now
	ad.Views, ad.Clicks = 0, 0

	query := `INSERT INTO platform_ads (` + adColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		ad.ID, ad.Title, ad.ImageURL, ad.LinkURL, ad.IsActive, ad.DisplayOrder, ad.Views, ad.Clicks, ad.CreatedBy, ad.CreatedAt, ad.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}
	return nil
}

func (r *AdRepo) GetByID(ctx context.Context, id string) (*domain.PlatformAd, error) {
	ad := &domain.PlatformAd{}
	err := r.db.GetContext(ctx, ad, r.db.Rebind(`SELECT `+adColumns+` FROM platform_ads WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return ad, nil
}

func (r *AdRepo) ListActive(ctx context.Context) ([]domain.PlatformAd, error) {
	query := `SELECT ` + adColumns + ` FROM platform_ads WHERE is_active = ? ORDER BY display_order, created_at DESC`
	ads := []domain.PlatformAd{}
	if err := r.db.SelectContext(ctx, &ads, r.db.Rebind(query), true); err != nil {
		return nil, fmt.Errorf("failed to list active ads: %w", err)
	}
	return ads, nil
}

func (r *AdRepo) List(ctx context.Context) ([]domain.PlatformAd, error) {
	query := `SELECT ` + adColumns + ` FROM platform_ads ORDER BY display_order, created_at DESC`
	ads := []domain.PlatformAd{}
	if err := r.db.SelectContext(ctx, &ads, query); err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, nil
}

// Update changes the editable fields. Counters are left alone.
func (r *AdRepo) Update(ctx context.Context, ad *domain.PlatformAd) error {
	ad.UpdatedAt = time.Now().UTC()
	query := `UPDATE platform_ads SET title = ?, image_url = ?, link_url = ?, is_active = ?, display_order = ?, updated_at = ? WHERE id = ?`
	if err := r.db.exec(ctx, query, ad.Title, ad.ImageURL, ad.LinkURL, ad.IsActive, ad.DisplayOrder, ad.UpdatedAt, ad.ID); err != nil {
		return fmt.Errorf("failed to update ad: %w", err)
	}
	return nil
}

func (r *AdRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.exec(ctx, `DELETE FROM platform_ads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	return nil
}

func (r *AdRepo) IncrementViews(ctx context.Context, id string) error {
	if err := r.db.exec(ctx, `UPDATE platform_ads SET views = views + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *AdRepo) IncrementClicks(ctx context.Context, id string) error {
	if err := r.db.exec(ctx, `UPDATE platform_ads SET clicks = clicks + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return nil
}

func (r *AdRepo) Totals(ctx context.Context) (int64, int64, int, error) {
	var row struct {
		Views  int64 `db:"views"`
		Clicks int64 `db:"clicks"`
		Active int   `db:"active"`
	}
	query := `SELECT
		COALESCE(SUM(views), 0) AS views,
		COALESCE(SUM(clicks), 0) AS clicks,
		COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active
		FROM platform_ads`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to sum ad counters: %w", err)
	}
	return row.Views, row.Clicks, row.Active, nil
}
