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

const bannerColumns = `id, config_id, image_url, link_url, position, is_active, display_order, created_at`

// BannerRepo implements repository.BannerRepository
type BannerRepo struct {
	db *DB
}

// NewBannerRepo creates a new BannerRepo
func NewBannerRepo(db *DB) repository.BannerRepository {
	return &BannerRepo{db: db}
}

func (r *BannerRepo) Create(ctx context.Context, b *domain.Banner) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now().UTC()

	query := `INSERT INTO banners (` + bannerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		b.ID, b.ConfigID, b.ImageURL, b.LinkURL, b.Position, b.IsActive, b.DisplayOrder, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}
	return nil
}

func (r *BannerRepo) GetByID(ctx context.Context, id string) (*domain.Banner, error) {
	b := &domain.Banner{}
	err := r.db.GetContext(ctx, b, r.db.Rebind(`SELECT `+bannerColumns+` FROM banners WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get banner: %w", err)
	}
	return b, nil
}

func (r *BannerRepo) ListByConfig(ctx context.Context, configID string) ([]domain.Banner, error) {
	query := `SELECT ` + bannerColumns + ` FROM banners WHERE config_id = ? ORDER BY display_order, created_at`
	banners := []domain.Banner{}
	if err := r.db.SelectContext(ctx, &banners, r.db.Rebind(query), configID); err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

func (r *BannerRepo) Update(ctx context.Context, b *domain.Banner) error {
	query := `UPDATE banners SET image_url = ?, link_url = ?, position = ?, is_active = ?, display_order = ? WHERE id = ?`
	if err := r.db.exec(ctx, query, b.ImageURL, b.LinkURL, b.Position, b.IsActive, b.DisplayOrder, b.ID); err != nil {
		return fmt.Errorf("failed to update banner: %w", err)
	}
	return nil
}

func (r *BannerRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.exec(ctx, `DELETE FROM banners WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}
	return nil
}
