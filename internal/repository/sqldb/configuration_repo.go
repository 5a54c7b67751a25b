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

const configurationColumns = `id, user_id, name, config_data, selected_services, is_active, created_at, updated_at`

// ConfigurationRepo implements repository.ConfigurationRepository
type ConfigurationRepo struct {
	db *DB
}

// NewConfigurationRepo creates a new ConfigurationRepo
func NewConfigurationRepo(db *DB) repository.ConfigurationRepository {
	return &ConfigurationRepo{db: db}
}

func (r *ConfigurationRepo) Create(ctx context.Context, cfg *domain.Configuration) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	cfg.CreatedAt, cfg.UpdatedAt = now, now

	query := `INSERT INTO configurations (` + configurationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		cfg.ID, cfg.UserID, cfg.Name, cfg.ConfigData, cfg.SelectedServices, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}
	return nil
}

func (r *ConfigurationRepo) GetByID(ctx context.Context, id string) (*domain.Configuration, error) {
	return r.getOne(ctx, `SELECT `+configurationColumns+` FROM configurations WHERE id = ?`, id)
}

func (r *ConfigurationRepo) GetActiveByID(ctx context.Context, id string) (*domain.Configuration, error) {
	return r.getOne(ctx, `SELECT `+configurationColumns+` FROM configurations WHERE id = ? AND is_active = ?`, id, true)
}

func (r *ConfigurationRepo) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Configuration, error) {
	cfg := &domain.Configuration{}
	err := r.db.GetContext(ctx, cfg, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return cfg, nil
}

func (r *ConfigurationRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM configurations WHERE user_id = ? ORDER BY created_at DESC`
	configs := []domain.Configuration{}
	if err := r.db.SelectContext(ctx, &configs, r.db.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	return configs, nil
}

func (r *ConfigurationRepo) Update(ctx context.Context, cfg *domain.Configuration) error {
	cfg.UpdatedAt = time.Now().UTC()
	query := `UPDATE configurations SET name = ?, config_data = ?, selected_services = ?, is_active = ?, updated_at = ? WHERE id = ?`
	if err := r.db.exec(ctx, query, cfg.Name, cfg.ConfigData, cfg.SelectedServices, cfg.IsActive, cfg.UpdatedAt, cfg.ID); err != nil {
		return fmt.Errorf("failed to update configuration: %w", err)
	}
	return nil
}

func (r *ConfigurationRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.exec(ctx, `DELETE FROM configurations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}
	return nil
}

func (r *ConfigurationRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM configurations`); err != nil {
		return 0, fmt.Errorf("failed to count configurations: %w", err)
	}
	return count, nil
}
