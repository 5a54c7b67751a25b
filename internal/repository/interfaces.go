// Package repository defines interfaces for data persistence
package repository

import (
	"context"
	"errors"

	"biscuits/internal/domain"
)

// ErrNotFound is returned by writes that target a missing row.
// Lookups return nil, nil instead.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique value is already taken.
var ErrConflict = errors.New("already exists")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// ConfigurationRepository defines the interface for consent configurations
type ConfigurationRepository interface {
	Create(ctx context.Context, cfg *domain.Configuration) error
	GetByID(ctx context.Context, id string) (*domain.Configuration, error)
	// GetActiveByID returns nil when the configuration is missing or inactive.
	GetActiveByID(ctx context.Context, id string) (*domain.Configuration, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Configuration, error)
	Update(ctx context.Context, cfg *domain.Configuration) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// BannerRepository defines the interface for configuration banners
type BannerRepository interface {
	Create(ctx context.Context, banner *domain.Banner) error
	GetByID(ctx context.Context, id string) (*domain.Banner, error)
	// ListByConfig returns banners ordered by display order.
	ListByConfig(ctx context.Context, configID string) ([]domain.Banner, error)
	Update(ctx context.Context, banner *domain.Banner) error
	Delete(ctx context.Context, id string) error
}

// AdRepository defines the interface for platform ads
type AdRepository interface {
	Create(ctx context.Context, ad *domain.PlatformAd) error
	GetByID(ctx context.Context, id string) (*domain.PlatformAd, error)
	// ListActive returns active ads by display order, newest first on ties.
	ListActive(ctx context.Context) ([]domain.PlatformAd, error)
	List(ctx context.Context) ([]domain.PlatformAd, error)
	Update(ctx context.Context, ad *domain.PlatformAd) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementClicks(ctx context.Context, id string) error
	// Totals sums views and clicks over all ads and counts the active ones.
	Totals(ctx context.Context) (views, clicks int64, active int, err error)
}

// Repositories bundles all repository interfaces
type Repositories struct {
	Users          UserRepository
	Configurations ConfigurationRepository
	Banners        BannerRepository
	Ads            AdRepository
}
