// Package domain defines core business entities
package domain

import (
	"time"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account owning configurations. Admins manage platform ads.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsPrivileged reports whether the user bypasses ad tracking.
func (u *User) IsPrivileged() bool {
	return u != nil && u.Role == RoleAdmin
}

// Configuration is a named, owner-scoped set of consent banner options
// plus the third-party services the site uses.
type Configuration struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	Name             string     `json:"name" db:"name"`
	ConfigData       ConfigData `json:"config_data" db:"config_data"`
	SelectedServices StringList `json:"selected_services" db:"selected_services"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Banner is an advertisement unit attached to a configuration and injected
// into its embed script.
type Banner struct {
	ID           string    `json:"id" db:"id"`
	ConfigID     string    `json:"config_id" db:"config_id"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	LinkURL      string    `json:"link_url" db:"link_url"`
	Position     Position  `json:"position" db:"position"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PlatformAd is a platform-wide advertisement shown in the rotating widget.
type PlatformAd struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	LinkURL      string    `json:"link_url" db:"link_url"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	Views        int64     `json:"views" db:"views"`
	Clicks       int64     `json:"clicks" db:"clicks"`
	CreatedBy    string    `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// GlobalStats summarizes platform usage for the admin dashboard.
type GlobalStats struct {
	TotalConfigurations int   `json:"totalConfigurations"`
	TotalUsers          int   `json:"totalUsers"`
	TotalViews          int64 `json:"totalViews"`
	TotalClicks         int64 `json:"totalClicks"`
	ActiveAds           int   `json:"activeAds"`
}
