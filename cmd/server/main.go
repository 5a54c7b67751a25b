// Biscuits - consent banner scripts and platform ad rotation
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"biscuits/internal/config"
	"biscuits/internal/domain"
	"biscuits/internal/events"
	"biscuits/internal/logger"
	"biscuits/internal/repository"
	"biscuits/internal/repository/sqldb"
	"biscuits/internal/server"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := cfg.Logger.Level
	if cfg.Debug {
		logLevel = "debug"
	}
	log := logger.New(logLevel, cfg.Logger.File)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database initialized", "driver", cfg.Database.Driver)

	repos := db.Repositories()

	if err := createDefaultAdmin(ctx, repos, log); err != nil {
		log.Warn("could not create default admin", "error", err)
	}

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	srv := server.New(cfg, repos, log, publisher)
	log.Info("server listening", "url", cfg.BaseURL())

	return srv.Run()
}

// newPublisher connects to the broker when one is configured. Tracking keeps
// working without it.
func newPublisher(cfg *config.Config, log *logger.Logger) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.Nop{}
	}
	p, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Queue)
	if err != nil {
		log.Warn("ad events disabled", "error", err)
		return events.Nop{}
	}
	log.Info("publishing ad events", "queue", cfg.AMQP.Queue)
	return p
}

// createDefaultAdmin creates a default admin user if no users exist
func createDefaultAdmin(ctx context.Context, repos *repository.Repositories, log *logger.Logger) error {
	count, err := repos.Users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@biscuits.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	generated := password == ""
	if generated {
		password = uuid.New().String()
	}

	hashedPassword, err := sqldb.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &domain.User{Email: email, PasswordHash: hashedPassword, Name: "Administrator", Role: domain.RoleAdmin}
	if err := repos.Users.Create(ctx, admin); err != nil {
		return err
	}

	if generated {
		log.Warn("default admin created with a generated password, change it", "email", email, "password", password)
	} else {
		log.Info("default admin created", "email", email)
	}

	if os.Getenv("SEED_DATA") == "true" {
		createSampleData(ctx, repos, admin, log)
	}
	return nil
}

// createSampleData creates sample data for testing
func createSampleData(ctx context.Context, repos *repository.Repositories, admin *domain.User, log *logger.Logger) {
	cfg := &domain.Configuration{
		UserID:           admin.ID,
		Name:             "Demo site",
		ConfigData:       domain.DefaultConfig(),
		SelectedServices: domain.StringList{"gtag", "youtube"},
		IsActive:         true,
	}
	if err := repos.Configurations.Create(ctx, cfg); err != nil {
		log.Warn("failed to seed configuration", "error", err)
		return
	}

	for i, name := range []string{"spring", "summer", "autumn"} {
		ad := &domain.PlatformAd{
			Title:        "Biscuits " + name,
			ImageURL:     "https://placehold.co/728x90?text=" + name,
			LinkURL:      "https://example.com/" + name,
			IsActive:     true,
			DisplayOrder: i,
			CreatedBy:    admin.ID,
		}
		if err := repos.Ads.Create(ctx, ad); err != nil {
			log.Warn("failed to seed ad", "error", err)
			return
		}
	}

	log.Info("sample data created", "configuration_id", cfg.ID)
}
