package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"biscuits/internal/domain"
	"biscuits/internal/logger"
	"biscuits/internal/repository"
	"biscuits/internal/scriptgen"
)

func requireCORS(t *testing.T, h http.Header) {
	t.Helper()
	require.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	require.Equal(t, "Content-Type, Authorization, X-Client-Info, Apikey", h.Get("Access-Control-Allow-Headers"))
}

func TestHostedScript(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _ := env.user("owner@example.com", domain.RoleUser)

	cfg := &domain.Configuration{
		UserID:           owner.ID,
		Name:             "Shop",
		ConfigData:       domain.ConfigData{"highPrivacy": true, "orientation": "top"},
		SelectedServices: domain.StringList{"google_analytics"},
		IsActive:         true,
	}
	require.NoError(t, env.repos.Configurations.Create(ctx, cfg))
	banner := &domain.Banner{
		ConfigID: cfg.ID, ImageURL: "https://cdn.example/b.png", LinkURL: "https://example.com",
		Position: domain.PositionBottom, IsActive: true,
	}
	require.NoError(t, env.repos.Banners.Create(ctx, banner))

	inactive := &domain.Configuration{UserID: owner.ID, Name: "Old", IsActive: false}
	require.NoError(t, env.repos.Configurations.Create(ctx, inactive))

	t.Run("serves the script", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/biscuit?id="+cfg.ID, "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
		require.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
		requireCORS(t, rec.Header())

		want := scriptgen.Assemble(cfg.ConfigData, cfg.SelectedServices, []domain.Banner{*banner})
		require.Equal(t, want, rec.Body.String())
		require.Contains(t, rec.Body.String(), "// tarteaucitron.user.google_analytics = 'YOUR_GOOGLE_ANALYTICS_ID';")
	})

	t.Run("missing id", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/biscuit", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"Missing configuration ID"}`, rec.Body.String())
		requireCORS(t, rec.Header())
	})

	t.Run("unknown configuration", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/biscuit?id=does-not-exist", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"Configuration not found"}`, rec.Body.String())
		requireCORS(t, rec.Header())
	})

	t.Run("inactive configuration", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/biscuit?id="+inactive.ID, "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"Configuration not found"}`, rec.Body.String())
	})

	t.Run("preflight", func(t *testing.T) {
		rec := env.do(http.MethodOptions, "/biscuit", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Body.String())
		requireCORS(t, rec.Header())
	})
}

type failingConfigurations struct {
	repository.ConfigurationRepository
}

func (failingConfigurations) GetActiveByID(context.Context, string) (*domain.Configuration, error) {
	return nil, errors.New("connection refused by db-7")
}

func TestHostedScriptStoreFailure(t *testing.T) {
	repos := &repository.Repositories{Configurations: failingConfigurations{}}
	env := &testEnv{t: t, server: New(testConfig(), repos, logger.Nop(), nil)}

	rec := env.do(http.MethodGet, "/biscuit?id=abc", "", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "db-7")
	requireCORS(t, rec.Header())
}

type panickingBanners struct {
	repository.BannerRepository
}

func (panickingBanners) ListByConfig(context.Context, string) ([]domain.Banner, error) {
	panic("banner table in an impossible state")
}

type activeConfigurations struct {
	repository.ConfigurationRepository
}

func (activeConfigurations) GetActiveByID(_ context.Context, id string) (*domain.Configuration, error) {
	return &domain.Configuration{ID: id, Name: "Shop", IsActive: true}, nil
}

func TestHostedScriptPanicKeepsErrorContract(t *testing.T) {
	repos := &repository.Repositories{Configurations: activeConfigurations{}, Banners: panickingBanners{}}
	env := &testEnv{t: t, server: New(testConfig(), repos, logger.Nop(), nil)}

	rec := env.do(http.MethodGet, "/biscuit?id=abc", "", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "impossible")
	requireCORS(t, rec.Header())
}
