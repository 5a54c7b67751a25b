package scriptgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"biscuits/internal/domain"
)

func TestActiveBanners(t *testing.T) {
	in := []domain.Banner{
		{ID: "c", Position: domain.PositionTop, IsActive: true, DisplayOrder: 3},
		{ID: "off", Position: domain.PositionTop, IsActive: false, DisplayOrder: 0},
		{ID: "a", Position: domain.PositionLeft, IsActive: true, DisplayOrder: 1},
		{ID: "bad", Position: domain.Position("middle"), IsActive: true, DisplayOrder: 1},
		{ID: "b", Position: domain.PositionRight, IsActive: true, DisplayOrder: 1},
	}

	got := ActiveBanners(in)

	ids := make([]string, 0, len(got))
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	require.Equal(t, []string{"a", "b", "c"}, ids)
	require.Equal(t, "c", in[0].ID, "input must not be reordered")
}

func TestBannerVar(t *testing.T) {
	require.Equal(t, "banner_3f2b9c10e1d94a51", BannerVar(domain.Banner{ID: "3f2b9c10-e1d9-4a51"}, 0))
	require.Equal(t, "banner_a_b", BannerVar(domain.Banner{ID: "a.-_b"}, 0))
	require.Equal(t, "banner_4", BannerVar(domain.Banner{ID: "--"}, 4))
}

func TestInjectBanners(t *testing.T) {
	banners := []domain.Banner{
		{ID: "11-aa", ImageURL: "https://img/top.png", LinkURL: "https://ad/top", Position: domain.PositionTop, IsActive: true},
		{ID: "22-bb", ImageURL: "not a url", LinkURL: "javascript:void(0)", Position: domain.PositionRight, IsActive: true},
	}

	got := InjectBanners(banners)

	t.Run("one rule per position and a narrow viewport override", func(t *testing.T) {
		for _, p := range domain.Positions {
			require.Contains(t, got, ".biscuits-banner-"+string(p)+"{")
		}
		require.Contains(t, got, "@media (max-width: 768px){")
		require.Contains(t, got, "left:50%;transform:translateX(-50%)")
		require.Contains(t, got, "top:50%;transform:translateY(-50%)")
	})

	t.Run("each banner gets its own variable", func(t *testing.T) {
		require.Contains(t, got, "var banner_11aa = document.createElement('a');")
		require.Contains(t, got, "banner_11aa.href = 'https://ad/top';")
		require.Contains(t, got, "banner_11aa_img.src = 'https://img/top.png';")
		require.Contains(t, got, "banner_11aa.className = 'biscuits-banner biscuits-banner-top';")
		require.Contains(t, got, "var banner_22bb = document.createElement('a');")
	})

	t.Run("urls are kept verbatim", func(t *testing.T) {
		require.Contains(t, got, "banner_22bb.href = 'javascript:void(0)';")
		require.Contains(t, got, "banner_22bb_img.src = 'not a url';")
	})

	t.Run("banners render in list order", func(t *testing.T) {
		require.Less(t, strings.Index(got, "banner_11aa ="), strings.Index(got, "banner_22bb ="))
	})

	t.Run("empty list renders nothing", func(t *testing.T) {
		require.Empty(t, InjectBanners(nil))
	})
}
