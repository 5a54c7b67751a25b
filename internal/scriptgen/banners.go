package scriptgen

import (
	"sort"
	"strconv"
	"strings"

	"biscuits/internal/domain"
)

// NarrowViewport is the breakpoint under which every banner collapses to a
// full-width bar at the bottom of the page.
const NarrowViewport = "768px"

// ActiveBanners keeps active banners with a known position, ordered by
// DisplayOrder. Ties keep their input order.
func ActiveBanners(banners []domain.Banner) []domain.Banner {
	out := make([]domain.Banner, 0, len(banners))
	for _, b := range banners {
		if b.IsActive && b.Position.Valid() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// bannerStyles returns one rule per position plus the narrow viewport override.
func bannerStyles() string {
	rules := []string{
		".biscuits-banner{position:fixed;z-index:2147483000;display:block;line-height:0}",
		".biscuits-banner img{display:block;max-width:100%;height:auto}",
	}
	collapsed := make([]string, 0, len(domain.Positions))
	for _, p := range domain.Positions {
		sel := ".biscuits-banner-" + string(p)
		collapsed = append(collapsed, sel)
		switch p {
		case domain.PositionTop:
			rules = append(rules, sel+"{top:0;left:50%;transform:translateX(-50%)}")
		case domain.PositionBottom:
			rules = append(rules, sel+"{bottom:0;left:50%;transform:translateX(-50%)}")
		case domain.PositionLeft:
			rules = append(rules, sel+"{left:0;top:50%;transform:translateY(-50%)}")
		case domain.PositionRight:
			rules = append(rules, sel+"{right:0;top:50%;transform:translateY(-50%)}")
		}
	}
	rules = append(rules, "@media (max-width: "+NarrowViewport+"){"+
		strings.Join(collapsed, ",")+
		"{top:auto;bottom:0;left:0;right:0;width:100%;transform:none}}")
	return strings.Join(rules, "\n")
}

// BannerVar is the script variable bound to a banner. Characters that are not
// legal in an identifier are dropped from the id.
func BannerVar(b domain.Banner, index int) string {
	var sb strings.Builder
	sb.WriteString("banner_")
	n := 0
	for _, r := range b.ID {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			n++
		}
	}
	if n == 0 {
		sb.WriteString(strconv.Itoa(index))
	}
	return sb.String()
}

// InjectBanners renders the banner section for an already filtered and
// sorted list: a style element and one link wrapping an image per banner,
// mounted once the document body exists.
func InjectBanners(banners []domain.Banner) string {
	if len(banners) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("/* Biscuits - banners */\n")
	b.WriteString("(function () {\n")
	b.WriteString("  var style = document.createElement('style');\n")
	b.WriteString("  style.textContent = " + quote(bannerStyles()) + ";\n")
	b.WriteString("  document.head.appendChild(style);\n")
	b.WriteString("  function mount() {\n")
	for i, banner := range banners {
		v := BannerVar(banner, i)
		img := v + "_img"
		b.WriteString("    var " + v + " = document.createElement('a');\n")
		b.WriteString("    " + v + ".href = " + quote(banner.LinkURL) + ";\n")
		b.WriteString("    " + v + ".target = '_blank';\n")
		b.WriteString("    " + v + ".rel = 'noopener noreferrer';\n")
		b.WriteString("    " + v + ".className = " + quote("biscuits-banner biscuits-banner-"+string(banner.Position)) + ";\n")
		b.WriteString("    var " + img + " = document.createElement('img');\n")
		b.WriteString("    " + img + ".src = " + quote(banner.ImageURL) + ";\n")
		b.WriteString("    " + img + ".alt = '';\n")
		b.WriteString("    " + v + ".appendChild(" + img + ");\n")
		b.WriteString("    document.body.appendChild(" + v + ");\n")
	}
	b.WriteString("  }\n")
	b.WriteString("  if (document.readyState === 'loading') {\n")
	b.WriteString("    document.addEventListener('DOMContentLoaded', mount);\n")
	b.WriteString("  } else {\n")
	b.WriteString("    mount();\n")
	b.WriteString("  }\n")
	b.WriteString("})();\n")
	return b.String()
}
