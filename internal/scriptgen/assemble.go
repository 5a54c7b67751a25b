// Package scriptgen turns a configuration into the embeddable consent script.
//
// Assemble is the single implementation shared by the hosted delivery
// endpoint, the preview API and the offline generator. Its output depends only
// on its arguments, so every caller produces the same bytes for the same
// configuration.
package scriptgen

import (
	"html"
	"net/url"
	"strings"

	"biscuits/internal/domain"
)

// ConsentEngineURL is the tarteaucitron build loaded by every script.
const ConsentEngineURL = "https://cdn.jsdelivr.net/gh/AmauriC/tarteaucitron.js@1.27.1/tarteaucitron.min.js"

// Input is everything the generated script depends on. It is also the
// export format read by cmd/biscuitgen.
type Input struct {
	ConfigData       map[string]any  `json:"config_data"`
	SelectedServices []string        `json:"selected_services"`
	Banners          []domain.Banner `json:"banners,omitempty"`
}

// InputFor builds the generator input of a stored configuration.
func InputFor(cfg *domain.Configuration, banners []domain.Banner) Input {
	return Input{
		ConfigData:       cfg.ConfigData,
		SelectedServices: cfg.SelectedServices,
		Banners:          banners,
	}
}

// Script assembles the script for in.
func (in Input) Script() string {
	return Assemble(in.ConfigData, in.SelectedServices, in.Banners)
}

// Assemble renders the embed script: loader and init call, one commented
// placeholder per selected service, then the banner section. Empty service
// or banner lists omit their section entirely. Banners are passed through
// ActiveBanners first.
func Assemble(data map[string]any, services []string, banners []domain.Banner) string {
	var b strings.Builder

	b.WriteString("/* Biscuits - consent banner */\n")
	b.WriteString("(function () {\n")
	b.WriteString("  var script = document.createElement('script');\n")
	b.WriteString("  script.src = " + quote(ConsentEngineURL) + ";\n")
	b.WriteString("  script.onload = function () {\n")
	b.WriteString("    tarteaucitron.init(")
	writeConfigLiteral(&b, data, "    ")
	b.WriteString(");\n")
	b.WriteString("  };\n")
	b.WriteString("  document.head.appendChild(script);\n")
	b.WriteString("})();\n")

	if len(services) > 0 {
		b.WriteString("\n// Enabled services\n")
		for _, s := range services {
			b.WriteString(ServiceLine(s))
			b.WriteByte('\n')
		}
	}

	if active := ActiveBanners(banners); len(active) > 0 {
		b.WriteByte('\n')
		b.WriteString(InjectBanners(active))
	}

	return b.String()
}

// ServiceLine is the commented placeholder for one service.
func ServiceLine(service string) string {
	return "// tarteaucitron.user." + service + " = 'YOUR_" + strings.ToUpper(service) + "_ID';"
}

// HostedURL is the address of the hosted script of a configuration.
func HostedURL(baseURL, configID string) string {
	return strings.TrimRight(baseURL, "/") + "/biscuit?id=" + url.QueryEscape(configID)
}

// HostedSnippet is the tag a site owner pastes to load the hosted script.
func HostedSnippet(baseURL, configID string) string {
	return `<script src="` + html.EscapeString(HostedURL(baseURL, configID)) + `"></script>`
}
