package domain

// ServiceCategory groups third-party services in the selection UI.
type ServiceCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is a third-party integration tarteaucitron can gate behind consent.
type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ServiceCategories in display order.
var ServiceCategories = []ServiceCategory{
	{ID: "analytic", Name: "Analytics"},
	{ID: "ads", Name: "Advertising"},
	{ID: "social", Name: "Social networks"},
	{ID: "video", Name: "Video"},
	{ID: "support", Name: "Support"},
	{ID: "api", Name: "APIs"},
}

// Services is the catalog offered for selection. Selections are not limited
// to it: any identifier is passed through to the generated script.
var Services = []Service{
	{ID: "google_analytics", Name: "Google Analytics (GA4)", Category: "analytic"},
	{ID: "gtag", Name: "Google Analytics (gtag.js)", Category: "analytic"},
	{ID: "googletagmanager", Name: "Google Tag Manager", Category: "analytic"},
	{ID: "matomo", Name: "Matomo", Category: "analytic"},
	{ID: "hotjar", Name: "Hotjar", Category: "analytic"},
	{ID: "clarity", Name: "Microsoft Clarity", Category: "analytic"},
	{ID: "adsense", Name: "Google AdSense", Category: "ads"},
	{ID: "facebookpixel", Name: "Facebook Pixel", Category: "ads"},
	{ID: "linkedininsighttag", Name: "LinkedIn Insight Tag", Category: "ads"},
	{ID: "facebook", Name: "Facebook", Category: "social"},
	{ID: "twitter", Name: "X (Twitter)", Category: "social"},
	{ID: "linkedin", Name: "LinkedIn", Category: "social"},
	{ID: "youtube", Name: "YouTube", Category: "video"},
	{ID: "vimeo", Name: "Vimeo", Category: "video"},
	{ID: "dailymotion", Name: "Dailymotion", Category: "video"},
	{ID: "crisp", Name: "Crisp", Category: "support"},
	{ID: "intercomChat", Name: "Intercom", Category: "support"},
	{ID: "zopim", Name: "Zendesk Chat", Category: "support"},
	{ID: "recaptcha", Name: "reCAPTCHA", Category: "api"},
	{ID: "googlemaps", Name: "Google Maps", Category: "api"},
	{ID: "googlefonts", Name: "Google Fonts", Category: "api"},
}

// ValidServiceID reports whether id can be written into a script comment:
// letters, digits and underscores only.
func ValidServiceID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
