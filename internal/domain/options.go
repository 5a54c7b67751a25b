package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every NormalizeConfig failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// OptionKind is the input kind of a consent banner option.
type OptionKind int

// Option kinds
const (
	OptionCheckbox OptionKind = iota + 1
	OptionSelect
	OptionText
)

func (k OptionKind) String() string {
	switch k {
	case OptionCheckbox:
		return "checkbox"
	case OptionSelect:
		return "select"
	case OptionText:
		return "text"
	}
	return fmt.Sprintf("OptionKind(%d)", int(k))
}

// MarshalText renders the kind by name so catalogs serialize readably.
func (k OptionKind) MarshalText() ([]byte, error) {
	switch k {
	case OptionCheckbox, OptionSelect, OptionText:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("unknown option kind %d", int(k))
}

// Choice is one allowed value of a select option.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Option describes one tarteaucitron init option.
type Option struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Section     string     `json:"section"`
	Kind        OptionKind `json:"type"`
	Choices     []Choice   `json:"options,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Description string     `json:"description,omitempty"`
	Default     any        `json:"default"`
}

// Section names
const (
	SectionGeneral  = "General"
	SectionBehavior = "Behavior"
	SectionIcon     = "Icon and position"
	SectionButtons  = "Buttons and actions"
	SectionAdvanced = "Advanced"
	SectionCustom   = "Custom CSS/JS"
)

// Options is the catalog of known options, in the order tarteaucitron
// documents its defaults. Literal rendering follows this order.
var Options = []Option{
	{Key: "privacyUrl", Label: "Privacy policy URL", Section: SectionGeneral, Kind: OptionText, Placeholder: "https://example.com/privacy", Description: "Link to your privacy policy page", Default: ""},
	{Key: "hashtag", Label: "Hashtag", Section: SectionGeneral, Kind: OptionText, Placeholder: "#tarteaucitron", Description: "Anchor opening the panel directly", Default: "#tarteaucitron"},
	{Key: "cookieName", Label: "Cookie name", Section: SectionGeneral, Kind: OptionText, Placeholder: "tarteaucitron", Description: "Name of the consent cookie", Default: "tarteaucitron"},
	{Key: "orientation", Label: "Banner position", Section: SectionGeneral, Kind: OptionSelect, Choices: []Choice{
		{Value: "middle", Label: "Middle"},
		{Value: "top", Label: "Top"},
		{Value: "bottom", Label: "Bottom"},
	}, Description: "Where the consent banner appears", Default: "middle"},
	{Key: "groupServices", Label: "Group services by category", Section: SectionBehavior, Kind: OptionCheckbox, Default: false},
	{Key: "showDetailsOnClick", Label: "Show details on click", Section: SectionBehavior, Kind: OptionCheckbox, Default: true},
	{Key: "serviceDefaultState", Label: "Default service state", Section: SectionBehavior, Kind: OptionSelect, Choices: []Choice{
		{Value: "wait", Label: "Waiting"},
		{Value: "true", Label: "Accepted"},
		{Value: "false", Label: "Denied"},
	}, Description: "Initial state of services without a decision", Default: "wait"},
	{Key: "showAlertSmall", Label: "Show the small alert", Section: SectionBehavior, Kind: OptionCheckbox, Default: true},
	{Key: "cookieslist", Label: "Show the cookie list", Section: SectionBehavior, Kind: OptionCheckbox, Default: true},
	{Key: "closePopup", Label: "Close the popup automatically", Section: SectionBehavior, Kind: OptionCheckbox, Default: false},
	{Key: "showIcon", Label: "Show the icon", Section: SectionIcon, Kind: OptionCheckbox, Description: "Floating icon reopening the panel", Default: true},
	{Key: "iconPosition", Label: "Icon position", Section: SectionIcon, Kind: OptionSelect, Choices: []Choice{
		{Value: "BottomRight", Label: "Bottom right"},
		{Value: "BottomLeft", Label: "Bottom left"},
		{Value: "TopRight", Label: "Top right"},
		{Value: "TopLeft", Label: "Top left"},
		{Value: "MiddleRight", Label: "Middle right"},
		{Value: "MiddleLeft", Label: "Middle left"},
	}, Default: "BottomRight"},
	{Key: "adblocker", Label: "Detect ad blockers", Section: SectionAdvanced, Kind: OptionCheckbox, Default: false},
	{Key: "DenyAllCta", Label: `"Deny all" button`, Section: SectionButtons, Kind: OptionCheckbox, Default: true},
	{Key: "AcceptAllCta", Label: `"Accept all" button`, Section: SectionButtons, Kind: OptionCheckbox, Default: true},
	{Key: "highPrivacy", Label: "High privacy mode", Section: SectionAdvanced, Kind: OptionCheckbox, Description: "Load nothing before explicit consent", Default: true},
	{Key: "handleBrowserDNTRequest", Label: "Honor Do Not Track", Section: SectionAdvanced, Kind: OptionCheckbox, Default: false},
	{Key: "removeCredit", Label: "Hide credits", Section: SectionAdvanced, Kind: OptionCheckbox, Default: false},
	{Key: "moreInfoLink", Label: `"More information" link`, Section: SectionButtons, Kind: OptionCheckbox, Default: true},
	{Key: "useExternalCss", Label: "Use an external CSS", Section: SectionCustom, Kind: OptionCheckbox, Default: false},
	{Key: "useExternalJs", Label: "Use an external JS", Section: SectionCustom, Kind: OptionCheckbox, Default: false},
	{Key: "readmoreLink", Label: `"Read more" URL`, Section: SectionButtons, Kind: OptionText, Placeholder: "https://example.com/cookies", Default: ""},
	{Key: "mandatory", Label: "Mandatory cookie", Section: SectionAdvanced, Kind: OptionCheckbox, Default: false},
	{Key: "mandatoryCta", Label: "Show the mandatory button", Section: SectionAdvanced, Kind: OptionCheckbox, Default: true},
}

var optionIndex = func() map[string]int {
	idx := make(map[string]int, len(Options))
	for i, o := range Options {
		idx[o.Key] = i
	}
	return idx
}()

// LookupOption returns the catalog entry for key.
func LookupOption(key string) (Option, bool) {
	i, ok := optionIndex[key]
	if !ok {
		return Option{}, false
	}
	return Options[i], true
}

// OptionRank orders known keys by catalog position. Unknown keys report false.
func OptionRank(key string) (int, bool) {
	i, ok := optionIndex[key]
	return i, ok
}

// DefaultConfig returns a fresh mapping holding every option's default.
func DefaultConfig() ConfigData {
	c := make(ConfigData, len(Options))
	for _, o := range Options {
		c[o.Key] = o.Default
	}
	return c
}

// NormalizeConfig checks every known key against its option kind and returns
// a copy. Unknown keys are kept as they are.
func NormalizeConfig(in map[string]any) (ConfigData, error) {
	out := make(ConfigData, len(in))
	for key, value := range in {
		opt, ok := LookupOption(key)
		if !ok {
			out[key] = value
			continue
		}
		v, err := opt.normalize(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		out[key] = v
	}
	return out, nil
}

func (o Option) normalize(value any) (any, error) {
	switch o.Kind {
	case OptionCheckbox:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return b, nil
	case OptionSelect:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		for _, c := range o.Choices {
			if c.Value == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%q is not an allowed value", s)
	case OptionText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return s, nil
	}
	return nil, fmt.Errorf("option kind %v is not supported", o.Kind)
}
