package rotation

import (
	"html"
	"strings"
	"sync"
	"time"

	"biscuits/internal/domain"
)

// Host is the page the widget renders into.
type Host interface {
	// Attach creates an empty container element with the given id.
	Attach(id string) Container
}

// Container is one mounted widget element. The controller never holds its
// lock while calling a Container.
type Container interface {
	// Show replaces the content with a link wrapping the ad image.
	// onClick runs when the link is followed. Show after Remove is a no-op.
	Show(ad domain.PlatformAd, onClick func())
	// Remove detaches the element from the page.
	Remove()
}

// Ticker delivers rotation ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc starts a ticker with the given period.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// AdMarkup renders the link and image shown for an ad.
func AdMarkup(ad domain.PlatformAd) string {
	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(ad.LinkURL))
	b.WriteString(`" target="_blank" rel="noopener noreferrer" data-ad-id="`)
	b.WriteString(html.EscapeString(ad.ID))
	b.WriteString(`"><img src="`)
	b.WriteString(html.EscapeString(ad.ImageURL))
	b.WriteString(`" alt="`)
	b.WriteString(html.EscapeString(ad.Title))
	b.WriteString(`"></a>`)
	return b.String()
}

// MemoryHost keeps containers in memory. It backs the kiosk command and tests.
type MemoryHost struct {
	// OnShow, when set, observes every render.
	OnShow func(containerID string, ad domain.PlatformAd, markup string)

	mu       sync.Mutex
	live     []*MemoryContainer
	attached int
}

// NewMemoryHost creates an empty host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{}
}

// Attach implements Host.
func (h *MemoryHost) Attach(id string) Container {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &MemoryContainer{host: h, id: id}
	h.live = append(h.live, c)
	h.attached++
	return c
}

// Live returns the containers currently attached.
func (h *MemoryHost) Live() []*MemoryContainer {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*MemoryContainer, len(h.live))
	copy(out, h.live)
	return out
}

// Attached counts every Attach call so far.
func (h *MemoryHost) Attached() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached
}

func (h *MemoryHost) detach(c *MemoryContainer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.live {
		if l == c {
			h.live = append(h.live[:i], h.live[i+1:]...)
			return
		}
	}
}

// MemoryContainer is a container held by MemoryHost.
type MemoryContainer struct {
	host *MemoryHost
	id   string

	mu      sync.Mutex
	ad      *domain.PlatformAd
	markup  string
	onClick func()
	renders int
	removed bool
}

// Show implements Container.
func (c *MemoryContainer) Show(ad domain.PlatformAd, onClick func()) {
	markup := AdMarkup(ad)

	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.ad = &ad
	c.markup = markup
	c.onClick = onClick
	c.renders++
	c.mu.Unlock()

	if hook := c.host.OnShow; hook != nil {
		hook(c.id, ad, markup)
	}
}

// Remove implements Container.
func (c *MemoryContainer) Remove() {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.removed = true
	c.onClick = nil
	c.mu.Unlock()
	c.host.detach(c)
}

// Click follows the displayed link.
func (c *MemoryContainer) Click() {
	c.mu.Lock()
	fn := c.onClick
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ID returns the element id.
func (c *MemoryContainer) ID() string { return c.id }

// HTML returns the container element with its content.
func (c *MemoryContainer) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return `<div id="` + html.EscapeString(c.id) + `">` + c.markup + `</div>`
}

// Displayed returns the ad on screen.
func (c *MemoryContainer) Displayed() (domain.PlatformAd, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ad == nil {
		return domain.PlatformAd{}, false
	}
	return *c.ad, true
}

// Renders counts Show calls.
func (c *MemoryContainer) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}
