// Package rotation implements the rotating platform ad widget.
//
// A Controller owns one mounted instance at a time. Mounting tears down the
// previous instance (timer and container) before fetching, and responses
// that arrive for a superseded mount are dropped. Views are reported once per
// ad per session and clicks on every click, both only for viewers that are
// not privileged.
package rotation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"biscuits/internal/domain"
	"biscuits/internal/logger"
)

// DefaultPeriod is the rotation interval.
const DefaultPeriod = 5 * time.Second

// ContainerID is the element id of the widget container.
const ContainerID = "biscuits-ads-container"

// Store is the part of the Store the widget depends on.
type Store interface {
	ListActiveAds(ctx context.Context) ([]domain.PlatformAd, error)
	IsPrivileged(ctx context.Context) (bool, error)
	IncrementAdView(ctx context.Context, id string) error
	IncrementAdClick(ctx context.Context, id string) error
}

// Logger receives collaborator failures.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// State of the controller.
type State int

// Controller states
const (
	Idle State = iota
	Loaded
	Rotating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Rotating:
		return "rotating"
	}
	return "unknown"
}

// instance is everything tied to one mount. It is replaced as a whole.
type instance struct {
	gen        uint64
	container  Container
	ads        []domain.PlatformAd
	index      int
	privileged bool
	ticker     Ticker
	done       chan struct{}
}

// Controller drives the widget.
type Controller struct {
	store         Store
	host          Host
	log           Logger
	period        time.Duration
	newTicker     TickerFunc
	rnd           *rand.Rand
	containerID   string
	reportTimeout time.Duration

	mu     sync.Mutex
	gen    uint64
	live   *instance
	viewed map[string]bool

	reports sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithPeriod sets the rotation interval.
func WithPeriod(d time.Duration) Option {
	return func(c *Controller) { c.period = d }
}

// WithTicker replaces the timer source.
func WithTicker(f TickerFunc) Option {
	return func(c *Controller) { c.newTicker = f }
}

// WithRand sets the source used to pick the first ad.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithContainerID sets the container element id.
func WithContainerID(id string) Option {
	return func(c *Controller) { c.containerID = id }
}

// WithReportTimeout bounds each view or click report.
func WithReportTimeout(d time.Duration) Option {
	return func(c *Controller) { c.reportTimeout = d }
}

// New creates an idle controller.
func New(store Store, host Host, opts ...Option) *Controller {
	c := &Controller{
		store:         store,
		host:          host,
		log:           logger.Nop(),
		period:        DefaultPeriod,
		newTicker:     NewTimeTicker,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		containerID:   ContainerID,
		reportTimeout: 10 * time.Second,
		viewed:        make(map[string]bool),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Mount replaces any live instance with a new one showing the active ads.
// Store failures leave the container empty and are only logged.
//
// The host is only called with the controller unlocked, so containers and
// hooks may call back into the controller.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	stale := c.teardownLocked()
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	removeContainer(stale)

	container := c.host.Attach(c.containerID)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		container.Remove()
		return
	}
	c.live = &instance{gen: gen, container: container}
	c.mu.Unlock()

	ads, privileged, err := c.fetch(ctx)
	if err != nil {
		c.log.Error("failed to load platform ads", "error", err)
		return
	}

	c.mu.Lock()
	if c.live == nil || c.live.gen != gen {
		c.mu.Unlock()
		c.log.Debug("discarding ads for a superseded mount", "generation", gen)
		return
	}
	if len(ads) == 0 {
		c.mu.Unlock()
		return
	}

	inst := &instance{
		gen:        gen,
		container:  container,
		ads:        ads,
		index:      c.rnd.Intn(len(ads)),
		privileged: privileged,
	}
	if len(ads) > 1 {
		inst.ticker = c.newTicker(c.period)
		inst.done = make(chan struct{})
	}
	c.live = inst
	f := c.frameLocked(inst)
	c.mu.Unlock()

	f.show()
	if inst.ticker != nil {
		go c.rotate(inst)
	}
}

func (c *Controller) fetch(ctx context.Context) ([]domain.PlatformAd, bool, error) {
	ads, err := c.store.ListActiveAds(ctx)
	if err != nil {
		return nil, false, err
	}
	privileged, err := c.store.IsPrivileged(ctx)
	if err != nil {
		return nil, false, err
	}
	return ads, privileged, nil
}

// Unmount stops rotation and removes the container.
func (c *Controller) Unmount() {
	c.mu.Lock()
	stale := c.teardownLocked()
	c.mu.Unlock()
	removeContainer(stale)
}

// Close unmounts and waits for reports still in flight.
func (c *Controller) Close() {
	c.Unmount()
	c.reports.Wait()
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.live == nil || len(c.live.ads) == 0:
		return Idle
	case c.live.ticker != nil:
		return Rotating
	}
	return Loaded
}

// Current returns the displayed ad and its index.
func (c *Controller) Current() (domain.PlatformAd, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil || len(c.live.ads) == 0 {
		return domain.PlatformAd{}, 0, false
	}
	return c.live.ads[c.live.index], c.live.index, true
}

// teardownLocked stops the live instance and returns its container, which the
// caller removes once c.mu is released.
func (c *Controller) teardownLocked() Container {
	if c.live == nil {
		return nil
	}
	if c.live.ticker != nil {
		c.live.ticker.Stop()
		close(c.live.done)
	}
	container := c.live.container
	c.live = nil
	return container
}

func removeContainer(container Container) {
	if container != nil {
		container.Remove()
	}
}

func (c *Controller) rotate(inst *instance) {
	for {
		select {
		case <-inst.done:
			return
		case <-inst.ticker.C():
			c.advance(inst.gen)
		}
	}
}

func (c *Controller) advance(gen uint64) {
	c.mu.Lock()
	inst := c.live
	if inst == nil || inst.gen != gen || len(inst.ads) == 0 {
		c.mu.Unlock()
		return
	}
	inst.index = (inst.index + 1) % len(inst.ads)
	f := c.frameLocked(inst)
	c.mu.Unlock()

	f.show()
}

// frame is one render, captured under c.mu and shown after it is released.
type frame struct {
	container Container
	ad        domain.PlatformAd
	onClick   func()
}

func (f frame) show() {
	f.container.Show(f.ad, f.onClick)
}

// frameLocked captures the displayed ad and records its view once per session.
func (c *Controller) frameLocked(inst *instance) frame {
	ad := inst.ads[inst.index]
	gen := inst.gen
	if !inst.privileged && !c.viewed[ad.ID] {
		c.viewed[ad.ID] = true
		c.report("view", ad.ID, c.store.IncrementAdView)
	}
	return frame{container: inst.container, ad: ad, onClick: func() { c.click(gen) }}
}

func (c *Controller) click(gen uint64) {
	c.mu.Lock()
	inst := c.live
	if inst == nil || inst.gen != gen || len(inst.ads) == 0 || inst.privileged {
		c.mu.Unlock()
		return
	}
	id := inst.ads[inst.index].ID
	c.mu.Unlock()

	c.report("click", id, c.store.IncrementAdClick)
}

// report sends a tracking call without blocking the caller.
func (c *Controller) report(kind, id string, call func(context.Context, string) error) {
	c.reports.Add(1)
	go func() {
		defer c.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.reportTimeout)
		defer cancel()
		if err := call(ctx, id); err != nil {
			c.log.Error("failed to report ad "+kind, "ad_id", id, "error", err)
		}
	}()
}
