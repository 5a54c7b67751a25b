package rotation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"biscuits/internal/domain"
)

type fetchResult struct {
	ads     []domain.PlatformAd
	err     error
	release chan struct{}
}

type fakeStore struct {
	mu         sync.Mutex
	results    []fetchResult
	calls      int
	started    chan int
	privileged bool
	privErr    error
	clickErr   error
	views      map[string]int
	clicks     map[string]int
}

func newFakeStore(results ...fetchResult) *fakeStore {
	return &fakeStore{
		results: results,
		started: make(chan int, 16),
		views:   make(map[string]int),
		clicks:  make(map[string]int),
	}
}

func (s *fakeStore) ListActiveAds(ctx context.Context) ([]domain.PlatformAd, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	r := s.results[len(s.results)-1]
	if i < len(s.results) {
		r = s.results[i]
	}
	s.mu.Unlock()

	s.started <- i
	if r.release != nil {
		<-r.release
	}
	return r.ads, r.err
}

func (s *fakeStore) IsPrivileged(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privileged, s.privErr
}

func (s *fakeStore) IncrementAdView(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[id]++
	return nil
}

func (s *fakeStore) IncrementAdClick(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks[id]++
	return s.clickErr
}

func (s *fakeStore) counts() (views, clicks map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views = make(map[string]int, len(s.views))
	for k, v := range s.views {
		views[k] = v
	}
	clicks = make(map[string]int, len(s.clicks))
	for k, v := range s.clicks {
		clicks[k] = v
	}
	return views, clicks
}

type fakeTicker struct {
	period  time.Duration
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{period: d, ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) all() []*fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeTicker, len(f.tickers))
	copy(out, f.tickers)
	return out
}

func (f *tickerFactory) running() int {
	n := 0
	for _, t := range f.all() {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

func ads(ids ...string) []domain.PlatformAd {
	out := make([]domain.PlatformAd, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.PlatformAd{
			ID:           id,
			Title:        "Ad " + id,
			ImageURL:     "https://cdn.example/" + id + ".png",
			LinkURL:      "https://example.com/" + id,
			IsActive:     true,
			DisplayOrder: i,
		})
	}
	return out
}

func newController(t *testing.T, store Store, seed int64) (*Controller, *MemoryHost, *tickerFactory) {
	t.Helper()
	host := NewMemoryHost()
	tickers := &tickerFactory{}
	c := New(store, host, WithTicker(tickers.New), WithRand(rand.New(rand.NewSource(seed))))
	t.Cleanup(c.Close)
	return c, host, tickers
}

// tick delivers one tick and waits until the container re-renders.
func tick(t *testing.T, tk *fakeTicker, container *MemoryContainer) {
	t.Helper()
	before := container.Renders()
	tk.ch <- time.Now()
	require.Eventually(t, func() bool { return container.Renders() == before+1 }, time.Second, time.Millisecond)
}

func onlyContainer(t *testing.T, host *MemoryHost) *MemoryContainer {
	t.Helper()
	live := host.Live()
	require.Len(t, live, 1)
	return live[0]
}

func TestMountStartsAtRandomIndexAndRotates(t *testing.T) {
	const seed = 42
	store := newFakeStore(fetchResult{ads: ads("a", "b", "c")})
	c, host, tickers := newController(t, store, seed)

	c.Mount(context.Background())

	start := rand.New(rand.NewSource(seed)).Intn(3)
	current, index, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, start, index)
	require.Equal(t, Rotating, c.State())

	container := onlyContainer(t, host)
	require.Equal(t, ContainerID, container.ID())
	shown, ok := container.Displayed()
	require.True(t, ok)
	require.Equal(t, current, shown)

	all := tickers.all()
	require.Len(t, all, 1)
	require.Equal(t, DefaultPeriod, all[0].period)

	for i := 1; i <= 3; i++ {
		tick(t, all[0], container)
		_, index, _ = c.Current()
		require.Equal(t, (start+i)%3, index)
	}
	require.Equal(t, start, index)

	c.Close()
	views, clicks := store.counts()
	require.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, views)
	require.Empty(t, clicks)
}

func TestViewsAreReportedOncePerSession(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("a", "b")})
	c, host, tickers := newController(t, store, 1)

	c.Mount(context.Background())
	container := onlyContainer(t, host)
	for i := 0; i < 5; i++ {
		tick(t, tickers.all()[0], container)
	}

	c.Unmount()
	require.Equal(t, Idle, c.State())
	c.Mount(context.Background())

	c.Close()
	views, _ := store.counts()
	require.Equal(t, map[string]int{"a": 1, "b": 1}, views)
}

func TestPrivilegedViewerIsNeverTracked(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("a", "b", "c")})
	store.privileged = true
	c, host, tickers := newController(t, store, 7)

	c.Mount(context.Background())
	container := onlyContainer(t, host)
	for i := 0; i < 4; i++ {
		tick(t, tickers.all()[0], container)
		container.Click()
	}

	c.Close()
	views, clicks := store.counts()
	require.Empty(t, views)
	require.Empty(t, clicks)
}

func TestClickReportsDisplayedAd(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("a", "b")})
	store.clickErr = errors.New("store unavailable")
	c, host, tickers := newController(t, store, 3)

	c.Mount(context.Background())
	container := onlyContainer(t, host)

	first, _, _ := c.Current()
	container.Click()
	container.Click()
	tick(t, tickers.all()[0], container)
	second, _, _ := c.Current()
	container.Click()

	c.Close()
	_, clicks := store.counts()
	require.Equal(t, map[string]int{first.ID: 2, second.ID: 1}, clicks)
}

func TestDoubleMountKeepsOneInstance(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("a", "b", "c")})
	c, host, tickers := newController(t, store, 5)

	c.Mount(context.Background())
	c.Mount(context.Background())

	require.Len(t, host.Live(), 1)
	require.Equal(t, 2, host.Attached())

	all := tickers.all()
	require.Len(t, all, 2)
	require.True(t, all[0].isStopped())
	require.False(t, all[1].isStopped())
	require.Equal(t, 1, tickers.running())
	require.Equal(t, Rotating, c.State())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	store := newFakeStore(
		fetchResult{ads: ads("old-1", "old-2"), release: release},
		fetchResult{ads: ads("new")},
	)
	c, host, tickers := newController(t, store, 9)

	first := make(chan struct{})
	go func() {
		defer close(first)
		c.Mount(context.Background())
	}()
	require.Equal(t, 0, <-store.started)

	c.Mount(context.Background())
	require.Equal(t, 1, <-store.started)

	close(release)
	<-first

	current, _, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, "new", current.ID)
	require.Equal(t, Loaded, c.State())
	require.Empty(t, tickers.all())

	container := onlyContainer(t, host)
	shown, _ := container.Displayed()
	require.Equal(t, "new", shown.ID)

	c.Close()
	views, _ := store.counts()
	require.Equal(t, map[string]int{"new": 1}, views)
}

func TestFetchFailureRendersNothing(t *testing.T) {
	t.Run("ads", func(t *testing.T) {
		store := newFakeStore(fetchResult{err: errors.New("boom")})
		c, host, tickers := newController(t, store, 1)

		c.Mount(context.Background())

		require.Equal(t, Idle, c.State())
		require.Equal(t, 0, onlyContainer(t, host).Renders())
		require.Empty(t, tickers.all())
	})

	t.Run("privilege", func(t *testing.T) {
		store := newFakeStore(fetchResult{ads: ads("a", "b")})
		store.privErr = errors.New("auth service down")
		c, host, tickers := newController(t, store, 1)

		c.Mount(context.Background())

		require.Equal(t, Idle, c.State())
		require.Equal(t, 0, onlyContainer(t, host).Renders())
		require.Empty(t, tickers.all())

		c.Close()
		views, _ := store.counts()
		require.Empty(t, views)
	})
}

func TestSingleAdDoesNotRotate(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("solo")})
	c, host, tickers := newController(t, store, 1)

	c.Mount(context.Background())

	require.Equal(t, Loaded, c.State())
	require.Empty(t, tickers.all())
	require.Contains(t, onlyContainer(t, host).HTML(), `data-ad-id="solo"`)
}

func TestEmptyListStaysIdle(t *testing.T) {
	store := newFakeStore(fetchResult{ads: nil})
	c, host, tickers := newController(t, store, 1)

	c.Mount(context.Background())

	require.Equal(t, Idle, c.State())
	require.Empty(t, tickers.all())
	require.Equal(t, 0, onlyContainer(t, host).Renders())
}

func TestUnmountStopsEverything(t *testing.T) {
	store := newFakeStore(fetchResult{ads: ads("a", "b")})
	c, host, tickers := newController(t, store, 1)

	c.Mount(context.Background())
	container := onlyContainer(t, host)
	c.Unmount()

	require.Equal(t, Idle, c.State())
	require.Empty(t, host.Live())
	require.Equal(t, 0, tickers.running())

	_, _, ok := c.Current()
	require.False(t, ok)

	container.Click()
	c.Close()
	_, clicks := store.counts()
	require.Empty(t, clicks)
}

// mountWithin fails the test when Mount does not return in time.
func mountWithin(t *testing.T, c *Controller) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Mount(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mount did not return")
	}
}

func TestHostMayCallBackIntoController(t *testing.T) {
	t.Run("read state while showing", func(t *testing.T) {
		store := newFakeStore(fetchResult{ads: ads("a", "b")})
		c, host, tickers := newController(t, store, 2)

		var mu sync.Mutex
		var seen []string
		host.OnShow = func(_ string, ad domain.PlatformAd, _ string) {
			current, _, ok := c.Current()
			state := c.State()
			mu.Lock()
			defer mu.Unlock()
			if ok && current.ID == ad.ID {
				seen = append(seen, ad.ID+":"+state.String())
			}
		}

		mountWithin(t, c)
		container := onlyContainer(t, host)
		tick(t, tickers.all()[0], container)

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(seen) == 2
		}, time.Second, time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		require.NotEqual(t, seen[0], seen[1])
	})

	t.Run("click while showing", func(t *testing.T) {
		store := newFakeStore(fetchResult{ads: ads("solo")})
		c, host, _ := newController(t, store, 2)
		host.OnShow = func(string, domain.PlatformAd, string) {
			for _, live := range host.Live() {
				live.Click()
			}
		}

		mountWithin(t, c)

		c.Close()
		_, clicks := store.counts()
		require.Equal(t, map[string]int{"solo": 1}, clicks)
	})

	t.Run("unmount while showing", func(t *testing.T) {
		store := newFakeStore(fetchResult{ads: ads("a", "b")})
		c, host, tickers := newController(t, store, 2)
		host.OnShow = func(string, domain.PlatformAd, string) { c.Unmount() }

		mountWithin(t, c)

		require.Equal(t, Idle, c.State())
		require.Empty(t, host.Live())
		require.Equal(t, 0, tickers.running())
	})
}

func TestStartIndexCoversEveryAd(t *testing.T) {
	seen := make(map[int]bool)
	for seed := int64(0); seed < 64; seed++ {
		store := newFakeStore(fetchResult{ads: ads("a", "b", "c", "d")})
		c, _, _ := newController(t, store, seed)
		c.Mount(context.Background())
		_, index, ok := c.Current()
		require.True(t, ok)
		seen[index] = true
		c.Close()
	}
	require.Len(t, seen, 4)
}

func TestAdMarkupEscapes(t *testing.T) {
	ad := domain.PlatformAd{ID: "x", Title: `Tom & "Jerry"`, ImageURL: "https://cdn.example/a.png?x=1&y=2", LinkURL: "https://example.com"}
	require.Equal(t,
		`<a href="https://example.com" target="_blank" rel="noopener noreferrer" data-ad-id="x"><img src="https://cdn.example/a.png?x=1&amp;y=2" alt="Tom &amp; &#34;Jerry&#34;"></a>`,
		AdMarkup(ad))
}
