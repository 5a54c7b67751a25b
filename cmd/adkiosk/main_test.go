package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"biscuits/internal/domain"
	"biscuits/internal/logger"
)

type stubServer struct {
	mu    sync.Mutex
	views map[string]int
	auth  []string
}

func (s *stubServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/ads/active", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]domain.PlatformAd{
			{ID: "ad-1", Title: "One", ImageURL: "https://cdn.example/1.png", LinkURL: "https://example.com/1", IsActive: true},
			{ID: "ad-2", Title: "Two", ImageURL: "https://cdn.example/2.png", LinkURL: "https://example.com/2", IsActive: true},
		})
	})
	r.Get("/api/me/privileged", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = append(s.auth, r.Header.Get("Authorization"))
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]bool{"privileged": false})
	})
	r.Post("/api/ads/{id}/view", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.views[chi.URLParam(r, "id")]++
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func (s *stubServer) snapshot() (map[string]int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make(map[string]int, len(s.views))
	for k, v := range s.views {
		views[k] = v
	}
	return views, append([]string(nil), s.auth...)
}

func TestRunRotatesUntilDurationElapses(t *testing.T) {
	stub := &stubServer{views: map[string]int{}}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	host := run(context.Background(), options{
		server:   ts.URL,
		token:    "tok",
		period:   10 * time.Millisecond,
		duration: 200 * time.Millisecond,
	}, logger.Nop())

	require.Equal(t, 1, host.Attached())
	require.Empty(t, host.Live())

	views, auth := stub.snapshot()
	require.Equal(t, map[string]int{"ad-1": 1, "ad-2": 1}, views)
	require.Equal(t, []string{"Bearer tok"}, auth)
}

func TestRunStopsOnCancel(t *testing.T) {
	stub := &stubServer{views: map[string]int{}}
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		run(ctx, options{server: ts.URL, period: time.Hour}, logger.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
