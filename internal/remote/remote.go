// Package remote treats a remote calendar as a read-only external event
// source. Fetch failures are reported as a status string only and never touch
// the workspace document.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"daybook/internal/calendar"
)

const fetchTimeout = 15 * time.Second

// Fetcher downloads and parses a remote calendar feed.
type Fetcher struct {
	client *http.Client
	url    string
}

// NewFetcher creates a fetcher for the given feed URL.
func NewFetcher(url string) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		url:    url,
	}
}

// Fetch downloads the feed and parses its events.
func (f *Fetcher) Fetch(ctx context.Context) ([]calendar.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar: unexpected status %s", resp.Status)
	}
	events, err := calendar.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse remote calendar: %w", err)
	}
	return events, nil
}

// Syncer drives periodic remote-calendar syncs. Disabling cancels the timer
// immediately; re-enabling creates a fresh one. Each tick calls fn, which
// must re-read current state rather than capture a snapshot, since the user
// may have mutated the workspace between ticks.
type Syncer struct {
	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
	status string
}

// NewSyncer creates an idle syncer.
func NewSyncer() *Syncer {
	return &Syncer{status: "idle"}
}

// Start begins periodic syncs. Any previous timer is stopped first, so a
// restart never resurrects a stale one.
func (s *Syncer) Start(interval time.Duration, fn func() error) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticker = time.NewTicker(interval)
	s.done = make(chan struct{})
	s.status = "waiting for first sync"

	go func(ticker *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := fn(); err != nil {
					s.setStatus("sync failed: " + err.Error())
				} else {
					s.setStatus("last sync ok at " + time.Now().Format("15:04:05"))
				}
			}
		}
	}(s.ticker, s.done)
}

// Stop cancels the periodic sync, if running.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
		s.ticker = nil
		s.done = nil
		s.status = "disabled"
	}
}

// Running reports whether a periodic sync is active.
func (s *Syncer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker != nil
}

// Status returns the last sync outcome as a display string.
func (s *Syncer) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Syncer) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}
