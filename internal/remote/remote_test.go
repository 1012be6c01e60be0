package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const feedBody = "BEGIN:VCALENDAR\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20260304T091500\r\n" +
	"DTEND:20260304T093000\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestFetcherParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	events, err := NewFetcher(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].UID != "standup@example.com" || events[0].Summary != "Standup" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Date != "2026-03-04" || events[0].Start != "09:15" || events[0].End != "09:30" {
		t.Fatalf("unexpected timing: %+v", events[0])
	}
}

func TestFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewFetcher(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSyncerTicksAndStops(t *testing.T) {
	var calls atomic.Int32
	s := NewSyncer()
	s.Start(5*time.Millisecond, func() error {
		calls.Add(1)
		return nil
	})
	if !s.Running() {
		t.Fatal("syncer should be running after Start")
	}

	deadline := time.After(time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("syncer never ticked")
		case <-time.After(time.Millisecond):
		}
	}

	s.Stop()
	if s.Running() {
		t.Fatal("syncer should be stopped")
	}
	if s.Status() != "disabled" {
		t.Fatalf("status = %q, want disabled", s.Status())
	}

	seen := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != seen {
		t.Fatal("syncer kept ticking after Stop")
	}
}

func TestSyncerReportsFailureStatus(t *testing.T) {
	s := NewSyncer()
	s.Start(5*time.Millisecond, func() error {
		return context.DeadlineExceeded
	})
	defer s.Stop()

	deadline := time.After(time.Second)
	for {
		status := s.Status()
		if len(status) > 11 && status[:11] == "sync failed" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("status never reported failure, last %q", status)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSyncerRestartReplacesTimer(t *testing.T) {
	var first, second atomic.Int32
	s := NewSyncer()
	s.Start(5*time.Millisecond, func() error { first.Add(1); return nil })
	s.Start(5*time.Millisecond, func() error { second.Add(1); return nil })
	defer s.Stop()

	deadline := time.After(time.Second)
	for second.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("replacement timer never ticked")
		case <-time.After(time.Millisecond):
		}
	}
	firstSeen := first.Load()
	time.Sleep(20 * time.Millisecond)
	if first.Load() != firstSeen {
		t.Fatal("old timer kept ticking after restart")
	}
}
