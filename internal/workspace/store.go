// Package workspace owns the single versioned workspace document: loading it
// with default-merge and normalization, one-time migration from legacy files,
// and debounced persistence with a synchronous flush.
package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"daybook/internal/fsutil"
)

const (
	// DocumentFile is the on-disk name of the workspace document.
	DocumentFile = "workspace.json"

	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600

	defaultSaveDebounce = 500 * time.Millisecond
)

// Store owns the workspace document and its save path. All mutations flow
// through the document the Store hands out and are persisted by Save (lazy,
// debounced) or Flush (synchronous, before teardown).
type Store struct {
	dir     string
	doc     *Document
	memOnly bool  // storage unavailable; session runs on an in-memory document
	lastErr error // most recent storage fault, surfaced as status only
	now     func() time.Time
	onSave  func()

	mu        sync.Mutex
	saveTimer *time.Timer
	debounce  time.Duration
}

// Open loads (or creates) the workspace under dir. Storage faults never fail
// the session: on an unavailable directory or an unrecoverably corrupt
// document the store falls back to an in-memory document and records the
// fault, reachable through LastError.
func Open(dir string) *Store {
	s := &Store{
		dir:      dir,
		now:      time.Now,
		debounce: defaultSaveDebounce,
	}

	if err := os.MkdirAll(dir, dataDirPerm); err != nil {
		s.memOnly = true
		s.lastErr = fmt.Errorf("create data directory: %w", err)
		s.doc = DefaultDocument()
		return s
	}

	s.doc = s.loadDocument()
	return s
}

// SetNowFunc overrides the clock used by time-dependent operations.
// Passing nil resets it to time.Now.
func (s *Store) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Now returns the current time according to the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// SetSaveDebounce overrides the debounce window (used by tests).
func (s *Store) SetSaveDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// SetOnSave registers a callback invoked after each successful write.
func (s *Store) SetOnSave(fn func()) {
	s.onSave = fn
}

// Doc returns the owned workspace document. Callers borrow it, mutate it, and
// route persistence back through Save or Flush.
func (s *Store) Doc() *Document {
	return s.doc
}

// Dir returns the data directory path.
func (s *Store) Dir() string {
	return s.dir
}

// InMemory reports whether the store fell back to a session-only document.
func (s *Store) InMemory() bool {
	return s.memOnly
}

// LastError returns the most recent storage fault, or nil. Save errors are
// recorded here instead of propagating out of user actions.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// loadDocument reads workspace.json, merging the persisted document over a
// full set of defaults. When no document exists it runs the one-time legacy
// migration; when the document is corrupt it tries the .bak copy and finally
// resets to defaults, preserving the broken file.
func (s *Store) loadDocument() *Document {
	path := filepath.Join(s.dir, DocumentFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if doc, ok := migrateLegacy(s.dir, s.now()); ok {
				s.writeNow(doc)
				return doc
			}
			doc := DefaultDocument()
			s.writeNow(doc)
			return doc
		}
		s.memOnly = true
		s.lastErr = fmt.Errorf("read %s: %w", DocumentFile, err)
		return DefaultDocument()
	}

	if doc, ok := s.decodeDocument(data); ok {
		return doc
	}

	// Corrupt primary: try the backup, then reset. Either way the broken
	// file is kept for manual inspection.
	corruptPath := fmt.Sprintf("%s.corrupt.%s", path, s.now().Format("20060102-150405"))
	_ = os.Rename(path, corruptPath)
	s.lastErr = fmt.Errorf("%s was corrupt (moved to %s)", DocumentFile, corruptPath)

	if bak, err := os.ReadFile(path + ".bak"); err == nil {
		if doc, ok := s.decodeDocument(bak); ok {
			s.writeNow(doc)
			return doc
		}
	}

	doc := DefaultDocument()
	s.writeNow(doc)
	return doc
}

// decodeDocument merges raw JSON over a default document. Top-level keys are
// applied individually so a wrong-typed field falls back to its default
// instead of poisoning the whole load; Normalize then clamps everything else.
func (s *Store) decodeDocument(data []byte) (*Document, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}

	doc := DefaultDocument()
	mergeField(raw, "schema_version", &doc.SchemaVersion)
	mergeField(raw, "pages", &doc.Pages)
	mergeField(raw, "tasks", &doc.Tasks)
	mergeField(raw, "task_order", &doc.TaskOrder)
	mergeField(raw, "streaks", &doc.Streaks)
	mergeField(raw, "settings", &doc.Settings)
	mergeField(raw, "time_blocks", &doc.TimeBlocks)
	mergeField(raw, "ui", &doc.UI)

	upgradeDocument(doc)
	Normalize(doc, s.now())
	return doc, true
}

// mergeField unmarshals raw[key] into dst when present and well-typed,
// leaving the default value otherwise.
func mergeField[T any](raw map[string]json.RawMessage, key string, dst *T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return
	}
	*dst = v
}

// Save schedules a debounced write. Multiple mutations inside the debounce
// window coalesce into a single write. Never returns an error out of a user
// action; faults land in LastError.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memOnly {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.saveTimer = nil
		s.writeLocked()
	})
}

// Flush cancels any pending debounced write and writes synchronously. Call
// before the process may be torn down so no mutation is silently lost.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if s.memOnly {
		return
	}
	s.writeLocked()
}

// Pending reports whether a debounced write is scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTimer != nil
}

func (s *Store) writeLocked() {
	if err := s.write(s.doc); err != nil {
		s.lastErr = err
		return
	}
	s.lastErr = nil
	if s.onSave != nil {
		s.onSave()
	}
}

// writeNow persists doc immediately, outside the debounce machinery. Used
// during load (first run, migration, recovery).
func (s *Store) writeNow(doc *Document) {
	if err := s.write(doc); err != nil {
		s.memOnly = true
		s.lastErr = err
	}
}

func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", DocumentFile, err)
	}
	path := filepath.Join(s.dir, DocumentFile)
	fsutil.BestEffortBackup(path, dataFilePerm)
	if err := fsutil.WriteFileAtomic(path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", DocumentFile, err)
	}
	return nil
}
