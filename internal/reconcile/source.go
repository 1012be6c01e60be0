// Package reconcile keeps the unified task list converged with independently
// owned legacy task stores. Legacy records show up as ordinary tasks tagged
// with a homework origin; the legacy store stays authoritative for the fields
// it owns, and edits made through the unified surface are written back into
// the originating record.
package reconcile

import (
	"encoding/json"
	"fmt"
	"os"

	"daybook/internal/fsutil"
)

// Record is the minimal shape a legacy store exposes: an id, a label, and a
// few optional fields. Priority/difficulty are raw strings; the reconciler
// clamps them at the boundary.
type Record struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Due        string `json:"due,omitempty"` // date key, optional
	Done       bool   `json:"done"`
	Priority   string `json:"priority,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Source is a legacy task store. The reconciler needs read access plus
// targeted field updates, never full-document replacement.
type Source interface {
	// Kind identifies the store (part of the composite task identity).
	Kind() string

	// List returns every record in the store.
	List() ([]Record, error)

	// SetDone updates a record's completion flag.
	SetDone(recordID string, done bool) error

	// SetDue updates a record's due date (empty clears it).
	SetDue(recordID, due string) error

	// SetPriority updates a record's priority.
	SetPriority(recordID, priority string) error

	// SetDifficulty updates a record's difficulty.
	SetDifficulty(recordID, difficulty string) error
}

// FileSource is a JSON-file-backed legacy store, the concrete "homework"
// source. The file holds a flat record list and is rewritten atomically on
// every targeted update.
type FileSource struct {
	kind string
	path string
}

// NewFileSource creates a file-backed legacy source of the given kind.
func NewFileSource(kind, path string) *FileSource {
	return &FileSource{kind: kind, path: path}
}

// Kind returns the source kind.
func (f *FileSource) Kind() string {
	return f.kind
}

type fileRecords struct {
	Records []Record `json:"records"`
}

// List returns every record in the store. A missing file is an empty store.
func (f *FileSource) List() ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("read %s store: %w", f.kind, err)
	}
	var fr fileRecords
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("parse %s store: %w", f.kind, err)
	}
	if fr.Records == nil {
		fr.Records = []Record{}
	}
	return fr.Records, nil
}

// SetDone updates a record's completion flag.
func (f *FileSource) SetDone(recordID string, done bool) error {
	return f.update(recordID, func(r *Record) { r.Done = done })
}

// SetDue updates a record's due date.
func (f *FileSource) SetDue(recordID, due string) error {
	return f.update(recordID, func(r *Record) { r.Due = due })
}

// SetPriority updates a record's priority.
func (f *FileSource) SetPriority(recordID, priority string) error {
	return f.update(recordID, func(r *Record) { r.Priority = priority })
}

// SetDifficulty updates a record's difficulty.
func (f *FileSource) SetDifficulty(recordID, difficulty string) error {
	return f.update(recordID, func(r *Record) { r.Difficulty = difficulty })
}

func (f *FileSource) update(recordID string, apply func(*Record)) error {
	records, err := f.List()
	if err != nil {
		return err
	}
	found := false
	for i := range records {
		if records[i].ID == recordID {
			apply(&records[i])
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%s record not found: %s", f.kind, recordID)
	}

	data, err := json.MarshalIndent(fileRecords{Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s store: %w", f.kind, err)
	}
	if err := fsutil.WriteFileAtomic(f.path, data, 0600); err != nil {
		return fmt.Errorf("write %s store: %w", f.kind, err)
	}
	return nil
}
