// Package backup provides backup and restore functionality for the daybook
// workspace. It manages timestamped backups of the workspace document.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"daybook/internal/fsutil"
)

// Version constants for the backup format.
const (
	ManifestVersion = "1.0"
	ManifestFile    = "manifest.json"
	BackupsDir      = "backups"
	WorkspaceFile   = "workspace.json"
)

// Manager handles backup and restore operations.
type Manager struct {
	dataDir   string // path to the data directory (e.g. ~/.daybook)
	backupDir string // path to the backups directory
}

// Manifest contains metadata about a backup.
type Manifest struct {
	Version   string         `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Stats     map[string]int `json:"stats"`
}

// Info contains summary information about a backup.
type Info struct {
	Name      string         // directory name (2026-03-04_143022_512)
	Path      string         // full path to the backup directory
	CreatedAt time.Time      // when the backup was created
	Stats     map[string]int // item counts (tasks, time_blocks, pages)
}

// NewManager creates a backup manager rooted in the data directory.
func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir:   dataDir,
		backupDir: filepath.Join(dataDir, BackupsDir),
	}
}

// Create creates a new backup of the workspace document. Returns the backup
// name (timestamp format) on success.
func (m *Manager) Create() (string, error) {
	src := filepath.Join(m.dataDir, WorkspaceFile)
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read workspace: %w", err)
	}

	// Milliseconds in the name keep rapid successive backups distinct.
	now := time.Now()
	name := fmt.Sprintf("%s_%03d", now.Format("2006-01-02_150405"), now.Nanosecond()/1e6)
	backupPath := filepath.Join(m.backupDir, name)
	if err := os.MkdirAll(backupPath, 0700); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	if err := fsutil.WriteFileAtomic(filepath.Join(backupPath, WorkspaceFile), data, 0600); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("copy workspace: %w", err)
	}

	manifest := Manifest{
		Version:   ManifestVersion,
		CreatedAt: now,
		Stats:     countItems(data),
	}
	if err := writeJSON(filepath.Join(backupPath, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return name, nil
}

// List returns all available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := m.info(entry.Name())
		if err != nil {
			continue // skip unrecognized directories
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore restores the workspace document from a specific backup. A safety
// backup of the current state is taken first when one exists.
func (m *Manager) Restore(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	src := filepath.Join(m.backupDir, name, WorkspaceFile)
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", name, err)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("backup %s is not a valid workspace: %w", name, err)
	}

	dst := filepath.Join(m.dataDir, WorkspaceFile)
	safety := ""
	if _, err := os.Stat(dst); err == nil {
		safety, err = m.Create()
		if err != nil {
			return fmt.Errorf("create safety backup: %w", err)
		}
	}

	if err := fsutil.WriteFileAtomic(dst, data, 0600); err != nil {
		if safety != "" {
			return fmt.Errorf("restore %s (safety backup: %s): %w", name, safety, err)
		}
		return fmt.Errorf("restore %s: %w", name, err)
	}
	return nil
}

// RestoreLatest restores from the most recent backup.
func (m *Manager) RestoreLatest() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups available")
	}
	return m.Restore(backups[0].Name)
}

// Delete removes a specific backup.
func (m *Manager) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	path := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", name)
	}
	return os.RemoveAll(path)
}

// Prune removes old backups, keeping only the keepCount most recent. Returns
// how many were deleted.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, b := range backups[min(keepCount, len(backups)):] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) info(name string) (*Info, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(m.backupDir, name)

	var manifest Manifest
	if err := readJSON(filepath.Join(path, ManifestFile), &manifest); err != nil {
		// Manifest missing or unreadable; the name still carries the stamp.
		createdAt, parseErr := parseName(name)
		if parseErr != nil {
			return nil, parseErr
		}
		manifest.CreatedAt = createdAt
		manifest.Stats = map[string]int{}
	}

	return &Info{
		Name:      name,
		Path:      path,
		CreatedAt: manifest.CreatedAt,
		Stats:     manifest.Stats,
	}, nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

// parseName parses a backup directory name into a timestamp. Names carry
// milliseconds: 2006-01-02_150405_XXX.
func parseName(name string) (time.Time, error) {
	if len(name) != 21 || name[17] != '_' {
		return time.Time{}, fmt.Errorf("invalid backup name format")
	}
	base, err := time.Parse("2006-01-02_150405", name[:17])
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.Atoi(name[18:])
	if err != nil || ms < 0 || ms > 999 {
		return time.Time{}, fmt.Errorf("invalid milliseconds")
	}
	return base.Add(time.Duration(ms) * time.Millisecond), nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0600)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// countItems counts document items for the manifest stats.
func countItems(data []byte) map[string]int {
	stats := map[string]int{}
	var doc struct {
		Tasks      []json.RawMessage `json:"tasks"`
		TimeBlocks []json.RawMessage `json:"time_blocks"`
		Pages      []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return stats
	}
	stats["tasks"] = len(doc.Tasks)
	stats["time_blocks"] = len(doc.TimeBlocks)
	stats["pages"] = len(doc.Pages)
	return stats
}
