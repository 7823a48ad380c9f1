package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"wparchive/pkg/logger"
)

// FileName is the checkpoint file kept in the archive root. The leading dot
// keeps it out of the way of the dumped data.
const FileName = ".wparchive_checkpoint.json"

// fileFormat is the on-disk shape: a flat list of completed archive-relative
// file paths plus a timestamp. The list is sorted on save so diffs between
// runs stay readable.
type fileFormat struct {
	DownloadedFiles []string `json:"downloaded_files"`
	LastUpdated     int64    `json:"last_updated"`
}

// Checkpoint tracks which archive-relative file paths a download session has
// completed. It is safe for concurrent use by the download workers.
type Checkpoint struct {
	mu    sync.RWMutex
	files map[string]struct{}
}

// New returns an empty checkpoint.
func New() *Checkpoint {
	return &Checkpoint{files: make(map[string]struct{})}
}

// Contains reports whether the file was already downloaded in a prior session.
func (c *Checkpoint) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[path]
	return ok
}

// Add records a completed download.
func (c *Checkpoint) Add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = struct{}{}
}

// Len returns the number of recorded downloads.
func (c *Checkpoint) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Manager loads and saves the checkpoint for one archive directory.
type Manager struct {
	path string
	log  logger.Logger
}

// NewManager creates a checkpoint manager for the given archive root.
func NewManager(archiveRoot string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		path: filepath.Join(archiveRoot, FileName),
		log:  log,
	}
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the checkpoint from disk. A missing or unreadable file yields a
// fresh empty checkpoint rather than an error: losing resume state only costs
// redundant downloads, never data.
func (m *Manager) Load() *Checkpoint {
	cp := New()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.WarnWithFields("checkpoint unreadable, starting fresh", map[string]interface{}{
				"path":  m.path,
				"error": err.Error(),
			})
		}
		return cp
	}

	var stored fileFormat
	if err := json.Unmarshal(data, &stored); err != nil {
		m.log.WarnWithFields("checkpoint corrupt, starting fresh", map[string]interface{}{
			"path":  m.path,
			"error": err.Error(),
		})
		return cp
	}

	for _, path := range stored.DownloadedFiles {
		cp.files[path] = struct{}{}
	}

	m.log.DebugWithFields("checkpoint loaded", map[string]interface{}{
		"path":  m.path,
		"files": len(cp.files),
	})

	return cp
}

// Save writes the checkpoint to disk atomically via a temporary file.
func (m *Manager) Save(cp *Checkpoint) error {
	cp.mu.RLock()
	paths := make([]string, 0, len(cp.files))
	for path := range cp.files {
		paths = append(paths, path)
	}
	cp.mu.RUnlock()
	sort.Strings(paths)

	stored := fileFormat{
		DownloadedFiles: paths,
		LastUpdated:     time.Now().Unix(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.log.DebugWithFields("checkpoint saved", map[string]interface{}{
		"path":  m.path,
		"files": len(paths),
	})

	return nil
}
