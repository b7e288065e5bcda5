package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager saves downloaded report files and remembers which results already have one
type Manager struct {
	outputDir string
	saved     map[string]string // target id -> file name
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]string),
	}
	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return manager, nil
}

// scanExistingFiles indexes report files named "<target>_<name>"
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		if id, _, ok := strings.Cut(entry.Name(), "_"); ok && id != "" {
			m.saved[id] = entry.Name()
		}
	}
	return nil
}

// FileName returns the name a report for targetID is stored under
func FileName(targetID, suggested string) string {
	suggested = filepath.Base(strings.TrimSpace(suggested))
	if suggested == "" || suggested == "." || suggested == string(filepath.Separator) {
		suggested = "result.zip"
	}
	return targetID + "_" + suggested
}

// Has reports whether a report for targetID is on disk
func (m *Manager) Has(targetID string) bool {
	m.mu.RLock()
	name, ok := m.saved[targetID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(m.outputDir, name))
	return err == nil
}

// Save writes a report atomically and returns its path
func (m *Manager) Save(r io.Reader, targetID, suggested string) (string, error) {
	if targetID == "" || strings.ContainsAny(targetID, `/\_`) {
		return "", fmt.Errorf("invalid target id %q", targetID)
	}
	name := FileName(targetID, suggested)
	filename := filepath.Join(m.outputDir, name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save report data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[targetID] = name
	m.mu.Unlock()
	return filename, nil
}

// SaveFile moves the contents of a local file (a finished browser download) into storage
func (m *Manager) SaveFile(path, targetID, suggested string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open downloaded file: %w", err)
	}
	defer f.Close()
	return m.Save(f, targetID, suggested)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Count returns the number of stored reports
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
