// Package metadata writes a JSON sidecar next to each saved result file
// describing which grid row it came from.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Ext is appended to a result file's path to name its sidecar
const Ext = ".json"

// ResultMetadata describes one downloaded result file
type ResultMetadata struct {
	TargetID     string    `json:"target_id"`
	Name         string    `json:"name"`
	Page         int       `json:"page,omitempty"`
	File         string    `json:"file"`
	FileSize     int64     `json:"file_size"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// ForFile builds metadata for a result file already on disk
func ForFile(path, targetID, name string, page int) (*ResultMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat result file: %w", err)
	}
	return &ResultMetadata{
		TargetID:     targetID,
		Name:         name,
		Page:         page,
		File:         filepath.Base(path),
		FileSize:     info.Size(),
		DownloadedAt: time.Now(),
	}, nil
}

// Save writes the metadata next to the result file
func (m *ResultMetadata) Save(resultPath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(resultPath+Ext, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads the metadata of a result file
func Load(resultPath string) (*ResultMetadata, error) {
	data, err := os.ReadFile(resultPath + Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ResultMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Exists checks if a result file has metadata
func Exists(resultPath string) bool {
	_, err := os.Stat(resultPath + Ext)
	return err == nil
}

// CleanOrphaned removes sidecars whose result file is gone and returns how many it removed
func CleanOrphaned(directory string) (int, error) {
	removed := 0
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, Ext) {
			return nil
		}

		resultPath := strings.TrimSuffix(path, Ext)
		if _, err := os.Stat(resultPath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}
		return nil
	})
	return removed, err
}
