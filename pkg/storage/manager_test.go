package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.Count() != 0 {
		t.Error("Expected initial count to be 0")
	}
	if manager.Has("1042") {
		t.Error("Expected Has to return false before saving")
	}

	testData := []byte("PK fake zip")
	path, err := manager.Save(bytes.NewReader(testData), "1042", "Tariff 2019.zip")
	if err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "1042_Tariff 2019.zip")
	assert.Equal(t, expectedPath, path)

	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, testData, content)

	assert.True(t, manager.Has("1042"))
	assert.Equal(t, 1, manager.Count())
	assert.NoFileExists(t, expectedPath+".tmp")
}

func TestManagerScansExistingFiles(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "7_a.zip"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "8_b.zip.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644))

	manager, err := NewManager(tempDir)
	require.NoError(t, err)

	assert.True(t, manager.Has("7"))
	assert.False(t, manager.Has("8"), "partial downloads are ignored")
	assert.Equal(t, 1, manager.Count())
}

func TestSaveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "download-123")
	require.NoError(t, os.WriteFile(src, []byte("report"), 0644))

	manager, err := NewManager(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	path, err := manager.SaveFile(src, "55", "")
	require.NoError(t, err)
	assert.Equal(t, "55_result.zip", filepath.Base(path))

	_, err = manager.SaveFile(filepath.Join(t.TempDir(), "missing"), "56", "x.zip")
	assert.Error(t, err)
}

func TestSaveRejectsBadIDs(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../x", "a_b"} {
		_, err := manager.Save(bytes.NewReader(nil), id, "f.zip")
		assert.Error(t, err, "id %q", id)
	}
}

func TestFileNameStripsDirectories(t *testing.T) {
	assert.Equal(t, "9_evil.zip", FileName("9", "../../evil.zip"))
}
