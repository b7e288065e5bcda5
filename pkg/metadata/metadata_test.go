package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	result := filepath.Join(dir, "40211_report.zip")
	require.NoError(t, os.WriteFile(result, []byte("PK\x03\x04data"), 0644))

	meta, err := ForFile(result, "40211", "Query 40211 - Imports", 3)
	require.NoError(t, err)
	assert.Equal(t, "40211_report.zip", meta.File)
	assert.EqualValues(t, 8, meta.FileSize)
	assert.False(t, meta.DownloadedAt.IsZero())

	assert.False(t, Exists(result))
	require.NoError(t, meta.Save(result))
	assert.True(t, Exists(result))

	loaded, err := Load(result)
	require.NoError(t, err)
	assert.Equal(t, "40211", loaded.TargetID)
	assert.Equal(t, "Query 40211 - Imports", loaded.Name)
	assert.Equal(t, 3, loaded.Page)
	assert.True(t, meta.DownloadedAt.Equal(loaded.DownloadedAt))
}

func TestForFileMissing(t *testing.T) {
	_, err := ForFile(filepath.Join(t.TempDir(), "nope.zip"), "1", "", 1)
	assert.Error(t, err)
}

func TestLoadCorrupt(t *testing.T) {
	result := filepath.Join(t.TempDir(), "1_r.zip")
	require.NoError(t, os.WriteFile(result+Ext, []byte("{not json"), 0644))

	_, err := Load(result)
	assert.ErrorContains(t, err, "failed to unmarshal metadata")
}

func TestCleanOrphaned(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "1_a.zip")
	require.NoError(t, os.WriteFile(kept, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(kept+Ext, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2_b.zip"+Ext), []byte("{}"), 0644))

	removed, err := CleanOrphaned(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, Exists(kept))
	assert.NoFileExists(t, filepath.Join(dir, "2_b.zip"+Ext))
}
