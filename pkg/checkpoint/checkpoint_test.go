package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	return NewStore(t.TempDir(), log), log
}

func writeRaw(t *testing.T, s *Store, ch Channel, content string) {
	t.Helper()
	path := s.Path(ch)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestEmptyStoreDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	done, err := s.Load(DoneTargets)
	require.NoError(t, err)
	assert.Equal(t, 0, done.Len())

	cursor, err := s.LoadCursor(DonePages)
	require.NoError(t, err)
	assert.Equal(t, 1, cursor)

	_, statErr := os.Stat(s.Path(DoneTargets))
	assert.True(t, os.IsNotExist(statErr), "loading must not create files")
}

func TestAppendAndLoad(t *testing.T) {
	s, _ := newTestStore(t)

	for _, id := range []string{"1001", "1002", "1001"} {
		require.NoError(t, s.Append(DoneTargets, id))
	}

	done, err := s.Load(DoneTargets)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1002"}, done.Sorted())

	data, err := os.ReadFile(s.Path(DoneTargets))
	require.NoError(t, err)
	assert.Equal(t, "1001\n1002\n1001\n", string(data), "duplicates are appended, never deduplicated on write")

	stats, err := s.Stats(DoneTargets)
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 3, Distinct: 2}, stats)
}

func TestLoadIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(QueryDone("Tariff"), "DEU"))
	require.NoError(t, s.AppendCursor(DonePages, 4))

	first, err := s.Load(QueryDone("Tariff"))
	require.NoError(t, err)
	second, err := s.Load(QueryDone("Tariff"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	c1, _ := s.LoadCursor(DonePages)
	c2, _ := s.LoadCursor(DonePages)
	assert.Equal(t, c1, c2)
}

func TestCursorLastLineWins(t *testing.T) {
	s, _ := newTestStore(t)

	for _, page := range []int{2, 3, 4} {
		require.NoError(t, s.AppendCursor(DonePages, page))
		got, err := s.LoadCursor(DonePages)
		require.NoError(t, err)
		assert.Equal(t, page, got)
	}

	data, err := os.ReadFile(s.Path(DonePages))
	require.NoError(t, err)
	assert.Equal(t, "2\n3\n4\n", string(data))
}

func TestAppendCursorRejectsInvalidPage(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.AppendCursor(DonePages, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCheckpoint))
}

func TestBlankAndWhitespaceLines(t *testing.T) {
	s, log := newTestStore(t)
	writeRaw(t, s, SkippedTargets, "\n  7 \n\n\t8\n   \n")

	skipped, err := s.Load(SkippedTargets)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, skipped.Sorted())
	assert.Empty(t, log.GetMessagesByLevel("WARN"))
}

func TestCorruptCursorLines(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
		warnings int
	}{
		{name: "trailing garbage ignored", content: "2\n3\nabc\n", expected: 3, warnings: 1},
		{name: "corrupt middle line", content: "2\nx\n5\n", expected: 5, warnings: 1},
		{name: "only garbage", content: "x\ny\n", expected: 1, warnings: 2},
		{name: "zero is not a page", content: "4\n0\n", expected: 4, warnings: 1},
		{name: "partial last write", content: "4\n5", expected: 5, warnings: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, log := newTestStore(t)
			writeRaw(t, s, DonePages, tt.content)

			got, err := s.LoadCursor(DonePages)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			warns := log.GetMessagesByLevel("WARN")
			require.Len(t, warns, tt.warnings)
			for _, w := range warns {
				assert.Equal(t, s.Path(DonePages), w.Fields["file"])
				assert.Contains(t, w.Fields, "line")
			}
		})
	}
}

func TestCorruptIdentifierLine(t *testing.T) {
	s, log := newTestStore(t)
	writeRaw(t, s, DoneTargets, "10\n1\x002\n11\n")

	done, err := s.Load(DoneTargets)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, done.Sorted())

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, 2, warns[0].Fields["line"])
}

func TestAppendRejectsBadIdentifiers(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Error(t, s.Append(DoneTargets, "  "))
	assert.Error(t, s.Append(DoneTargets, "12\n13"))

	_, statErr := os.Stat(s.Path(DoneTargets))
	assert.True(t, os.IsNotExist(statErr))
}

func TestQueryChannelsAreSanitised(t *testing.T) {
	assert.Equal(t, Channel("queries/done/Tariff 2019.txt"), QueryDone("Tariff 2019"))
	assert.Equal(t, Channel("queries/failed/MFN_HS6.txt"), QueryFailed("MFN/HS6"))
	assert.Equal(t, Channel("queries/done/a_b_c.txt"), QueryDone(`a\b:c`))

	s, _ := newTestStore(t)
	require.NoError(t, s.Append(QueryDone("MFN/HS6"), "BRA"))
	assert.FileExists(t, filepath.Join(s.Root(), "queries", "done", "MFN_HS6.txt"))
}

func TestLoadReportsIOErrors(t *testing.T) {
	s, _ := newTestStore(t)
	// a directory where the log file should be
	require.NoError(t, os.MkdirAll(s.Path(DoneTargets), 0755))

	_, err := s.Load(DoneTargets)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCheckpoint))
}

func TestSetOperations(t *testing.T) {
	a := NewSet("1", "2")
	b := NewSet("2", "3")

	u := a.Union(b, nil)
	assert.Equal(t, []string{"1", "2", "3"}, u.Sorted())
	assert.Equal(t, 2, a.Len(), "union must not mutate the receiver")

	var empty Set
	assert.False(t, empty.Has("1"))
	assert.Equal(t, 2, empty.Union(a).Len())
}
