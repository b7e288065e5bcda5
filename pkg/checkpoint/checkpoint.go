package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
)

// Channel names one append-only progress log, relative to the store root
type Channel string

// Download workflow channels
const (
	DonePages      Channel = "download/done_pages.txt"
	DoneTargets    Channel = "download/done_targets.txt"
	SkippedTargets Channel = "download/skipped_targets.txt"
	FailedTargets  Channel = "download/failed_targets.txt"
)

// QueryDone is the channel of countries submitted successfully for a query
func QueryDone(query string) Channel {
	return Channel(filepath.ToSlash(filepath.Join("queries", "done", sanitize(query)+".txt")))
}

// QueryFailed is the channel of countries whose submission failed for a query
func QueryFailed(query string) Channel {
	return Channel(filepath.ToSlash(filepath.Join("queries", "failed", sanitize(query)+".txt")))
}

// sanitize makes a query name safe to use as a file name
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
}

// Store persists progress as flat, append-only text logs, one identifier per line.
// A Store is meant for a single writer; it takes no locks.
type Store struct {
	root   string
	logger logger.Logger
}

// NewStore creates a store rooted at dir. Nothing is created until the first append.
func NewStore(dir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{root: dir, logger: log}
}

// Root returns the directory the store writes under
func (s *Store) Root() string {
	return s.root
}

// Path returns the file backing a channel
func (s *Store) Path(ch Channel) string {
	return filepath.Join(s.root, filepath.FromSlash(string(ch)))
}

// Load reads every identifier recorded on a channel. A missing log is an empty set.
func (s *Store) Load(ch Channel) (Set, error) {
	set := NewSet()
	err := s.scan(ch, func(lineNo int, line string) {
		if strings.IndexFunc(line, unicode.IsControl) >= 0 {
			s.warnCorrupt(ch, lineNo, line, "control characters in identifier")
			return
		}
		set.Add(line)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Append records id on a channel, creating the log and its directory on first use
func (s *Store) Append(ch Channel, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New(errors.ErrorTypeCheckpoint, "append "+string(ch), "empty identifier")
	}
	if strings.ContainsAny(id, "\r\n") {
		return errors.New(errors.ErrorTypeCheckpoint, "append "+string(ch), fmt.Sprintf("identifier %q spans lines", id))
	}
	return s.appendLine(ch, id)
}

// LoadCursor returns the last integer written to a cursor channel, or 1 when there is none
func (s *Store) LoadCursor(ch Channel) (int, error) {
	cursor := 1
	err := s.scan(ch, func(lineNo int, line string) {
		v, err := strconv.Atoi(line)
		if err != nil || v < 1 {
			s.warnCorrupt(ch, lineNo, line, "not a page number")
			return
		}
		cursor = v
	})
	if err != nil {
		return 0, err
	}
	return cursor, nil
}

// AppendCursor appends a new cursor value. Earlier values are never rewritten.
func (s *Store) AppendCursor(ch Channel, value int) error {
	if value < 1 {
		return errors.New(errors.ErrorTypeCheckpoint, "append cursor "+string(ch), fmt.Sprintf("invalid page %d", value))
	}
	return s.appendLine(ch, strconv.Itoa(value))
}

// Stats summarises a channel log
type Stats struct {
	Lines    int
	Distinct int
}

// Stats counts the recorded and distinct identifiers on a channel
func (s *Store) Stats(ch Channel) (Stats, error) {
	var st Stats
	seen := NewSet()
	err := s.scan(ch, func(_ int, line string) {
		st.Lines++
		seen.Add(line)
	})
	if err != nil {
		return Stats{}, err
	}
	st.Distinct = seen.Len()
	return st, nil
}

// scan calls fn for each non-blank, trimmed line of a channel log
func (s *Store) scan(ch Channel, fn func(lineNo int, line string)) error {
	path := s.Path(ch)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(fmt.Errorf("failed to open %s: %w", path, err), errors.ErrorTypeCheckpoint, "load "+string(ch))
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(fmt.Errorf("failed to read %s: %w", path, err), errors.ErrorTypeCheckpoint, "load "+string(ch))
	}
	return nil
}

func (s *Store) appendLine(ch Channel, line string) error {
	path := s.Path(ch)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(fmt.Errorf("failed to create checkpoint directory: %w", err), errors.ErrorTypeCheckpoint, "append "+string(ch))
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(fmt.Errorf("failed to open %s: %w", path, err), errors.ErrorTypeCheckpoint, "append "+string(ch))
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return errors.Wrap(fmt.Errorf("failed to write %s: %w", path, err), errors.ErrorTypeCheckpoint, "append "+string(ch))
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(fmt.Errorf("failed to close %s: %w", path, err), errors.ErrorTypeCheckpoint, "append "+string(ch))
	}

	s.logger.DebugWithFields("Checkpoint appended", map[string]interface{}{
		"channel": string(ch),
		"value":   line,
	})
	return nil
}

func (s *Store) warnCorrupt(ch Channel, lineNo int, line, reason string) {
	s.logger.WarnWithFields("Skipping unreadable checkpoint line", map[string]interface{}{
		"file":   s.Path(ch),
		"line":   lineNo,
		"value":  line,
		"reason": reason,
	})
}
