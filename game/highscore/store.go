package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TableSize           = 10
	MaxInitials         = 3
	PlaceholderInitials = "---"
	FileVersion         = 1
)

var ErrInvalidInitials = errors.New("initials must contain at least one character")

// Entry is one row of the high-score table
type Entry struct {
	ID         string    `json:"id,omitempty"`
	Initials   string    `json:"initials"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Placeholder reports whether the entry is one of the seed rows
func (e Entry) Placeholder() bool {
	return e.ID == "" && e.Initials == PlaceholderInitials && e.Score == 0
}

type fileRecord struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// DefaultTable returns the seed table of TableSize placeholder entries
func DefaultTable() []Entry {
	entries := make([]Entry, TableSize)
	for i := range entries {
		entries[i] = Entry{Initials: PlaceholderInitials}
	}
	return entries
}

// NormalizeInitials trims, upper-cases and cuts initials to MaxInitials runes
func NormalizeInitials(initials string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(initials))
	if s == "" {
		return "", ErrInvalidInitials
	}
	if utf8.RuneCountInString(s) > MaxInitials {
		s = string([]rune(s)[:MaxInitials])
	}
	return s, nil
}

// FileStore is a mutex-protected high-score table backed by a JSON file.
// An empty path keeps the table in memory only.
type FileStore struct {
	path    string
	logger  *zap.Logger
	entries []Entry
	mu      sync.RWMutex
}

// NewFileStore loads the table at path, falling back to the default table
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:   path,
		logger: logger,
	}
	s.entries = s.load()
	return s
}

// NewMemoryStore creates a store that never touches the filesystem
func NewMemoryStore() *FileStore {
	return NewFileStore("", nil)
}

// IsTopScore reports whether score would enter the table
func (s *FileStore) IsTopScore(score int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if score >= e.Score {
			return true
		}
	}
	return false
}

// AddScore records a score under the given initials. Ties keep the older
// entry ahead, so on a full table a score equal to the lowest one is
// dropped. The entry is returned even when it did not survive truncation.
func (s *FileStore) AddScore(initials string, score int) (*Entry, error) {
	normalized, err := NormalizeInitials(initials)
	if err != nil {
		return nil, err
	}

	entry := Entry{
		ID:         uuid.New().String(),
		Initials:   normalized,
		Score:      score,
		RecordedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = rank(append(s.entries, entry))
	s.persist()

	s.logger.Info("high score recorded",
		zap.String("id", entry.ID),
		zap.String("initials", entry.Initials),
		zap.Int("score", entry.Score),
	)
	return &entry, nil
}

// Top returns a copy of the table, highest score first
func (s *FileStore) Top() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Reset restores the default table
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = DefaultTable()
	if s.path == "" {
		return nil
	}
	if err := s.write(); err != nil {
		return fmt.Errorf("failed to reset high scores: %w", err)
	}
	return nil
}

// rank sorts entries by descending score, keeping insertion order on ties,
// and cuts or pads the table to TableSize
func rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > TableSize {
		entries = entries[:TableSize]
	}
	for len(entries) < TableSize {
		entries = append(entries, Entry{Initials: PlaceholderInitials})
	}
	return entries
}

func (s *FileStore) load() []Entry {
	if s.path == "" {
		return DefaultTable()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read high scores, using defaults",
				zap.String("path", s.path), zap.Error(err))
		}
		return DefaultTable()
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("failed to parse high scores, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return DefaultTable()
	}
	if record.Version != FileVersion {
		s.logger.Warn("unsupported high score file version, using defaults",
			zap.String("path", s.path), zap.Int("version", record.Version))
		return DefaultTable()
	}

	entries := make([]Entry, 0, len(record.Entries))
	for _, e := range record.Entries {
		if normalized, err := NormalizeInitials(e.Initials); err == nil {
			e.Initials = normalized
			entries = append(entries, e)
		}
	}
	return rank(entries)
}

// persist writes the table and logs failures; callers hold s.mu
func (s *FileStore) persist() {
	if s.path == "" {
		return
	}
	if err := s.write(); err != nil {
		s.logger.Warn("failed to persist high scores", zap.String("path", s.path), zap.Error(err))
	}
}

// write replaces the file atomically through a temp file in the same directory
func (s *FileStore) write() error {
	data, err := json.MarshalIndent(fileRecord{Version: FileVersion, Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal high scores: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create high score directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".highscores-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write high scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace high score file: %w", err)
	}
	return nil
}
