package highscore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalizeInitials(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"abc", "ABC", false},
		{"  jd ", "JD", false},
		{"johnny", "JOH", false},
		{"éva", "ÉVA", false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeInitials(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInitials) {
					t.Errorf("Expected ErrInvalidInitials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeInitials(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMemoryStore_DefaultTable(t *testing.T) {
	store := NewMemoryStore()

	top := store.Top()
	if len(top) != TableSize {
		t.Fatalf("Expected %d entries, got %d", TableSize, len(top))
	}
	for i, e := range top {
		if !e.Placeholder() {
			t.Errorf("Entry %d should be a placeholder, got %+v", i, e)
		}
	}

	// zero ties the placeholders
	if !store.IsTopScore(0) {
		t.Error("Expected 0 to qualify against the default table")
	}
	if store.IsTopScore(-1) {
		t.Error("Expected a negative score not to qualify against the default table")
	}
}

func TestMemoryStore_AddScore(t *testing.T) {
	store := NewMemoryStore()

	entry, err := store.AddScore(" bob ", 120)
	if err != nil {
		t.Fatalf("AddScore failed: %v", err)
	}
	if entry.ID == "" || entry.Initials != "BOB" || entry.Score != 120 {
		t.Errorf("Unexpected entry %+v", entry)
	}

	store.AddScore("ann", 300)
	store.AddScore("cid", 120)

	top := store.Top()
	if len(top) != TableSize {
		t.Fatalf("Expected table to stay at %d entries, got %d", TableSize, len(top))
	}
	got := []string{top[0].Initials, top[1].Initials, top[2].Initials}
	want := []string{"ANN", "BOB", "CID"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, got)
			break
		}
	}

	if _, err := store.AddScore("  ", 50); !errors.Is(err, ErrInvalidInitials) {
		t.Errorf("Expected ErrInvalidInitials, got %v", err)
	}
}

func TestMemoryStore_TableStaysAtTen(t *testing.T) {
	store := NewMemoryStore()
	for i := 1; i <= 12; i++ {
		if _, err := store.AddScore("p", i*10); err != nil {
			t.Fatalf("AddScore failed: %v", err)
		}
	}

	top := store.Top()
	if len(top) != TableSize {
		t.Fatalf("Expected %d entries, got %d", TableSize, len(top))
	}
	if top[0].Score != 120 || top[TableSize-1].Score != 30 {
		t.Errorf("Expected scores 120..30, got first %d last %d", top[0].Score, top[TableSize-1].Score)
	}
	if store.IsTopScore(29) {
		t.Error("Expected 29 not to qualify against a full table")
	}
	if !store.IsTopScore(30) {
		t.Error("Expected a tie with the lowest entry to qualify")
	}
}

func TestMemoryStore_TieWithLowestIsCut(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < TableSize; i++ {
		if _, err := store.AddScore("old", 50); err != nil {
			t.Fatalf("AddScore failed: %v", err)
		}
	}

	if !store.IsTopScore(50) {
		t.Fatal("Expected a tie with the lowest entry to qualify")
	}
	entry, err := store.AddScore("new", 50)
	if err != nil {
		t.Fatalf("AddScore failed: %v", err)
	}
	if entry == nil || entry.Initials != "NEW" {
		t.Fatalf("Expected the entry to be returned, got %+v", entry)
	}
	for _, e := range store.Top() {
		if e.ID == entry.ID {
			t.Error("Expected the older entries to keep their places on a tie")
		}
	}
}

func TestMemoryStore_TopReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	top := store.Top()
	top[0].Score = 999

	if store.Top()[0].Score != 0 {
		t.Error("Top should return a copy of the table")
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "highscores.json")

	store := NewFileStore(path, nil)
	if _, err := store.AddScore("zoe", 210); err != nil {
		t.Fatalf("AddScore failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected high score file to exist: %v", err)
	}
	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("High score file is not valid JSON: %v", err)
	}
	if record.Version != FileVersion || len(record.Entries) != TableSize {
		t.Errorf("Unexpected record version %d with %d entries", record.Version, len(record.Entries))
	}

	reloaded := NewFileStore(path, nil)
	if top := reloaded.Top(); top[0].Initials != "ZOE" || top[0].Score != 210 {
		t.Errorf("Expected ZOE/210 on top after reload, got %+v", top[0])
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".highscores-*.tmp"))
	if len(matches) != 0 {
		t.Errorf("Expected temp files to be cleaned up, found %v", matches)
	}
}

func TestFileStore_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highscores.json")
	store := NewFileStore(path, nil)
	store.AddScore("max", 90)

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !store.Top()[0].Placeholder() {
		t.Error("Expected default table after reset")
	}

	reloaded := NewFileStore(path, nil)
	if !reloaded.Top()[0].Placeholder() {
		t.Error("Expected reset to be persisted")
	}
}

func TestFileStore_DegradesToDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		warning string
	}{
		{"malformed json", "{not json", "failed to parse high scores"},
		{"unknown version", `{"version": 7, "entries": [{"initials": "X", "score": 5}]}`, "unsupported high score file version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "highscores.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write fixture: %v", err)
			}

			core, logs := observer.New(zapcore.WarnLevel)
			store := NewFileStore(path, zap.New(core))

			if !store.Top()[0].Placeholder() {
				t.Error("Expected default table")
			}
			if logs.Len() != 1 || !strings.Contains(logs.All()[0].Message, tt.warning) {
				t.Errorf("Expected one warning containing %q, got %v", tt.warning, logs.All())
			}
		})
	}
}

func TestFileStore_LoadSanitizesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highscores.json")
	content := `{"version": 1, "entries": [
		{"id": "a", "initials": "low", "score": 10},
		{"id": "b", "initials": "", "score": 500},
		{"id": "c", "initials": "hi", "score": 80}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	top := NewFileStore(path, nil).Top()
	if len(top) != TableSize {
		t.Fatalf("Expected table padded to %d, got %d", TableSize, len(top))
	}
	if top[0].Initials != "HI" || top[1].Initials != "LOW" {
		t.Errorf("Expected HI then LOW, got %s then %s", top[0].Initials, top[1].Initials)
	}
	if !top[2].Placeholder() {
		t.Errorf("Expected placeholders after loaded entries, got %+v", top[2])
	}
}

func TestFileStore_MissingFileIsSilent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewFileStore(filepath.Join(t.TempDir(), "none.json"), zap.New(core))

	if len(store.Top()) != TableSize {
		t.Error("Expected default table")
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no warnings for a missing file, got %v", logs.All())
	}
}
