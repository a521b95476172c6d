package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/service"
)

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
}

// NewFilePersistence creates a new file-based session persistence layer.
// configManager resolves the board of sessions saved without a snapshot and
// may be nil.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if !validID(session.ID) {
		return ErrInvalidSessionID
	}

	data := PersistedSessionData{
		ID:             session.ID,
		BoardID:        session.BoardID,
		Board:          session.Board,
		Players:        session.Players,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		ScoreSubmitted: session.ScoreSubmitted,
		GameState:      session.Engine.GetState(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(fp.getFilePath(session.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a JSON file. The restored session has no
// dice; the manager attaches one.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	if !fp.Exists(id) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}

	boardConfig := data.Board
	if boardConfig == nil {
		if fp.configManager == nil {
			return nil, fmt.Errorf("session %s has no board snapshot", id)
		}
		boardConfig, err = fp.configManager.LoadConfig(data.BoardID)
		if err != nil {
			return nil, fmt.Errorf("failed to load board '%s': %w", data.BoardID, err)
		}
	}

	board, err := engine.NewBoard(boardConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to restore board: %w", err)
	}

	players := data.Players
	if players.Humans == 0 {
		players = rosterOf(data.GameState)
	}

	gameEngine, err := engine.NewEngine(board, players)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		BoardID:        data.BoardID,
		Engine:         gameEngine,
		Board:          board.Config(),
		Players:        players,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		ScoreSubmitted: data.ScoreSubmitted,
	}, nil
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", id))
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\. `)
}

// rosterOf rebuilds the roster options from a saved state
func rosterOf(state *engine.GameState) engine.PlayerOptions {
	var opts engine.PlayerOptions
	for _, p := range state.Players {
		if p.Human {
			opts.Humans++
		} else {
			opts.IncludeAI = true
		}
	}
	return opts
}
