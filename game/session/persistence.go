package session

import (
	"time"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// Board is a snapshot so edits to the board file do not break a saved game.
type PersistedSessionData struct {
	ID             string               `json:"id"`
	BoardID        string               `json:"board_id"`
	Board          *engine.BoardConfig  `json:"board,omitempty"`
	Players        engine.PlayerOptions `json:"players"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	ScoreSubmitted bool                 `json:"score_submitted"`
	GameState      *engine.GameState    `json:"game_state"`
}
