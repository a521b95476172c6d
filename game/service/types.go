package service

import (
	"time"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/highscore"
)

// CreateOptions selects the board and roster of a new session
type CreateOptions struct {
	BoardID   string `json:"board_id"`
	Humans    int    `json:"humans"`
	IncludeAI bool   `json:"include_ai"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	BoardID        string              `json:"board_id"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	ScoreSubmitted bool                `json:"score_submitted"`
	GameState      *engine.GameState   `json:"game_state"`
	Board          *engine.BoardConfig `json:"board"`
}

// RollResult contains the outcome of a single turn
type RollResult struct {
	Turn                  *engine.TurnResult `json:"turn"`
	GameState             *engine.GameState  `json:"game_state"`
	Message               string             `json:"message"`
	Events                []GameEvent        `json:"events"`
	NextPlayerID          string             `json:"next_player_id,omitempty"`
	Won                   bool               `json:"won"`
	QualifiesForHighScore bool               `json:"qualifies_for_high_score"`
}

// GameEvent represents an event that occurred during a turn
type GameEvent struct {
	Type      string    `json:"type"` // "move", "bounce", "ladder", "snake", "capture", "chain", "victory", "reset"
	PlayerID  string    `json:"player_id,omitempty"`
	Message   string    `json:"message"`
	Square    int       `json:"square"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// BoardInfo provides information about a board configuration
type BoardInfo struct {
	Filename     string       `json:"filename"`
	BoardID      string       `json:"board_id"` // The identifier to use for session creation
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Level        engine.Level `json:"level,omitempty"`
	FinalSquare  int          `json:"final_square"`
	Columns      int          `json:"columns"`
	SpecialCount int          `json:"special_count"`
	Builtin      bool         `json:"builtin"`
}

// HighScoreResult reports an accepted high-score submission
type HighScoreResult struct {
	Entry  *highscore.Entry  `json:"entry"`
	Scores []highscore.Entry `json:"scores"`
	// Ranked is false when the entry tied the lowest score of a full table
	// and was cut
	Ranked bool `json:"ranked"`
}
