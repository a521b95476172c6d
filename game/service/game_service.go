package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/highscore"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("board configuration not found")
	ErrNotEligible     = errors.New("not eligible for the high-score table")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Roll(ctx context.Context, sessionID string, die int) (*RollResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Boards
	ListBoards(ctx context.Context) ([]*BoardInfo, error)
	LoadBoard(ctx context.Context, boardID string) (*engine.BoardConfig, error)
	SaveBoard(ctx context.Context, boardID string, board *engine.BoardConfig) error

	// High Scores
	HighScores(ctx context.Context) ([]highscore.Entry, error)
	SubmitHighScore(ctx context.Context, sessionID, initials string) (*HighScoreResult, error)
	ResetHighScores(ctx context.Context) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, boardID string, board *engine.BoardConfig, players engine.PlayerOptions) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles board configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.BoardConfig, error)
	ListConfigs() ([]*BoardInfo, error)
	GetDefault() *engine.BoardConfig
	DefaultName() string
	SaveConfig(name string, board *engine.BoardConfig) error
}

// HighScoreStore keeps the top-10 table
type HighScoreStore interface {
	IsTopScore(score int) bool
	AddScore(initials string, score int) (*highscore.Entry, error)
	Top() []highscore.Entry
	Reset() error
}

// Session represents an active game session
type Session struct {
	ID             string
	BoardID        string
	Engine         *engine.GameEngine
	Board          *engine.BoardConfig
	Players        engine.PlayerOptions
	Dice           engine.Dice
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ScoreSubmitted bool
}
