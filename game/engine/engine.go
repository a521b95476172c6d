package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidBoard    = errors.New("invalid board")
	ErrGameOver        = errors.New("game is over")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() (*GameState, error)
	IsGameOver() bool
	Winner() *Player
	ActivePlayer() *Player

	// Turn operations
	Roll(die int) (*TurnResult, error)
	RollWith(dice Dice) (*TurnResult, error)

	// Configuration
	GetBoard() *Board
	GetPlayerOptions() PlayerOptions

	// History
	GetTurnHistory() []TurnRecord
	GetLastTurn() *TurnRecord
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	board   *Board
	players PlayerOptions
}

// NewEngine creates a new game engine for a board and roster
func NewEngine(board *Board, opts PlayerOptions) (*GameEngine, error) {
	state, err := NewGameState(board, opts)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		state:   state,
		board:   board,
		players: opts,
	}, nil
}

// NewEngineForLevel creates a game engine on a built-in board
func NewEngineForLevel(level Level, opts PlayerOptions) (*GameEngine, error) {
	board, err := ForLevel(level)
	if err != nil {
		return nil, err
	}
	return NewEngine(board, opts)
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.FinalSquare != e.board.FinalSquare() {
		return fmt.Errorf("%w: state final square %d does not match board %d",
			ErrInvalidArgument, state.FinalSquare, e.board.FinalSquare())
	}
	if len(state.Players) < MinPlayers || len(state.Players) > MaxPlayers {
		return fmt.Errorf("%w: state has %d players", ErrInvalidArgument, len(state.Players))
	}
	if state.ActivePlayerIndex < 0 || state.ActivePlayerIndex >= len(state.Players) {
		return fmt.Errorf("%w: active player index %d out of range", ErrInvalidArgument, state.ActivePlayerIndex)
	}
	for _, p := range state.Players {
		if err := state.checkSquare(p.Position); err != nil {
			return err
		}
	}
	if state.History == nil {
		state.History = []TurnRecord{}
	}
	e.state = state
	return nil
}

// Reset puts every pawn back on the start square with the same roster.
// The current game is kept when a new one cannot be built.
func (e *GameEngine) Reset() (*GameState, error) {
	state, err := NewGameState(e.board, e.players)
	if err != nil {
		return nil, err
	}
	e.state = state
	return e.state, nil
}

// IsGameOver returns whether a player has reached the final square
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// Winner returns the winning player, or nil while the game is running
func (e *GameEngine) Winner() *Player {
	if !e.state.GameOver {
		return nil
	}
	return e.state.CheckWinner()
}

// ActivePlayer returns the player whose turn it is
func (e *GameEngine) ActivePlayer() *Player {
	return e.state.ActivePlayer()
}

// Roll plays one turn for the active player with a known die value
func (e *GameEngine) Roll(die int) (*TurnResult, error) {
	if e.state.GameOver {
		return nil, ErrGameOver
	}
	active := e.state.ActivePlayer()
	if active == nil {
		return nil, fmt.Errorf("%w: no active player", ErrInvalidArgument)
	}

	result, err := ResolveTurn(e.state, active.ID, die, e.board)
	if err != nil {
		return nil, err
	}
	if err := e.state.Apply(result); err != nil {
		return nil, err
	}

	message := Narrate(result)
	if !result.Won {
		e.state.AdvanceTurn()
		message = fmt.Sprintf("%s | %s to play", message, e.state.ActivePlayer().ID)
	}
	e.state.Message = message
	e.state.AddTurnToHistory(result, message)

	return result, nil
}

// RollWith rolls dice and plays the turn
func (e *GameEngine) RollWith(dice Dice) (*TurnResult, error) {
	if dice == nil {
		return nil, fmt.Errorf("%w: dice is required", ErrInvalidArgument)
	}
	if e.state.GameOver {
		return nil, ErrGameOver
	}
	return e.Roll(dice.Roll())
}

// GetBoard returns the board definition
func (e *GameEngine) GetBoard() *Board {
	return e.board
}

// GetPlayerOptions returns the roster the engine was created with
func (e *GameEngine) GetPlayerOptions() PlayerOptions {
	return e.players
}

// GetTurnHistory returns the complete turn history
func (e *GameEngine) GetTurnHistory() []TurnRecord {
	return e.state.History
}

// GetLastTurn returns the last turn played, or nil if no turns
func (e *GameEngine) GetLastTurn() *TurnRecord {
	if len(e.state.History) == 0 {
		return nil
	}
	return &e.state.History[len(e.state.History)-1]
}
