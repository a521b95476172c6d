package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateBoardConfig validates a board configuration for correctness
func ValidateBoardConfig(config *BoardConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidBoard)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBoard)
	}

	// A bounce-back from the final square moves back at most DieFaces squares,
	// so this bound keeps every reachable square on the board.
	if config.FinalSquare < MinFinalSquare || config.FinalSquare > MaxFinalSquare {
		return fmt.Errorf("%w: final_square must be between %d and %d, got %d",
			ErrInvalidBoard, MinFinalSquare, MaxFinalSquare, config.FinalSquare)
	}

	if config.Columns < 0 || config.Columns > config.FinalSquare {
		return fmt.Errorf("%w: columns must be between 1 and final_square (%d), got %d",
			ErrInvalidBoard, config.FinalSquare, config.Columns)
	}

	switch config.Level {
	case "", LevelEasy, LevelHard:
	default:
		return fmt.Errorf("%w: unknown level '%s'", ErrInvalidBoard, config.Level)
	}

	for from, to := range config.SpecialMoves {
		if from < 1 || from > config.FinalSquare {
			return fmt.Errorf("%w: special move trigger %d is outside [1, %d]",
				ErrInvalidBoard, from, config.FinalSquare)
		}
		if to < 1 || to > config.FinalSquare {
			return fmt.Errorf("%w: special move %d -> %d destination is outside [1, %d]",
				ErrInvalidBoard, from, to, config.FinalSquare)
		}
		if from == to {
			return fmt.Errorf("%w: special move %d maps to itself", ErrInvalidBoard, from)
		}
	}

	return nil
}

// LoadBoardConfig loads a board configuration from a JSON file
func LoadBoardConfig(filename string) (*BoardConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config BoardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse board config '%s': %w", filename, err)
	}

	if err := ValidateBoardConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// BuiltinLevels lists the levels that always exist
func BuiltinLevels() []Level {
	return []Level{LevelEasy, LevelHard}
}

// BuiltinBoardConfig returns a fresh copy of the hard-coded table for a level
func BuiltinBoardConfig(level Level) (*BoardConfig, error) {
	switch level {
	case LevelEasy:
		return &BoardConfig{
			Name:        string(LevelEasy),
			Description: "Easy board: 47 squares, two ladders and two snakes",
			Level:       LevelEasy,
			FinalSquare: 47,
			Columns:     8,
			SpecialMoves: map[int]int{
				5:  14,
				12: 7,
				22: 33,
				36: 28,
			},
		}, nil
	case LevelHard:
		return &BoardConfig{
			Name:        string(LevelHard),
			Description: "Hard board: 100 squares with long ladders and snakes",
			Level:       LevelHard,
			FinalSquare: 100,
			Columns:     10,
			SpecialMoves: map[int]int{
				3:  22,
				27: 5,
				29: 14,
				51: 67,
				62: 19,
				80: 99,
				92: 68,
				97: 78,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown level '%s'", ErrInvalidArgument, level)
	}
}

// MatchesBuiltin reports whether config has the final square and special
// moves of the built-in level it names. Columns and text are not compared.
func MatchesBuiltin(config *BoardConfig) bool {
	if config == nil {
		return false
	}
	builtin, err := BuiltinBoardConfig(config.Level)
	if err != nil {
		return false
	}
	if config.FinalSquare != builtin.FinalSquare || len(config.SpecialMoves) != len(builtin.SpecialMoves) {
		return false
	}
	for from, to := range builtin.SpecialMoves {
		if got, ok := config.SpecialMoves[from]; !ok || got != to {
			return false
		}
	}
	return true
}

// ValidatePlayerOptions checks the roster size of a new game
func ValidatePlayerOptions(opts PlayerOptions) error {
	if opts.Humans < 1 {
		return fmt.Errorf("%w: at least one human player is required, got %d", ErrInvalidArgument, opts.Humans)
	}
	total := opts.Humans
	if opts.IncludeAI {
		total++
	}
	if total < MinPlayers || total > MaxPlayers {
		return fmt.Errorf("%w: a game has between %d and %d players, got %d",
			ErrInvalidArgument, MinPlayers, MaxPlayers, total)
	}
	return nil
}

// NewGameState creates the starting state for a board and roster: humans
// first, then the optional non-human player, everybody on square 0.
func NewGameState(board *Board, opts PlayerOptions) (*GameState, error) {
	if board == nil {
		return nil, fmt.Errorf("%w: board is required", ErrInvalidArgument)
	}
	if err := ValidatePlayerOptions(opts); err != nil {
		return nil, err
	}

	players := make([]Player, 0, MaxPlayers)
	for i := 0; i < opts.Humans; i++ {
		players = append(players, Player{
			ID:    fmt.Sprintf("J%d", i+1),
			Color: PawnColors[i],
			Human: true,
		})
	}
	if opts.IncludeAI {
		players = append(players, Player{
			ID:    AIPlayerID,
			Color: PawnColors[min(opts.Humans, len(PawnColors)-1)],
			Human: false,
		})
	}

	return &GameState{
		BoardName:         board.Name(),
		FinalSquare:       board.FinalSquare(),
		Players:           players,
		ActivePlayerIndex: 0,
		Message:           fmt.Sprintf("Welcome! %s to play", players[0].ID),
		History:           []TurnRecord{},
	}, nil
}
