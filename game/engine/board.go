package engine

import (
	"fmt"
	"sort"
)

// Board is an immutable, validated board definition
type Board struct {
	name         string
	description  string
	level        Level
	finalSquare  int
	columns      int
	specialMoves map[int]int
}

// NewBoard validates config and builds a Board from it. The config is copied,
// later changes to it do not affect the board.
func NewBoard(config *BoardConfig) (*Board, error) {
	if err := ValidateBoardConfig(config); err != nil {
		return nil, err
	}

	moves := make(map[int]int, len(config.SpecialMoves))
	for from, to := range config.SpecialMoves {
		moves[from] = to
	}

	columns := config.Columns
	if columns == 0 {
		columns = DefaultColumns
	}

	return &Board{
		name:         config.Name,
		description:  config.Description,
		level:        config.Level,
		finalSquare:  config.FinalSquare,
		columns:      columns,
		specialMoves: moves,
	}, nil
}

// ForLevel returns the built-in board for a level
func ForLevel(level Level) (*Board, error) {
	config, err := BuiltinBoardConfig(level)
	if err != nil {
		return nil, err
	}
	return NewBoard(config)
}

// Name returns the board name
func (b *Board) Name() string {
	return b.name
}

// Description returns the board description
func (b *Board) Description() string {
	return b.description
}

// Level returns the level the board was built for, empty for custom boards
func (b *Board) Level() Level {
	return b.level
}

// FinalSquare returns the winning square
func (b *Board) FinalSquare() int {
	return b.finalSquare
}

// Columns returns the number of squares per board row
func (b *Board) Columns() int {
	return b.columns
}

// Destination returns where a trigger square sends a pawn
func (b *Board) Destination(square int) (int, bool) {
	to, ok := b.specialMoves[square]
	return to, ok
}

// SpecialMoves returns a copy of the trigger -> destination table
func (b *Board) SpecialMoves() map[int]int {
	moves := make(map[int]int, len(b.specialMoves))
	for from, to := range b.specialMoves {
		moves[from] = to
	}
	return moves
}

// Triggers returns the trigger squares in ascending order
func (b *Board) Triggers() []int {
	triggers := make([]int, 0, len(b.specialMoves))
	for from := range b.specialMoves {
		triggers = append(triggers, from)
	}
	sort.Ints(triggers)
	return triggers
}

// Ladders returns the special moves that send a pawn forward
func (b *Board) Ladders() []Jump {
	return b.jumps(func(from, to int) bool { return to > from })
}

// Snakes returns the special moves that send a pawn backward
func (b *Board) Snakes() []Jump {
	return b.jumps(func(from, to int) bool { return to < from })
}

func (b *Board) jumps(keep func(from, to int) bool) []Jump {
	var jumps []Jump
	for _, from := range b.Triggers() {
		to := b.specialMoves[from]
		if keep(from, to) {
			jumps = append(jumps, Jump{From: from, To: to})
		}
	}
	return jumps
}

// Config returns a copy of the board as a BoardConfig
func (b *Board) Config() *BoardConfig {
	return &BoardConfig{
		Name:         b.name,
		Description:  b.description,
		Level:        b.level,
		FinalSquare:  b.finalSquare,
		Columns:      b.columns,
		SpecialMoves: b.SpecialMoves(),
	}
}

// Equal reports whether two boards have the same geometry and special moves
func (b *Board) Equal(other *Board) bool {
	if other == nil {
		return false
	}
	if b.finalSquare != other.finalSquare || b.columns != other.columns {
		return false
	}
	if len(b.specialMoves) != len(other.specialMoves) {
		return false
	}
	for from, to := range b.specialMoves {
		if otherTo, ok := other.specialMoves[from]; !ok || otherTo != to {
			return false
		}
	}
	return true
}

// String returns a short description used in logs
func (b *Board) String() string {
	return fmt.Sprintf("%s (final %d, %d special squares)", b.name, b.finalSquare, len(b.specialMoves))
}
