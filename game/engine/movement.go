package engine

import (
	"fmt"
	"time"
)

// ResolveTurn computes the outcome of playerID rolling die on board. It only
// reads state; the caller applies the result with GameState.Apply.
func ResolveTurn(state *GameState, playerID string, die int, board *Board) (*TurnResult, error) {
	if state == nil || board == nil {
		return nil, fmt.Errorf("%w: state and board are required", ErrInvalidArgument)
	}
	if die < MinDie || die > MaxDie {
		return nil, fmt.Errorf("%w: die value must be between %d and %d, got %d", ErrInvalidArgument, MinDie, MaxDie, die)
	}
	idx := state.PlayerIndex(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: player '%s' is not in this game", ErrInvalidArgument, playerID)
	}

	player := state.Players[idx]
	from := player.Position
	final := board.FinalSquare()

	result := &TurnResult{
		PlayerID: playerID,
		Die:      die,
		From:     from,
	}

	target := from + die
	if target > final {
		target = final - (target - final)
		result.Bounced = true
	}
	result.Target = target

	// Special squares only fire on a genuine forward arrival.
	landing := target
	points := (target - from) * PointsPerSquare
	if target > from {
		if dest, ok := board.Destination(target); ok {
			if dest > target {
				points = (die + (dest - LadderBaseOffset)) * PointsPerSquare
			}
			landing = dest
			result.SpecialJump = &Jump{From: target, To: dest}
		}
	}

	if occupant := state.occupantOf(landing, idx); occupant >= 0 {
		lost := -die * PointsPerSquare
		result.Captured = &Capture{
			PlayerID:    state.Players[occupant].ID,
			NewPosition: from,
			ScoreDelta:  lost,
		}
		result.ScoreDelta = die*PointsPerSquare - lost
	} else {
		result.ScoreDelta = points
	}
	result.NewPosition = landing

	// Single extra relocation, never iterated.
	if dest, ok := board.Destination(landing); ok && dest != landing {
		result.ChainedJump = &Jump{From: landing, To: dest}
		result.NewPosition = dest
	}

	result.Won = result.NewPosition == final
	return result, nil
}

// Apply writes a turn result into the state. It validates the whole result
// before touching anything so a rejected result leaves the state unchanged.
func (gs *GameState) Apply(result *TurnResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is required", ErrInvalidArgument)
	}
	if gs.GameOver {
		return ErrGameOver
	}
	idx := gs.PlayerIndex(result.PlayerID)
	if idx < 0 {
		return fmt.Errorf("%w: player '%s' is not in this game", ErrInvalidArgument, result.PlayerID)
	}
	if err := gs.checkSquare(result.NewPosition); err != nil {
		return err
	}

	occupant := -1
	if result.Captured != nil {
		occupant = gs.PlayerIndex(result.Captured.PlayerID)
		if occupant < 0 || occupant == idx {
			return fmt.Errorf("%w: captured player '%s' is not an opponent", ErrInvalidArgument, result.Captured.PlayerID)
		}
		if err := gs.checkSquare(result.Captured.NewPosition); err != nil {
			return err
		}
	}

	if occupant >= 0 {
		gs.Players[occupant].Position = result.Captured.NewPosition
		gs.Players[occupant].Score += result.Captured.ScoreDelta
	}
	gs.Players[idx].Position = result.NewPosition
	gs.Players[idx].Score += result.ScoreDelta
	gs.LastDie = result.Die
	gs.Turn++

	if result.Won {
		gs.GameOver = true
		gs.WinnerID = result.PlayerID
	}
	return nil
}

// AdvanceTurn hands the die to the next player in roster order
func (gs *GameState) AdvanceTurn() {
	if len(gs.Players) == 0 {
		return
	}
	gs.ActivePlayerIndex = (gs.ActivePlayerIndex + 1) % len(gs.Players)
}

// CheckWinner returns the player standing on the final square, or nil
func (gs *GameState) CheckWinner() *Player {
	for i := range gs.Players {
		if gs.Players[i].Position == gs.FinalSquare {
			return &gs.Players[i]
		}
	}
	return nil
}

// ActivePlayer returns the player whose turn it is
func (gs *GameState) ActivePlayer() *Player {
	if gs.ActivePlayerIndex < 0 || gs.ActivePlayerIndex >= len(gs.Players) {
		return nil
	}
	return &gs.Players[gs.ActivePlayerIndex]
}

// PlayerIndex returns the roster index of a player, or -1
func (gs *GameState) PlayerIndex(id string) int {
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	clone := *gs
	clone.Players = append([]Player(nil), gs.Players...)
	clone.History = append([]TurnRecord(nil), gs.History...)
	return &clone
}

// AddTurnToHistory records a resolved turn
func (gs *GameState) AddTurnToHistory(result *TurnResult, message string) {
	score := 0
	if idx := gs.PlayerIndex(result.PlayerID); idx >= 0 {
		score = gs.Players[idx].Score
	}
	gs.History = append(gs.History, TurnRecord{
		Number:    len(gs.History) + 1,
		Result:    *result,
		Score:     score,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// occupantOf returns the first player other than skip standing on square, or -1
func (gs *GameState) occupantOf(square, skip int) int {
	for i := range gs.Players {
		if i != skip && gs.Players[i].Position == square {
			return i
		}
	}
	return -1
}

func (gs *GameState) checkSquare(square int) error {
	if square < 0 || square > gs.FinalSquare {
		return fmt.Errorf("%w: square %d is outside [0, %d]", ErrInvalidArgument, square, gs.FinalSquare)
	}
	return nil
}
