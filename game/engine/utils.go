package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Narrate renders the human-readable story of a turn
func Narrate(result *TurnResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	if result.Captured != nil {
		fmt.Fprintf(&b, "%s rolled %d and took the place of %s, who goes back to square %d. %s gains %d pts.",
			result.PlayerID, result.Die, result.Captured.PlayerID, result.Captured.NewPosition,
			result.PlayerID, result.ScoreDelta)
	} else {
		landing := result.NewPosition
		if result.ChainedJump != nil {
			landing = result.ChainedJump.From
		}
		fmt.Fprintf(&b, "%s rolled %d and goes to square %d (%+d pts).",
			result.PlayerID, result.Die, landing, result.ScoreDelta)
	}

	if result.Bounced {
		fmt.Fprintf(&b, " Overshot the finish and bounced back to %d.", result.Target)
	}
	if result.SpecialJump != nil {
		kind := "ladder"
		if result.SpecialJump.To < result.SpecialJump.From {
			kind = "snake"
		}
		fmt.Fprintf(&b, " %s %d -> %d.", kind, result.SpecialJump.From, result.SpecialJump.To)
	}
	if result.ChainedJump != nil {
		fmt.Fprintf(&b, " Square effect! Moves on to %d.", result.ChainedJump.To)
	}
	if result.Won {
		fmt.Fprintf(&b, " %s wins!", result.PlayerID)
	}
	return b.String()
}

// Standings returns the players ordered by position, then score, then seat
func Standings(state *GameState) []Player {
	players := append([]Player(nil), state.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Position != players[j].Position {
			return players[i].Position > players[j].Position
		}
		return players[i].Score > players[j].Score
	})
	return players
}

// DistanceToFinish returns how many squares a player still has to cover
func DistanceToFinish(state *GameState, playerID string) (int, bool) {
	idx := state.PlayerIndex(playerID)
	if idx < 0 {
		return 0, false
	}
	return state.FinalSquare - state.Players[idx].Position, true
}

// NetJump returns the total squares gained by ladders minus squares lost to snakes
func NetJump(board *Board) int {
	net := 0
	for from, to := range board.SpecialMoves() {
		net += to - from
	}
	return net
}
