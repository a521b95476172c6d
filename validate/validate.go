// Command validate provides a small CLI that validates board configuration JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure, unknown fields, and required fields
//   - Engine rules: final square range, columns, trigger and destination ranges
//   - No special move starting on the final square
//   - Boards claiming a built-in level match that level's table
//   - Chained jumps, reported for information
//   - Reachability: the final square can be reached from the start square
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/goose-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single board JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.BoardConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if config.SpecialMoves == nil {
		result.fail("Missing required field: special_moves")
	}
	if err := engine.ValidateBoardConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	board, err := engine.NewBoard(&config)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	result.info("Board: %s, %d squares, %d ladders, %d snakes",
		board.Name(), board.FinalSquare(), len(board.Ladders()), len(board.Snakes()))

	if dest, ok := board.Destination(board.FinalSquare()); ok {
		result.fail("Final square %d must not be a special square (sends to %d)", board.FinalSquare(), dest)
	}

	checkLevel(&result, board)
	checkChains(&result, board)
	checkReachable(&result, board)

	return result
}

// checkLevel compares a board that claims a built-in level with that level
func checkLevel(result *ValidationResult, board *engine.Board) {
	if board.Level() == "" {
		return
	}
	if !engine.MatchesBuiltin(board.Config()) {
		result.fail("Board claims level %q but differs from the built-in %s board", board.Level(), board.Level())
		return
	}
	result.info("Matches built-in level %q", board.Level())
}

// checkChains reports special squares whose destination is another trigger.
// Only one chained jump is ever applied.
func checkChains(result *ValidationResult, board *engine.Board) {
	for _, from := range board.Triggers() {
		to, _ := board.Destination(from)
		if next, ok := board.Destination(to); ok {
			result.info("Chain: %d -> %d -> %d (one extra jump, no further chaining)", from, to, next)
		}
	}
}

// checkReachable walks every square a lone pawn can reach with single die
// rolls and reports the fewest rolls needed to win.
func checkReachable(result *ValidationResult, board *engine.Board) {
	rolls, ok := minRollsToWin(board)
	if !ok {
		result.fail("Reachability failure: final square %d cannot be reached from the start", board.FinalSquare())
		return
	}
	result.info("Reachability: final square reachable in %d rolls at best", rolls)
}

// minRollsToWin runs a breadth-first search over pawn positions using the
// engine's own turn resolution.
func minRollsToWin(board *engine.Board) (int, bool) {
	state, err := engine.NewGameState(board, engine.PlayerOptions{Humans: 1})
	if err != nil {
		return 0, false
	}
	playerID := state.Players[0].ID

	dist := map[int]int{0: 0}
	queue := []int{0}
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		for die := engine.MinDie; die <= engine.MaxDie; die++ {
			state.Players[0].Position = pos
			turn, err := engine.ResolveTurn(state, playerID, die, board)
			if err != nil {
				continue
			}
			if turn.Won {
				return dist[pos] + 1, true
			}
			if _, seen := dist[turn.NewPosition]; !seen {
				dist[turn.NewPosition] = dist[pos] + 1
				queue = append(queue, turn.NewPosition)
			}
		}
	}
	return 0, false
}

// main scans the config directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No board files found in %s\n", configDir)
		os.Exit(1)
	}
	sort.Strings(files)

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All boards are valid!")
	} else {
		fmt.Println("❌ Some boards have errors")
		os.Exit(1)
	}
}
