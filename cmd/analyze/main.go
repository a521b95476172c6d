// Command analyze plays many random games on each board and prints how long
// games run, how often each seat wins, and how often every ladder and snake
// is hit. It reads the built-in levels plus every JSON board in the configs
// directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/goose-game/game/engine"
)

// maxTurns stops a simulated game that never finishes
const maxTurns = 10000

// Report summarizes the simulated games of one board
type Report struct {
	Board       string
	FinalSquare int
	Games       int
	Unfinished  int
	MinTurns    int
	MaxTurns    int
	AvgTurns    float64
	AvgScore    float64
	Wins        map[string]int
	Hits        map[engine.Jump]int
	Captures    int
	NetJump     int
}

// Simulate plays games on board with the given roster, rolling dice for
// every player
func Simulate(board *engine.Board, players engine.PlayerOptions, games int, dice engine.Dice) (*Report, error) {
	eng, err := engine.NewEngine(board, players)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Board:       board.Name(),
		FinalSquare: board.FinalSquare(),
		Games:       games,
		Wins:        make(map[string]int),
		Hits:        make(map[engine.Jump]int),
		NetJump:     engine.NetJump(board),
	}

	totalTurns, totalScore, finished := 0, 0, 0
	for g := 0; g < games; g++ {
		if _, err := eng.Reset(); err != nil {
			return nil, err
		}

		turns := 0
		for !eng.IsGameOver() && turns < maxTurns {
			result, err := eng.RollWith(dice)
			if err != nil {
				return nil, err
			}
			turns++

			if result.SpecialJump != nil {
				report.Hits[*result.SpecialJump]++
			}
			if result.ChainedJump != nil {
				report.Hits[*result.ChainedJump]++
			}
			if result.Captured != nil {
				report.Captures++
			}
		}

		winner := eng.Winner()
		if winner == nil {
			report.Unfinished++
			continue
		}

		finished++
		totalTurns += turns
		totalScore += winner.Score
		report.Wins[winner.ID]++
		if report.MinTurns == 0 || turns < report.MinTurns {
			report.MinTurns = turns
		}
		if turns > report.MaxTurns {
			report.MaxTurns = turns
		}
	}

	if finished > 0 {
		report.AvgTurns = float64(totalTurns) / float64(finished)
		report.AvgScore = float64(totalScore) / float64(finished)
	}
	return report, nil
}

// loadBoards returns the built-in levels followed by the boards in dir, sorted
// by name. A file replaces the built-in level of the same name. Files that
// fail to load are reported and skipped.
func loadBoards(dir string, errOut io.Writer) []*engine.Board {
	var boards []*engine.Board
	index := make(map[string]int)
	add := func(board *engine.Board) {
		if i, ok := index[board.Name()]; ok {
			boards[i] = board
			return
		}
		index[board.Name()] = len(boards)
		boards = append(boards, board)
	}

	for _, level := range engine.BuiltinLevels() {
		board, err := engine.ForLevel(level)
		if err != nil {
			fmt.Fprintf(errOut, "Error loading built-in %s: %v\n", level, err)
			continue
		}
		add(board)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	sort.Strings(files)
	for _, file := range files {
		config, err := engine.LoadBoardConfig(file)
		if err != nil {
			fmt.Fprintf(errOut, "Error loading %s: %v\n", filepath.Base(file), err)
			continue
		}
		board, err := engine.NewBoard(config)
		if err != nil {
			fmt.Fprintf(errOut, "Error building %s: %v\n", filepath.Base(file), err)
			continue
		}
		add(board)
	}
	return boards
}

// printReport writes a human-readable summary
func printReport(w io.Writer, board *engine.Board, r *Report) {
	fmt.Fprintf(w, "\n=== %s (final square %d) ===\n", r.Board, r.FinalSquare)
	fmt.Fprintf(w, "Games: %d", r.Games)
	if r.Unfinished > 0 {
		fmt.Fprintf(w, " (%d unfinished after %d turns)", r.Unfinished, maxTurns)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Turns: avg %.1f, min %d, max %d\n", r.AvgTurns, r.MinTurns, r.MaxTurns)
	fmt.Fprintf(w, "Winner score: avg %.1f\n", r.AvgScore)
	fmt.Fprintf(w, "Captures: %d\n", r.Captures)
	fmt.Fprintf(w, "Net jump: %+d squares\n", r.NetJump)

	seats := make([]string, 0, len(r.Wins))
	for id := range r.Wins {
		seats = append(seats, id)
	}
	sort.Strings(seats)
	for _, id := range seats {
		fmt.Fprintf(w, "  %-3s wins %5.1f%%\n", id, 100*float64(r.Wins[id])/float64(r.Games))
	}

	jumps := append(board.Ladders(), board.Snakes()...)
	for _, j := range jumps {
		kind := "ladder"
		if j.To < j.From {
			kind = "snake"
		}
		fmt.Fprintf(w, "  %-6s %3d -> %-3d hit %.2f times per game\n",
			kind, j.From, j.To, float64(r.Hits[j])/float64(r.Games))
	}

	if r.Games > 0 && r.Unfinished*10 > r.Games {
		fmt.Fprintf(w, "⚠️  WARNING: %s often fails to finish\n", r.Board)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Simulate random games on every board",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing board configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 1000, Usage: "Games to simulate per board"},
			&cli.IntFlag{Name: "humans", Value: 2, Usage: "Human players per game"},
			&cli.BoolFlag{Name: "ai", Usage: "Add the AI player"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Dice seed"},
			&cli.StringFlag{Name: "board", Usage: "Only analyze this board"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.Root().ErrWriter, cmd)
		},
	}
}

func run(out, errOut io.Writer, cmd *cli.Command) error {
	games := cmd.Int("games")
	if games <= 0 {
		return fmt.Errorf("games must be positive, got %d", games)
	}
	players := engine.PlayerOptions{Humans: cmd.Int("humans"), IncludeAI: cmd.Bool("ai")}
	if err := engine.ValidatePlayerOptions(players); err != nil {
		return err
	}

	only := strings.TrimSuffix(cmd.String("board"), ".json")
	dice := engine.NewRandomDice(cmd.Uint64("seed"))

	analyzed := 0
	for _, board := range loadBoards(cmd.String("config-dir"), errOut) {
		if only != "" && board.Name() != only {
			continue
		}
		report, err := Simulate(board, players, games, dice)
		if err != nil {
			return fmt.Errorf("simulate %s: %w", board.Name(), err)
		}
		printReport(out, board, report)
		analyzed++
	}

	if analyzed == 0 {
		return fmt.Errorf("no board matched %q", only)
	}
	return nil
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
