package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/goose-game/game/engine"
)

func TestSimulate(t *testing.T) {
	board, err := engine.ForLevel(engine.LevelEasy)
	if err != nil {
		t.Fatalf("ForLevel failed: %v", err)
	}

	report, err := Simulate(board, engine.PlayerOptions{Humans: 2, IncludeAI: true}, 200, engine.NewRandomDice(7))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if report.Board != "easy" || report.FinalSquare != 47 {
		t.Errorf("Unexpected board in report: %s/%d", report.Board, report.FinalSquare)
	}
	if report.Unfinished != 0 {
		t.Errorf("Expected every game to finish, %d did not", report.Unfinished)
	}

	wins := 0
	for id, n := range report.Wins {
		if id != "J1" && id != "J2" && id != engine.AIPlayerID {
			t.Errorf("Unexpected winner %q", id)
		}
		wins += n
	}
	if wins != report.Games {
		t.Errorf("Expected %d wins in total, got %d", report.Games, wins)
	}

	// A pawn needs at least six rolls even with both ladders, and two seats play in between
	if report.MinTurns < 16 {
		t.Errorf("MinTurns %d is faster than possible", report.MinTurns)
	}
	if report.AvgTurns < float64(report.MinTurns) || report.AvgTurns > float64(report.MaxTurns) {
		t.Errorf("AvgTurns %.1f outside [%d, %d]", report.AvgTurns, report.MinTurns, report.MaxTurns)
	}
	if len(report.Hits) == 0 {
		t.Error("Expected some ladder or snake hits over 200 games")
	}
	for jump := range report.Hits {
		if to, ok := board.Destination(jump.From); !ok || to != jump.To {
			t.Errorf("Hit recorded for unknown jump %v", jump)
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	board, _ := engine.ForLevel(engine.LevelHard)
	players := engine.PlayerOptions{Humans: 2}

	a, err := Simulate(board, players, 50, engine.NewRandomDice(42))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	b, err := Simulate(board, players, 50, engine.NewRandomDice(42))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if a.AvgTurns != b.AvgTurns || a.Wins["J1"] != b.Wins["J1"] || a.Captures != b.Captures {
		t.Errorf("Same seed gave different reports: %+v vs %+v", a, b)
	}
}

func TestSimulate_SingleWinningRoll(t *testing.T) {
	config := &engine.BoardConfig{Name: "tiny", FinalSquare: 6, SpecialMoves: map[int]int{}}
	board, err := engine.NewBoard(config)
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	report, err := Simulate(board, engine.PlayerOptions{Humans: 1}, 5, engine.NewSequenceDice(6))
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if report.MinTurns != 1 || report.MaxTurns != 1 {
		t.Errorf("Expected every game to last one turn, got min %d max %d", report.MinTurns, report.MaxTurns)
	}
	if report.Wins["J1"] != 5 {
		t.Errorf("Expected J1 to win 5 games, got %d", report.Wins["J1"])
	}
	// A plain move scores three points per square
	if report.AvgScore != 18 {
		t.Errorf("Expected winner score 18, got %.1f", report.AvgScore)
	}
}

func TestSimulate_InvalidRoster(t *testing.T) {
	board, _ := engine.ForLevel(engine.LevelEasy)

	if _, err := Simulate(board, engine.PlayerOptions{Humans: 0}, 10, engine.NewRandomDice(1)); err == nil {
		t.Error("Expected error for a roster without humans")
	}
}

func TestLoadBoards(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"easy.json":   `{"name": "easy", "level": "easy", "final_square": 20, "special_moves": {"3": 9}}`,
		"custom.json": `{"name": "custom", "final_square": 12, "special_moves": {}}`,
		"broken.json": `{"name": "broken", "final_square": 2}`,
		"notes.txt":   `ignored`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	var errOut bytes.Buffer
	boards := loadBoards(dir, &errOut)

	names := make([]string, len(boards))
	for i, b := range boards {
		names[i] = b.Name()
	}
	if got := strings.Join(names, ","); got != "easy,hard,custom" {
		t.Errorf("Expected boards easy,hard,custom, got %s", got)
	}
	if boards[0].FinalSquare() != 20 {
		t.Errorf("Expected easy.json to replace the built-in easy board, final square %d", boards[0].FinalSquare())
	}
	if !strings.Contains(errOut.String(), "broken.json") {
		t.Errorf("Expected broken.json to be reported, got %q", errOut.String())
	}
}

func TestPrintReport(t *testing.T) {
	board, _ := engine.ForLevel(engine.LevelEasy)
	report := &Report{
		Board:       "easy",
		FinalSquare: 47,
		Games:       10,
		Unfinished:  2,
		MinTurns:    12,
		MaxTurns:    40,
		AvgTurns:    20,
		Wins:        map[string]int{"J1": 5, "J2": 3},
		Hits:        map[engine.Jump]int{{From: 5, To: 14}: 20},
	}

	var buf bytes.Buffer
	printReport(&buf, board, report)
	out := buf.String()

	for _, want := range []string{
		"=== easy (final square 47) ===",
		"2 unfinished",
		"J1  wins  50.0%",
		"ladder   5 -> 14  hit 2.00 times per game",
		"snake   12 -> 7   hit 0.00 times per game",
		"WARNING",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{name: "single board", args: []string{"--games", "20", "--board", "hard"}, want: "=== hard (final square 100) ==="},
		{name: "with AI", args: []string{"--games", "20", "--board", "easy", "--ai"}, want: "=== easy"},
		{name: "unknown board", args: []string{"--board", "nope"}, wantErr: true},
		{name: "bad games", args: []string{"--games", "0"}, wantErr: true},
		{name: "too many players", args: []string{"--humans", "4", "--ai"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newCommand()
			cmd.Writer = &out
			cmd.ErrWriter = &bytes.Buffer{}

			args := append([]string{"analyze", "--config-dir", t.TempDir()}, tt.args...)
			err := cmd.Run(context.Background(), args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.want, out.String())
			}
		})
	}
}
