package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/highscore"
	"github.com/wricardo/goose-game/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	order    []string
	dice     func() engine.Dice
	saves    int
	saveErr  error
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, boardID string, board *engine.BoardConfig, players engine.PlayerOptions) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	b, err := engine.NewBoard(board)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(b, players)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		BoardID:        boardID,
		Engine:         eng,
		Board:          b.Config(),
		Players:        players,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	if m.dice != nil {
		session.Dice = m.dice()
	}

	m.sessions[id] = session
	m.order = append(m.order, id)
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			result = append(result, s)
		}
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, ok := m.sessions[id]; !ok {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.BoardConfig
}

func NewMockConfigManager() *MockConfigManager {
	easy, _ := engine.BuiltinBoardConfig(engine.LevelEasy)
	hard, _ := engine.BuiltinBoardConfig(engine.LevelHard)
	return &MockConfigManager{
		configs: map[string]*engine.BoardConfig{
			"easy": easy,
			"hard": hard,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.BoardConfig, error) {
	config, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, name)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.BoardInfo, error) {
	var boards []*service.BoardInfo
	for _, name := range []string{"easy", "hard"} {
		c := m.configs[name]
		boards = append(boards, &service.BoardInfo{
			BoardID:     name,
			Name:        c.Name,
			FinalSquare: c.FinalSquare,
		})
	}
	return boards, nil
}

func (m *MockConfigManager) GetDefault() *engine.BoardConfig {
	return m.configs["easy"]
}

func (m *MockConfigManager) DefaultName() string {
	return "easy"
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.BoardConfig) error {
	if err := engine.ValidateBoardConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// MockHighScoreStore implements service.HighScoreStore with function fields
type MockHighScoreStore struct {
	IsTopScoreFunc func(score int) bool
	AddScoreFunc   func(initials string, score int) (*highscore.Entry, error)
	TopFunc        func() []highscore.Entry
	ResetFunc      func() error
}

func (m *MockHighScoreStore) IsTopScore(score int) bool {
	return m.IsTopScoreFunc(score)
}

func (m *MockHighScoreStore) AddScore(initials string, score int) (*highscore.Entry, error) {
	return m.AddScoreFunc(initials, score)
}

func (m *MockHighScoreStore) Top() []highscore.Entry {
	return m.TopFunc()
}

func (m *MockHighScoreStore) Reset() error {
	return m.ResetFunc()
}

func newTestService(t *testing.T, dice ...int) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	if len(dice) > 0 {
		sessions.dice = func() engine.Dice { return engine.NewSequenceDice(dice...) }
	}
	return service.NewGameService(sessions, NewMockConfigManager(), highscore.NewMemoryStore(), nil), sessions
}

// finishGame puts J1 three squares from the end of the easy board and rolls a 3
func finishGame(t *testing.T, svc service.GameService, sessions *MockSessionManager, id string) *service.RollResult {
	t.Helper()
	state := sessions.sessions[id].Engine.GetState()
	state.Players[state.ActivePlayerIndex].Position = 44
	result, err := svc.Roll(context.Background(), id, 3)
	if err != nil {
		t.Fatalf("Winning roll failed: %v", err)
	}
	if !result.Won {
		t.Fatal("Expected a winning roll")
	}
	return result
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	t.Run("default board and roster", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, service.CreateOptions{})
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if info.BoardID != "easy" || info.Board.FinalSquare != 47 {
			t.Errorf("Expected default easy board, got %s/%d", info.BoardID, info.Board.FinalSquare)
		}
		if len(info.GameState.Players) != 1 {
			t.Errorf("Expected a single human by default, got %d players", len(info.GameState.Players))
		}
	})

	t.Run("hard board with AI", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, service.CreateOptions{BoardID: "hard", Humans: 2, IncludeAI: true})
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		players := info.GameState.Players
		if len(players) != 3 || players[2].ID != engine.AIPlayerID {
			t.Errorf("Expected J1, J2, AI; got %+v", players)
		}
		if info.GameState.FinalSquare != 100 {
			t.Errorf("Expected hard board, got final %d", info.GameState.FinalSquare)
		}
	})

	t.Run("unknown board lists alternatives", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, service.CreateOptions{BoardID: "medium"})
		if !errors.Is(err, service.ErrConfigNotFound) {
			t.Fatalf("Expected ErrConfigNotFound, got %v", err)
		}
		if want := "Available boards: [easy hard]"; !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in %q", want, err.Error())
		}
	})

	t.Run("invalid roster", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, service.CreateOptions{Humans: 4, IncludeAI: true})
		if !errors.Is(err, engine.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, _ := svc.CreateSession(ctx, service.CreateOptions{})
	second, _ := svc.CreateSession(ctx, service.CreateOptions{BoardID: "hard"})

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("Unexpected session list %+v", sessions)
	}

	info, err := svc.GetSession(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if info.BoardID != "hard" {
		t.Errorf("Expected hard board, got %s", info.BoardID)
	}

	if err := svc.DeleteSession(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, first.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.DeleteSession(ctx, first.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestGameService_Roll(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{Humans: 2})

	// J1: 0 + 5 lands on the ladder 5 -> 14
	result, err := svc.Roll(ctx, info.ID, 5)
	if err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	if result.Turn.NewPosition != 14 || result.Turn.ScoreDelta != 30 {
		t.Errorf("Expected ladder to 14 for 30 pts, got %d/%d", result.Turn.NewPosition, result.Turn.ScoreDelta)
	}
	if result.NextPlayerID != "J2" {
		t.Errorf("Expected J2 to play next, got %s", result.NextPlayerID)
	}
	if result.Won || result.QualifiesForHighScore {
		t.Error("Expected no win on the first turn")
	}

	types := eventTypes(result.Events)
	if len(types) != 2 || types[0] != "move" || types[1] != "ladder" {
		t.Errorf("Expected move and ladder events, got %v", types)
	}
	if result.Message == "" || result.Message != result.GameState.Message {
		t.Error("Expected narrative message on the result and state")
	}
	if sessions.saves == 0 {
		t.Error("Expected the session to be saved after a roll")
	}

	t.Run("invalid die", func(t *testing.T) {
		if _, err := svc.Roll(ctx, info.ID, 7); !errors.Is(err, engine.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if _, err := svc.Roll(ctx, "zzzz", 3); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestGameService_RollSessionDice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, 2, 4)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{Humans: 1, IncludeAI: true})

	first, err := svc.Roll(ctx, info.ID, 0)
	if err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	second, err := svc.Roll(ctx, info.ID, 0)
	if err != nil {
		t.Fatalf("Roll failed: %v", err)
	}

	if first.Turn.Die != 2 || second.Turn.Die != 4 {
		t.Errorf("Expected scripted dice 2 then 4, got %d then %d", first.Turn.Die, second.Turn.Die)
	}
	if second.Turn.PlayerID != engine.AIPlayerID {
		t.Errorf("Expected the AI to take the second turn, got %s", second.Turn.PlayerID)
	}
}

func TestGameService_RollWithoutSessionDice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{})

	result, err := svc.Roll(ctx, info.ID, 0)
	if err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	if result.Turn.Die < engine.MinDie || result.Turn.Die > engine.MaxDie {
		t.Errorf("Die %d out of range", result.Turn.Die)
	}
}

func TestGameService_WinAndHighScore(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{Humans: 2})

	t.Run("not finished", func(t *testing.T) {
		if _, err := svc.SubmitHighScore(ctx, info.ID, "abc"); !errors.Is(err, service.ErrNotEligible) {
			t.Errorf("Expected ErrNotEligible, got %v", err)
		}
	})

	result := finishGame(t, svc, sessions, info.ID)
	if !result.QualifiesForHighScore {
		t.Error("Expected the first win to qualify against the default table")
	}
	if result.NextPlayerID != "" {
		t.Errorf("Expected no next player after a win, got %s", result.NextPlayerID)
	}
	if types := eventTypes(result.Events); types[len(types)-1] != "victory" {
		t.Errorf("Expected a victory event last, got %v", types)
	}

	t.Run("roll after win", func(t *testing.T) {
		if _, err := svc.Roll(ctx, info.ID, 1); !errors.Is(err, engine.ErrGameOver) {
			t.Errorf("Expected ErrGameOver, got %v", err)
		}
	})

	t.Run("invalid initials", func(t *testing.T) {
		if _, err := svc.SubmitHighScore(ctx, info.ID, "   "); !errors.Is(err, engine.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("submit", func(t *testing.T) {
		res, err := svc.SubmitHighScore(ctx, info.ID, "jdoe")
		if err != nil {
			t.Fatalf("SubmitHighScore failed: %v", err)
		}
		if res.Entry.Initials != "JDO" {
			t.Errorf("Expected normalized initials JDO, got %s", res.Entry.Initials)
		}
		if res.Scores[0].Initials != "JDO" {
			t.Errorf("Expected the new entry on top, got %+v", res.Scores[0])
		}
		if !res.Ranked {
			t.Error("Expected the entry to be ranked")
		}

		scores, _ := svc.HighScores(ctx)
		if scores[0].ID != res.Entry.ID {
			t.Error("Expected HighScores to include the submitted entry")
		}
	})

	t.Run("only once per game", func(t *testing.T) {
		if _, err := svc.SubmitHighScore(ctx, info.ID, "abc"); !errors.Is(err, service.ErrNotEligible) {
			t.Errorf("Expected ErrNotEligible on a second submission, got %v", err)
		}
	})

	t.Run("reset allows a new submission", func(t *testing.T) {
		state, err := svc.Reset(ctx, info.ID)
		if err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if state.GameOver || state.Turn != 0 {
			t.Errorf("Expected a fresh game, got %+v", state)
		}
		got, _ := svc.GetSession(ctx, info.ID)
		if got.ScoreSubmitted {
			t.Error("Expected score_submitted to be cleared by reset")
		}
	})
}

func TestGameService_WinNotQualifying(t *testing.T) {
	ctx := context.Background()
	sessions := NewMockSessionManager()
	scores := &MockHighScoreStore{
		IsTopScoreFunc: func(score int) bool { return false },
		AddScoreFunc: func(string, int) (*highscore.Entry, error) {
			t.Fatal("AddScore should not be called")
			return nil, nil
		},
	}
	svc := service.NewGameService(sessions, NewMockConfigManager(), scores, nil)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{})

	result := finishGame(t, svc, sessions, info.ID)
	if result.QualifiesForHighScore {
		t.Error("Expected the win not to qualify")
	}
	if _, err := svc.SubmitHighScore(ctx, info.ID, "abc"); !errors.Is(err, service.ErrNotEligible) {
		t.Errorf("Expected ErrNotEligible, got %v", err)
	}
}

func TestGameService_TiedScoreNotRanked(t *testing.T) {
	ctx := context.Background()
	sessions := NewMockSessionManager()
	scores := highscore.NewMemoryStore()
	// 44 -> 47 is a plain move worth 9 points
	for i := 0; i < highscore.TableSize; i++ {
		if _, err := scores.AddScore("old", 9); err != nil {
			t.Fatalf("AddScore failed: %v", err)
		}
	}
	svc := service.NewGameService(sessions, NewMockConfigManager(), scores, nil)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{Humans: 2})

	result := finishGame(t, svc, sessions, info.ID)
	if !result.QualifiesForHighScore {
		t.Fatal("Expected a tie with the lowest entry to qualify")
	}

	res, err := svc.SubmitHighScore(ctx, info.ID, "new")
	if err != nil {
		t.Fatalf("SubmitHighScore failed: %v", err)
	}
	if res.Entry == nil || res.Entry.Score != 9 {
		t.Fatalf("Expected the 9-point entry, got %+v", res.Entry)
	}
	if res.Ranked {
		t.Error("Expected a tie on a full table not to be ranked")
	}
	for _, e := range res.Scores {
		if e.ID == res.Entry.ID {
			t.Error("Expected the tied entry to be cut from the table")
		}
	}
}

func TestGameService_ReturnsSnapshots(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{Humans: 2})

	first, err := svc.Roll(ctx, info.ID, 2)
	if err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	if _, err := svc.Roll(ctx, info.ID, 3); err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	if first.GameState.Turn != 1 || len(first.GameState.History) != 1 {
		t.Errorf("Expected the first result to stay at turn 1, got turn %d with %d records",
			first.GameState.Turn, len(first.GameState.History))
	}
	if first.GameState.Players[1].Position != 0 {
		t.Errorf("Expected J2 still on start in the first result, got %d", first.GameState.Players[1].Position)
	}

	state, err := svc.GetGameState(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetGameState failed: %v", err)
	}
	state.Players[0].Position = 40
	state.Turn = 99

	again, _ := svc.GetGameState(ctx, info.ID)
	if again.Players[0].Position != 2 || again.Turn != 2 {
		t.Errorf("Expected the session to be untouched by a caller's edits, got position %d turn %d",
			again.Players[0].Position, again.Turn)
	}

	sess, _ := svc.GetSession(ctx, info.ID)
	sess.GameState.Players[1].Position = 40
	if again, _ := svc.GetGameState(ctx, info.ID); again.Players[1].Position != 3 {
		t.Errorf("Expected session info to carry a copy, got J2 on %d", again.Players[1].Position)
	}
}

func TestGameService_ResetHighScores(t *testing.T) {
	called := false
	scores := &MockHighScoreStore{ResetFunc: func() error {
		called = true
		return nil
	}}
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), scores, nil)

	if err := svc.ResetHighScores(context.Background()); err != nil {
		t.Fatalf("ResetHighScores failed: %v", err)
	}
	if !called {
		t.Error("Expected the store to be reset")
	}
}

func TestGameService_PersistFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{})
	sessions.saveErr = errors.New("disk full")

	if _, err := svc.Roll(ctx, info.ID, 2); err != nil {
		t.Errorf("Roll should succeed when saving fails, got %v", err)
	}
}

func TestGameService_GetTurnHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, service.CreateOptions{BoardID: "hard", Humans: 2})

	// rolling 1s the two pawns keep swapping on squares 0 and 1
	for i := 0; i < 25; i++ {
		if _, err := svc.Roll(ctx, info.ID, 1); err != nil {
			t.Fatalf("Roll %d failed: %v", i, err)
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantNext  bool
		wantPrev  bool
		wantPages int
	}{
		{"defaults are newest first", service.HistoryOptions{}, 20, 25, true, false, 2},
		{"second page desc", service.HistoryOptions{Page: 2}, 5, 5, false, true, 2},
		{"ascending", service.HistoryOptions{Order: "asc", Limit: 10}, 10, 1, true, false, 3},
		{"ascending last page", service.HistoryOptions{Order: "asc", Limit: 10, Page: 3}, 5, 21, false, true, 3},
		{"limit capped", service.HistoryOptions{Limit: 1000}, 25, 25, false, false, 1},
		{"past the end", service.HistoryOptions{Page: 9}, 0, 0, false, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetTurnHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetTurnHistory failed: %v", err)
			}
			if len(resp.Turns) != tt.wantLen {
				t.Fatalf("Expected %d turns, got %d", tt.wantLen, len(resp.Turns))
			}
			if tt.wantLen > 0 && resp.Turns[0].Number != tt.wantFirst {
				t.Errorf("Expected first turn %d, got %d", tt.wantFirst, resp.Turns[0].Number)
			}
			if resp.HasNext != tt.wantNext || resp.HasPrevious != tt.wantPrev {
				t.Errorf("Expected next=%v prev=%v, got next=%v prev=%v", tt.wantNext, tt.wantPrev, resp.HasNext, resp.HasPrevious)
			}
			if resp.TotalPages != tt.wantPages || resp.TotalTurns != 25 {
				t.Errorf("Expected %d pages of 25 turns, got %d pages of %d", tt.wantPages, resp.TotalPages, resp.TotalTurns)
			}
		})
	}
}

func TestGameService_Boards(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	boards, err := svc.ListBoards(ctx)
	if err != nil || len(boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d (%v)", len(boards), err)
	}

	board, err := svc.LoadBoard(ctx, "hard")
	if err != nil || board.FinalSquare != 100 {
		t.Fatalf("LoadBoard(hard) failed: %v", err)
	}
	if _, err := svc.LoadBoard(ctx, "missing"); !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	custom := &engine.BoardConfig{Name: "mini", FinalSquare: 12, Columns: 4, SpecialMoves: map[int]int{3: 9}}
	if err := svc.SaveBoard(ctx, "mini", custom); err != nil {
		t.Fatalf("SaveBoard failed: %v", err)
	}
	info, err := svc.CreateSession(ctx, service.CreateOptions{BoardID: "mini"})
	if err != nil {
		t.Fatalf("CreateSession on saved board failed: %v", err)
	}
	if info.GameState.FinalSquare != 12 {
		t.Errorf("Expected saved board, got final %d", info.GameState.FinalSquare)
	}

	broken := &engine.BoardConfig{Name: "broken", FinalSquare: 12, SpecialMoves: map[int]int{3: 3}}
	if err := svc.SaveBoard(ctx, "broken", broken); !errors.Is(err, engine.ErrInvalidBoard) {
		t.Errorf("Expected ErrInvalidBoard, got %v", err)
	}
}

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

