package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/highscore"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   HighScoreStore
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. A nil score store keeps
// high scores in memory.
func NewGameService(sessions SessionManager, configs ConfigManager, scores HighScoreStore, logger *zap.Logger) GameService {
	if scores == nil {
		scores = highscore.NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		scores:   scores,
		logger:   logger,
	}
}

// CreateSession creates a new game session. An empty board ID selects the
// default board; zero humans means one.
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	boardID := opts.BoardID
	var board *engine.BoardConfig
	if boardID == "" {
		boardID = s.configs.DefaultName()
		board = s.configs.GetDefault()
	} else {
		var err error
		board, err = s.configs.LoadConfig(boardID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.boardNotFound(boardID)
			}
			return nil, fmt.Errorf("failed to load board %s: %w", boardID, err)
		}
	}

	players := engine.PlayerOptions{Humans: opts.Humans, IncludeAI: opts.IncludeAI}
	if players.Humans == 0 {
		players.Humans = 1
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", boardID, board, players)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Roll plays one turn for the active player. A die of 0 rolls the session
// dice.
func (s *gameServiceImpl) Roll(ctx context.Context, sessionID string, die int) (*RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var turn *engine.TurnResult
	if die == 0 {
		if sess.Dice == nil {
			sess.Dice = engine.NewRandomDice(uint64(time.Now().UnixNano()))
		}
		turn, err = sess.Engine.RollWith(sess.Dice)
	} else {
		turn, err = sess.Engine.Roll(die)
	}
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState().Clone()
	result := &RollResult{
		Turn:      turn,
		GameState: state,
		Message:   state.Message,
		Events:    turnEvents(turn, time.Now()),
		Won:       turn.Won,
	}

	if turn.Won {
		winner := sess.Engine.Winner()
		result.QualifiesForHighScore = !sess.ScoreSubmitted && s.scores.IsTopScore(winner.Score)
		s.logger.Info("game won",
			zap.String("session_id", sess.ID),
			zap.String("winner", winner.ID),
			zap.Int("score", winner.Score),
			zap.Int("turns", state.Turn),
			zap.Bool("qualifies", result.QualifiesForHighScore),
		)
	} else if next := sess.Engine.ActivePlayer(); next != nil {
		result.NextPlayerID = next.ID
	}

	s.logger.Debug("turn played",
		zap.String("session_id", sess.ID),
		zap.String("player", turn.PlayerID),
		zap.Int("die", turn.Die),
		zap.Int("from", turn.From),
		zap.Int("to", turn.NewPosition),
		zap.Int("score_delta", turn.ScoreDelta),
	)

	s.persist(sess.ID, "roll")
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Engine.Reset()
	if err != nil {
		return nil, err
	}
	sess.ScoreSubmitted = false

	s.persist(sess.ID, "reset")
	return state.Clone(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.GetState().Clone(), nil
}

// GetTurnHistory returns paginated turn history
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetTurnHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	turns := []engine.TurnRecord{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i])
			}
		} else {
			turns = append(turns, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListBoards returns available boards
func (s *gameServiceImpl) ListBoards(ctx context.Context) ([]*BoardInfo, error) {
	return s.configs.ListConfigs()
}

// LoadBoard loads a specific board
func (s *gameServiceImpl) LoadBoard(ctx context.Context, boardID string) (*engine.BoardConfig, error) {
	board, err := s.configs.LoadConfig(boardID)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return nil, s.boardNotFound(boardID)
		}
		return nil, err
	}
	return board, nil
}

// SaveBoard validates and stores a board
func (s *gameServiceImpl) SaveBoard(ctx context.Context, boardID string, board *engine.BoardConfig) error {
	return s.configs.SaveConfig(boardID, board)
}

// HighScores returns the top-10 table
func (s *gameServiceImpl) HighScores(ctx context.Context) ([]highscore.Entry, error) {
	return s.scores.Top(), nil
}

// SubmitHighScore records the winner's score of a finished game under the
// given initials. Each game can submit once.
func (s *gameServiceImpl) SubmitHighScore(ctx context.Context, sessionID, initials string) (*HighScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	winner := sess.Engine.Winner()
	switch {
	case winner == nil:
		return nil, fmt.Errorf("%w: game %s is not finished", ErrNotEligible, sess.ID)
	case sess.ScoreSubmitted:
		return nil, fmt.Errorf("%w: score already submitted for game %s", ErrNotEligible, sess.ID)
	case !s.scores.IsTopScore(winner.Score):
		return nil, fmt.Errorf("%w: score %d does not reach the table", ErrNotEligible, winner.Score)
	}

	entry, err := s.scores.AddScore(initials, winner.Score)
	if err != nil {
		if errors.Is(err, highscore.ErrInvalidInitials) {
			return nil, fmt.Errorf("%w: %v", engine.ErrInvalidArgument, err)
		}
		return nil, err
	}
	sess.ScoreSubmitted = true

	s.persist(sess.ID, "high score")
	scores := s.scores.Top()
	return &HighScoreResult{Entry: entry, Scores: scores, Ranked: ranked(scores, entry.ID)}, nil
}

// ResetHighScores restores the default table
func (s *gameServiceImpl) ResetHighScores(ctx context.Context) error {
	return s.scores.Reset()
}

// getSession fetches a session and marks it accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sess.ID)
	return sess, nil
}

// persist saves a session after a state change; failures are logged only
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session",
			zap.String("session_id", sessionID),
			zap.String("after", after),
			zap.Error(err),
		)
	}
}

// boardNotFound lists the available boards in the error
func (s *gameServiceImpl) boardNotFound(boardID string) error {
	boards, err := s.configs.ListConfigs()
	if err != nil || len(boards) == 0 {
		return fmt.Errorf("%w: '%s'. Use /api/boards to list available boards", ErrConfigNotFound, boardID)
	}
	ids := make([]string, 0, len(boards))
	for _, b := range boards {
		ids = append(ids, b.BoardID)
	}
	return fmt.Errorf("%w: '%s'. Available boards: %v", ErrConfigNotFound, boardID, ids)
}

// ranked reports whether the entry with id made it into the table
func ranked(scores []highscore.Entry, id string) bool {
	for _, e := range scores {
		if e.ID == id {
			return true
		}
	}
	return false
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		BoardID:        sess.BoardID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		ScoreSubmitted: sess.ScoreSubmitted,
		GameState:      sess.Engine.GetState().Clone(),
		Board:          sess.Board,
	}
}

// turnEvents breaks a turn into the events clients animate
func turnEvents(turn *engine.TurnResult, now time.Time) []GameEvent {
	events := []GameEvent{{
		Type:      "move",
		PlayerID:  turn.PlayerID,
		Message:   fmt.Sprintf("%s rolled %d", turn.PlayerID, turn.Die),
		Square:    turn.Target,
		Timestamp: now,
	}}

	if turn.Bounced {
		events = append(events, GameEvent{
			Type:      "bounce",
			PlayerID:  turn.PlayerID,
			Message:   fmt.Sprintf("Overshot the finish, bounced back to %d", turn.Target),
			Square:    turn.Target,
			Timestamp: now,
		})
	}

	if jump := turn.SpecialJump; jump != nil {
		kind := "ladder"
		if jump.To < jump.From {
			kind = "snake"
		}
		events = append(events, GameEvent{
			Type:      kind,
			PlayerID:  turn.PlayerID,
			Message:   fmt.Sprintf("%s %d -> %d", kind, jump.From, jump.To),
			Square:    jump.To,
			Timestamp: now,
		})
	}

	if c := turn.Captured; c != nil {
		events = append(events, GameEvent{
			Type:      "capture",
			PlayerID:  c.PlayerID,
			Message:   fmt.Sprintf("%s sent back to %d (%d pts)", c.PlayerID, c.NewPosition, c.ScoreDelta),
			Square:    c.NewPosition,
			Timestamp: now,
		})
	}

	if jump := turn.ChainedJump; jump != nil {
		events = append(events, GameEvent{
			Type:      "chain",
			PlayerID:  turn.PlayerID,
			Message:   fmt.Sprintf("Square effect %d -> %d", jump.From, jump.To),
			Square:    jump.To,
			Timestamp: now,
		})
	}

	if turn.Won {
		events = append(events, GameEvent{
			Type:      "victory",
			PlayerID:  turn.PlayerID,
			Message:   fmt.Sprintf("%s wins!", turn.PlayerID),
			Square:    turn.NewPosition,
			Timestamp: now,
		})
	}

	return events
}
