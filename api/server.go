package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/wricardo/goose-game/game/config"
	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/layout"
	"github.com/wricardo/goose-game/game/service"
	"github.com/wricardo/goose-game/transport/websocket"
	"go.uber.org/zap"
)

const (
	qrSize            = 256
	defaultAreaWidth  = 800
	defaultAreaHeight = 600
	maxAreaSide       = 4096
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	logger    *zap.Logger
	publicURL string
	urlMu     sync.RWMutex
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for request failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublicURL sets the base URL encoded in join QR codes. Without it the
// request host is used.
func WithPublicURL(u string) Option {
	return func(s *Server) {
		s.publicURL = strings.TrimSuffix(u, "/")
	}
}

// NewServer creates a new API server. The hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// SetPublicURL changes the join URL base once a tunnel is up
func (s *Server) SetPublicURL(u string) {
	s.urlMu.Lock()
	s.publicURL = strings.TrimSuffix(u, "/")
	s.urlMu.Unlock()
}

// Router exposes the mux so other transports can mount on it
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/roll", s.handleRoll).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/highscore", s.handleSubmitHighScore).Methods("POST")
	api.HandleFunc("/sessions/{id}/qr", s.handleQRCode).Methods("GET")

	// Boards
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")
	api.HandleFunc("/boards", s.handleCreateBoard).Methods("POST")
	api.HandleFunc("/boards/{name}", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/boards/{name}/layout", s.handleBoardLayout).Methods("GET")

	// High scores
	api.HandleFunc("/highscores", s.handleListHighScores).Methods("GET")
	api.HandleFunc("/highscores", s.handleResetHighScores).Methods("DELETE")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument),
		errors.Is(err, engine.ErrInvalidBoard),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrGameOver),
		errors.Is(err, service.ErrNotEligible):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status and logs server faults
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respondError(w, status, err.Error())
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOptions
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if board := query.Get("board"); board != "" {
		filtered := sessions[:0]
		for _, session := range sessions {
			if session.BoardID == board {
				filtered = append(filtered, session)
			}
		}
		sessions = filtered
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	// A missing die rolls the session dice
	var req struct {
		Die int `json:"die"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Roll(r.Context(), sessionID, req.Die)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, result.GameState)
		s.hub.BroadcastEvent(sessionID, websocket.EventTurn, result.Turn)
		if result.Won {
			s.hub.BroadcastEvent(sessionID, websocket.EventGameWon, map[string]interface{}{
				"winner_id":                result.GameState.WinnerID,
				"qualifies_for_high_score": result.QualifiesForHighScore,
			})
		}
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
		s.hub.BroadcastEvent(sessionID, websocket.EventReset, nil)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: service.DefaultHistoryLimit,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetTurnHistory(r.Context(), sessionID, opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSubmitHighScore(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Initials string `json:"initials"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SubmitHighScore(r.Context(), sessionID, req.Initials)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// handleQRCode renders a PNG QR code pointing at the session's join URL
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	png, err := qrcode.Encode(s.joinURL(r, sessionID), qrcode.Medium, qrSize)
	if err != nil {
		s.respondServiceError(w, r, fmt.Errorf("failed to encode QR code: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// joinURL is the address a second screen opens to follow a session
func (s *Server) joinURL(r *http.Request, sessionID string) string {
	s.urlMu.RLock()
	base := s.publicURL
	s.urlMu.RUnlock()
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?session=" + url.QueryEscape(sessionID)
}

// Board Handlers

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, boards)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	board, err := s.service.LoadBoard(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var board engine.BoardConfig
	if err := json.NewDecoder(r.Body).Decode(&board); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if board.Name == "" {
		respondError(w, http.StatusBadRequest, "Board name is required")
		return
	}

	if err := s.service.SaveBoard(r.Context(), board.Name, &board); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Board saved successfully",
		"board_id": board.Name,
	})
}

// SquarePoint is the screen position of one square
type SquarePoint struct {
	Square int `json:"square"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// LayoutResponse describes how a board is drawn
type LayoutResponse struct {
	BoardID     string        `json:"board_id"`
	FinalSquare int           `json:"final_square"`
	Columns     int           `json:"columns"`
	Rows        int           `json:"rows"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Grid        [][]int       `json:"grid"`
	Points      []SquarePoint `json:"points"`
	Ladders     []engine.Jump `json:"ladders"`
	Snakes      []engine.Jump `json:"snakes"`
}

// handleBoardLayout returns the serpentine grid and the pixel centre of each
// square for a drawing area of ?width=&height= (800x600 by default)
func (s *Server) handleBoardLayout(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	width, err := areaSide(r.URL.Query().Get("width"), defaultAreaWidth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "width "+err.Error())
		return
	}
	height, err := areaSide(r.URL.Query().Get("height"), defaultAreaHeight)
	if err != nil {
		respondError(w, http.StatusBadRequest, "height "+err.Error())
		return
	}

	cfg, err := s.service.LoadBoard(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	board, err := engine.NewBoard(cfg)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	final, columns := board.FinalSquare(), board.Columns()
	area := image.Rect(0, 0, width, height)
	points := make([]SquarePoint, 0, final+1)
	for sq := 0; sq <= final; sq++ {
		p := layout.SquareToPoint(sq, final, columns, area)
		points = append(points, SquarePoint{Square: sq, X: p.X, Y: p.Y})
	}

	respondJSON(w, http.StatusOK, LayoutResponse{
		BoardID:     name,
		FinalSquare: final,
		Columns:     columns,
		Rows:        layout.Rows(final, columns),
		Width:       width,
		Height:      height,
		Grid:        layout.Grid(final, columns),
		Points:      points,
		Ladders:     board.Ladders(),
		Snakes:      board.Snakes(),
	})
}

func areaSide(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > maxAreaSide {
		return 0, fmt.Errorf("must be between 1 and %d", maxAreaSide)
	}
	return v, nil
}

// High Score Handlers

func (s *Server) handleListHighScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.service.HighScores(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
	})
}

func (s *Server) handleResetHighScores(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetHighScores(r.Context()); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "High scores reset",
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
