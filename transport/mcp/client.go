package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/goose-game/game/engine"
	"github.com/wricardo/goose-game/game/highscore"
	"github.com/wricardo/goose-game/game/layout"
	"github.com/wricardo/goose-game/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Game of Goose",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game of Goose - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Be the first pawn to land exactly on the final square. Players take turns
rolling one die; ladders carry a pawn forward, snakes send it back.

AVAILABLE TOOLS:
- create_game: Start a game on a board with 1-4 players
- list_games / get_game: Inspect running games
- game_state: Current board, pawns and scores
- roll_die: Play the active player's turn
- reset_game: Start the same game over
- turn_history: Past turns, paginated
- list_boards: Boards that can be played
- high_scores / submit_high_score: The top-10 table
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Game session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game. Defaults to the easy board with one human player.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board_id": map[string]interface{}{
					"type":        "string",
					"description": "Board to play (see list_boards). Optional.",
				},
				"humans": map[string]interface{}{
					"type":        "integer",
					"description": "Number of human players, 1-4",
				},
				"include_ai": map[string]interface{}{
					"type":        "boolean",
					"description": "Add the AI player to the roster",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all active games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get details of a specific game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetGame)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board with pawns, scores and whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll_die",
		Description: "Roll the die for the active player and resolve the turn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"die": map[string]interface{}{
					"type":        "integer",
					"minimum":     engine.MinDie,
					"maximum":     engine.MaxDie,
					"description": "Force a die value (1-6). Omit to roll randomly.",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRollDie)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to its initial state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleResetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn history of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Turns per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	// Boards and scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List the boards available for new games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_scores",
		Description: "Show the top-10 high-score table",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHighScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_high_score",
		Description: "Record the winner's score of a finished game under up to three initials",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"initials": map[string]interface{}{
					"type":        "string",
					"description": "Up to three characters",
				},
			},
			Required: []string{"session_id", "initials"},
		},
	}, c.handleSubmitHighScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.CreateOptions{
		BoardID:   request.GetString("board_id", ""),
		Humans:    request.GetInt("humans", 0),
		IncludeAI: request.GetBool("include_ai", false),
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created game: %s\n\n%s",
		session.ID, formatSessionInfo(&session))), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Games (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.GameOver {
			status = "won by " + s.GameState.WinnerID
		}
		fmt.Fprintf(&b, "- %s (Board: %s, %s, Created: %s)\n",
			s.ID, s.BoardID, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

// handleGameState reads the session rather than /state so the board can be drawn
func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatGameState(session.GameState)
	if board := renderBoard(session.Board, session.GameState); board != "" {
		result = board + "\n" + result
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRollDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var body interface{}
	if die := request.GetInt("die", 0); die != 0 {
		body = map[string]int{"die": die}
	}

	var result service.RollResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/roll"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRollResult(&result)), nil
}

func (c *Client) handleResetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var boards []service.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/boards", nil, &boards); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Boards:\n\n")
	for _, board := range boards {
		kind := "custom"
		if board.Builtin {
			kind = "built-in"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Squares: %d, Columns: %d, Special squares: %d\n\n",
			board.BoardID, kind, board.Description, board.FinalSquare, board.Columns, board.SpecialCount)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleHighScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Scores []highscore.Entry `json:"scores"`
	}
	if err := c.apiCall(ctx, "GET", "/api/highscores", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHighScores(response.Scores)), nil
}

func (c *Client) handleSubmitHighScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	initials, err := request.RequireString("initials")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.HighScoreResult
	body := map[string]string{"initials": initials}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/highscore"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	switch {
	case result.Entry != nil && result.Ranked:
		fmt.Fprintf(&b, "Recorded %s with %d pts.\n\n", result.Entry.Initials, result.Entry.Score)
	case result.Entry != nil:
		fmt.Fprintf(&b, "%s with %d pts tied the lowest score and did not make the table.\n\n", result.Entry.Initials, result.Entry.Score)
	}
	b.WriteString(formatHighScores(result.Scores))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Game of Goose - Complete Instructions

GAME OBJECTIVE:
Be the first pawn to land exactly on the final square of the board.

TURN ORDER:
• Players J1..J4 play in seat order, then the AI player if it is in the game
• Every turn is one roll of a six-sided die (roll_die)
• The AI player does not move by itself: call roll_die for it too

MOVEMENT:
• The pawn advances by the die value
• Overshoot: passing the final square bounces the pawn back by the excess
  (final 47, on 45, roll 6 -> 43)
• Special squares move the pawn again: ladders forward, snakes backward.
  They only trigger when the pawn arrives moving forward
• A pawn relocated onto another special square moves once more, never
  further

CAPTURE:
• Landing on a square held by another pawn swaps the two: the other pawn
  goes back to where you came from

SCORING:
• Plain move: 3 pts per square advanced (a bounce can make it negative)
• Snake: 3 pts per square of the move that reached it
• Ladder: 3 pts x (die + ladder top - 9)
• Capture: you gain 6 pts per pip of the die, the other pawn loses 3 pts
  per pip
• Scores may go negative

BOARD LEGEND (game_state):
• Each cell reads: square number, marker, pawn
• ^ ladder foot   v snake head   * final square
• Square 1 is bottom-left; rows alternate direction upward
• Pawns on square 0 have not entered the board yet

VICTORY CONDITIONS:
• The first pawn to reach the final square wins and the game ends
• If the winner's score reaches the top-10 table, roll_die reports it;
  use submit_high_score with up to three initials (once per game)

SESSION MANAGEMENT:
• Several games can run at once, each with a 4-character ID
• reset_game restarts a game on the same board with the same players

Good luck, and mind the snakes!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	status := "in progress"
	if session.ScoreSubmitted {
		status = "finished, high score submitted"
	} else if session.GameState != nil && session.GameState.GameOver {
		status = "finished"
	}
	return fmt.Sprintf("Game: %s\nBoard: %s\nStatus: %s\nCreated: %s\n\n%s",
		session.ID, session.BoardID, status,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board: %s | Final square: %d | Turn: %d\n\n", state.BoardName, state.FinalSquare, state.Turn)

	b.WriteString("Players:\n")
	for i, p := range state.Players {
		marker := "  "
		if !state.GameOver && i == state.ActivePlayerIndex {
			marker = "▶ "
		}
		kind := "human"
		if !p.Human {
			kind = "AI"
		}
		fmt.Fprintf(&b, "%s%-2s %-6s %-5s square %3d, %d to go, score %d\n",
			marker, p.ID, p.Color, kind, p.Position, state.FinalSquare-p.Position, p.Score)
	}

	if state.GameOver {
		fmt.Fprintf(&b, "\n🎉 %s WINS!", state.WinnerID)
	} else if len(state.Players) > 0 && state.ActivePlayerIndex < len(state.Players) {
		fmt.Fprintf(&b, "\nNext to roll: %s", state.Players[state.ActivePlayerIndex].ID)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

// renderBoard draws the serpentine board with special squares and pawns.
// It returns "" when the board is missing or invalid.
func renderBoard(cfg *engine.BoardConfig, state *engine.GameState) string {
	if cfg == nil {
		return ""
	}
	board, err := engine.NewBoard(cfg)
	if err != nil {
		return ""
	}

	pawns := map[int]string{}
	if state != nil {
		for _, p := range state.Players {
			if p.Position > 0 {
				pawns[p.Position] = p.ID
			}
		}
	}

	var b strings.Builder
	for _, row := range layout.Grid(board.FinalSquare(), board.Columns()) {
		for i, sq := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			if sq == 0 {
				b.WriteString("      ")
				continue
			}
			mark := ' '
			if to, ok := board.Destination(sq); ok {
				mark = 'v'
				if to > sq {
					mark = '^'
				}
			} else if sq == board.FinalSquare() {
				mark = '*'
			}
			fmt.Fprintf(&b, "%3d%c%-2s", sq, mark, pawns[sq])
		}
		b.WriteByte('\n')
	}

	var jumps []string
	for _, j := range board.Ladders() {
		jumps = append(jumps, fmt.Sprintf("ladder %d->%d", j.From, j.To))
	}
	for _, j := range board.Snakes() {
		jumps = append(jumps, fmt.Sprintf("snake %d->%d", j.From, j.To))
	}
	if len(jumps) > 0 {
		b.WriteString(strings.Join(jumps, ", "))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatRollResult(result *service.RollResult) string {
	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	if result.Won && result.QualifiesForHighScore {
		b.WriteString("\nThis score makes the top 10! Use submit_high_score with the winner's initials.\n")
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d, Total: %d turns)\n\n",
		history.Page, history.TotalPages, history.TotalTurns)

	for _, turn := range history.Turns {
		fmt.Fprintf(&b, "#%d %s rolled %d: %d -> %d (%+d, total %d) %s\n",
			turn.Number, turn.Result.PlayerID, turn.Result.Die,
			turn.Result.From, turn.Result.NewPosition, turn.Result.ScoreDelta,
			turn.Score, turn.Message)
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore turns on page %d", history.Page+1)
	}

	return b.String()
}

func formatHighScores(scores []highscore.Entry) string {
	var b strings.Builder
	b.WriteString("High Scores:\n")
	for i, e := range scores {
		fmt.Fprintf(&b, "%2d. %-3s %6d\n", i+1, e.Initials, e.Score)
	}
	return b.String()
}
