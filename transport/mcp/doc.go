// Package mcp exposes the Game of Goose to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the JSON answer is rendered as text an agent can read.
//
// MCP Tools:
//   - create_game: Start a game {board_id, humans, include_ai}
//   - list_games: List active games
//   - get_game: Session details
//   - game_state: Text board with special squares and pawns, plus standings
//   - roll_die: Play the active player's turn {session_id, die?}
//   - reset_game: Restart a game
//   - turn_history: Paginated turn log
//   - list_boards: Boards available for new games
//   - high_scores: The top-10 table
//   - submit_high_score: Record a qualifying winner's initials
//   - game_instructions: Full rules
//
// Transport Modes:
//
// The same MCP server is served over stdio (server.ServeStdio) for local
// agents, or mounted on the HTTP server at /mcp.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
