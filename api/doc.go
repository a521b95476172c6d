// Package api provides the HTTP REST API for the Game of Goose server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 - Create a game {board_id, humans, include_ai}
//   - GET    /api/sessions                 - List games (?sort=created|accessed&order=asc|desc&limit=N&board=ID)
//   - GET    /api/sessions/{id}            - Session details with state and board
//   - DELETE /api/sessions/{id}            - Delete a game
//
// Game Operations:
//   - GET  /api/sessions/{id}/state        - Current game state
//   - POST /api/sessions/{id}/roll         - Play a turn {die}; omit die to roll the session dice
//   - POST /api/sessions/{id}/reset        - Start the game over
//   - GET  /api/sessions/{id}/history      - Turn history (?page=&limit=&order=)
//   - POST /api/sessions/{id}/highscore    - Submit the winner's initials {initials}
//   - GET  /api/sessions/{id}/qr           - PNG QR code of the join URL
//
// Boards:
//   - GET  /api/boards                     - List built-in and file boards
//   - POST /api/boards                     - Save a board definition
//   - GET  /api/boards/{name}              - Board definition
//   - GET  /api/boards/{name}/layout       - Serpentine grid and square positions (?width=&height=)
//
// High Scores:
//   - GET    /api/highscores               - Top-10 table
//   - DELETE /api/highscores               - Restore the default table
//
// Other:
//   - GET /health                          - Liveness probe
//   - GET /ws?session={id}                 - WebSocket state stream
//
// Errors:
//
// Errors are returned as {"error": "message"}. Invalid input maps to 400,
// unknown sessions and boards to 404, rolling a finished game or an
// ineligible high-score submission to 409, anything else to 500.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, api.WithLogger(logger))
//	http.ListenAndServe(":8080", server)
package api
