// Package websocket pushes Game of Goose state to browsers and other viewers.
//
// Architecture:
//
// A central Hub owns every connection, grouped by session ID. Each client gets
// a read goroutine (keeps the connection alive and notices disconnects) and a
// write goroutine (drains its send buffer and pings). Clients that cannot keep
// up are dropped.
//
// Message Protocol:
//
// The channel is push-only. Every frame is one JSON Message:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1b2", "event": "turn", "data": {...}}
//
// Events are state_update, turn, reset and game_won.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
//
// Cancelling the context passed to Run closes every connection.
package websocket
