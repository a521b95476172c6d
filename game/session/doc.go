// Package session provides session management for the Game of Goose.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique 4-character session ID generation
//   - Optional JSON file persistence, one file per session
//   - Expiry of idle sessions from memory
//
// Core Types:
//
// Manager owns the in-memory sessions. Each service.Session carries its own
// engine, a snapshot of its board, the roster options it was created with and
// the dice it rolls with. FilePersistence stores a session together with its
// board snapshot so a saved game survives later edits to the board files.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence, session.WithLogger(logger))
//
//	sess, err := manager.Create("", "easy", board, engine.PlayerOptions{Humans: 2, IncludeAI: true})
//	sess, err = manager.Get(sess.ID)
//
// Restored sessions get fresh dice from the manager's DiceFactory; dice state
// is never persisted.
package session
