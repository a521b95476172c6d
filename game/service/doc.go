// Package service provides the business logic layer for the Game of Goose.
//
// The service package implements:
//   - Multi-session game management
//   - Board loading, listing and saving
//   - Turn processing with scripted or random dice
//   - Paginated turn history
//   - The high-score submission flow
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages board loading and validation.
// HighScoreStore keeps the top-10 table.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and the
// game engine. It serializes every operation with one mutex, so the engine
// itself never sees concurrent calls.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs", logger)
//	scores := highscore.NewFileStore("highscores.json", logger)
//	gameService := service.NewGameService(sessionMgr, configMgr, scores, logger)
//
//	info, err := gameService.CreateSession(ctx, service.CreateOptions{BoardID: "hard", Humans: 2, IncludeAI: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Roll(ctx, info.ID, 0) // 0 rolls the session dice
//	if result.QualifiesForHighScore {
//		gameService.SubmitHighScore(ctx, info.ID, "ABC")
//	}
//
// High Scores:
//
// A roll that wins reports qualifies_for_high_score when the winner's score
// would enter the table. The client then decides whether to submit initials.
// Submission is accepted once per game; resetting the game allows it again.
package service
