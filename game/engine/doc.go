// Package engine provides the core rules of the Game of Goose.
//
// The engine package implements the game mechanics including:
//   - Board definitions: final square and special-square (ladder/snake) table
//   - Turn resolution: bounce-back, special squares, captures, chained jumps
//   - Score keeping and win detection
//   - Round-robin turn order
//
// Core Types:
//
// Board is an immutable, validated board built from a BoardConfig. ResolveTurn
// is a pure function of (state, player, die, board) returning a TurnResult;
// GameState.Apply writes a result into the state. GameEngine ties one board
// and one state together and is what the service layer drives.
//
// Usage:
//
//	gameEngine, err := engine.NewEngineForLevel(engine.LevelEasy, engine.PlayerOptions{Humans: 2, IncludeAI: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dice := engine.NewRandomDice(42)
//	result, err := gameEngine.RollWith(dice)
//	if result.Won {
//		winner := gameEngine.Winner()
//	}
//
// Game Rules:
//
// The active player moves forward by the die value. Overshooting the final
// square bounces the pawn back by the excess. Landing moving forward on a
// trigger square sends the pawn to its destination. Landing on an opponent
// swaps the two pawns and transfers points. The first pawn to stop exactly on
// the final square wins.
package engine
