// Package config provides board configuration management for the Game of Goose.
//
// The config package handles:
//   - Loading board definitions from JSON files
//   - Falling back to the built-in easy and hard levels
//   - Default board management
//   - Board discovery and listing
//
// Configuration Format:
//
// Boards are stored as JSON files in the configs directory:
//
//	{
//	  "name": "easy",
//	  "description": "Easy board: 47 squares, two ladders and two snakes",
//	  "level": "easy",
//	  "final_square": 47,
//	  "columns": 8,
//	  "special_moves": {"5": 14, "12": 7, "22": 33, "36": 28}
//	}
//
// A special move whose destination is higher than its trigger is a ladder,
// lower is a snake. Columns only affect how the board is drawn.
//
// Usage:
//
//	manager, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := manager.LoadConfig("hard")
//	boards, err := manager.ListConfigs()
//	def := manager.GetDefault()
//
// Every board is validated with engine.ValidateBoardConfig on load and
// before it is saved.
package config
