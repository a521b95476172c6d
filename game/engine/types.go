package engine

// Level identifies one of the built-in boards
type Level string

const (
	LevelEasy Level = "easy"
	LevelHard Level = "hard"
)

// PawnColor is the rendering token of a pawn. The engine never interprets it.
type PawnColor string

const (
	Red    PawnColor = "red"
	Blue   PawnColor = "blue"
	Green  PawnColor = "green"
	Orange PawnColor = "orange"

	// Validation constants
	DieFaces        = 6
	MinDie          = 1
	MaxDie          = DieFaces
	MinPlayers      = 1
	MaxPlayers      = 4
	MinFinalSquare  = DieFaces
	MaxFinalSquare  = 400
	DefaultColumns  = 10
	PointsPerSquare = 3

	// LadderBaseOffset is subtracted from a ladder destination when scoring it.
	LadderBaseOffset = 9

	// AIPlayerID is the ID given to the non-human player
	AIPlayerID = "AI"
)

// PawnColors lists pawn colors in seat order
var PawnColors = []PawnColor{Red, Blue, Green, Orange}

// BoardConfig is the JSON form of a board definition
type BoardConfig struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Level        Level       `json:"level,omitempty"`
	FinalSquare  int         `json:"final_square"`
	Columns      int         `json:"columns,omitempty"`
	SpecialMoves map[int]int `json:"special_moves"`
}

// Player is one pawn on the board
type Player struct {
	ID       string    `json:"id"`
	Color    PawnColor `json:"color"`
	Position int       `json:"position"`
	Score    int       `json:"score"`
	Human    bool      `json:"human"`
}

// PlayerOptions describes the roster of a new game
type PlayerOptions struct {
	Humans    int  `json:"humans"`
	IncludeAI bool `json:"include_ai"`
}

// GameState represents the complete game state
type GameState struct {
	BoardName         string       `json:"board_name"`
	FinalSquare       int          `json:"final_square"`
	Players           []Player     `json:"players"`
	ActivePlayerIndex int          `json:"active_player_index"`
	Turn              int          `json:"turn"`
	LastDie           int          `json:"last_die,omitempty"`
	Message           string       `json:"message"`
	GameOver          bool         `json:"game_over"`
	WinnerID          string       `json:"winner_id,omitempty"`
	History           []TurnRecord `json:"history"`
}

// Jump is a relocation caused by a special square
type Jump struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Capture describes the pawn that was displaced by the active player
type Capture struct {
	PlayerID    string `json:"player_id"`
	NewPosition int    `json:"new_position"`
	ScoreDelta  int    `json:"score_delta"`
}

// TurnResult is everything a caller needs to update the state and narrate a turn
type TurnResult struct {
	PlayerID    string   `json:"player_id"`
	Die         int      `json:"die"`
	From        int      `json:"from"`
	Target      int      `json:"target"`
	Bounced     bool     `json:"bounced,omitempty"`
	SpecialJump *Jump    `json:"special_jump,omitempty"`
	NewPosition int      `json:"new_position"`
	ScoreDelta  int      `json:"score_delta"`
	Captured    *Capture `json:"captured,omitempty"`
	ChainedJump *Jump    `json:"chained_jump,omitempty"`
	Won         bool     `json:"won"`
}

// TurnRecord represents a single resolved turn in the game history
type TurnRecord struct {
	Number    int        `json:"number"`
	Result    TurnResult `json:"result"`
	Score     int        `json:"score"`
	Message   string     `json:"message"`
	Timestamp int64      `json:"timestamp"`
}
