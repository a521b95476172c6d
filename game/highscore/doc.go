// Package highscore keeps the persistent top-10 table of winning scores.
//
// The table always holds exactly TableSize entries, seeded with "---"
// placeholders worth 0 points. A score qualifies when it is at least as high
// as any entry on the table, ties included. Accepted entries are inserted in
// descending score order and the table is cut back to TableSize.
//
// FileStore persists the table as versioned JSON:
//
//	{"version": 1, "entries": [{"id": "...", "initials": "ABC", "score": 210, "recorded_at": "..."}]}
//
// A missing, unreadable or unknown-version file is never fatal: the store logs
// a warning and starts from the default table.
package highscore
