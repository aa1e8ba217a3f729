package ports

import "context"

// ScoreRecord is one player's final result in a finished match.
type ScoreRecord struct {
	UserID   string
	Username string
	Score    int64
	Metadata map[string]interface{}
}

// LeaderboardPort defines the interface for publishing final match scores.
type LeaderboardPort interface {
	// SubmitScores writes every record. It is called once per match, when the round ends.
	SubmitScores(ctx context.Context, records []ScoreRecord) error
}
