package nakama

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"

	"ohhell/internal/ports"
)

// LeaderboardWriter is the slice of runtime.NakamaModule the leaderboard adapter needs.
type LeaderboardWriter interface {
	LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error)
}

// NakamaLeaderboardAdapter implements ports.LeaderboardPort using Nakama leaderboards.
type NakamaLeaderboardAdapter struct {
	nk            LeaderboardWriter
	leaderboardID string
}

// NewNakamaLeaderboardAdapter creates a new leaderboard adapter writing to leaderboardID.
func NewNakamaLeaderboardAdapter(nk LeaderboardWriter, leaderboardID string) *NakamaLeaderboardAdapter {
	return &NakamaLeaderboardAdapter{nk: nk, leaderboardID: leaderboardID}
}

// SubmitScores writes one leaderboard record per player.
func (a *NakamaLeaderboardAdapter) SubmitScores(ctx context.Context, records []ports.ScoreRecord) error {
	for _, r := range records {
		if r.UserID == "" {
			continue
		}
		if _, err := a.nk.LeaderboardRecordWrite(ctx, a.leaderboardID, r.UserID, r.Username, r.Score, 0, r.Metadata, nil); err != nil {
			return fmt.Errorf("failed to write leaderboard record for user %s: %w", r.UserID, err)
		}
	}
	return nil
}

var _ ports.LeaderboardPort = (*NakamaLeaderboardAdapter)(nil)
