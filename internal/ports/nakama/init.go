package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"ohhell/internal/config"
)

// InitModule wires RPCs, the match handler and the score leaderboard for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if path := runtimeEnv(ctx)[EnvConfigPath]; path != "" {
		if err := config.LoadGameConfig(path); err != nil {
			logger.Warn("Could not load game config: %v", err)
		}
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameOhHell, NewMatch); err != nil {
		return err
	}

	leaderboardID := config.GetGameConfig().Leaderboard()
	if err := nk.LeaderboardCreate(ctx, leaderboardID, true, "desc", "incr", "", nil, false); err != nil {
		logger.Warn("Could not create leaderboard %s: %v", leaderboardID, err)
	}

	logger.Info("Oh Hell Go module loaded.")
	return nil
}
