package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"ohhell/internal/app"
	"ohhell/internal/config"
	"ohhell/internal/domain"
)

// QuickMatchRequest is the optional RPC payload. Seed only applies when a new match is created.
type QuickMatchRequest struct {
	Seed string `json:"seed"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Ticket  string `json:"ticket,omitempty"`
}

// MatchFinder is the slice of runtime.NakamaModule quick_match needs.
type MatchFinder interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk, payload)
}

func quickMatch(ctx context.Context, logger runtime.Logger, nk MatchFinder, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req QuickMatchRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}

	// Find any lobby of our game that still has a free seat.
	query := fmt.Sprintf("+label.open:T +label.game:%s +label.phase:%s", GameLabel, domain.PhaseLobby)
	limit := 10
	authoritative := true
	minSize := 0
	maxSize := app.MaxPlayers - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	var resp QuickMatchResponse
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
	} else {
		params := map[string]interface{}{}
		if req.Seed != "" {
			params["seed"] = req.Seed
		}
		matchID, err := nk.MatchCreate(ctx, MatchNameOhHell, params)
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", err
		}
		resp.MatchID, resp.IsNew = matchID, true
	}

	ttl := time.Duration(config.GetGameConfig().TicketTTL()) * time.Second
	tickets := app.NewTicketService(runtimeEnv(ctx)[EnvTicketSecret], ttl)
	if tickets.Enabled() && userID != "" {
		ticket, err := tickets.Issue(userID, resp.MatchID)
		if err != nil {
			logger.Error("Ticket issue error: %v", err)
			return "", runtime.NewError("internal error", 13) // INTERNAL
		}
		resp.Ticket = ticket
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	logger.Info("quick_match [User:%s]: match %s (new=%t)", userID, resp.MatchID, resp.IsNew)
	return string(b), nil
}
