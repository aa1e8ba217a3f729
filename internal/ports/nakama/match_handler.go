package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"

	"ohhell/internal/app"
	"ohhell/internal/bot"
	"ohhell/internal/config"
	"ohhell/internal/domain"
	"ohhell/internal/ports"
)

var (
	errNotOwner  = errors.New("only the match owner may do that")
	errNotSeated = errors.New("sender is not seated in this match")
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Session         *app.Session                `json:"-"`
	Presences       map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging
	Usernames       map[string]string           `json:"usernames"`
	Owner           string                      `json:"owner"`
	Tick            int64                       `json:"tick"`
	Label           string                      `json:"label"`
	TurnSeconds     int                         `json:"turn_seconds"`
	ScoresSubmitted bool                        `json:"scores_submitted"`
	BotDelay        int                         `json:"bot_delay"`
	BotWaitUntil    int64                       `json:"bot_wait_until"`
	AbsentTurn      string                      `json:"absent_turn"`
	AbsentDeadline  int64                       `json:"absent_deadline"`
	Bots            map[string]*bot.Agent       `json:"-"`
	Config          *config.GameConfig          `json:"-"`
	Tickets         *app.TicketService          `json:"-"`
	Leaderboard     ports.LeaderboardPort       `json:"-"`
}

func newMatchState(svc *app.Service, seed string, cfg *config.GameConfig) (*MatchState, error) {
	sess, err := app.NewSession(svc, seed)
	if err != nil {
		return nil, err
	}
	return &MatchState{
		Session:     sess,
		Presences:   make(map[string]runtime.Presence),
		Usernames:   make(map[string]string),
		TurnSeconds: cfg.TurnSeconds(),
		BotDelay:    defaultBotDelay,
		Bots:        make(map[string]*bot.Agent),
		Config:      cfg,
	}, nil
}

// nextOwner returns the first connected player in turn order, or "" when none is connected.
func (ms *MatchState) nextOwner() string {
	for _, p := range ms.Session.Snapshot().Players {
		if _, ok := ms.Presences[p.ID]; ok {
			return p.ID
		}
	}
	return ""
}

// startCommand fills the table settings a client does not choose.
func (ms *MatchState) startCommand(req domain.StartGame, players int) domain.StartGame {
	sizes := req.HandSizes
	if len(sizes) == 0 {
		sizes = ms.Config.HandSizesFor(players)
	}
	rules := ms.Config.Scoring()
	return domain.StartGame{HandSizes: sizes, TurnSeconds: ms.TurnSeconds, Scoring: &rules}
}

func runtimeEnv(ctx context.Context) map[string]string {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	return env
}

func contextMatchID(ctx context.Context) string {
	id, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	return id
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return newMatchHandler(), nil
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	env := runtimeEnv(ctx)
	if path := env[EnvConfigPath]; path != "" {
		if err := config.LoadGameConfig(path); err != nil {
			logger.Warn("MatchInit: Could not load game config: %v", err)
		}
	}
	cfg := config.GetGameConfig()

	seed, _ := params["seed"].(string)
	svc := app.NewService(newZapLogger(logger).With(zap.String("match_id", contextMatchID(ctx))))
	state, err := newMatchState(svc, seed, cfg)
	if err != nil {
		logger.Error("MatchInit: Failed to create session: %v", err)
		return nil, 0, ""
	}

	if val, ok := env[EnvTurnSeconds]; ok {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			state.TurnSeconds = n
		} else {
			logger.Warn("MatchInit: Ignoring invalid %s=%q", EnvTurnSeconds, val)
		}
	}
	if val, ok := env[EnvBotDelay]; ok {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			state.BotDelay = n
		} else {
			logger.Warn("MatchInit: Ignoring invalid %s=%q", EnvBotDelay, val)
		}
	}
	state.Tickets = app.NewTicketService(env[EnvTicketSecret], time.Duration(cfg.TicketTTL())*time.Second)
	state.Leaderboard = NewNakamaLeaderboardAdapter(nk, cfg.Leaderboard())

	label, err := matchLabel(state.Session.Snapshot())
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.Label = label

	return state, TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	if matchState.Tickets.Enabled() {
		owner, err := matchState.Tickets.Verify(metadata[ticketMetadataKey], contextMatchID(ctx))
		if err != nil || owner != userID {
			logger.Warn("MatchJoinAttempt: Rejecting user %s: %v", userID, err)
			return state, false, "Invalid ticket"
		}
	}

	snap := matchState.Session.Snapshot()
	if snap.HasPlayer(userID) {
		return state, true, ""
	}
	if snap.Phase != domain.PhaseLobby {
		return state, false, "Match in progress"
	}
	if len(snap.Players) >= app.MaxPlayers {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p
		matchState.Usernames[userID] = p.GetUsername()

		if matchState.Session.Snapshot().HasPlayer(userID) {
			logger.Info("MatchJoin: User %s rejoined.", userID)
			continue
		}
		events, err := matchState.Session.Apply(domain.AddPlayer{PlayerID: userID, Kind: domain.KindHuman})
		if err != nil {
			logger.Warn("MatchJoin: Could not seat user %s: %v", userID, err)
			delete(matchState.Presences, userID)
			if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
				logger.Error("MatchJoin: Failed to kick %s: %v", userID, err)
			}
			continue
		}
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if _, ok := matchState.Presences[matchState.Owner]; !ok {
		matchState.Owner = matchState.nextOwner()
		logger.Debug("MatchJoin: Owner set to %s.", matchState.Owner)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.sendSnapshots(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match. Seated players keep
// their seat. Their cards run out on the turn timer and their bids are placed by
// standInForAbsentBidder.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		logger.Debug("MatchLeave: User %s left.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no connected players.")
		return nil
	}

	if _, ok := matchState.Presences[matchState.Owner]; !ok {
		matchState.Owner = matchState.nextOwner()
		logger.Debug("MatchLeave: Owner set to %s.", matchState.Owner)
	}

	mh.sendSnapshots(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg)
	}
	mh.processBots(matchState, dispatcher, logger)
	mh.standInForAbsentBidder(matchState, dispatcher, logger)

	// One loop tick is one second on the turn timer.
	if matchState.Session.Snapshot().Phase == domain.PhaseTrick {
		events, err := matchState.Session.Apply(domain.Tick{})
		if err != nil {
			logger.Error("MatchLoop: Tick failed: %v", err)
		} else {
			mh.broadcastEvents(matchState, dispatcher, logger, events)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	if matchState.Session.Snapshot().Terminal() && !matchState.ScoresSubmitted {
		mh.submitScores(ctx, matchState, logger)
	}

	return matchState
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	opCode := msg.GetOpCode()

	if opCode == OpAddBot {
		if err := mh.addBot(state, dispatcher, logger, senderID, msg.GetData()); err != nil {
			logger.Info("MatchLoop: User %s could not add a bot: %v", senderID, err)
			mh.sendError(state, dispatcher, logger, senderID, opCode, err)
		}
		return
	}

	cmd, err := decodeCommand(opCode, senderID, msg.GetData())
	if err != nil {
		logger.Warn("MatchLoop: Bad message from %s (op=%d): %v", senderID, opCode, err)
		mh.sendError(state, dispatcher, logger, senderID, opCode, err)
		return
	}

	snap := state.Session.Snapshot()
	if err := mh.authorize(state, snap, senderID, cmd); err != nil {
		logger.Warn("MatchLoop: User %s may not send %s: %v", senderID, cmd.Type(), err)
		mh.sendError(state, dispatcher, logger, senderID, opCode, err)
		return
	}
	if start, ok := cmd.(domain.StartGame); ok {
		cmd = state.startCommand(start, len(snap.Players))
	}

	events, err := state.Session.Apply(cmd)
	if err != nil {
		logger.Info("MatchLoop: User %s %s rejected: %v", senderID, cmd.Type(), err)
		mh.sendError(state, dispatcher, logger, senderID, opCode, err)
		return
	}
	mh.broadcastEvents(state, dispatcher, logger, events)
}

// addBot seats a bot agent at the owner's request.
func (mh *matchHandler) addBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, data []byte) error {
	if senderID != state.Owner {
		return errNotOwner
	}
	level, err := decodeAddBot(data)
	if err != nil {
		return err
	}

	snap := state.Session.Snapshot()
	botID := ""
	for n := len(state.Bots) + 1; botID == "" || snap.HasPlayer(botID); n++ {
		botID = fmt.Sprintf("bot-%d", n)
	}
	agent, err := bot.NewAgent(botID, level)
	if err != nil {
		return err
	}
	events, err := state.Session.Apply(domain.AddPlayer{PlayerID: botID, Kind: domain.KindBot})
	if err != nil {
		return err
	}

	state.Bots[botID] = agent
	state.Usernames[botID] = fmt.Sprintf("Bot %d (%s)", len(state.Bots), level)
	logger.Info("addBot: Added %s bot %s.", level, botID)
	mh.broadcastEvents(state, dispatcher, logger, events)
	mh.sendSnapshots(state, dispatcher, logger)
	return nil
}

// processBots lets the first bot with something to do act once its delay has passed.
func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if len(state.Bots) == 0 {
		return
	}

	snap := state.Session.Snapshot()
	var cmd domain.Command
	var actor string
	for _, p := range snap.Players {
		agent, ok := state.Bots[p.ID]
		if !ok {
			continue
		}
		if c, ok := agent.Act(snap); ok {
			cmd, actor = c, p.ID
			break
		}
	}
	if cmd == nil {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + int64(state.BotDelay)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	events, err := state.Session.Apply(cmd)
	if err != nil {
		logger.Error("processBots: Bot %s sent a refused %s: %v", actor, cmd.Type(), err)
		return
	}
	mh.broadcastEvents(state, dispatcher, logger, events)
}

// standInForAbsentBidder places the lowest legal bid for a disconnected human who has
// held the bidding turn for TurnSeconds loop ticks.
func (mh *matchHandler) standInForAbsentBidder(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snap := state.Session.Snapshot()
	_, connected := state.Presences[snap.Turn]
	_, isBot := state.Bots[snap.Turn]
	if snap.Phase != domain.PhaseBidding || connected || isBot {
		state.AbsentTurn, state.AbsentDeadline = "", 0
		return
	}

	if state.AbsentTurn != snap.Turn {
		state.AbsentTurn = snap.Turn
		state.AbsentDeadline = state.Tick + int64(state.TurnSeconds)
	}
	if state.Tick < state.AbsentDeadline {
		return
	}

	cmd, ok := (&bot.BasicBot{}).Decide(snap, snap.Turn)
	if !ok {
		return
	}
	state.AbsentTurn, state.AbsentDeadline = "", 0

	events, err := state.Session.Apply(cmd)
	if err != nil {
		logger.Error("standInForAbsentBidder: Bid for %s refused: %v", snap.Turn, err)
		return
	}
	logger.Info("standInForAbsentBidder: Placed a bid for absent user %s.", snap.Turn)
	mh.broadcastEvents(state, dispatcher, logger, events)
}

// authorize applies the seat rules the engine does not know about.
func (mh *matchHandler) authorize(state *MatchState, snap domain.GameState, senderID string, cmd domain.Command) error {
	if !snap.HasPlayer(senderID) {
		return errNotSeated
	}
	switch cmd.(type) {
	case domain.StartGame, domain.NextHand:
		if senderID != state.Owner {
			return errNotOwner
		}
	case domain.SetTrump:
		if snap.Phase == domain.PhaseBidding && senderID != snap.Leader() {
			return domain.ErrNotYourTurn
		}
	case domain.NextTurn:
		if snap.Phase == domain.PhaseTrick && senderID != snap.Turn {
			return domain.ErrNotYourTurn
		}
	}
	return nil
}

func (mh *matchHandler) submitScores(ctx context.Context, state *MatchState, logger runtime.Logger) {
	state.ScoresSubmitted = true
	if state.Leaderboard == nil {
		return
	}

	snap := state.Session.Snapshot()
	standings := domain.Standings(snap)
	records := make([]ports.ScoreRecord, 0, len(standings))
	for i, userID := range standings {
		if _, isBot := state.Bots[userID]; isBot {
			continue
		}
		records = append(records, ports.ScoreRecord{
			UserID:   userID,
			Username: state.Usernames[userID],
			Score:    int64(snap.Scores[userID]),
			Metadata: map[string]interface{}{
				"match_id": contextMatchID(ctx),
				"session":  state.Session.ID(),
				"rank":     i + 1,
				"players":  len(standings),
			},
		})
	}
	if err := state.Leaderboard.SubmitScores(ctx, records); err != nil {
		logger.Error("Failed to submit scores: %v", err)
		return
	}
	logger.Info("Submitted final scores for %d players.", len(records))
}

// broadcastEvents handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, ok := eventOpCodes[ev.Kind]
		if !ok {
			logger.Warn("Unknown event kind: %v", ev.Kind)
			continue
		}
		bytes, err := encodeFrame(ev.Payload)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		// Determine recipients (default to broadcast)
		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}
			// Private events for disconnected players must not fall back to a broadcast.
			if len(recipients) == 0 {
				continue
			}
		}

		if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
			logger.Error("Failed to send event %v: %v", ev.Kind, err)
		}
	}
}

// sendSnapshots sends every connected presence its own view of the match.
func (mh *matchHandler) sendSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snap := state.Session.Snapshot()
	connected := make([]string, 0, len(state.Presences))
	for _, p := range snap.Players {
		if _, ok := state.Presences[p.ID]; ok {
			connected = append(connected, p.ID)
		}
	}

	for userID, presence := range state.Presences {
		view, counts := viewFor(snap, userID)
		bytes, err := encodeFrame(snapshotFrame{State: view, HandCounts: counts, Owner: state.Owner, Connected: connected})
		if err != nil {
			logger.Error("Failed to marshal snapshot: %v", err)
			return
		}
		if err := dispatcher.BroadcastMessage(OpStateSnapshot, bytes, []runtime.Presence{presence}, nil, true); err != nil {
			logger.Error("Failed to send snapshot to %s: %v", userID, err)
		}
	}
}

// sendError sends an error frame to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, cause error) {
	bytes, err := encodeFrame(newErrorFrame(opCode, cause))
	if err != nil {
		logger.Error("Failed to marshal error frame: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send error to %s: %v", userID, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state.Session.Snapshot())
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.Label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.Label = label
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminating in %d seconds", graceSeconds)
	return state
}

// MatchSignal answers "snapshot" with the match state, every hand hidden.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok || data != "snapshot" {
		return state, ""
	}
	view, counts := viewFor(matchState.Session.Snapshot(), "")
	b, err := json.Marshal(snapshotFrame{State: view, HandCounts: counts, Owner: matchState.Owner})
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal snapshot: %v", err)
		return state, ""
	}
	return state, string(b)
}
