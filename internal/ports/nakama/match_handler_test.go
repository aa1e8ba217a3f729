package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"ohhell/internal/app"
	"ohhell/internal/domain"
	"ohhell/internal/ports"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages []sentMessage
	labels   []string
	kicked   []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return md.BroadcastMessage(opCode, data, presences, sender, reliable)
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	for _, p := range presences {
		md.kicked = append(md.kicked, p.GetUserId())
	}
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labels = append(md.labels, label)
	return nil
}

func (md *mockDispatcher) withOpCode(op int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == op {
			out = append(out, m)
		}
	}
	return out
}

func (md *mockDispatcher) reset() {
	md.messages = nil
}

type testPresence struct {
	userID string
}

func (p testPresence) GetHidden() bool                   { return false }
func (p testPresence) GetPersistence() bool              { return false }
func (p testPresence) GetUsername() string               { return "name-" + p.userID }
func (p testPresence) GetStatus() string                 { return "" }
func (p testPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p testPresence) GetUserId() string                 { return p.userID }
func (p testPresence) GetSessionId() string              { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                 { return "node" }

type testMatchData struct {
	testPresence
	opCode int64
	data   []byte
}

func (d testMatchData) GetOpCode() int64      { return d.opCode }
func (d testMatchData) GetData() []byte       { return d.data }
func (d testMatchData) GetReliable() bool     { return true }
func (d testMatchData) GetReceiveTime() int64 { return 0 }

type mockLeaderboard struct {
	calls   int
	records []ports.ScoreRecord
}

func (ml *mockLeaderboard) SubmitScores(ctx context.Context, records []ports.ScoreRecord) error {
	ml.calls++
	ml.records = append(ml.records, records...)
	return nil
}

const testMatchID = "match-1.node"

func testContext(env map[string]string) context.Context {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	return context.WithValue(ctx, runtime.RUNTIME_CTX_MATCH_ID, testMatchID)
}

func newTestMatch(t *testing.T) *MatchState {
	t.Helper()
	state, err := newMatchState(app.NewService(nil), "handler-seed", nil)
	if err != nil {
		t.Fatalf("newMatchState error: %v", err)
	}
	return state
}

func joinAll(t *testing.T, h *matchHandler, state *MatchState, d *mockDispatcher, ids ...string) {
	t.Helper()
	presences := make([]runtime.Presence, 0, len(ids))
	for _, id := range ids {
		presences = append(presences, testPresence{userID: id})
	}
	if got := h.MatchJoin(testContext(nil), noopLogger{}, nil, nil, d, 0, state, presences); got != state {
		t.Fatalf("MatchJoin returned %v", got)
	}
}

func send(h *matchHandler, state *MatchState, d *mockDispatcher, sender string, op int64, payload string) {
	h.handleMessage(state, d, noopLogger{}, testMatchData{testPresence: testPresence{userID: sender}, opCode: op, data: []byte(payload)})
}

func decodeMessage(t *testing.T, m sentMessage) map[string]any {
	t.Helper()
	frame, err := decodeFrame(m.data)
	if err != nil {
		t.Fatalf("decodeFrame error: %v", err)
	}
	return frame
}

func lastError(t *testing.T, d *mockDispatcher) (map[string]any, string) {
	t.Helper()
	errs := d.withOpCode(OpError)
	if len(errs) == 0 {
		t.Fatalf("expected an error frame")
	}
	m := errs[len(errs)-1]
	if len(m.presences) != 1 {
		t.Fatalf("error frame sent to %d presences, want 1", len(m.presences))
	}
	return decodeMessage(t, m), m.presences[0].GetUserId()
}

// biddingDone plays every bid with the first legal value.
func biddingDone(t *testing.T, h *matchHandler, state *MatchState, d *mockDispatcher) {
	t.Helper()
	for snap := state.Session.Snapshot(); snap.Phase == domain.PhaseBidding; snap = state.Session.Snapshot() {
		bid := domain.LegalBids(snap, snap.Turn)[0]
		send(h, state, d, snap.Turn, OpPlaceBid, fmt.Sprintf(`{"bid":%d}`, bid))
	}
}

func TestMatchInit(t *testing.T) {
	h := newMatchHandler()
	ctx := testContext(map[string]string{EnvTurnSeconds: "7"})

	raw, tickRate, label := h.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{"seed": "fixed"})
	state, ok := raw.(*MatchState)
	if !ok {
		t.Fatalf("MatchInit state = %T", raw)
	}
	if tickRate != TickRate {
		t.Fatalf("tick rate = %d, want %d", tickRate, TickRate)
	}
	if state.TurnSeconds != 7 {
		t.Fatalf("TurnSeconds = %d, want 7", state.TurnSeconds)
	}
	if got := state.Session.Snapshot().RNGSeed; got != "fixed" {
		t.Fatalf("seed = %q, want fixed", got)
	}
	if state.Tickets.Enabled() {
		t.Fatalf("tickets should be disabled without a secret")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(label), &fields); err != nil {
		t.Fatalf("label is not JSON: %v", err)
	}
	if fields["game"] != GameLabel || fields["open"] != true || fields["phase"] != "lobby" || fields["players"] != float64(0) {
		t.Fatalf("unexpected label %s", label)
	}

	raw, _, _ = h.MatchInit(testContext(map[string]string{EnvTurnSeconds: "soon"}), noopLogger{}, nil, nil, nil)
	state = raw.(*MatchState)
	if state.TurnSeconds <= 0 {
		t.Fatalf("invalid env should keep the default turn length, got %d", state.TurnSeconds)
	}
	if state.Session.Snapshot().RNGSeed != state.Session.ID() {
		t.Fatalf("missing seed should default to the session id")
	}
}

func TestMatchJoinSeatsPlayers(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)

	joinAll(t, h, state, d, "u1", "u2")

	snap := state.Session.Snapshot()
	if len(snap.Players) != 2 || snap.Players[0].ID != "u1" || snap.Players[1].ID != "u2" {
		t.Fatalf("players = %+v", snap.Players)
	}
	if state.Owner != "u1" {
		t.Fatalf("owner = %q, want u1", state.Owner)
	}
	if len(d.withOpCode(OpPlayerJoined)) != 2 {
		t.Fatalf("expected two player_joined events")
	}
	if len(d.labels) != 1 {
		t.Fatalf("labels = %v", d.labels)
	}
	var label map[string]any
	if err := json.Unmarshal([]byte(d.labels[0]), &label); err != nil || label["players"] != float64(2) {
		t.Fatalf("label = %s (%v)", d.labels[0], err)
	}

	snapshots := d.withOpCode(OpStateSnapshot)
	if len(snapshots) != 2 {
		t.Fatalf("snapshots = %d, want one per presence", len(snapshots))
	}
	frame := decodeMessage(t, snapshots[0])
	if frame["owner"] != "u1" {
		t.Fatalf("snapshot owner = %v", frame["owner"])
	}

	// Rejoining does not register twice.
	joinAll(t, h, state, d, "u2")
	if n := len(state.Session.Snapshot().Players); n != 2 {
		t.Fatalf("players after rejoin = %d, want 2", n)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	ctx := testContext(nil)

	attempt := func(state *MatchState, user string, metadata map[string]string) (bool, string) {
		_, ok, reason := h.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 0, state, testPresence{userID: user}, metadata)
		return ok, reason
	}

	t.Run("lobby accepts", func(t *testing.T) {
		if ok, reason := attempt(newTestMatch(t), "u1", nil); !ok {
			t.Fatalf("rejected: %s", reason)
		}
	})

	t.Run("full table rejects", func(t *testing.T) {
		state := newTestMatch(t)
		for i := range app.MaxPlayers {
			if _, err := state.Session.Apply(domain.AddPlayer{PlayerID: fmt.Sprintf("p%d", i)}); err != nil {
				t.Fatalf("AddPlayer error: %v", err)
			}
		}
		if ok, reason := attempt(state, "late", nil); ok || reason != "Match full" {
			t.Fatalf("attempt = %t %q, want Match full", ok, reason)
		}
	})

	t.Run("running match only admits seated players", func(t *testing.T) {
		state := newTestMatch(t)
		joinAll(t, h, state, d, "u1", "u2")
		send(h, state, d, "u1", OpStartGame, "")
		if ok, reason := attempt(state, "u3", nil); ok || reason != "Match in progress" {
			t.Fatalf("attempt = %t %q, want Match in progress", ok, reason)
		}
		if ok, reason := attempt(state, "u2", nil); !ok {
			t.Fatalf("rejoin rejected: %s", reason)
		}
	})

	t.Run("tickets", func(t *testing.T) {
		state := newTestMatch(t)
		state.Tickets = app.NewTicketService("secret", time.Minute)
		ticket, err := state.Tickets.Issue("u1", testMatchID)
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		if ok, _ := attempt(state, "u1", nil); ok {
			t.Fatalf("missing ticket accepted")
		}
		if ok, _ := attempt(state, "u2", map[string]string{ticketMetadataKey: ticket}); ok {
			t.Fatalf("ticket accepted for another user")
		}
		if ok, reason := attempt(state, "u1", map[string]string{ticketMetadataKey: ticket}); !ok {
			t.Fatalf("valid ticket rejected: %s", reason)
		}
	})
}

func TestStartGame(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	state.TurnSeconds = 9
	joinAll(t, h, state, d, "u1", "u2", "u3")
	d.reset()

	send(h, state, d, "u2", OpStartGame, "")
	frame, to := lastError(t, d)
	if to != "u2" || frame["reason"] != errNotOwner.Error() {
		t.Fatalf("error frame %v to %s", frame, to)
	}
	if state.Session.Snapshot().Phase != domain.PhaseLobby {
		t.Fatalf("non-owner started the game")
	}

	send(h, state, d, "u1", OpStartGame, `{"handSizes":[2,3]}`)
	snap := state.Session.Snapshot()
	if snap.Phase != domain.PhaseBidding || snap.TurnSeconds != 9 {
		t.Fatalf("phase=%s turnSeconds=%d", snap.Phase, snap.TurnSeconds)
	}
	if len(snap.HandSizes) != 2 || snap.Scoring != domain.DefaultScoring {
		t.Fatalf("unexpected settings: %v %+v", snap.HandSizes, snap.Scoring)
	}

	dealt := d.withOpCode(OpHandDealt)
	if len(dealt) != 3 {
		t.Fatalf("hand_dealt messages = %d, want 3", len(dealt))
	}
	for _, m := range dealt {
		if len(m.presences) != 1 {
			t.Fatalf("hand_dealt must be private, sent to %d presences", len(m.presences))
		}
		payload := decodeMessage(t, m)
		if payload["playerId"] != m.presences[0].GetUserId() {
			t.Fatalf("hand for %v sent to %s", payload["playerId"], m.presences[0].GetUserId())
		}
		if hand := payload["hand"].([]any); len(hand) != 2 {
			t.Fatalf("hand size = %d, want 2", len(hand))
		}
	}
	if len(d.withOpCode(OpGameStarted)) != 1 {
		t.Fatalf("expected one game_started broadcast")
	}
}

func TestStartGameUsesDefaultHandSizes(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2", "u3", "u4")

	send(h, state, d, "u1", OpStartGame, "")
	if got := state.Session.Snapshot().HandSizes; len(got) != 19 || got[9] != 10 {
		t.Fatalf("hand sizes = %v", got)
	}
}

func TestSenderActsAsItself(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[3]}`)

	send(h, state, d, "u1", OpPlaceBid, `{"bid":1,"playerId":"u2"}`)
	snap := state.Session.Snapshot()
	if bid, ok := snap.Bids["u1"]; !ok || bid != 1 {
		t.Fatalf("bids = %v, want u1 -> 1", snap.Bids)
	}
	if _, ok := snap.Bids["u2"]; ok {
		t.Fatalf("payload player id must be ignored")
	}

	d.reset()
	send(h, state, d, "u1", OpPlaceBid, `{"bid":0}`)
	frame, to := lastError(t, d)
	if to != "u1" || frame["kind"] != string(domain.KindTurn) {
		t.Fatalf("error frame %v to %s", frame, to)
	}

	send(h, state, d, "u2", OpPlaceBid, `{"bid":"two"}`)
	frame, to = lastError(t, d)
	if to != "u2" || frame["kind"] != "request" {
		t.Fatalf("error frame %v to %s", frame, to)
	}

	send(h, state, d, "stranger", OpPlaceBid, `{"bid":0}`)
	if len(d.withOpCode(OpError)) != 2 {
		t.Fatalf("errors for unknown presences are dropped")
	}
}

func TestSetTrumpOnlyByLeader(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[3]}`)

	send(h, state, d, "u2", OpSetTrump, `{"trump":"♥"}`)
	if frame, _ := lastError(t, d); frame["kind"] != string(domain.KindTurn) {
		t.Fatalf("error frame = %v", frame)
	}
	send(h, state, d, "u1", OpSetTrump, `{"trump":"♥"}`)
	if got := state.Session.Snapshot().Trump; got != domain.Hearts {
		t.Fatalf("trump = %s, want ♥", got)
	}
	if len(d.withOpCode(OpTrumpSet)) != 1 {
		t.Fatalf("expected one trump_set event")
	}
}

func TestMatchLoopRunsTurnTimer(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	state.TurnSeconds = 2
	joinAll(t, h, state, d, "u1", "u2")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[2]}`)
	biddingDone(t, h, state, d)
	d.reset()

	loop := func() {
		if got := h.MatchLoop(testContext(nil), noopLogger{}, nil, nil, d, 1, state, nil); got != state {
			t.Fatalf("MatchLoop returned %v", got)
		}
	}

	loop()
	if len(d.withOpCode(OpTimerTicked)) != 1 || len(d.withOpCode(OpCardPlayed)) != 0 {
		t.Fatalf("first tick should only count down")
	}
	loop()
	played := d.withOpCode(OpCardPlayed)
	if len(played) != 1 {
		t.Fatalf("second tick should auto-play, got %d plays", len(played))
	}
	if payload := decodeMessage(t, played[0]); payload["autoPlayed"] != true || payload["playerId"] != "u1" {
		t.Fatalf("card_played = %v", payload)
	}
	if snap := state.Session.Snapshot(); snap.Turn != "u2" || snap.Timer != 2 {
		t.Fatalf("turn=%s timer=%d", snap.Turn, snap.Timer)
	}
}

func TestRoundEndSubmitsScoresOnce(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	board := &mockLeaderboard{}
	state := newTestMatch(t)
	state.Leaderboard = board
	state.TurnSeconds = 1
	joinAll(t, h, state, d, "u1", "u2")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[1,2]}`)

	ctx := testContext(nil)
	for i := 0; i < 100 && !state.Session.Snapshot().Terminal(); i++ {
		switch state.Session.Snapshot().Phase {
		case domain.PhaseBidding:
			biddingDone(t, h, state, d)
		case domain.PhaseScoring:
			send(h, state, d, "u2", OpNextHand, "")
			send(h, state, d, "u1", OpNextHand, "")
		}
		h.MatchLoop(ctx, noopLogger{}, nil, nil, d, int64(i), state, nil)
	}
	h.MatchLoop(ctx, noopLogger{}, nil, nil, d, 101, state, nil)

	snap := state.Session.Snapshot()
	if !snap.Terminal() {
		t.Fatalf("match did not finish, phase %s", snap.Phase)
	}
	if board.calls != 1 || len(board.records) != 2 {
		t.Fatalf("leaderboard calls=%d records=%d", board.calls, len(board.records))
	}
	first := board.records[0]
	if first.UserID != domain.Standings(snap)[0] || first.Score != int64(snap.Scores[first.UserID]) {
		t.Fatalf("unexpected record %+v", first)
	}
	if first.Username != "name-"+first.UserID || first.Metadata["rank"] != 1 || first.Metadata["match_id"] != testMatchID {
		t.Fatalf("unexpected record metadata %+v", first)
	}
	if len(d.withOpCode(OpRoundEnded)) != 1 || len(d.withOpCode(OpHandScored)) != 2 {
		t.Fatalf("round_ended=%d hand_scored=%d", len(d.withOpCode(OpRoundEnded)), len(d.withOpCode(OpHandScored)))
	}
	if errs := d.withOpCode(OpError); len(errs) != 2 {
		t.Fatalf("non-owner NEXT_HAND should be refused once per hand, got %d errors", len(errs))
	}
}

func TestMatchLeave(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2")
	ctx := testContext(nil)

	got := h.MatchLeave(ctx, noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{testPresence{userID: "u1"}})
	if got != state {
		t.Fatalf("MatchLeave returned %v", got)
	}
	if state.Owner != "u2" {
		t.Fatalf("owner = %q, want u2", state.Owner)
	}
	if len(state.Session.Snapshot().Players) != 2 {
		t.Fatalf("leaving keeps the seat")
	}

	if got := h.MatchLeave(ctx, noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{testPresence{userID: "u2"}}); got != nil {
		t.Fatalf("empty match should terminate")
	}
}

func TestMatchJoinKicksWhenSeatingFails(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	for i := range app.MaxPlayers {
		if _, err := state.Session.Apply(domain.AddPlayer{PlayerID: fmt.Sprintf("p%d", i)}); err != nil {
			t.Fatalf("AddPlayer error: %v", err)
		}
	}

	joinAll(t, h, state, d, "late")
	if len(d.kicked) != 1 || d.kicked[0] != "late" {
		t.Fatalf("kicked = %v", d.kicked)
	}
	if _, ok := state.Presences["late"]; ok {
		t.Fatalf("kicked presence still tracked")
	}
}

func TestMatchSignalSnapshot(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[4]}`)

	_, out := h.MatchSignal(testContext(nil), noopLogger{}, nil, nil, d, 0, state, "snapshot")
	var frame struct {
		State      domain.GameState `json:"state"`
		HandCounts map[string]int   `json:"handCounts"`
	}
	if err := json.Unmarshal([]byte(out), &frame); err != nil {
		t.Fatalf("signal output is not a snapshot: %v", err)
	}
	if len(frame.State.Hands) != 0 {
		t.Fatalf("signal snapshot leaked hands: %v", frame.State.Hands)
	}
	if frame.HandCounts["u1"] != 4 || frame.HandCounts["u2"] != 4 {
		t.Fatalf("hand counts = %v", frame.HandCounts)
	}

	if _, out := h.MatchSignal(testContext(nil), noopLogger{}, nil, nil, d, 0, state, "other"); out != "" {
		t.Fatalf("unknown signal answered %q", out)
	}
}

func TestErrorFrameKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{err: domain.ErrForbiddenBid, kind: "rule"},
		{err: domain.ErrWrongPhase, kind: "phase"},
		{err: errNotOwner, kind: "request"},
		{err: fmt.Errorf("wrapped: %w", domain.ErrTableFull), kind: "capacity"},
		{err: errors.New("boom"), kind: "request"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := newErrorFrame(OpPlaceBid, tt.err); got.Kind != tt.kind || got.OpCode != OpPlaceBid {
				t.Fatalf("newErrorFrame() = %+v, want kind %s", got, tt.kind)
			}
		})
	}
}

func TestAddBot(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	joinAll(t, h, state, d, "u1", "u2")
	d.reset()

	send(h, state, d, "u2", OpAddBot, "")
	if frame, _ := lastError(t, d); frame["reason"] != errNotOwner.Error() {
		t.Fatalf("error frame = %v", frame)
	}
	send(h, state, d, "u1", OpAddBot, `{"level":"genius"}`)
	if frame, _ := lastError(t, d); frame["kind"] != "request" {
		t.Fatalf("error frame = %v", frame)
	}

	send(h, state, d, "u1", OpAddBot, `{"level":"basic"}`)
	snap := state.Session.Snapshot()
	if len(snap.Players) != 3 || snap.Players[2].ID != "bot-1" || snap.Players[2].Kind != domain.KindBot {
		t.Fatalf("players = %+v", snap.Players)
	}
	if agent := state.Bots["bot-1"]; agent == nil || agent.Level.String() != "basic" {
		t.Fatalf("bots = %v", state.Bots)
	}
	if len(d.withOpCode(OpPlayerJoined)) != 1 {
		t.Fatalf("expected a player_joined event for the bot")
	}

	send(h, state, d, "u1", OpAddBot, "")
	if _, ok := state.Bots["bot-2"]; !ok {
		t.Fatalf("second bot not seated: %v", state.Bots)
	}
}

func TestBotsActAfterDelay(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	state.BotDelay = 2
	joinAll(t, h, state, d, "u1")
	send(h, state, d, "u1", OpAddBot, `{"level":"basic"}`)
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[2]}`)
	send(h, state, d, "u1", OpPlaceBid, `{"bid":1}`)

	ctx := testContext(nil)
	for tick := int64(1); tick <= 2; tick++ {
		h.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, state, nil)
		if _, ok := state.Session.Snapshot().Bids["bot-1"]; ok {
			t.Fatalf("bot bid at tick %d before its delay", tick)
		}
	}
	h.MatchLoop(ctx, noopLogger{}, nil, nil, d, 3, state, nil)

	snap := state.Session.Snapshot()
	if bid, ok := snap.Bids["bot-1"]; !ok || bid != 0 {
		t.Fatalf("bids = %v, want bot-1 -> 0", snap.Bids)
	}
	if snap.Phase != domain.PhaseTrick || snap.Turn != "u1" {
		t.Fatalf("phase=%s turn=%s", snap.Phase, snap.Turn)
	}
}

func TestScoresSkipBots(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	board := &mockLeaderboard{}
	state := newTestMatch(t)
	state.Leaderboard = board
	state.BotDelay = 0
	state.TurnSeconds = 1
	joinAll(t, h, state, d, "u1")
	send(h, state, d, "u1", OpAddBot, `{"level":"smart"}`)
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[1]}`)

	ctx := testContext(nil)
	for tick := int64(1); tick < 50 && !state.Session.Snapshot().Terminal(); tick++ {
		switch snap := state.Session.Snapshot(); {
		case snap.Phase == domain.PhaseBidding && snap.Turn == "u1":
			send(h, state, d, "u1", OpPlaceBid, fmt.Sprintf(`{"bid":%d}`, domain.LegalBids(snap, "u1")[0]))
		case snap.Phase == domain.PhaseScoring:
			send(h, state, d, "u1", OpNextHand, "")
		}
		h.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, state, nil)
	}

	if !state.Session.Snapshot().Terminal() {
		t.Fatalf("match did not finish")
	}
	if board.calls != 1 || len(board.records) != 1 || board.records[0].UserID != "u1" {
		t.Fatalf("records = %+v", board.records)
	}
}

func TestAbsentBidderIsStoodIn(t *testing.T) {
	h := newMatchHandler()
	d := &mockDispatcher{}
	state := newTestMatch(t)
	state.TurnSeconds = 2
	joinAll(t, h, state, d, "u1", "u2", "u3")
	send(h, state, d, "u1", OpStartGame, `{"handSizes":[2]}`)
	send(h, state, d, "u1", OpPlaceBid, `{"bid":1}`)

	ctx := testContext(nil)
	if got := h.MatchLeave(ctx, noopLogger{}, nil, nil, d, 0, state, []runtime.Presence{testPresence{userID: "u2"}}); got != state {
		t.Fatalf("MatchLeave returned %v", got)
	}
	d.reset()

	for tick := int64(1); tick <= 2; tick++ {
		h.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, state, nil)
		if _, ok := state.Session.Snapshot().Bids["u2"]; ok {
			t.Fatalf("absent bid placed at tick %d before the turn ran out", tick)
		}
	}
	h.MatchLoop(ctx, noopLogger{}, nil, nil, d, 3, state, nil)

	snap := state.Session.Snapshot()
	if bid, ok := snap.Bids["u2"]; !ok || bid != 0 {
		t.Fatalf("bids = %v, want u2 -> 0", snap.Bids)
	}
	if snap.Turn != "u3" {
		t.Fatalf("turn = %s, want u3", snap.Turn)
	}
	if len(d.withOpCode(OpBidPlaced)) != 1 {
		t.Fatalf("expected one bid_placed event for the absent player")
	}

	// Connected bidders are never stood in for.
	for tick := int64(4); tick <= 10; tick++ {
		h.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, state, nil)
	}
	if _, ok := state.Session.Snapshot().Bids["u3"]; ok {
		t.Fatalf("connected bidder u3 was stood in for")
	}
}
