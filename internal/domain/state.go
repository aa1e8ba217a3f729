package domain

import (
	"errors"
	"maps"
	"slices"
)

// Phase represents the lifecycle stage of a match.
type Phase string

const (
	// PhaseLobby indicates the match is waiting for players.
	PhaseLobby Phase = "lobby"
	// PhaseBidding indicates players are bidding on the current hand.
	PhaseBidding Phase = "bidding"
	// PhaseTrick indicates tricks are being played.
	PhaseTrick Phase = "trick"
	// PhaseScoring indicates the hand is over and has been scored.
	PhaseScoring Phase = "scoring"
	// PhaseRoundEnd indicates every configured hand has been played. Terminal.
	PhaseRoundEnd Phase = "round_end"
)

const (
	// MinPlayers is the fewest players a game can start with.
	MinPlayers = 2
	// MaxPlayers is the table capacity.
	MaxPlayers = 7
)

// PlayerKind distinguishes humans from bots. The engine treats both alike.
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindBot   PlayerKind = "bot"
)

// Player is a registered participant. Turn order is the order of registration.
type Player struct {
	ID   string     `json:"id"`
	Kind PlayerKind `json:"kind"`
}

// MissMode selects how a missed bid is scored.
type MissMode string

const (
	// MissZero awards nothing for a missed bid.
	MissZero MissMode = "zero"
	// MissWins awards one point per trick won on a missed bid.
	MissWins MissMode = "wins"
)

// ScoringRules parameterizes hand scoring.
type ScoringRules struct {
	ExactBonus int      `json:"exactBonus"`
	MissMode   MissMode `json:"missMode"`
}

// DefaultScoring is used when START_GAME carries no scoring rules.
var DefaultScoring = ScoringRules{ExactBonus: 10, MissMode: MissZero}

// Play is one card laid on the table.
type Play struct {
	PlayerID string `json:"playerId"`
	Card     Card   `json:"card"`
}

// Trick is the trick in progress.
type Trick struct {
	Leader string `json:"leader"`
	Plays  []Play `json:"plays"`
}

// LeadSuit returns the suit of the first card played, if any.
func (t *Trick) LeadSuit() (Suit, bool) {
	if t == nil || len(t.Plays) == 0 {
		return "", false
	}
	return t.Plays[0].Card.Suit, true
}

// CompletedTrick is a resolved trick kept for display.
type CompletedTrick struct {
	Plays  []Play `json:"plays"`
	Winner string `json:"winner"`
}

// GameState is the complete snapshot of a match. Values are never mutated in place by
// the engine: every accepted command yields a fresh copy.
type GameState struct {
	Phase       Phase          `json:"phase"`
	Players     []Player       `json:"players"`
	Turn        string         `json:"turn,omitempty"` // empty outside active phases
	RNGSeed     string         `json:"rngSeed"`
	TurnSeconds int            `json:"turnSeconds"`
	Timer       int            `json:"timer"`
	HandSizes   []int          `json:"handSizes"`
	RoundIndex  int            `json:"roundIndex"`
	LeadIndex   int            `json:"leadIndex"`
	Scoring     ScoringRules   `json:"scoring"`
	Scores      map[string]int `json:"scores"`
	Bids        map[string]int `json:"bids"`
	Trump       Suit           `json:"trump"`

	Hands     map[string][]Card `json:"hands,omitempty"`
	Trick     *Trick            `json:"trick,omitempty"`
	TableWins map[string]int    `json:"tableWins"`

	LastTrick  *CompletedTrick `json:"lastTrick,omitempty"`
	HandScores map[string]int  `json:"handScores,omitempty"`
}

// ErrEmptySeed is returned by NewGame for an empty seed.
var ErrEmptySeed = errors.New("rng seed must not be empty")

// NewGame returns the initial lobby state for seed.
func NewGame(seed string) (GameState, error) {
	if seed == "" {
		return GameState{}, ErrEmptySeed
	}
	return GameState{
		Phase:     PhaseLobby,
		Players:   []Player{},
		RNGSeed:   seed,
		Scoring:   DefaultScoring,
		Scores:    map[string]int{},
		Bids:      map[string]int{},
		Trump:     NoTrump,
		TableWins: map[string]int{},
	}, nil
}

// CurrentHandSize returns the number of cards per player in the hand in progress,
// or 0 when no hand is configured at RoundIndex.
func (s GameState) CurrentHandSize() int {
	if s.RoundIndex < 0 || s.RoundIndex >= len(s.HandSizes) {
		return 0
	}
	return s.HandSizes[s.RoundIndex]
}

// PlayerIndex returns the turn-order index of id, or -1.
func (s GameState) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether id is registered.
func (s GameState) HasPlayer(id string) bool {
	return s.PlayerIndex(id) >= 0
}

// Leader returns the player leading the current hand.
func (s GameState) Leader() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[s.LeadIndex%len(s.Players)].ID
}

// LastBidder returns the player seated immediately before the leader; their bid
// completes the round of bids.
func (s GameState) LastBidder() string {
	n := len(s.Players)
	if n == 0 {
		return ""
	}
	return s.Players[(s.LeadIndex%n+n-1)%n].ID
}

// Terminal reports whether the match is over.
func (s GameState) Terminal() bool {
	return s.Phase == PhaseRoundEnd
}

// Clone returns a deep copy of s.
func (s GameState) Clone() GameState {
	out := s
	out.Players = slices.Clone(s.Players)
	out.HandSizes = slices.Clone(s.HandSizes)
	out.Scores = maps.Clone(s.Scores)
	out.Bids = maps.Clone(s.Bids)
	out.TableWins = maps.Clone(s.TableWins)
	out.HandScores = maps.Clone(s.HandScores)
	if s.Hands != nil {
		out.Hands = make(map[string][]Card, len(s.Hands))
		for id, hand := range s.Hands {
			out.Hands[id] = slices.Clone(hand)
		}
	}
	if s.Trick != nil {
		out.Trick = &Trick{Leader: s.Trick.Leader, Plays: slices.Clone(s.Trick.Plays)}
	}
	if s.LastTrick != nil {
		out.LastTrick = &CompletedTrick{Winner: s.LastTrick.Winner, Plays: slices.Clone(s.LastTrick.Plays)}
	}
	return out
}

// credit adds n to id's entry in the tally *m, allocating the map when a decoded state
// left it nil.
func credit(m *map[string]int, id string, n int) {
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[id] += n
}
