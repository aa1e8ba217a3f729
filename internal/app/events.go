package app

import "ohhell/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventGameStarted     EventKind = "game_started"
	EventHandDealt       EventKind = "hand_dealt"
	EventBidPlaced       EventKind = "bid_placed"
	EventTrumpSet        EventKind = "trump_set"
	EventBiddingComplete EventKind = "bidding_complete"
	EventCardPlayed      EventKind = "card_played"
	EventTrickWon        EventKind = "trick_won"
	EventTimerTicked     EventKind = "timer_ticked"
	EventTurnChanged     EventKind = "turn_changed"
	EventHandScored      EventKind = "hand_scored"
	EventRoundEnded      EventKind = "round_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	PlayerID string            `json:"playerId"`
	Kind     domain.PlayerKind `json:"kind"`
}

type GameStartedPayload struct {
	Players     []string            `json:"players"`
	HandSizes   []int               `json:"handSizes"`
	TurnSeconds int                 `json:"turnSeconds"`
	Scoring     domain.ScoringRules `json:"scoring"`
}

// HandDealtPayload is sent privately to the player holding Hand.
type HandDealtPayload struct {
	PlayerID   string        `json:"playerId"`
	RoundIndex int           `json:"roundIndex"`
	Leader     string        `json:"leader"`
	Hand       []domain.Card `json:"hand"`
}

type BidPlacedPayload struct {
	PlayerID string `json:"playerId"`
	Bid      int    `json:"bid"`
	NextTurn string `json:"nextTurn,omitempty"`
}

type TrumpSetPayload struct {
	Trump domain.Suit `json:"trump"`
}

type BiddingCompletePayload struct {
	Bids   map[string]int `json:"bids"`
	Trump  domain.Suit    `json:"trump"`
	Leader string         `json:"leader"`
}

// CardPlayedPayload reports a card laid on the table. AutoPlayed is set when the turn
// timer expired and the card was chosen for the player.
type CardPlayedPayload struct {
	PlayerID   string      `json:"playerId"`
	Card       domain.Card `json:"card"`
	AutoPlayed bool        `json:"autoPlayed"`
}

type TrickWonPayload struct {
	Winner    string         `json:"winner"`
	Plays     []domain.Play  `json:"plays"`
	TableWins map[string]int `json:"tableWins"`
}

type TimerTickedPayload struct {
	Turn  string `json:"turn"`
	Timer int    `json:"timer"`
}

type TurnChangedPayload struct {
	PreviousTurn string `json:"previousTurn"`
	Turn         string `json:"turn"`
	Timer        int    `json:"timer"`
}

type HandScoredPayload struct {
	RoundIndex int            `json:"roundIndex"`
	Bids       map[string]int `json:"bids"`
	TableWins  map[string]int `json:"tableWins"`
	HandScores map[string]int `json:"handScores"`
	Scores     map[string]int `json:"scores"`
}

type RoundEndedPayload struct {
	Scores    map[string]int `json:"scores"`
	Standings []string       `json:"standings"`
}
