package domain

import (
	"encoding/json"
	"fmt"
)

// CommandType is the wire tag of a command.
type CommandType string

const (
	CmdAddPlayer CommandType = "ADD_PLAYER"
	CmdStartGame CommandType = "START_GAME"
	CmdPlaceBid  CommandType = "PLACE_BID"
	CmdSetTrump  CommandType = "SET_TRUMP"
	CmdPlayCard  CommandType = "PLAY_CARD"
	CmdTick      CommandType = "TICK"
	CmdNextTurn  CommandType = "NEXT_TURN"
	CmdNextHand  CommandType = "NEXT_HAND"
)

// Command is the closed set of inputs accepted by Apply.
type Command interface {
	Type() CommandType
	command()
}

// AddPlayer registers a player in the lobby. An empty Kind means human.
type AddPlayer struct {
	PlayerID string
	Kind     PlayerKind
}

// StartGame deals the first hand. A nil Scoring selects DefaultScoring.
type StartGame struct {
	HandSizes   []int
	TurnSeconds int
	Scoring     *ScoringRules
}

// PlaceBid records a player's bid for the current hand.
type PlaceBid struct {
	PlayerID string
	Bid      int
}

// SetTrump overwrites the trump suit while bidding.
type SetTrump struct {
	Trump Suit
}

// PlayCard plays a card into the current trick.
type PlayCard struct {
	PlayerID string
	Card     Card
}

// Tick advances the turn timer by one second.
type Tick struct{}

// NextTurn hands the turn to the next player without a play.
type NextTurn struct{}

// NextHand leaves Scoring for the next hand or the end of the round.
type NextHand struct{}

func (AddPlayer) Type() CommandType { return CmdAddPlayer }
func (StartGame) Type() CommandType { return CmdStartGame }
func (PlaceBid) Type() CommandType  { return CmdPlaceBid }
func (SetTrump) Type() CommandType  { return CmdSetTrump }
func (PlayCard) Type() CommandType  { return CmdPlayCard }
func (Tick) Type() CommandType      { return CmdTick }
func (NextTurn) Type() CommandType  { return CmdNextTurn }
func (NextHand) Type() CommandType  { return CmdNextHand }

func (AddPlayer) command() {}
func (StartGame) command() {}
func (PlaceBid) command()  {}
func (SetTrump) command()  {}
func (PlayCard) command()  {}
func (Tick) command()      {}
func (NextTurn) command()  {}
func (NextHand) command()  {}

// wireCommand is the JSON form of every command, tagged by type.
type wireCommand struct {
	Type        CommandType   `json:"type"`
	PlayerID    string        `json:"playerId,omitempty"`
	Kind        PlayerKind    `json:"kind,omitempty"`
	HandSizes   []int         `json:"handSizes,omitempty"`
	TurnSeconds int           `json:"turnSeconds,omitempty"`
	Scoring     *ScoringRules `json:"scoring,omitempty"`
	Bid         *int          `json:"bid,omitempty"`
	Trump       Suit          `json:"trump,omitempty"`
	Card        *Card         `json:"card,omitempty"`
}

// MarshalCommand encodes cmd in its tagged JSON form.
func MarshalCommand(cmd Command) ([]byte, error) {
	w := wireCommand{Type: cmd.Type()}
	switch c := cmd.(type) {
	case AddPlayer:
		w.PlayerID, w.Kind = c.PlayerID, c.Kind
	case StartGame:
		w.HandSizes, w.TurnSeconds, w.Scoring = c.HandSizes, c.TurnSeconds, c.Scoring
	case PlaceBid:
		bid := c.Bid
		w.PlayerID, w.Bid = c.PlayerID, &bid
	case SetTrump:
		w.Trump = c.Trump
	case PlayCard:
		card := c.Card
		w.PlayerID, w.Card = c.PlayerID, &card
	case Tick, NextTurn, NextHand:
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
	return json.Marshal(w)
}

// UnmarshalCommand decodes a tagged JSON command.
func UnmarshalCommand(data []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	switch w.Type {
	case CmdAddPlayer:
		return AddPlayer{PlayerID: w.PlayerID, Kind: w.Kind}, nil
	case CmdStartGame:
		return StartGame{HandSizes: w.HandSizes, TurnSeconds: w.TurnSeconds, Scoring: w.Scoring}, nil
	case CmdPlaceBid:
		if w.Bid == nil {
			return nil, fmt.Errorf("%s: missing bid", w.Type)
		}
		return PlaceBid{PlayerID: w.PlayerID, Bid: *w.Bid}, nil
	case CmdSetTrump:
		return SetTrump{Trump: w.Trump}, nil
	case CmdPlayCard:
		if w.Card == nil {
			return nil, fmt.Errorf("%s: missing card", w.Type)
		}
		return PlayCard{PlayerID: w.PlayerID, Card: *w.Card}, nil
	case CmdTick:
		return Tick{}, nil
	case CmdNextTurn:
		return NextTurn{}, nil
	case CmdNextHand:
		return NextHand{}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", w.Type)
	}
}
