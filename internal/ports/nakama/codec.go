package nakama

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"ohhell/internal/app"
	"ohhell/internal/bot"
	"ohhell/internal/domain"
)

var errBadPayload = errors.New("malformed message payload")

var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:    OpPlayerJoined,
	app.EventGameStarted:     OpGameStarted,
	app.EventHandDealt:       OpHandDealt,
	app.EventBidPlaced:       OpBidPlaced,
	app.EventTrumpSet:        OpTrumpSet,
	app.EventBiddingComplete: OpBiddingComplete,
	app.EventCardPlayed:      OpCardPlayed,
	app.EventTrickWon:        OpTrickWon,
	app.EventTimerTicked:     OpTimerTicked,
	app.EventTurnChanged:     OpTurnChanged,
	app.EventHandScored:      OpHandScored,
	app.EventRoundEnded:      OpRoundEnded,
}

// decodeCommand maps a client message to an engine command. The sender always acts as
// itself: any player id in the payload is ignored.
func decodeCommand(opCode int64, sender string, data []byte) (domain.Command, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return nil, err
	}

	switch opCode {
	case OpStartGame:
		sizes, err := intList(fields["handSizes"])
		if err != nil {
			return nil, err
		}
		return domain.StartGame{HandSizes: sizes}, nil
	case OpPlaceBid:
		bid, err := intValue(fields["bid"])
		if err != nil {
			return nil, err
		}
		return domain.PlaceBid{PlayerID: sender, Bid: bid}, nil
	case OpSetTrump:
		return domain.SetTrump{Trump: domain.Suit(fields["trump"].GetStringValue())}, nil
	case OpPlayCard:
		card, err := domain.ParseCard(fields["card"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadPayload, err)
		}
		return domain.PlayCard{PlayerID: sender, Card: card}, nil
	case OpNextHand:
		return domain.NextHand{}, nil
	case OpNextTurn:
		return domain.NextTurn{}, nil
	default:
		return nil, fmt.Errorf("unknown opcode %d", opCode)
	}
}

// decodeAddBot reads the optional bot level of an ADD_BOT message.
func decodeAddBot(data []byte) (bot.BotLevel, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return 0, err
	}
	level, err := bot.ParseLevel(fields["level"].GetStringValue())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return level, nil
}

// decodeFields reads a JSON object payload. An empty payload has no fields.
func decodeFields(data []byte) (map[string]*structpb.Value, error) {
	if len(data) == 0 {
		return map[string]*structpb.Value{}, nil
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return s.GetFields(), nil
}

// intValue accepts integral numbers that fit in 32 bits.
func intValue(v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%w: expected an integer", errBadPayload)
	}
	if n.NumberValue < math.MinInt32 || n.NumberValue > math.MaxInt32 {
		return 0, fmt.Errorf("%w: integer out of range", errBadPayload)
	}
	return int(n.NumberValue), nil
}

func intList(v *structpb.Value) ([]int, error) {
	if v == nil {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected a list", errBadPayload)
	}
	out := make([]int, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		n, err := intValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// encodeFrame is the wire form of every server message.
func encodeFrame(v any) ([]byte, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeFrame reverses encodeFrame into plain Go values.
func decodeFrame(data []byte) (map[string]any, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}

// errorFrame describes a refused client message.
type errorFrame struct {
	OpCode int64  `json:"opCode"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func newErrorFrame(opCode int64, err error) errorFrame {
	frame := errorFrame{OpCode: opCode, Kind: "request", Reason: err.Error()}
	var r *domain.Rejection
	if errors.As(err, &r) {
		frame.Kind, frame.Reason = string(r.Kind), r.Reason
	}
	return frame
}

// snapshotFrame is the state a single presence is allowed to see.
type snapshotFrame struct {
	State      domain.GameState `json:"state"`
	HandCounts map[string]int   `json:"handCounts"`
	Owner      string           `json:"owner"`
	Connected  []string         `json:"connected"`
}

// viewFor hides every hand except viewer's. An empty viewer hides all hands.
func viewFor(s domain.GameState, viewer string) (domain.GameState, map[string]int) {
	view := s.Clone()
	counts := make(map[string]int, len(s.Hands))
	if s.Hands == nil {
		return view, counts
	}
	hands := view.Hands
	view.Hands = make(map[string][]domain.Card, 1)
	for id, hand := range hands {
		counts[id] = len(hand)
		if id == viewer {
			view.Hands[id] = hand
		}
	}
	return view, counts
}

// matchLabel is indexed by Nakama for quick_match queries.
func matchLabel(s domain.GameState) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":    GameLabel,
		"phase":   string(s.Phase),
		"open":    s.Phase == domain.PhaseLobby && len(s.Players) < app.MaxPlayers,
		"players": len(s.Players),
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
