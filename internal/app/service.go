package app

import (
	"go.uber.org/zap"

	"ohhell/internal/domain"
)

// Service contains Oh Hell use-cases operating on domain state.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a Service logging to logger, or discarding logs when nil.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger {
	return s.logger
}

// Apply runs cmd through the engine and reports what changed as events. A rejected
// command returns the unchanged state, no events and the rejection.
func (s *Service) Apply(state domain.GameState, cmd domain.Command) (domain.GameState, []Event, error) {
	next, err := domain.Apply(state, cmd)
	if err != nil {
		s.logger.Info("command rejected",
			zap.String("command", commandName(cmd)),
			zap.String("phase", string(state.Phase)),
			zap.Error(err))
		return state, nil, err
	}

	events := deriveEvents(state, next, cmd)
	if _, ticked := cmd.(domain.Tick); !ticked || next.Turn != state.Turn {
		s.logger.Debug("command applied",
			zap.String("command", commandName(cmd)),
			zap.String("phase", string(next.Phase)),
			zap.String("turn", next.Turn),
			zap.Int("events", len(events)))
	}
	return next, events, nil
}

func commandName(cmd domain.Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return string(cmd.Type())
}

// deriveEvents compares the states on either side of an accepted command.
func deriveEvents(prev, next domain.GameState, cmd domain.Command) []Event {
	var events []Event

	switch c := cmd.(type) {
	case domain.AddPlayer:
		p := next.Players[len(next.Players)-1]
		events = append(events, Event{
			Kind:    EventPlayerJoined,
			Payload: PlayerJoinedPayload{PlayerID: p.ID, Kind: p.Kind},
		})

	case domain.StartGame:
		ids := make([]string, 0, len(next.Players))
		for _, p := range next.Players {
			ids = append(ids, p.ID)
		}
		events = append(events, Event{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				Players:     ids,
				HandSizes:   next.HandSizes,
				TurnSeconds: next.TurnSeconds,
				Scoring:     next.Scoring,
			},
		})
		events = append(events, handDealtEvents(next)...)

	case domain.PlaceBid:
		payload := BidPlacedPayload{PlayerID: c.PlayerID, Bid: c.Bid}
		if next.Phase == domain.PhaseBidding {
			payload.NextTurn = next.Turn
		}
		events = append(events, Event{Kind: EventBidPlaced, Payload: payload})
		if next.Phase != domain.PhaseBidding {
			events = append(events, Event{
				Kind: EventBiddingComplete,
				Payload: BiddingCompletePayload{
					Bids:   next.Bids,
					Trump:  next.Trump,
					Leader: next.Leader(),
				},
			})
		}
		if next.Phase == domain.PhaseScoring {
			events = append(events, handScoredEvent(next))
		}

	case domain.SetTrump:
		events = append(events, Event{Kind: EventTrumpSet, Payload: TrumpSetPayload{Trump: next.Trump}})

	case domain.PlayCard, domain.Tick, domain.NextTurn:
		events = append(events, trickEvents(prev, next, cmd)...)

	case domain.NextHand:
		if next.Terminal() {
			events = append(events, Event{
				Kind: EventRoundEnded,
				Payload: RoundEndedPayload{
					Scores:    next.Scores,
					Standings: domain.Standings(next),
				},
			})
		} else {
			events = append(events, handDealtEvents(next)...)
		}
	}

	return events
}

// handDealtEvents emits one private event per player with their new hand.
func handDealtEvents(s domain.GameState) []Event {
	events := make([]Event, 0, len(s.Players))
	for _, p := range s.Players {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				PlayerID:   p.ID,
				RoundIndex: s.RoundIndex,
				Leader:     s.Leader(),
				Hand:       s.Hands[p.ID],
			},
			Recipients: []string{p.ID},
		})
	}
	return events
}

func handScoredEvent(s domain.GameState) Event {
	return Event{
		Kind: EventHandScored,
		Payload: HandScoredPayload{
			RoundIndex: s.RoundIndex,
			Bids:       s.Bids,
			TableWins:  s.TableWins,
			HandScores: s.HandScores,
			Scores:     s.Scores,
		},
	}
}

// trickEvents covers every command that can play a card or move the turn.
func trickEvents(prev, next domain.GameState, cmd domain.Command) []Event {
	var events []Event

	played := domain.CountCardsInPlay(next) < domain.CountCardsInPlay(prev)
	if played {
		var play domain.Play
		if next.Trick != nil {
			play = next.Trick.Plays[len(next.Trick.Plays)-1]
		} else {
			play = next.LastTrick.Plays[len(next.LastTrick.Plays)-1]
		}
		_, auto := cmd.(domain.Tick)
		events = append(events, Event{
			Kind:    EventCardPlayed,
			Payload: CardPlayedPayload{PlayerID: play.PlayerID, Card: play.Card, AutoPlayed: auto},
		})

		if next.Trick == nil {
			events = append(events, Event{
				Kind: EventTrickWon,
				Payload: TrickWonPayload{
					Winner:    next.LastTrick.Winner,
					Plays:     next.LastTrick.Plays,
					TableWins: next.TableWins,
				},
			})
		}
	}

	switch {
	case next.Phase == domain.PhaseScoring:
		events = append(events, handScoredEvent(next))
	case played || next.Turn != prev.Turn:
		events = append(events, Event{
			Kind:    EventTurnChanged,
			Payload: TurnChangedPayload{PreviousTurn: prev.Turn, Turn: next.Turn, Timer: next.Timer},
		})
	default:
		events = append(events, Event{
			Kind:    EventTimerTicked,
			Payload: TimerTickedPayload{Turn: next.Turn, Timer: next.Timer},
		})
	}
	return events
}
