package bot

import (
	"ohhell/internal/domain"
)

// BasicBot bids the lowest legal value and plays the card the turn timer would pick.
type BasicBot struct{}

func (b *BasicBot) Decide(s domain.GameState, playerID string) (domain.Command, bool) {
	if s.Turn != playerID {
		return nil, false
	}
	switch s.Phase {
	case domain.PhaseBidding:
		bids := domain.LegalBids(s, playerID)
		if len(bids) == 0 {
			return nil, false
		}
		return domain.PlaceBid{PlayerID: playerID, Bid: bids[0]}, true
	case domain.PhaseTrick:
		card, ok := domain.AutoPlayCard(s, playerID)
		if !ok {
			return domain.NextTurn{}, true
		}
		return domain.PlayCard{PlayerID: playerID, Card: card}, true
	default:
		return nil, false
	}
}
