package bot

import (
	"ohhell/internal/domain"
)

// SmartBot bids what its high cards should take, names its longest suit as trump when it
// leads, then plays to land exactly on its bid.
type SmartBot struct {
	Tuning Tuning
}

func (b *SmartBot) Decide(s domain.GameState, playerID string) (domain.Command, bool) {
	switch s.Phase {
	case domain.PhaseBidding:
		if playerID == s.Leader() && len(s.Bids) == 0 && s.Trump == domain.NoTrump {
			if suit, ok := b.chooseTrump(s.Hands[playerID]); ok {
				return domain.SetTrump{Trump: suit}, true
			}
		}
		if s.Turn != playerID {
			return nil, false
		}
		bid, ok := b.chooseBid(s, playerID)
		if !ok {
			return nil, false
		}
		return domain.PlaceBid{PlayerID: playerID, Bid: bid}, true
	case domain.PhaseTrick:
		if s.Turn != playerID {
			return nil, false
		}
		card, ok := b.chooseCard(s, playerID)
		if !ok {
			return domain.NextTurn{}, true
		}
		return domain.PlayCard{PlayerID: playerID, Card: card}, true
	default:
		return nil, false
	}
}

// chooseTrump returns the longest suit in hand, the earlier suit on ties.
func (b *SmartBot) chooseTrump(hand []domain.Card) (domain.Suit, bool) {
	best, bestLen := domain.NoTrump, 0
	for _, suit := range domain.Suits {
		n := 0
		for _, c := range hand {
			if c.Suit == suit {
				n++
			}
		}
		if n > bestLen {
			best, bestLen = suit, n
		}
	}
	if bestLen < b.Tuning.MinTrumpLength {
		return domain.NoTrump, false
	}
	return best, true
}

// estimateTricks counts the tricks hand should take with trump named.
func (b *SmartBot) estimateTricks(hand []domain.Card, trump domain.Suit) int {
	tricks, trumps := 0, 0
	for _, c := range hand {
		if c.Suit == trump {
			trumps++
			if domain.RankIndex(c.Rank) <= domain.RankIndex(b.Tuning.TrumpCard) {
				tricks++
			}
			continue
		}
		if domain.RankIndex(c.Rank) <= domain.RankIndex(b.Tuning.HighCard) {
			tricks++
		}
	}
	if b.Tuning.LongTrumpBonus > 0 && trumps > b.Tuning.LongTrumpBonus {
		tricks += trumps - b.Tuning.LongTrumpBonus
	}
	return min(tricks, len(hand))
}

// chooseBid picks the legal bid nearest the estimate, the lower one on ties.
func (b *SmartBot) chooseBid(s domain.GameState, playerID string) (int, bool) {
	legal := domain.LegalBids(s, playerID)
	if len(legal) == 0 {
		return 0, false
	}
	want := b.estimateTricks(s.Hands[playerID], s.Trump)
	best := legal[0]
	for _, bid := range legal[1:] {
		if abs(bid-want) < abs(best-want) {
			best = bid
		}
	}
	return best, true
}

func (b *SmartBot) chooseCard(s domain.GameState, playerID string) (domain.Card, bool) {
	legal := domain.LegalPlays(s, playerID)
	if len(legal) == 0 {
		return domain.Card{}, false
	}
	needTricks := s.Bids[playerID] > s.TableWins[playerID]

	if s.Trick == nil || len(s.Trick.Plays) == 0 {
		if needTricks {
			return strongest(legal, s.Trump), true
		}
		return weakest(legal, s.Trump), true
	}

	var winners, losers []domain.Card
	for _, c := range legal {
		plays := append(append([]domain.Play(nil), s.Trick.Plays...), domain.Play{PlayerID: playerID, Card: c})
		if domain.TrickWinner(plays, s.Trump) == playerID {
			winners = append(winners, c)
		} else {
			losers = append(losers, c)
		}
	}

	switch {
	case needTricks && len(winners) > 0:
		return weakest(winners, s.Trump), true
	case needTricks:
		return weakest(losers, s.Trump), true
	case len(losers) > 0:
		// Shed the most dangerous card that still loses.
		return strongest(losers, s.Trump), true
	default:
		return weakest(winners, s.Trump), true
	}
}

// strength orders cards for play: any trump above any plain card, then by rank.
func strength(c domain.Card, trump domain.Suit) int {
	n := len(domain.Ranks) - domain.RankIndex(c.Rank)
	if c.Suit == trump {
		n += len(domain.Ranks)
	}
	return n
}

func strongest(cards []domain.Card, trump domain.Suit) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if strength(c, trump) > strength(best, trump) {
			best = c
		}
	}
	return best
}

func weakest(cards []domain.Card, trump domain.Suit) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if strength(c, trump) < strength(best, trump) {
			best = c
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
