package bot

import "ohhell/internal/domain"

// Tuning holds the hand-strength thresholds SmartBot bids with.
type Tuning struct {
	// HighCard and better count as a trick outside trumps.
	HighCard domain.Rank
	// TrumpCard and better count as a trick in the trump suit.
	TrumpCard domain.Rank
	// MinTrumpLength is the shortest suit the leader will name as trump.
	MinTrumpLength int
	// LongTrumpBonus adds a trick per trump held beyond this length.
	LongTrumpBonus int
}

// DefaultTuning counts aces and kings, trumps from the jack up, and rewards long trumps.
var DefaultTuning = Tuning{
	HighCard:       domain.King,
	TrumpCard:      domain.Jack,
	MinTrumpLength: 3,
	LongTrumpBonus: 4,
}
