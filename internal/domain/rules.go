package domain

// hasSuit reports whether hand holds any card of suit.
func hasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// canPlay reports whether card may be added to trick by a player holding hand.
// Any card may lead; afterwards the lead suit must be followed when possible.
func canPlay(trick *Trick, hand []Card, card Card) bool {
	lead, ok := trick.LeadSuit()
	if !ok || card.Suit == lead {
		return true
	}
	return !hasSuit(hand, lead)
}

// legalCards filters hand down to the cards canPlay accepts.
func legalCards(trick *Trick, hand []Card) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if canPlay(trick, hand, c) {
			out = append(out, c)
		}
	}
	return out
}

// outranks reports whether a beats b in a trick led with lead under trump.
// A trump beats any non-trump; otherwise only lead-suit cards can win.
func outranks(a, b Card, lead, trump Suit) bool {
	if trump.IsCardSuit() {
		aTrump, bTrump := a.Suit == trump, b.Suit == trump
		switch {
		case aTrump && !bTrump:
			return true
		case bTrump && !aTrump:
			return false
		case aTrump && bTrump:
			return a.Beats(b)
		}
	}
	aLead, bLead := a.Suit == lead, b.Suit == lead
	switch {
	case aLead && !bLead:
		return true
	case aLead && bLead:
		return a.Beats(b)
	}
	return false
}

// TrickWinner returns the player whose card wins plays under trump. The first play
// sets the lead suit. An empty trick has no winner.
func TrickWinner(plays []Play, trump Suit) string {
	if len(plays) == 0 {
		return ""
	}
	lead := plays[0].Card.Suit
	best := 0
	for i := 1; i < len(plays); i++ {
		if outranks(plays[i].Card, plays[best].Card, lead, trump) {
			best = i
		}
	}
	return plays[best].PlayerID
}

// LegalPlays returns the cards playerID may play now, or nil when it is not their
// turn to play a card.
func LegalPlays(s GameState, playerID string) []Card {
	if s.Phase != PhaseTrick || s.Turn != playerID {
		return nil
	}
	return legalCards(s.Trick, s.Hands[playerID])
}
