package domain

func tick(s GameState) (GameState, error) {
	if s.Phase != PhaseTrick {
		return s, ErrWrongPhase
	}
	next := s.Clone()
	next.Timer--
	if next.Timer > 0 {
		return next, nil
	}

	card, ok := AutoPlayCard(next, next.Turn)
	if !ok {
		next.Turn = next.nextPlayer(next.Turn)
		next.Timer = next.TurnSeconds
		return next, nil
	}
	next.applyPlay(next.Turn, card)
	return next, nil
}

func nextTurn(s GameState) (GameState, error) {
	if s.Phase != PhaseTrick {
		return s, ErrWrongPhase
	}
	next := s.Clone()
	next.Turn = next.nextPlayer(next.Turn)
	next.Timer = next.TurnSeconds
	return next, nil
}

// AutoPlayCard picks the card played for playerID when their turn expires: the lowest
// legal card of the lead suit, else the lowest legal card. ok is false for an empty
// hand.
func AutoPlayCard(s GameState, playerID string) (card Card, ok bool) {
	legal := legalCards(s.Trick, s.Hands[playerID])
	if len(legal) == 0 {
		return Card{}, false
	}
	if lead, led := s.Trick.LeadSuit(); led {
		if c, found := lowest(legal, func(c Card) bool { return c.Suit == lead }); found {
			return c, true
		}
	}
	return lowest(legal, func(Card) bool { return true })
}

// lowest returns the lowest-ranked card matching keep; ties go to the earlier card.
func lowest(cards []Card, keep func(Card) bool) (Card, bool) {
	var out Card
	found := false
	for _, c := range cards {
		if !keep(c) {
			continue
		}
		if !found || out.Beats(c) {
			out, found = c, true
		}
	}
	return out, found
}
