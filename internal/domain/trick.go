package domain

func playCard(s GameState, c PlayCard) (GameState, error) {
	if s.Phase != PhaseTrick {
		return s, ErrWrongPhase
	}
	if c.PlayerID != s.Turn {
		return s, ErrNotYourTurn
	}
	if !c.Card.Valid() {
		return s, ErrInvalidCard
	}
	hand := s.Hands[c.PlayerID]
	if !ContainsCard(hand, c.Card) {
		return s, ErrCardNotInHand
	}
	if !canPlay(s.Trick, hand, c.Card) {
		return s, ErrMustFollowSuit
	}

	next := s.Clone()
	next.applyPlay(c.PlayerID, c.Card)
	return next, nil
}

// applyPlay lays an already validated card. A full trick is resolved and its winner
// leads the next one; the last trick of the hand moves to scoring.
func (s *GameState) applyPlay(playerID string, card Card) {
	s.Hands[playerID] = RemoveCard(s.Hands[playerID], card)
	if s.Trick == nil {
		s.Trick = &Trick{Leader: playerID}
	}
	s.Trick.Plays = append(s.Trick.Plays, Play{PlayerID: playerID, Card: card})

	if len(s.Trick.Plays) < len(s.Players) {
		s.Turn = s.nextPlayer(playerID)
		s.Timer = s.TurnSeconds
		return
	}

	winner := TrickWinner(s.Trick.Plays, s.Trump)
	credit(&s.TableWins, winner, 1)
	s.LastTrick = &CompletedTrick{Plays: s.Trick.Plays, Winner: winner}
	s.Trick = nil
	if s.handsEmpty() {
		s.enterScoring()
		return
	}
	s.Turn = winner
	s.Timer = s.TurnSeconds
}
