package domain

// Apply is the single entry point for state changes. It returns the next state for an
// accepted command. A refused command yields the unchanged input state and a
// *Rejection describing why.
func Apply(state GameState, cmd Command) (GameState, error) {
	switch c := cmd.(type) {
	case AddPlayer:
		return addPlayer(state, c)
	case StartGame:
		return startGame(state, c)
	case PlaceBid:
		return placeBid(state, c)
	case SetTrump:
		return setTrump(state, c)
	case PlayCard:
		return playCard(state, c)
	case Tick:
		return tick(state)
	case NextTurn:
		return nextTurn(state)
	case NextHand:
		return nextHand(state)
	default:
		return state, ErrUnknownCommand
	}
}

func addPlayer(s GameState, c AddPlayer) (GameState, error) {
	if s.Phase != PhaseLobby {
		return s, ErrWrongPhase
	}
	if c.PlayerID == "" {
		return s, ErrInvalidPlayerID
	}
	kind := c.Kind
	if kind == "" {
		kind = KindHuman
	}
	if kind != KindHuman && kind != KindBot {
		return s, ErrInvalidPlayerKind
	}
	if s.HasPlayer(c.PlayerID) {
		return s, ErrDuplicatePlayer
	}
	if len(s.Players) >= MaxPlayers {
		return s, ErrTableFull
	}

	next := s.Clone()
	next.Players = append(next.Players, Player{ID: c.PlayerID, Kind: kind})
	return next, nil
}

func startGame(s GameState, c StartGame) (GameState, error) {
	if s.Phase != PhaseLobby {
		return s, ErrWrongPhase
	}
	if len(s.Players) < MinPlayers {
		return s, ErrTooFewPlayers
	}
	if !validHandSizes(c.HandSizes, len(s.Players)) {
		return s, ErrInvalidHandSizes
	}
	if c.TurnSeconds <= 0 {
		return s, ErrInvalidTurnSeconds
	}
	rules := DefaultScoring
	if c.Scoring != nil {
		rules = *c.Scoring
	}
	if rules.ExactBonus < 0 || (rules.MissMode != MissZero && rules.MissMode != MissWins) {
		return s, ErrInvalidScoring
	}

	next := s.Clone()
	next.HandSizes = append([]int(nil), c.HandSizes...)
	next.TurnSeconds = c.TurnSeconds
	next.Scoring = rules
	next.Scores = zeroCounts(next.Players)
	next.RoundIndex = 0
	next.LeadIndex = 0
	next.dealHand()
	return next, nil
}

// validHandSizes checks that every hand can be dealt from one deck.
func validHandSizes(sizes []int, players int) bool {
	if len(sizes) == 0 {
		return false
	}
	for _, n := range sizes {
		if n < 0 || n*players > DeckSize {
			return false
		}
	}
	return true
}
