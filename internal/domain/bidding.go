package domain

// dealHand shuffles a fresh deck for the hand at RoundIndex, deals it round-robin from
// the leader and opens bidding.
func (s *GameState) dealHand() {
	size := s.CurrentHandSize()
	n := len(s.Players)
	deck := Shuffle(FullDeck(), handSeed(s.RNGSeed, s.RoundIndex))

	hands := make(map[string][]Card, n)
	for _, p := range s.Players {
		hands[p.ID] = make([]Card, 0, size)
	}
	for k := 0; k < size*n; k++ {
		id := s.Players[(s.LeadIndex+k)%n].ID
		hands[id] = append(hands[id], deck[k])
	}
	for _, hand := range hands {
		SortHand(hand)
	}

	s.Phase = PhaseBidding
	s.Hands = hands
	s.Bids = map[string]int{}
	s.TableWins = zeroCounts(s.Players)
	s.HandScores = nil
	s.Trump = NoTrump
	s.Trick = nil
	s.LastTrick = nil
	s.Timer = 0
	s.Turn = s.Leader()
}

// ForbiddenBid returns the bid the last bidder may not place because it would make the
// bids sum to the hand size. ok is false when no value is forbidden, including every
// hand of size zero.
func ForbiddenBid(s GameState) (bid int, ok bool) {
	if s.Phase != PhaseBidding {
		return 0, false
	}
	size := s.CurrentHandSize()
	if size == 0 {
		return 0, false
	}
	last := s.LastBidder()
	sum := 0
	for id, b := range s.Bids {
		if id != last {
			sum += b
		}
	}
	bid = size - sum
	if bid < 0 || bid > size {
		return 0, false
	}
	return bid, true
}

// LegalBids lists the bids playerID may place now, or nil when it is not their turn
// to bid.
func LegalBids(s GameState, playerID string) []int {
	if s.Phase != PhaseBidding || s.Turn != playerID {
		return nil
	}
	forbidden, restricted := ForbiddenBid(s)
	restricted = restricted && playerID == s.LastBidder()

	size := s.CurrentHandSize()
	out := make([]int, 0, size+1)
	for b := 0; b <= size; b++ {
		if restricted && b == forbidden {
			continue
		}
		out = append(out, b)
	}
	return out
}

func placeBid(s GameState, c PlaceBid) (GameState, error) {
	if s.Phase != PhaseBidding {
		return s, ErrWrongPhase
	}
	if c.PlayerID != s.Turn {
		return s, ErrNotYourTurn
	}
	if c.Bid < 0 || c.Bid > s.CurrentHandSize() {
		return s, ErrBidOutOfRange
	}
	if c.PlayerID == s.LastBidder() {
		if forbidden, ok := ForbiddenBid(s); ok && c.Bid == forbidden {
			return s, ErrForbiddenBid
		}
	}

	next := s.Clone()
	credit(&next.Bids, c.PlayerID, c.Bid)
	if len(next.Bids) == len(next.Players) {
		next.startTricks()
		return next, nil
	}
	next.Turn = next.nextPlayer(c.PlayerID)
	return next, nil
}

func setTrump(s GameState, c SetTrump) (GameState, error) {
	if s.Phase != PhaseBidding {
		return s, ErrWrongPhase
	}
	if !c.Trump.IsTrump() {
		return s, ErrInvalidTrump
	}
	next := s.Clone()
	next.Trump = c.Trump
	return next, nil
}

// startTricks moves a fully bid hand into trick play with the leader on lead. A hand
// with no cards goes straight to scoring.
func (s *GameState) startTricks() {
	s.Phase = PhaseTrick
	s.Trick = nil
	s.Turn = s.Leader()
	s.Timer = s.TurnSeconds
	if s.handsEmpty() {
		s.enterScoring()
	}
}
