package domain

// nextIndex walks the turn-order ring.
func nextIndex(i, n int) int {
	return (i + 1) % n
}

// nextPlayer returns the player after id in turn order. An unknown id yields the
// first player.
func (s GameState) nextPlayer(id string) string {
	i := s.PlayerIndex(id)
	if i < 0 {
		return s.Players[0].ID
	}
	return s.Players[nextIndex(i, len(s.Players))].ID
}

// handsEmpty reports whether no player holds a card.
func (s GameState) handsEmpty() bool {
	for _, p := range s.Players {
		if len(s.Hands[p.ID]) > 0 {
			return false
		}
	}
	return true
}

// zeroCounts returns a per-player counter map with every player at zero.
func zeroCounts(players []Player) map[string]int {
	out := make(map[string]int, len(players))
	for _, p := range players {
		out[p.ID] = 0
	}
	return out
}

// CountCardsInPlay returns how many cards are still held across all hands.
func CountCardsInPlay(s GameState) int {
	n := 0
	for _, hand := range s.Hands {
		n += len(hand)
	}
	return n
}
