package domain

import "sort"

// HandScore returns the points a player earns for one hand.
func HandScore(bid, won int, rules ScoringRules) int {
	if won == bid {
		return rules.ExactBonus + bid
	}
	if rules.MissMode == MissWins {
		return won
	}
	return 0
}

// enterScoring scores the finished hand into the match totals.
func (s *GameState) enterScoring() {
	s.Phase = PhaseScoring
	s.Turn = ""
	s.Timer = 0
	s.Trick = nil
	s.HandScores = make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		delta := HandScore(s.Bids[p.ID], s.TableWins[p.ID], s.Scoring)
		s.HandScores[p.ID] = delta
		credit(&s.Scores, p.ID, delta)
	}
}

func nextHand(s GameState) (GameState, error) {
	if s.Phase != PhaseScoring {
		return s, ErrWrongPhase
	}
	next := s.Clone()
	next.RoundIndex++
	if next.RoundIndex >= len(next.HandSizes) {
		next.endRound()
		return next, nil
	}
	next.LeadIndex = nextIndex(next.LeadIndex, len(next.Players))
	next.dealHand()
	return next, nil
}

// endRound clears every hand-scoped field. Only Scores survive.
func (s *GameState) endRound() {
	s.Phase = PhaseRoundEnd
	s.Turn = ""
	s.Timer = 0
	s.Hands = nil
	s.Trick = nil
	s.LastTrick = nil
	s.Bids = nil
	s.TableWins = nil
	s.HandScores = nil
	s.Trump = NoTrump
}

// Standings returns player ids ordered by cumulative score, highest first. Ties keep
// turn order.
func Standings(s GameState) []string {
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.ID)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.Scores[out[i]] > s.Scores[out[j]]
	})
	return out
}
