package domain

import (
	"fmt"
	"sort"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

const (
	seedHashBasis uint32 = 2166136261
	seedHashPrime uint32 = 16777619

	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223
)

// FullDeck returns the 52 cards suit-major (♠ ♥ ♦ ♣), then rank-major (A..2).
func FullDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// hashSeed folds the seed's characters into 32 bits (xor the code point, then multiply,
// mod 2^32). For ASCII seeds this is FNV-1a.
func hashSeed(seed string) uint32 {
	h := seedHashBasis
	for _, r := range seed {
		h ^= uint32(r)
		h *= seedHashPrime
	}
	return h
}

// lcg is a 32-bit linear congruential generator.
type lcg struct {
	state uint32
}

func (g *lcg) next() uint32 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return g.state
}

// Shuffle returns a permutation of deck that depends only on deck and seed.
// The input slice is left untouched.
func Shuffle(deck []Card, seed string) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng := &lcg{state: hashSeed(seed)}
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.next() % uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// handSeed derives the seed used to deal the hand at roundIndex.
func handSeed(seed string, roundIndex int) string {
	return fmt.Sprintf("%s#%d", seed, roundIndex)
}

// SortHand orders cards by suit (deck order), then from highest to lowest rank.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		si, sj := suitIndex(cards[i].Suit), suitIndex(cards[j].Suit)
		if si != sj {
			return si < sj
		}
		return RankIndex(cards[i].Rank) < RankIndex(cards[j].Rank)
	})
}

func suitIndex(s Suit) int {
	for i, v := range Suits {
		if v == s {
			return i
		}
	}
	return len(Suits)
}

// RemoveCard returns a copy of hand without the first occurrence of card.
func RemoveCard(hand []Card, card Card) []Card {
	out := make([]Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c == card {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// ContainsCard reports whether hand holds card.
func ContainsCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}
