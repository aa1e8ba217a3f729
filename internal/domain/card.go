package domain

import (
	"fmt"
	"strings"
)

// Suit is a card suit. NoTrump is only valid as a trump designation.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	// NoTrump marks a hand played without a trump suit.
	NoTrump Suit = "NT"
)

// Suits lists the four card suits in deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// IsCardSuit reports whether s is one of the four card suits.
func (s Suit) IsCardSuit() bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// IsTrump reports whether s may be used as the trump field.
func (s Suit) IsTrump() bool {
	return s == NoTrump || s.IsCardSuit()
}

// Rank is a card rank, A high through 2 low.
type Rank string

const (
	Ace   Rank = "A"
	King  Rank = "K"
	Queen Rank = "Q"
	Jack  Rank = "J"
	Ten   Rank = "10"
	Nine  Rank = "9"
	Eight Rank = "8"
	Seven Rank = "7"
	Six   Rank = "6"
	Five  Rank = "5"
	Four  Rank = "4"
	Three Rank = "3"
	Two   Rank = "2"
)

// Ranks lists ranks from highest to lowest; the slice index is the rank index.
var Ranks = []Rank{Ace, King, Queen, Jack, Ten, Nine, Eight, Seven, Six, Five, Four, Three, Two}

// RankIndex returns the position of r in Ranks (A → 0, 2 → 12), or -1 if r is unknown.
// A lower index is a higher rank.
func RankIndex(r Rank) int {
	for i, v := range Ranks {
		if v == r {
			return i
		}
	}
	return -1
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// SuitOf returns the suit of c.
func SuitOf(c Card) Suit { return c.Suit }

// Valid reports whether c is one of the 52 deck cards.
func (c Card) Valid() bool {
	return RankIndex(c.Rank) >= 0 && c.Suit.IsCardSuit()
}

// Beats reports whether c outranks other. Suits are ignored.
func (c Card) Beats(other Card) bool {
	return RankIndex(c.Rank) < RankIndex(other.Rank)
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// ParseCard parses the rank+suit form produced by String, e.g. "K♥" or "10♦".
func ParseCard(s string) (Card, error) {
	for _, suit := range Suits {
		if rank, ok := strings.CutSuffix(s, string(suit)); ok {
			c := Card{Rank: Rank(rank), Suit: suit}
			if !c.Valid() {
				break
			}
			return c, nil
		}
	}
	return Card{}, fmt.Errorf("invalid card %q", s)
}

// MustParseCard is ParseCard for literals known to be valid.
func MustParseCard(s string) Card {
	c, err := ParseCard(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MarshalText encodes the card in its rank+suit form.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %s%s", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes the rank+suit form.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
