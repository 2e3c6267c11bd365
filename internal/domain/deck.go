package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

const (
	DeckSize   = 52
	HandSize   = 13
	MaxPlayers = 4
)

// ThreeOfSpades is the lowest card; whoever holds it leads the first trick.
var ThreeOfSpades = Card{Rank: RankThree, Suit: SuitSpades}

// ErrShortDeck is returned when a deal asks for more cards than the deck holds.
var ErrShortDeck = errors.New("deck too small for deal")

// NewDeck returns a sorted 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := RankThree; r <= RankTwo; r++ {
		for s := SuitSpades; s <= SuitHearts; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// NewShuffledDeck returns a full deck in uniformly random order drawn from rng.
func NewShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	Shuffle(deck, rng)
	return deck
}

// Shuffle permutes cards in place with a Fisher-Yates pass.
func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal cuts playerCount contiguous hands of handSize cards from the top of the deck.
// Hands are copies; cards past playerCount*handSize stay undealt.
func Deal(deck []Card, playerCount, handSize int) ([][]Card, error) {
	if playerCount <= 0 || handSize <= 0 {
		return nil, fmt.Errorf("invalid deal of %d hands of %d cards", playerCount, handSize)
	}
	if len(deck) < playerCount*handSize {
		return nil, fmt.Errorf("%w: need %d cards, have %d", ErrShortDeck, playerCount*handSize, len(deck))
	}

	hands := make([][]Card, playerCount)
	for i := range hands {
		start := i * handSize
		hands[i] = append([]Card(nil), deck[start:start+handSize]...)
	}
	return hands, nil
}

// SortHand orders a hand by ascending power.
func SortHand(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Less(cards[j])
	})
}

// HasCard reports whether the hand contains card.
func HasCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}

// FindStartingPlayerIndex returns the roster index of the first player holding the
// three of spades, or 0 when nobody does.
func FindStartingPlayerIndex(players []*Player) int {
	for i, p := range players {
		if HasCard(p.Hand, ThreeOfSpades) {
			return i
		}
	}
	return 0
}
