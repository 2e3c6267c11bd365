package domain

import "encoding/json"

// Phase represents the lifecycle stage of a lobby.
type Phase string

const (
	// PhaseLobby is the pre-game state where players can join.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the state after the deal; there is no way back to the lobby.
	PhasePlaying Phase = "playing"
)

// Rank orders card ranks by strength: 0 is a three, 11 an ace, 12 a two.
type Rank int32

const (
	RankThree Rank = iota
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
	RankTwo
)

var rankLabels = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

func (r Rank) String() string {
	if r < RankThree || r > RankTwo {
		return "?"
	}
	return rankLabels[r]
}

// Suit orders suits low to high: spades, clubs, diamonds, hearts.
type Suit int32

const (
	SuitSpades Suit = iota
	SuitClubs
	SuitDiamonds
	SuitHearts
)

var suitSymbols = [...]string{"♠", "♣", "♦", "♥"}

func (s Suit) String() string {
	if s < SuitSpades || s > SuitHearts {
		return "?"
	}
	return suitSymbols[s]
}

// Card is a single playing card. Cards are values and never mutated.
type Card struct {
	Rank Rank
	Suit Suit
}

// Power is the card's position in the total order; no two cards share a power.
func (c Card) Power() int32 {
	return int32(c.Rank)*4 + int32(c.Suit)
}

// Less reports whether c sorts before other.
func (c Card) Less(other Card) bool {
	return c.Power() < other.Power()
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// MarshalJSON renders the card as {"rank":"3","suit":"♠"}.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank string `json:"rank"`
		Suit string `json:"suit"`
	}{Rank: c.Rank.String(), Suit: c.Suit.String()})
}

// Player holds the state of one connection seated in a lobby.
type Player struct {
	ConnectionID string
	Name         string
	IsHost       bool
	Hand         []Card
}
