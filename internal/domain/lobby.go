package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrLobbyFull        = errors.New("lobby is full")
	ErrLobbyStarted     = errors.New("lobby already started")
	ErrNameTaken        = errors.New("name already taken")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadySeated    = errors.New("connection already seated")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
)

// Lobby is the authoritative state of one game session, keyed by its join code.
// Players are kept in join order.
type Lobby struct {
	Code      string
	Name      string
	Phase     Phase
	Players   []*Player
	TurnIndex int

	// Deck is the full shuffled deck the hands were cut from.
	Deck []Card
	// Pile holds cards played to the table; nothing is played before the first turn.
	Pile []Card
}

// NewLobby returns an empty lobby in the lobby phase.
func NewLobby(code, name string) *Lobby {
	return &Lobby{
		Code:  code,
		Name:  name,
		Phase: PhaseLobby,
	}
}

// Started reports whether the deal has happened.
func (l *Lobby) Started() bool {
	return l.Phase == PhasePlaying
}

// Full reports whether every seat is taken.
func (l *Lobby) Full() bool {
	return len(l.Players) >= MaxPlayers
}

// Empty reports whether the roster has no players.
func (l *Lobby) Empty() bool {
	return len(l.Players) == 0
}

// IndexOf returns the roster index of the connection or -1.
func (l *Lobby) IndexOf(connectionID string) int {
	for i, p := range l.Players {
		if p.ConnectionID == connectionID {
			return i
		}
	}
	return -1
}

// Player returns the seated player for a connection, or nil.
func (l *Lobby) Player(connectionID string) *Player {
	if i := l.IndexOf(connectionID); i >= 0 {
		return l.Players[i]
	}
	return nil
}

// HasName reports whether a player already uses name. Comparison is case-sensitive.
func (l *Lobby) HasName(name string) bool {
	for _, p := range l.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Host returns the current host, or nil for an empty lobby.
func (l *Lobby) Host() *Player {
	for _, p := range l.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// HostID returns the host's connection id, or "" for an empty lobby.
func (l *Lobby) HostID() string {
	if h := l.Host(); h != nil {
		return h.ConnectionID
	}
	return ""
}

// IsHost reports whether the connection is the lobby host.
func (l *Lobby) IsHost(connectionID string) bool {
	p := l.Player(connectionID)
	return p != nil && p.IsHost
}

// AddPlayer appends a player to the roster. The first player becomes host.
func (l *Lobby) AddPlayer(connectionID, name string) (*Player, error) {
	if l.IndexOf(connectionID) >= 0 {
		return nil, ErrAlreadySeated
	}
	if l.Full() {
		return nil, ErrLobbyFull
	}
	if l.Started() {
		return nil, ErrLobbyStarted
	}
	if l.HasName(name) {
		return nil, ErrNameTaken
	}

	p := &Player{
		ConnectionID: connectionID,
		Name:         name,
		IsHost:       l.Empty(),
	}
	l.Players = append(l.Players, p)
	return p, nil
}

// RemovePlayer drops the connection from the roster. When the host leaves, the
// earliest remaining joiner takes over.
func (l *Lobby) RemovePlayer(connectionID string) (*Player, bool) {
	i := l.IndexOf(connectionID)
	if i < 0 {
		return nil, false
	}

	removed := l.Players[i]
	l.Players = append(l.Players[:i], l.Players[i+1:]...)

	if removed.IsHost && len(l.Players) > 0 {
		l.Players[0].IsHost = true
	}
	if l.Started() {
		l.TurnIndex = FindStartingPlayerIndex(l.Players)
	}
	return removed, true
}

// AssignHost makes the given connection the only host.
func (l *Lobby) AssignHost(connectionID string) error {
	if l.IndexOf(connectionID) < 0 {
		return ErrPlayerNotFound
	}
	for _, p := range l.Players {
		p.IsHost = p.ConnectionID == connectionID
	}
	return nil
}

// Start deals deck to a full table, sorts each hand and picks the starting player.
func (l *Lobby) Start(deck []Card) error {
	if l.Started() {
		return ErrLobbyStarted
	}
	if len(l.Players) != MaxPlayers {
		return ErrNotEnoughPlayers
	}

	hands, err := Deal(deck, len(l.Players), HandSize)
	if err != nil {
		return err
	}
	for i, p := range l.Players {
		SortHand(hands[i])
		p.Hand = hands[i]
	}

	l.Deck = deck
	l.Pile = []Card{}
	l.TurnIndex = FindStartingPlayerIndex(l.Players)
	l.Phase = PhasePlaying
	return nil
}

// StartShuffled shuffles a fresh deck with rng and starts the lobby with it.
func (l *Lobby) StartShuffled(rng *rand.Rand) error {
	return l.Start(NewShuffledDeck(rng))
}

// CurrentPlayer returns the player whose turn it is, or nil before the deal.
func (l *Lobby) CurrentPlayer() *Player {
	if !l.Started() || l.TurnIndex < 0 || l.TurnIndex >= len(l.Players) {
		return nil
	}
	return l.Players[l.TurnIndex]
}

// Names returns display names in roster order.
func (l *Lobby) Names() []string {
	names := make([]string, len(l.Players))
	for i, p := range l.Players {
		names[i] = p.Name
	}
	return names
}

// ConnectionIDs returns connection ids in roster order.
func (l *Lobby) ConnectionIDs() []string {
	ids := make([]string, len(l.Players))
	for i, p := range l.Players {
		ids[i] = p.ConnectionID
	}
	return ids
}

// Validate checks the roster and deal invariants and reports the first violation.
func (l *Lobby) Validate() error {
	if len(l.Players) == 0 || len(l.Players) > MaxPlayers {
		return fmt.Errorf("lobby %s: roster size %d out of range", l.Code, len(l.Players))
	}

	hosts := 0
	names := make(map[string]bool, len(l.Players))
	conns := make(map[string]bool, len(l.Players))
	for _, p := range l.Players {
		if p.IsHost {
			hosts++
		}
		if names[p.Name] {
			return fmt.Errorf("lobby %s: duplicate name %q", l.Code, p.Name)
		}
		names[p.Name] = true
		if conns[p.ConnectionID] {
			return fmt.Errorf("lobby %s: duplicate connection %q", l.Code, p.ConnectionID)
		}
		conns[p.ConnectionID] = true
	}
	if hosts != 1 {
		return fmt.Errorf("lobby %s: %d hosts", l.Code, hosts)
	}

	if !l.Started() {
		return nil
	}

	if len(l.Deck) != DeckSize {
		return fmt.Errorf("lobby %s: deck has %d cards", l.Code, len(l.Deck))
	}
	inDeck := make(map[Card]bool, len(l.Deck))
	for _, c := range l.Deck {
		inDeck[c] = true
	}
	if len(inDeck) != DeckSize {
		return fmt.Errorf("lobby %s: deck has duplicate cards", l.Code)
	}
	dealt := make(map[Card]bool, DeckSize)
	for _, p := range l.Players {
		if len(p.Hand) != HandSize {
			return fmt.Errorf("lobby %s: %s holds %d cards", l.Code, p.Name, len(p.Hand))
		}
		for _, c := range p.Hand {
			if dealt[c] || !inDeck[c] {
				return fmt.Errorf("lobby %s: card %s dealt twice or not from deck", l.Code, c)
			}
			dealt[c] = true
		}
	}
	if want := FindStartingPlayerIndex(l.Players); l.TurnIndex != want {
		return fmt.Errorf("lobby %s: turn index %d, want %d", l.Code, l.TurnIndex, want)
	}
	return nil
}
