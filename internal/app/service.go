package app

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"thirteen/internal/domain"
	"thirteen/internal/ports"
	"thirteen/internal/store"
)

// Service routes lobby requests from connections. Every operation runs under one
// lock and either fails a precondition without touching state or completes.
type Service struct {
	mu       sync.Mutex
	registry *store.Registry
	rng      *rand.Rand
	voice    ports.VoicePort
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithVoice enables voice token requests.
func WithVoice(voice ports.VoicePort) Option {
	return func(s *Service) {
		s.voice = voice
	}
}

// NewService constructs a Service over registry. rng drives shuffling; nil uses a
// time-seeded default.
func NewService(registry *store.Registry, rng *rand.Rand, opts ...Option) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Service{registry: registry, rng: rng}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle dispatches a decoded request by its kind.
func (s *Service) Handle(connectionID string, req Request) ([]Event, error) {
	switch r := req.(type) {
	case CreateLobby:
		return s.CreateLobby(connectionID, r.PlayerName, r.LobbyName)
	case JoinLobby:
		return s.JoinLobby(connectionID, r.Code, r.PlayerName)
	case LeaveLobby:
		return s.LeaveLobby(connectionID)
	case StartGame:
		return s.StartGame(connectionID, r.Code)
	case AssignHost:
		return s.AssignHost(connectionID, r.Code, r.NewHostID)
	case VoiceToken:
		return s.VoiceToken(connectionID, r.Action)
	default:
		return nil, ErrMalformedRequest
	}
}

// CreateLobby registers a new lobby with the caller as its only player and host.
func (s *Service) CreateLobby(connectionID, playerName, lobbyName string) ([]Event, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, bound := s.registry.CodeFor(connectionID); bound {
		return nil, ErrAlreadyInLobby
	}

	title := strings.TrimSpace(lobbyName)
	if title == "" {
		title = name + "'s lobby"
	}

	l := s.registry.Create(title)
	if _, err := l.AddPlayer(connectionID, name); err != nil {
		s.registry.DeleteIfEmpty(l.Code)
		return nil, fromDomain(err)
	}
	if err := s.registry.Bind(connectionID, l.Code); err != nil {
		l.RemovePlayer(connectionID)
		s.registry.DeleteIfEmpty(l.Code)
		return nil, fromDomain(err)
	}

	return []Event{{
		Kind: EventLobbyCreated,
		Payload: LobbyCreatedPayload{
			Code:           l.Code,
			LobbyName:      l.Name,
			Players:        roster(l),
			HostID:         l.HostID(),
			PlayerSocketID: connectionID,
		},
		Recipients: []string{connectionID},
	}}, nil
}

// JoinLobby seats the caller in the lobby at code and broadcasts the new roster.
func (s *Service) JoinLobby(connectionID, code, playerName string) ([]Event, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return nil, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, bound := s.registry.CodeFor(connectionID); bound {
		return nil, ErrAlreadyInLobby
	}

	l, ok := s.registry.Lookup(store.NormalizeCode(code))
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if _, err := l.AddPlayer(connectionID, name); err != nil {
		return nil, fromDomain(err)
	}
	if err := s.registry.Bind(connectionID, l.Code); err != nil {
		l.RemovePlayer(connectionID)
		return nil, fromDomain(err)
	}

	return []Event{lobbyUpdated(l)}, nil
}

// LeaveLobby removes the caller from the lobby it is bound to.
func (s *Service) LeaveLobby(connectionID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, bound := s.removeConnection(connectionID)
	if !bound {
		return nil, ErrNotInLobby
	}
	return events, nil
}

// Disconnect cleans up after a closed connection. Unknown connections are ignored.
func (s *Service) Disconnect(connectionID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, _ := s.removeConnection(connectionID)
	return events
}

func (s *Service) removeConnection(connectionID string) ([]Event, bool) {
	code, bound := s.registry.Unbind(connectionID)
	if !bound {
		return nil, false
	}
	l, ok := s.registry.Lookup(code)
	if !ok {
		return nil, true
	}

	l.RemovePlayer(connectionID)
	if s.registry.DeleteIfEmpty(code) {
		return nil, true
	}
	return []Event{lobbyUpdated(l)}, true
}

// StartGame deals a shuffled deck to a full lobby. Each player receives their own
// hand privately, then the whole lobby learns who leads.
func (s *Service) StartGame(connectionID, code string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.registry.Lookup(store.NormalizeCode(code))
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if !l.IsHost(connectionID) {
		return nil, ErrNotHost
	}
	if l.Started() {
		return nil, ErrGameStarted
	}
	if len(l.Players) != domain.MaxPlayers {
		return nil, ErrNotEnoughPlayers
	}

	if err := l.StartShuffled(s.rng); err != nil {
		return nil, fromDomain(err)
	}

	names := l.Names()
	events := make([]Event, 0, len(l.Players)+1)
	for _, p := range l.Players {
		events = append(events, Event{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				Hand:      append([]domain.Card(nil), p.Hand...),
				TurnIndex: l.TurnIndex,
				Players:   names,
			},
			Recipients: []string{p.ConnectionID},
		})
	}

	first := l.CurrentPlayer()
	events = append(events, Event{
		Kind:       EventGameMessage,
		Payload:    fmt.Sprintf("%s has the %s and goes first", first.Name, domain.ThreeOfSpades),
		Recipients: l.ConnectionIDs(),
	})
	return events, nil
}

// AssignHost hands the host role to another player in the lobby.
func (s *Service) AssignHost(connectionID, code, newHostID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.registry.Lookup(store.NormalizeCode(code))
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if !l.IsHost(connectionID) {
		return nil, ErrNotHost
	}
	if err := l.AssignHost(newHostID); err != nil {
		return nil, fromDomain(err)
	}
	return []Event{lobbyUpdated(l)}, nil
}

// VoiceToken issues a voice token for the caller. Join tokens are scoped to the
// caller's lobby channel.
func (s *Service) VoiceToken(connectionID, action string) ([]Event, error) {
	if s.voice == nil {
		return nil, ErrVoiceUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, bound := s.registry.CodeFor(connectionID)
	if !bound {
		return nil, ErrNotInLobby
	}

	var channel string
	switch action {
	case VivoxTokenActionLogin:
	case VivoxTokenActionJoin:
		channel = code
	default:
		return nil, ErrInvalidVoiceToken
	}

	token, err := s.voice.GenerateToken(connectionID, action, channel)
	if err != nil {
		return nil, fmt.Errorf("generate voice token: %w", err)
	}
	return []Event{{
		Kind:       EventVoiceToken,
		Payload:    VoiceTokenPayload{Token: token, Channel: channel},
		Recipients: []string{connectionID},
	}}, nil
}

// Describe summarizes the lobby at code.
func (s *Service) Describe(code string) (LobbySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.registry.Lookup(store.NormalizeCode(code))
	if !ok {
		return LobbySummary{}, ErrLobbyNotFound
	}
	return LobbySummary{
		Code:        l.Code,
		LobbyName:   l.Name,
		PlayerCount: len(l.Players),
		Started:     l.Started(),
		Open:        !l.Started() && !l.Full(),
	}, nil
}

// LobbyCode returns the code the connection is bound to, if any.
func (s *Service) LobbyCode(connectionID string) (string, bool) {
	return s.registry.CodeFor(connectionID)
}

// LobbyCount returns the number of live lobbies.
func (s *Service) LobbyCount() int {
	return s.registry.Len()
}

// ErrorEvent addresses err to the requesting connection. Errors that are not
// user-facing rejections are reported as an internal error.
func (s *Service) ErrorEvent(connectionID string, err error) Event {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal
	}
	return errorMessage(connectionID, appErr)
}
