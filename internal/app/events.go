package app

import "thirteen/internal/domain"

// EventKind identifies an outbound message. The value is the wire name.
type EventKind string

const (
	EventLobbyCreated EventKind = "lobbyCreated"
	EventLobbyUpdated EventKind = "lobbyUpdated"
	EventGameStarted  EventKind = "gameStarted"
	EventGameMessage  EventKind = "gameMessage"
	EventErrorMessage EventKind = "errorMessage"
	EventVoiceToken   EventKind = "voiceToken"
)

// Event is an outbound message addressed to an explicit set of connections.
// Recipients are resolved while the lobby is locked, so later roster changes never
// alter who receives an earlier event.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // connection IDs
}

// RosterEntry is one player as shown in lobby broadcasts.
type RosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

type LobbyCreatedPayload struct {
	Code           string        `json:"code"`
	LobbyName      string        `json:"lobbyName"`
	Players        []RosterEntry `json:"players"`
	HostID         string        `json:"hostId"`
	PlayerSocketID string        `json:"playerSocketId"`
}

type LobbyUpdatedPayload struct {
	Code      string        `json:"code"`
	LobbyName string        `json:"lobbyName"`
	Players   []RosterEntry `json:"players"`
	HostID    string        `json:"hostId"`
}

// GameStartedPayload is sent privately; Hand belongs to the recipient only.
type GameStartedPayload struct {
	Hand      []domain.Card `json:"hand"`
	TurnIndex int           `json:"turnIndex"`
	Players   []string      `json:"players"`
}

type VoiceTokenPayload struct {
	Token   string `json:"token"`
	Channel string `json:"channel,omitempty"`
}

// LobbySummary describes a lobby to someone who only knows its code.
type LobbySummary struct {
	Code        string `json:"code"`
	LobbyName   string `json:"lobbyName"`
	PlayerCount int    `json:"playerCount"`
	Started     bool   `json:"started"`
	Open        bool   `json:"open"`
}

func roster(l *domain.Lobby) []RosterEntry {
	out := make([]RosterEntry, len(l.Players))
	for i, p := range l.Players {
		out[i] = RosterEntry{ID: p.ConnectionID, Name: p.Name, IsHost: p.IsHost}
	}
	return out
}

func lobbyUpdated(l *domain.Lobby) Event {
	return Event{
		Kind: EventLobbyUpdated,
		Payload: LobbyUpdatedPayload{
			Code:      l.Code,
			LobbyName: l.Name,
			Players:   roster(l),
			HostID:    l.HostID(),
		},
		Recipients: l.ConnectionIDs(),
	}
}

func errorMessage(connectionID string, err *Error) Event {
	return Event{
		Kind:       EventErrorMessage,
		Payload:    err.Message,
		Recipients: []string{connectionID},
	}
}
