package app

import (
	"errors"

	"thirteen/internal/domain"
	"thirteen/internal/store"
)

// ErrorKind classifies a rejected request.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindMembershipConflict  ErrorKind = "membership_conflict"
	KindNotFound            ErrorKind = "not_found"
	KindCapacityExceeded    ErrorKind = "capacity_exceeded"
	KindAlreadyStarted      ErrorKind = "already_started"
	KindDuplicateName       ErrorKind = "duplicate_name"
	KindAuthorization       ErrorKind = "authorization"
	KindInsufficientPlayers ErrorKind = "insufficient_players"
	KindUnavailable         ErrorKind = "unavailable"
	KindInternal            ErrorKind = "internal"
)

// Error is a user-facing rejection. Message is sent to the requesting connection as is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNameRequired      = &Error{Kind: KindValidation, Message: "Please enter a name"}
	ErrMalformedRequest  = &Error{Kind: KindValidation, Message: "Invalid request"}
	ErrAlreadyInLobby    = &Error{Kind: KindMembershipConflict, Message: "You are already in a lobby"}
	ErrLobbyNotFound     = &Error{Kind: KindNotFound, Message: "Lobby not found"}
	ErrNotInLobby        = &Error{Kind: KindNotFound, Message: "You are not in a lobby"}
	ErrPlayerNotFound    = &Error{Kind: KindNotFound, Message: "Player not found"}
	ErrLobbyFull         = &Error{Kind: KindCapacityExceeded, Message: "Lobby is full"}
	ErrGameStarted       = &Error{Kind: KindAlreadyStarted, Message: "Game already started"}
	ErrNameTaken         = &Error{Kind: KindDuplicateName, Message: "That name is already taken in this lobby"}
	ErrNotHost           = &Error{Kind: KindAuthorization, Message: "Only the host can do that"}
	ErrNotEnoughPlayers  = &Error{Kind: KindInsufficientPlayers, Message: "Need 4 players to start"}
	ErrVoiceUnavailable  = &Error{Kind: KindUnavailable, Message: "Voice chat is unavailable"}
	ErrInvalidVoiceToken = &Error{Kind: KindValidation, Message: "Unsupported voice action"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "Internal error"}
)

// KindOf returns the kind of a rejection, or KindInternal for any other error.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// fromDomain maps roster and registry errors onto user-facing rejections.
func fromDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrLobbyFull):
		return ErrLobbyFull
	case errors.Is(err, domain.ErrLobbyStarted):
		return ErrGameStarted
	case errors.Is(err, domain.ErrNameTaken):
		return ErrNameTaken
	case errors.Is(err, domain.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return ErrNotEnoughPlayers
	case errors.Is(err, domain.ErrAlreadySeated), errors.Is(err, store.ErrAlreadyBound):
		return ErrAlreadyInLobby
	case errors.Is(err, store.ErrLobbyNotFound):
		return ErrLobbyNotFound
	default:
		return err
	}
}
