package wire

import "thirteen/internal/app"

// Op codes for client messages and server events carried as Nakama match data.
const (
	// Client -> Server
	OpCreateLobby       int64 = 1
	OpJoinLobby         int64 = 2
	OpLeaveLobby        int64 = 3
	OpStartGame         int64 = 4
	OpAssignHost        int64 = 5
	OpRequestVoiceToken int64 = 6

	// Server -> Client events
	OpLobbyCreated int64 = 101
	OpLobbyUpdated int64 = 102
	OpGameStarted  int64 = 103 // send privately
	OpGameMessage  int64 = 104
	OpErrorMessage int64 = 105 // send privately
	OpVoiceToken   int64 = 106 // send privately
)

var requestOpCodes = map[int64]app.RequestKind{
	OpCreateLobby:       app.RequestCreateLobby,
	OpJoinLobby:         app.RequestJoinLobby,
	OpLeaveLobby:        app.RequestLeaveLobby,
	OpStartGame:         app.RequestStartGame,
	OpAssignHost:        app.RequestAssignHost,
	OpRequestVoiceToken: app.RequestVoiceToken,
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventLobbyCreated: OpLobbyCreated,
	app.EventLobbyUpdated: OpLobbyUpdated,
	app.EventGameStarted:  OpGameStarted,
	app.EventGameMessage:  OpGameMessage,
	app.EventErrorMessage: OpErrorMessage,
	app.EventVoiceToken:   OpVoiceToken,
}

// RequestName maps an inbound op code to its message name.
func RequestName(opCode int64) (string, bool) {
	kind, ok := requestOpCodes[opCode]
	return string(kind), ok
}

// EventOpCode maps an outbound event kind to its op code.
func EventOpCode(kind app.EventKind) (int64, bool) {
	op, ok := eventOpCodes[kind]
	return op, ok
}
