package app

// RequestKind identifies an inbound message. The value is the wire name.
type RequestKind string

const (
	RequestCreateLobby RequestKind = "createLobby"
	RequestJoinLobby   RequestKind = "joinLobby"
	RequestLeaveLobby  RequestKind = "leaveLobby"
	RequestStartGame   RequestKind = "startGame"
	RequestAssignHost  RequestKind = "assignHost"
	RequestVoiceToken  RequestKind = "requestVoiceToken"
)

// Request is one decoded inbound message. The concrete types below are the only
// implementations.
type Request interface {
	Kind() RequestKind
}

type CreateLobby struct {
	PlayerName string
	LobbyName  string
}

type JoinLobby struct {
	Code       string
	PlayerName string
}

// LeaveLobby leaves the lobby the connection is bound to. Code is informational.
type LeaveLobby struct {
	Code string
}

type StartGame struct {
	Code string
}

type AssignHost struct {
	Code      string
	NewHostID string
}

type VoiceToken struct {
	Action string
}

func (CreateLobby) Kind() RequestKind { return RequestCreateLobby }
func (JoinLobby) Kind() RequestKind   { return RequestJoinLobby }
func (LeaveLobby) Kind() RequestKind  { return RequestLeaveLobby }
func (StartGame) Kind() RequestKind   { return RequestStartGame }
func (AssignHost) Kind() RequestKind  { return RequestAssignHost }
func (VoiceToken) Kind() RequestKind  { return RequestVoiceToken }
