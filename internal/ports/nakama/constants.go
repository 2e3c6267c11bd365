package nakama

const (
	// RpcLobbyHub is the Nakama RPC id clients call to find or create the hub match.
	RpcLobbyHub = "lobby_hub"

	// RpcLobbyInfo describes a lobby by its join code.
	RpcLobbyInfo = "lobby_info"

	// RpcVoiceToken issues a voice token for the caller's session.
	RpcVoiceToken = "voice_token"

	// MatchNameHub is the authoritative match handler name registered with Nakama.
	MatchNameHub = "thirteen_hub"
)

// Match label keys.
const (
	MatchLabelKeyHub         = "hub"
	MatchLabelKeyLobbies     = "lobbies"
	MatchLabelKeyConnections = "connections"
)

// gRPC status codes used for RPC errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
)

const hubTickRate = 10
