package ports

// VoicePort issues voice chat access tokens.
type VoicePort interface {
	// GenerateToken signs a token for user. action is "login" or "join"; channelName is
	// required for join tokens and ignored for login tokens.
	GenerateToken(user, action, channelName string) (string, error)
}
