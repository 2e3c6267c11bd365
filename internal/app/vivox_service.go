package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const (
	VivoxTokenActionLogin = "login"
	VivoxTokenActionJoin  = "join"

	vivoxTokenTTL = 90 * time.Second
)

// VivoxService signs Vivox access tokens. Lobby voice channels are named after the
// lobby code.
type VivoxService struct {
	secret string
	issuer string
	domain string

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewVivoxService returns a signer, or nil when any credential is missing so callers
// can treat voice as disabled.
func NewVivoxService(secret, issuer, domain string) *VivoxService {
	if secret == "" || issuer == "" || domain == "" {
		return nil
	}
	return &VivoxService{
		secret: secret,
		issuer: issuer,
		domain: domain,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// GenerateToken signs an HS256 token for user performing action.
func (s *VivoxService) GenerateToken(user, action, channelName string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("vivox service is not configured")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}

	userURI := s.userURI(user)
	targetURI, err := s.targetURI(action, channelName, userURI)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	now := s.now()
	nonce := s.rng.Int63()
	s.mu.Unlock()

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": now.Add(vivoxTokenTTL).Unix(),
		"vxa": action,
		"vxi": fmt.Sprintf("%d-%d", now.UnixNano(), nonce),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *VivoxService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VivoxService) channelURI(channelName string) string {
	return "sip:confctl-g-" + channelName + "@" + s.domain
}

func (s *VivoxService) targetURI(action, channelName, userURI string) (string, error) {
	switch action {
	case VivoxTokenActionLogin:
		return userURI, nil
	case VivoxTokenActionJoin:
		if channelName == "" {
			return "", fmt.Errorf("channel name is required for join tokens")
		}
		return s.channelURI(channelName), nil
	default:
		return "", fmt.Errorf("unsupported vivox action: %s", action)
	}
}
