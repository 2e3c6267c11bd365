package store

import (
	"errors"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"thirteen/internal/domain"
)

const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var codePattern = regexp.MustCompile(`^[A-Z]{4}$`)

var (
	ErrAlreadyBound  = errors.New("connection already bound to a lobby")
	ErrLobbyNotFound = errors.New("lobby not found")
)

// Registry is the process-wide index of live lobbies. It keeps two maps in step:
// code -> lobby and connection -> code. Neither map is reachable from outside.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[string]*domain.Lobby
	members map[string]string // connectionID -> code
	rng     *rand.Rand
}

// NewRegistry constructs a Registry drawing codes from rng, or a time-seeded source when nil.
func NewRegistry(rng *rand.Rand) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{
		lobbies: make(map[string]*domain.Lobby),
		members: make(map[string]string),
		rng:     rng,
	}
}

// NormalizeCode uppercases and trims a code typed by a player.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the four-uppercase-letter form.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Create registers an empty lobby under a fresh code and returns it.
func (r *Registry) Create(name string) *domain.Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCode()
	for r.lobbies[code] != nil {
		code = r.generateCode()
	}

	l := domain.NewLobby(code, name)
	r.lobbies[code] = l
	return l
}

func (r *Registry) generateCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[r.rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// Lookup returns the lobby stored under code. Codes are matched exactly; callers
// normalize user input first.
func (r *Registry) Lookup(code string) (*domain.Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[code]
	return l, ok
}

// Bind records that connectionID belongs to the lobby at code.
// Binding again to the same code is a no-op.
func (r *Registry) Bind(connectionID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lobbies[code]; !ok {
		return ErrLobbyNotFound
	}
	if current, ok := r.members[connectionID]; ok && current != code {
		return ErrAlreadyBound
	}
	r.members[connectionID] = code
	return nil
}

// Unbind forgets the connection's lobby membership and returns the code it was bound to.
func (r *Registry) Unbind(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.members[connectionID]
	if ok {
		delete(r.members, connectionID)
	}
	return code, ok
}

// CodeFor returns the code the connection is bound to.
func (r *Registry) CodeFor(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.members[connectionID]
	return code, ok
}

// DeleteIfEmpty removes the lobby at code once its roster is empty.
// It reports whether a lobby was removed; unknown codes are ignored.
func (r *Registry) DeleteIfEmpty(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok || !l.Empty() {
		return false
	}
	delete(r.lobbies, code)
	return true
}

// Len returns the number of live lobbies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// Codes returns the live lobby codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.lobbies))
	for code := range r.lobbies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Bindings returns a copy of the connection -> code index.
func (r *Registry) Bindings() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.members))
	for conn, code := range r.members {
		out[conn] = code
	}
	return out
}
