package nakama

import (
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

type presenceEntry struct {
	presence   runtime.Presence
	dispatcher runtime.MatchDispatcher
}

// presenceTable maps every session connected to any hub on this node to the hub
// dispatcher that can reach it. Lobbies are shared by all hubs, so events are
// routed through this table rather than through one hub's own presences.
type presenceTable struct {
	mu      sync.RWMutex
	entries map[string]presenceEntry // SessionId -> entry
}

func newPresenceTable() *presenceTable {
	return &presenceTable{entries: make(map[string]presenceEntry)}
}

func (t *presenceTable) add(p runtime.Presence, dispatcher runtime.MatchDispatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[p.GetSessionId()] = presenceEntry{presence: p, dispatcher: dispatcher}
}

// remove drops sessionID only while it is still owned by dispatcher, so a hub
// shutting down cannot evict a session that has since rejoined another hub.
func (t *presenceTable) remove(sessionID string, dispatcher runtime.MatchDispatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[sessionID]; ok && e.dispatcher == dispatcher {
		delete(t.entries, sessionID)
	}
}

// route groups the known recipients by the dispatcher that reaches them, keeping
// recipient order within each group. Unknown sessions are skipped.
func (t *presenceTable) route(sessionIDs []string) ([]runtime.MatchDispatcher, map[runtime.MatchDispatcher][]runtime.Presence) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var order []runtime.MatchDispatcher
	groups := make(map[runtime.MatchDispatcher][]runtime.Presence)
	for _, id := range sessionIDs {
		e, ok := t.entries[id]
		if !ok {
			continue
		}
		if _, seen := groups[e.dispatcher]; !seen {
			order = append(order, e.dispatcher)
		}
		groups[e.dispatcher] = append(groups[e.dispatcher], e.presence)
	}
	return order, groups
}
