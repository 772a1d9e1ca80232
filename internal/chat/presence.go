package chat

import (
	"encoding/json"
	"sync/atomic"
)

// presenceRegistry maps user id to profile for every joined, connected
// client. Only the hub goroutine touches the map; the count is mirrored in
// an atomic so the health endpoint can read it without entering the loop.
type presenceRegistry struct {
	users map[string]User
	count atomic.Int64
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{users: make(map[string]User)}
}

// upsert adds or replaces the profile under u.ID. Last join wins.
func (p *presenceRegistry) upsert(u User) {
	p.users[u.ID] = u
	p.count.Store(int64(len(p.users)))
}

// remove deletes the identity, returning the profile it held if any.
func (p *presenceRegistry) remove(id string) (User, bool) {
	u, ok := p.users[id]
	if ok {
		delete(p.users, id)
		p.count.Store(int64(len(p.users)))
	}
	return u, ok
}

// snapshot returns every present profile, order-irrelevant.
func (p *presenceRegistry) snapshot() []json.RawMessage {
	out := make([]json.RawMessage, 0, len(p.users))
	for _, u := range p.users {
		out = append(out, u.Raw)
	}
	return out
}

// Count is safe to call from any goroutine.
func (p *presenceRegistry) Count() int64 {
	return p.count.Load()
}
