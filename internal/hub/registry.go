package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"sync"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/event"
)

// Session is one live, authenticated connection. Implemented by Client; tests
// substitute fakes.
type Session interface {
	SessionID() string
	Identity() string
	Role() string
	Send(ev event.WsEvent) bool
	Close()
}

// Registry maps an identity to at most one live session. It is injected into
// the hub so the gateway logic is testable without a transport and a scaled
// deployment can swap in a shared registry.
type Registry interface {
	// Bind installs s as the identity's live session and returns the session
	// it replaced, if any. The caller is responsible for closing the evicted
	// session.
	Bind(userID string, s Session) (prev Session)
	// Unbind removes the mapping only if it still points at s, so a stale
	// disconnect never evicts a newer session.
	Unbind(userID string, s Session) bool
	Get(userID string) (Session, bool)
	Len() int
	// Each calls fn for every bound session.
	Each(fn func(s Session))
}

const shardCount = 64 // tune: 16/64/128 depending on load

type registryShard struct {
	sync.RWMutex
	sessions map[string]Session
}

// shardedRegistry is the in-memory Registry: identity-keyed, sharded to keep
// bind/lookup contention per identity rather than global.
type shardedRegistry struct {
	shards [shardCount]*registryShard
}

func NewRegistry() Registry {
	r := &shardedRegistry{}
	for i := 0; i < shardCount; i++ {
		r.shards[i] = &registryShard{sessions: make(map[string]Session)}
	}
	return r
}

func (r *shardedRegistry) shard(userID string) *registryShard {
	if userID == "" {
		return r.shards[0]
	}
	h := sha1.Sum([]byte(userID))
	return r.shards[binary.BigEndian.Uint32(h[:4])%shardCount]
}

func (r *shardedRegistry) Bind(userID string, s Session) Session {
	sh := r.shard(userID)
	sh.Lock()
	defer sh.Unlock()

	prev := sh.sessions[userID]
	sh.sessions[userID] = s
	if prev == s {
		return nil
	}
	return prev
}

func (r *shardedRegistry) Unbind(userID string, s Session) bool {
	sh := r.shard(userID)
	sh.Lock()
	defer sh.Unlock()

	current, ok := sh.sessions[userID]
	if !ok || current != s {
		return false
	}
	delete(sh.sessions, userID)
	return true
}

func (r *shardedRegistry) Get(userID string) (Session, bool) {
	sh := r.shard(userID)
	sh.RLock()
	defer sh.RUnlock()

	s, ok := sh.sessions[userID]
	return s, ok
}

func (r *shardedRegistry) Len() int {
	total := 0
	for _, sh := range r.shards {
		sh.RLock()
		total += len(sh.sessions)
		sh.RUnlock()
	}
	return total
}

func (r *shardedRegistry) Each(fn func(s Session)) {
	for _, sh := range r.shards {
		sh.RLock()
		sessions := make([]Session, 0, len(sh.sessions))
		for _, s := range sh.sessions {
			sessions = append(sessions, s)
		}
		sh.RUnlock()

		// fn runs without the shard lock held.
		for _, s := range sessions {
			fn(s)
		}
	}
}
