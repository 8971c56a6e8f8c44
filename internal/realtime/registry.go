package realtime

import (
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

const registryShards = 32

type registryShard struct {
	conns map[string]Conn
	sync.RWMutex
}

// Registry maps a user id to the one connection currently bound to it.
type Registry struct {
	shards []*registryShard
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	shards := make([]*registryShard, registryShards)
	for i := range shards {
		shards[i] = &registryShard{conns: make(map[string]Conn)}
	}
	return &Registry{shards: shards}
}

func (r *Registry) shard(userID string) *registryShard {
	return r.shards[fnv1a.HashString32(userID)%registryShards]
}

// Bind points userID at conn and returns the connection it displaced, if any.
func (r *Registry) Bind(userID string, conn Conn) Conn {
	s := r.shard(userID)
	s.Lock()
	prev := s.conns[userID]
	s.conns[userID] = conn
	s.Unlock()
	return prev
}

// BindIfAbsent binds conn only when userID has no connection. It reports
// whether the binding was made.
func (r *Registry) BindIfAbsent(userID string, conn Conn) bool {
	s := r.shard(userID)
	s.Lock()
	defer s.Unlock()

	if _, ok := s.conns[userID]; ok {
		return false
	}
	s.conns[userID] = conn
	return true
}

// Unbind removes userID whatever it points at.
func (r *Registry) Unbind(userID string) {
	s := r.shard(userID)
	s.Lock()
	delete(s.conns, userID)
	s.Unlock()
}

// UnbindIf removes the entry only if it still points at connID.
func (r *Registry) UnbindIf(userID, connID string) bool {
	s := r.shard(userID)
	s.Lock()
	defer s.Unlock()

	cur, ok := s.conns[userID]
	if !ok || cur.ID() != connID {
		return false
	}
	delete(s.conns, userID)
	return true
}

// Lookup returns the connection bound to userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	s := r.shard(userID)
	s.RLock()
	conn, ok := s.conns[userID]
	s.RUnlock()
	return conn, ok
}

// Len counts bound users across all shards.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.RLock()
		n += len(s.conns)
		s.RUnlock()
	}
	return n
}
