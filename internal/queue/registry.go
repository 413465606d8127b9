package queue

import "sync"

// ManagerFactory builds the Config for a room the registry has not seen
// before; the transport layer supplies the listener callbacks here.
type ManagerFactory func(roomID string) Config

// Registry maps room ids to their managers, creating one per first-seen
// room. It is the only mutable structure shared across rooms.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Manager
	factory ManagerFactory
}

func NewRegistry(factory ManagerFactory) *Registry {
	return &Registry{
		rooms:   make(map[string]*Manager),
		factory: factory,
	}
}

// GetOrCreate returns the room's manager, constructing it on first access.
// The check and insert happen under one lock so concurrent first-joins of
// the same room always converge on a single manager.
func (r *Registry) GetOrCreate(roomID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rooms[roomID]; ok {
		return m
	}
	m := NewManager(r.factory(roomID))
	r.rooms[roomID] = m
	return m
}

// Get returns the manager for a room, or nil if none exists yet.
func (r *Registry) Get(roomID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}
