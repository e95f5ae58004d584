package runtime

import (
	"cube-race/contract"
	"cube-race/domain/event"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

type Set map[string]struct{}

type session struct {
	userID string
	roomID string
	sink   contract.EventSink
}

// Registry maps the sessions connected to this node to the room they watch.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]session // map session -> connection
	roomMembers map[string]Set     // map room to sessions
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]session),
		roomMembers: make(map[string]Set),
	}
}

// GetSinksForEvent resolves the sessions of the event's room allowed to
// see it. A targeted event only reaches the sessions of its target user,
// who may be connected more than once.
func (r *Registry) GetSinksForEvent(e event.RoomEvent) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[e.RoomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if s, exists := r.sessions[sessionID]; exists && e.VisibleTo(s.userID) {
			activeSinks = append(activeSinks, s.sink)
		}
	}
	return activeSinks
}

// Subscribe registers a session and assigns it to a room, replacing the
// room it watched before.
func (r *Registry) Subscribe(sessionID, userID, roomID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(sessionID)
	r.sessions[sessionID] = session{userID: userID, roomID: roomID, sink: sink}

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][sessionID] = struct{}{}
}

// Unsubscribe removes the session. No empty sets are left in the room map.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(sessionID)
}

func (r *Registry) remove(sessionID string) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if members, ok := r.roomMembers[s.roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, s.roomID)
		}
	}
}

// Sessions counts the connected sessions.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
