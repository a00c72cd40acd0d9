// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package chat

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/parlorchat/parlor/internal/observability"
)

// Room is a named set of sessions sharing broadcast scope. Membership is
// keyed by session identity and guarded by the owning Registry's lock.
type Room struct {
	name    string
	members map[string]*Session
}

// Name returns the room's name.
func (r *Room) Name() string {
	return r.name
}

// Registry is the process-wide room map. All room and membership
// mutations, and the membership reads used for fan-out, happen under a
// single lock so a broadcast can never observe a half-applied join or
// leave.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Join moves the session into the room named name, creating the room if
// it does not exist. The session always leaves its current room first,
// including when that room is the target: clients deliberately see the
// leave and join notices again on a rejoin.
func (r *Registry) Join(s *Session, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[name]
	if !ok {
		room = &Room{
			name:    name,
			members: map[string]*Session{s.Identity(): s},
		}
		r.rooms[name] = room
		slog.Info("room created", "room", name)
	}

	r.leaveLocked(s)

	// leaveLocked deletes a room that went empty, which happens when the
	// session was the target room's sole member. Reinsert before adding.
	r.rooms[name] = room
	room.members[s.Identity()] = s
	s.room = room
	observability.SetRooms(len(r.rooms))

	r.broadcastLocked(s, name, s.Nick()+" has joined the room!", RoomPrefix(name))

	slog.Info("user joined room",
		"room", name,
		"nick", s.Nick(),
		"identity", s.Identity(),
	)
}

// Leave removes the session from its current room, if any. Remaining
// members get a room-tagged departure notice, the leaver gets a system
// confirmation, and a room with no members left is deleted.
func (r *Registry) Leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(s)
}

func (r *Registry) leaveLocked(s *Session) {
	room := s.room
	if room == nil {
		return
	}

	delete(room.members, s.Identity())
	r.broadcastLocked(s, room.name, s.Nick()+" has left.", RoomPrefix(room.name))
	s.room = nil

	if len(room.members) == 0 {
		delete(r.rooms, room.name)
		observability.SetRooms(len(r.rooms))
		slog.Info("room deleted", "room", room.name)
	}

	slog.Info("user left room",
		"room", room.name,
		"nick", s.Nick(),
		"identity", s.Identity(),
	)

	SendToUser(s, fmt.Sprintf("You have left the room %s.", room.name), SystemPrefix())
}

// Broadcast delivers body to every member of roomName except the sender.
// An absent room is not an error: the room can legitimately vanish
// between the caller's decision and delivery, so this is a no-op.
func (r *Registry) Broadcast(sender *Session, roomName, body, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(sender, roomName, body, prefix)
}

func (r *Registry) broadcastLocked(sender *Session, roomName, body, prefix string) {
	room, ok := r.rooms[roomName]
	if !ok {
		return
	}

	for identity, member := range room.members {
		if identity == sender.Identity() {
			continue
		}
		SendToUser(member, body, prefix)
	}
}

// RoomNames returns the names of all current rooms, sorted.
func (r *Registry) RoomNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemberCount returns the number of members in roomName, or 0 when the
// room does not exist.
func (r *Registry) MemberCount(roomName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomName]
	if !ok {
		return 0
	}
	return len(room.members)
}
