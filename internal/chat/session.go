// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

// Package chat implements the relay core: per-connection sessions, the
// room registry, and message delivery.
package chat

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// DefaultNick is the display name assigned to every new session until
// the client sets one.
const DefaultNick = "anon"

// outboundBuffer is the per-session outbound queue depth. A full queue
// drops messages rather than blocking the sender.
const outboundBuffer = 64

// Session represents one active client connection.
//
// The current-room pointer is mutated only while the owning connection
// goroutine processes a command (join, quit, disconnect cleanup), always
// under the registry lock. Other sessions reach a Session only through
// room membership, and only to enqueue outbound text.
type Session struct {
	identity string
	connID   ulid.ULID

	mu   sync.RWMutex
	nick string

	room *Room // guarded by Registry.mu

	out       chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates a session for a freshly accepted connection.
// identity must be stable for the connection's lifetime (the remote
// address) and is used as the membership key.
func NewSession(identity string) *Session {
	return &Session{
		identity: identity,
		connID:   ulid.Make(),
		nick:     DefaultNick,
		out:      make(chan string, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// Identity returns the stable per-connection identifier.
func (s *Session) Identity() string {
	return s.identity
}

// ConnID returns the connection ULID used in logs and traces.
func (s *Session) ConnID() ulid.ULID {
	return s.connID
}

// Nick returns the session's display name.
func (s *Session) Nick() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

// SetNick updates the session's display name.
func (s *Session) SetNick(nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nick = nick
}

// Room returns the name of the session's current room, or false when the
// session has not joined one. Must be called from the connection
// goroutine that owns the session.
func (s *Session) Room() (string, bool) {
	if s.room == nil {
		return "", false
	}
	return s.room.name, true
}

// Outbound returns the channel the transport drains to deliver text to
// the peer.
func (s *Session) Outbound() <-chan string {
	return s.out
}

// Done is closed when the session has been shut down (quit command or
// disconnect cleanup).
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close marks the session finished. Safe to call more than once.
// Pending outbound messages stay readable so the transport can flush
// them before closing the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// deliver enqueues text without blocking. Returns false when the session
// is closed or its outbound buffer is full.
func (s *Session) deliver(text string) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.out <- text:
		return true
	default:
		return false
	}
}
