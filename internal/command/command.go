// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

// Package command provides the slash-command parser and dispatch system.
package command

import (
	"github.com/parlorchat/parlor/internal/chat"
)

// Prefix is the character identifying an input line as a command.
const Prefix = '/'

// Welcome is the system notice transports send to every new connection.
const Welcome = "Welcome to Parlor. Commands: /nick <name>, /join <room>, /msg <text>, /rooms, /quit"

// Kind enumerates the protocol's command set. The dispatcher carries a
// handler for every kind; kindCount exists so tests can verify the
// mapping is total.
type Kind int

const (
	KindNick Kind = iota
	KindJoin
	KindMsg
	KindRooms
	KindQuit

	kindCount
)

// String returns the wire name of the command kind.
func (k Kind) String() string {
	switch k {
	case KindNick:
		return "nick"
	case KindJoin:
		return "join"
	case KindMsg:
		return "msg"
	case KindRooms:
		return "rooms"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is one parsed instruction: constructed per input line,
// consumed by a single handler, then discarded.
type Command struct {
	Kind   Kind
	Body   string
	Sender *chat.Session
}
