// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package chat

import (
	"fmt"
	"log/slog"

	"github.com/parlorchat/parlor/internal/observability"
)

// Wire prefixes. Server-to-client lines are either raw rejection text or
// "<prefix>: <message>".
const systemTag = "[ *SYS ]"

// SystemPrefix returns the tag for server-originated notices.
func SystemPrefix() string {
	return systemTag
}

// RoomPrefix returns the tag for room-scoped notices.
func RoomPrefix(room string) string {
	return fmt.Sprintf("[ *ROOM %s]", room)
}

// UserPrefix returns the tag for user messages.
func UserPrefix(nick string) string {
	return fmt.Sprintf("< %s >", nick)
}

// SendToUser delivers body to one session, prepending "<prefix>: " when
// prefix is non-empty. Delivery is fire-and-forget: a closed session or
// a full outbound buffer drops the message, observable to the peer only
// as its own connection closing.
func SendToUser(receiver *Session, body, prefix string) {
	if prefix != "" {
		body = prefix + ": " + body
	}

	if !receiver.deliver(body) {
		slog.Warn("message dropped: session closed or buffer full",
			"identity", receiver.Identity(),
			"conn_id", receiver.ConnID().String(),
		)
		observability.RecordDeliveryDropped()
	}
}
