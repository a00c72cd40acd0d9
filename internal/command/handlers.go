// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parlorchat/parlor/internal/chat"
)

// handleNick sets the sender's display name. Never broadcast.
func (d *Dispatcher) handleNick(ctx context.Context, cmd *Command) {
	if strings.Contains(cmd.Body, " ") {
		chat.SendToUser(cmd.Sender, "Name should not contain spaces", chat.SystemPrefix())
		return
	}

	cmd.Sender.SetNick(cmd.Body)
	slog.InfoContext(ctx, "nick set",
		"identity", cmd.Sender.Identity(),
		"nick", cmd.Body,
	)

	chat.SendToUser(cmd.Sender, "Your nick set to "+cmd.Body, chat.SystemPrefix())
}

// handleJoin moves the sender into the named room, leaving the current
// one first. The registry fires the join notice to the other members;
// the sender gets a system confirmation.
func (d *Dispatcher) handleJoin(_ context.Context, cmd *Command) {
	if strings.Contains(cmd.Body, " ") {
		chat.SendToUser(cmd.Sender, "Room name should not contain spaces", chat.SystemPrefix())
		return
	}

	d.registry.Join(cmd.Sender, cmd.Body)

	chat.SendToUser(cmd.Sender,
		fmt.Sprintf("You have successfully joined room %s.", cmd.Body),
		chat.SystemPrefix())
}

// handleMsg broadcasts the body to the sender's current room with the
// sender's display name as prefix.
func (d *Dispatcher) handleMsg(_ context.Context, cmd *Command) {
	room, ok := cmd.Sender.Room()
	if !ok {
		chat.SendToUser(cmd.Sender, "Join a room first!", chat.SystemPrefix())
		return
	}

	d.registry.Broadcast(cmd.Sender, room, cmd.Body, chat.UserPrefix(cmd.Sender.Nick()))
}

// handleRooms replies to the sender with the current room names, one per
// line. Sent raw, without a prefix tag.
func (d *Dispatcher) handleRooms(_ context.Context, cmd *Command) {
	names := d.registry.RoomNames()
	chat.SendToUser(cmd.Sender, "Rooms list:\n"+strings.Join(names, "\n"), "")
}

// handleQuit leaves the current room, notifies the sender, and closes
// the session. The leave confirmation goes out before the closing
// notice.
func (d *Dispatcher) handleQuit(ctx context.Context, cmd *Command) {
	slog.InfoContext(ctx, "user quit",
		"identity", cmd.Sender.Identity(),
		"nick", cmd.Sender.Nick(),
	)

	d.registry.Leave(cmd.Sender)
	chat.SendToUser(cmd.Sender, "Connection closed.", chat.SystemPrefix())
	cmd.Sender.Close()
}
