// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package command

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parlorchat/parlor/internal/chat"
)

var tracer = otel.Tracer("parlor/command")

// HandlerFunc executes one parsed command. Handlers never fail a
// connection: semantic rejections (a nick with spaces, messaging while
// unjoined) are reported to the sender as system-tagged lines.
type HandlerFunc func(ctx context.Context, cmd *Command)

// Dispatcher parses input lines and routes commands to handlers.
type Dispatcher struct {
	registry *chat.Registry
	handlers map[Kind]HandlerFunc
}

// NewDispatcher creates a dispatcher over the given room registry. The
// handler map covers every command kind.
func NewDispatcher(registry *chat.Registry) *Dispatcher {
	d := &Dispatcher{registry: registry}
	d.handlers = map[Kind]HandlerFunc{
		KindNick:  d.handleNick,
		KindJoin:  d.handleJoin,
		KindMsg:   d.handleMsg,
		KindRooms: d.handleRooms,
		KindQuit:  d.handleQuit,
	}
	return d
}

// Dispatch parses line and executes the matching handler for sender.
// A non-nil error is an input rejection; the transport sends
// RejectionText(err) back to the sender and the connection continues.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, sender *chat.Session) error {
	cmd, err := Parse(line, sender)
	if err != nil {
		RecordCommandExecution("invalid", StatusRejected)
		return err
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.kind", cmd.Kind.String()),
			attribute.String("conn.id", sender.ConnID().String()),
		),
	)
	defer span.End()

	handler, ok := d.handlers[cmd.Kind]
	if !ok {
		// Unreachable with a total handler map; guard against a bad Kind.
		span.SetStatus(codes.Error, "no handler for kind")
		RecordCommandExecution(cmd.Kind.String(), StatusRejected)
		return ErrUnknownCommand()
	}

	start := time.Now()
	handler(ctx, cmd)
	RecordCommandDuration(cmd.Kind.String(), time.Since(start))
	RecordCommandExecution(cmd.Kind.String(), StatusSuccess)
	return nil
}

// Disconnect runs quit-equivalent cleanup for a connection the transport
// detected as closed: leave the current room with the usual notices,
// then close the session. No closing notice is sent; the peer is gone.
func (d *Dispatcher) Disconnect(ctx context.Context, sender *chat.Session) {
	d.registry.Leave(sender)
	sender.Close()
	slog.InfoContext(ctx, "connection cleaned up",
		"identity", sender.Identity(),
		"conn_id", sender.ConnID().String(),
	)
}
