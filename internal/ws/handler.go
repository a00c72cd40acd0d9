// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/command"
)

// ConnectionHandler handles a single WebSocket connection. Each text
// message from the peer is one protocol line.
type ConnectionHandler struct {
	conn       *websocket.Conn
	dispatcher *command.Dispatcher
	session    *chat.Session
}

// NewConnectionHandler creates a handler and its backing session.
func NewConnectionHandler(conn *websocket.Conn, dispatcher *command.Dispatcher) *ConnectionHandler {
	return &ConnectionHandler{
		conn:       conn,
		dispatcher: dispatcher,
		session:    chat.NewSession(conn.RemoteAddr().String()),
	}
}

// Session returns the handler's session.
func (h *ConnectionHandler) Session() *chat.Session {
	return h.session
}

// Handle processes the connection until it closes. Mirrors the telnet
// loop: one command at a time for this session, outbound text drained in
// the same select, ping keepalive on top.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	defer func() {
		if err := h.conn.Close(); err != nil {
			slog.Debug("error closing websocket", "error", err)
		}
	}()

	slog.Info("new connection",
		"transport", "websocket",
		"identity", h.session.Identity(),
		"conn_id", h.session.ConnID().String(),
	)

	chat.SendToUser(h.session, command.Welcome, chat.SystemPrefix())

	lineCh := make(chan string)
	errCh := make(chan error, 1)
	readerDone := make(chan struct{})
	defer close(readerDone)

	_ = h.conn.SetReadDeadline(time.Now().Add(pongWait))
	h.conn.SetPongHandler(func(string) error {
		return h.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		for {
			_, data, err := h.conn.ReadMessage()
			if err != nil {
				select {
				case errCh <- err:
				case <-readerDone:
				}
				return
			}
			select {
			case lineCh <- string(data):
			case <-readerDone:
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.dispatcher.Disconnect(ctx, h.session)
			return

		case err := <-errCh:
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error",
					"conn_id", h.session.ConnID().String(),
					"error", err,
				)
			}
			h.dispatcher.Disconnect(ctx, h.session)
			return

		case line := <-lineCh:
			if err := h.dispatcher.Dispatch(ctx, line, h.session); err != nil {
				h.send(command.RejectionText(err))
			}

		case msg := <-h.session.Outbound():
			if !h.send(msg) {
				h.dispatcher.Disconnect(ctx, h.session)
				return
			}

		case <-pingTicker.C:
			_ = h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.dispatcher.Disconnect(ctx, h.session)
				return
			}

		case <-h.session.Done():
			h.flushOutbound()
			_ = h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = h.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (h *ConnectionHandler) flushOutbound() {
	for {
		select {
		case msg := <-h.session.Outbound():
			if !h.send(msg) {
				return
			}
		default:
			return
		}
	}
}

func (h *ConnectionHandler) send(msg string) bool {
	_ = h.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := h.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		slog.Debug("failed to send message to client",
			"conn_id", h.session.ConnID().String(),
			"error", err,
		)
		return false
	}
	return true
}
