package telnet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/command"
)

// ConnectionHandler handles a single telnet connection.
type ConnectionHandler struct {
	conn       net.Conn
	reader     *bufio.Reader
	dispatcher *command.Dispatcher
	session    *chat.Session
}

// NewConnectionHandler creates a handler and its backing session. The
// remote address is the session identity.
func NewConnectionHandler(conn net.Conn, dispatcher *command.Dispatcher) *ConnectionHandler {
	return &ConnectionHandler{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		dispatcher: dispatcher,
		session:    chat.NewSession(conn.RemoteAddr().String()),
	}
}

// Session returns the handler's session.
func (h *ConnectionHandler) Session() *chat.Session {
	return h.session
}

// Handle processes the connection until it closes. Commands for this
// session run one at a time, in arrival order; outbound text from other
// sessions is drained from the session's channel in the same loop.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	defer func() {
		if err := h.conn.Close(); err != nil {
			slog.Debug("error closing connection", "error", err)
		}
	}()

	slog.Info("new connection",
		"transport", "telnet",
		"identity", h.session.Identity(),
		"conn_id", h.session.ConnID().String(),
	)

	chat.SendToUser(h.session, command.Welcome, chat.SystemPrefix())

	lineCh := make(chan string)
	errCh := make(chan error, 1)
	readerDone := make(chan struct{})
	defer close(readerDone)

	go func() {
		for {
			line, err := h.reader.ReadString('\n')
			if err != nil {
				select {
				case errCh <- err:
				case <-readerDone:
				}
				return
			}
			select {
			case lineCh <- strings.TrimRight(line, "\r\n"):
			case <-readerDone:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.dispatcher.Disconnect(ctx, h.session)
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				slog.Debug("connection read error",
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

		case <-h.session.Done():
			h.flushOutbound()
			return
		}
	}
}

// flushOutbound writes whatever is still queued after the session closed
// so the quit confirmation reaches the peer before the connection drops.
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
	if _, err := fmt.Fprintln(h.conn, msg); err != nil {
		slog.Debug("failed to send message to client",
			"conn_id", h.session.ConnID().String(),
			"error", err,
		)
		return false
	}
	return true
}
