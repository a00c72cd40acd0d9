// Package telnet provides the line-oriented TCP transport adapter.
package telnet

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/parlorchat/parlor/internal/command"
	"github.com/parlorchat/parlor/internal/observability"
)

// Server accepts TCP connections and runs one handler per connection.
type Server struct {
	addr       string
	listener   net.Listener
	dispatcher *command.Dispatcher
	metrics    *observability.Metrics
	mu         sync.RWMutex
}

// NewServer creates a new telnet server. metrics may be nil.
func NewServer(addr string, dispatcher *command.Dispatcher, metrics *observability.Metrics) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	slog.Info("telnet server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			slog.Debug("error closing listener", "error", err)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				slog.Error("accept failed", "error", err)
				continue
			}
		}

		if s.metrics != nil {
			s.metrics.ConnectionsTotal.WithLabelValues("telnet").Inc()
		}
		handler := NewConnectionHandler(conn, s.dispatcher)
		go handler.Handle(ctx)
	}
}
