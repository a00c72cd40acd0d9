// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

// Package ws provides the WebSocket transport adapter.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parlorchat/parlor/internal/command"
	"github.com/parlorchat/parlor/internal/observability"
)

// Connection keepalive parameters.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server accepts WebSocket connections on /ws and runs one handler per
// connection.
type Server struct {
	addr       string
	dispatcher *command.Dispatcher
	metrics    *observability.Metrics

	mu         sync.RWMutex
	listener   net.Listener
	httpServer *http.Server
	runCtx     context.Context
}

// NewServer creates a new WebSocket server. metrics may be nil.
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

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpSrv
	s.runCtx = ctx
	s.mu.Unlock()

	slog.Info("websocket server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Debug("error shutting down websocket server", "error", err)
		}
	}()

	if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("websocket serve: %w", err)
	}
	return nil
}

// handleUpgrade upgrades an HTTP request and hands the connection to a
// per-connection handler goroutine.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	if s.metrics != nil {
		s.metrics.ConnectionsTotal.WithLabelValues("websocket").Inc()
	}

	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	handler := NewConnectionHandler(conn, s.dispatcher)
	go handler.Handle(ctx)
}
