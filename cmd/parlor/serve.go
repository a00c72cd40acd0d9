package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/command"
	"github.com/parlorchat/parlor/internal/config"
	"github.com/parlorchat/parlor/internal/logging"
	"github.com/parlorchat/parlor/internal/observability"
	"github.com/parlorchat/parlor/internal/telnet"
	"github.com/parlorchat/parlor/internal/ws"
)

// NewServeCmd creates the serve subcommand with all flags configured.
func NewServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat relay server",
		Long: `Start the chat relay server: telnet and WebSocket listeners sharing
one room registry, plus a metrics/health endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.Flags().String("telnet-addr", config.DefaultTelnetAddr, "telnet listen address (empty = disabled)")
	cmd.Flags().String("websocket-addr", config.DefaultWebsocketAddr, "websocket listen address (empty = disabled)")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or text)")

	return cmd
}

// runServe starts the relay and blocks until a shutdown signal.
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("parlor", version, cfg.Log.Format)

	slog.Info("starting parlor",
		"telnet_addr", cfg.Telnet.Addr,
		"websocket_addr", cfg.Websocket.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"log_format", cfg.Log.Format,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := chat.NewRegistry()
	dispatcher := command.NewDispatcher(registry)

	var ready atomic.Bool

	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, ready.Load)
		command.RegisterMetrics(obsServer.Registry())
		metrics = obsServer.Metrics()
		if _, err := obsServer.Start(); err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
	}

	serverErrCh := make(chan error, 2)

	if cfg.Telnet.Addr != "" {
		telnetServer := telnet.NewServer(cfg.Telnet.Addr, dispatcher, metrics)
		go func() {
			if err := telnetServer.Run(ctx); err != nil {
				serverErrCh <- fmt.Errorf("telnet server: %w", err)
			}
		}()
	}

	if cfg.Websocket.Addr != "" {
		wsServer := ws.NewServer(cfg.Websocket.Addr, dispatcher, metrics)
		go func() {
			if err := wsServer.Run(ctx); err != nil {
				serverErrCh <- fmt.Errorf("websocket server: %w", err)
			}
		}()
	}

	ready.Store(true)
	slog.Info("parlor ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case runErr = <-serverErrCh:
		slog.Error("server failed", "error", runErr)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	cancel()

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return runErr
}
