package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Parlor CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parlor",
		Short: "Parlor - a multi-room text chat relay",
		Long: `Parlor is a multi-room text chat relay. Clients connect over telnet
or WebSocket, pick a display name, join rooms, and broadcast text to
the room they occupy.`,
	}

	cmd.AddCommand(NewServeCmd())

	return cmd
}
