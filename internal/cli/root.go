// internal/cli/root.go

// Package cli implements lobbyctl, a command line client for the relay.
package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Config holds the global flags.
type Config struct {
	ServerURL string
	PlayerID  string
}

// DefaultConfig reads defaults from the environment.
func DefaultConfig() *Config {
	server := os.Getenv("LOBBYCTL_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	return &Config{ServerURL: server}
}

// wsURL turns the HTTP server URL into the WebSocket endpoint.
func (c *Config) wsURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func (c *Config) httpURL(path string) string {
	return strings.TrimSuffix(c.ServerURL, "/") + path
}

// NewRootCmd builds the lobbyctl command tree.
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "lobbyctl",
		Short: "CLI client for the lobby relay",
		Long: `lobbyctl hosts, joins and talks to lobbies on a relay server.

Interactive commands print every server message as a JSON line. Lines typed
on stdin are relayed to the lobby: valid JSON is sent as is, anything else
as a JSON string.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: LOBBYCTL_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.PlayerID, "player", "p", "", "Identity to use; minted by the server when empty")

	rootCmd.AddCommand(newHostCmd(cfg))
	rootCmd.AddCommand(newJoinCmd(cfg))
	rootCmd.AddCommand(newSendCmd(cfg))
	rootCmd.AddCommand(newListCmd(cfg))
	rootCmd.AddCommand(newHealthCmd(cfg))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
