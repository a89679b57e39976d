// internal/cli/status.go
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func newListCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live lobbies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cmd.OutOrStdout(), cfg.httpURL("/lobbies"))
		},
	}
}

func newHealthCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cmd.OutOrStdout(), cfg.httpURL("/healthz"))
		},
	}
}

// getJSON fetches url and pretty-prints the JSON body.
func getJSON(w io.Writer, url string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	pretty, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}

// lobbySummary is the part of a /lobbies entry the CLI inspects.
type lobbySummary struct {
	Code     string   `json:"code"`
	Host     string   `json:"host"`
	Players  []string `json:"players"`
	Capacity int      `json:"capacity"`
}

var (
	errNoSeat        = errors.New("lobby has no free seat")
	errAlreadyInside = errors.New("identity is already in the lobby")
)

// checkSeat makes sure joining code as playerID takes a new seat rather than
// failing or taking over an existing participant.
func checkSeat(cfg *Config, code, playerID string) error {
	lobbies, err := fetchLobbies(cfg.httpURL("/lobbies"))
	if err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, l := range lobbies {
		if l.Code != code {
			continue
		}
		if playerID != "" && playerID == l.Host {
			return fmt.Errorf("%s: %w as host", playerID, errAlreadyInside)
		}
		for _, p := range l.Players {
			if p == playerID {
				return fmt.Errorf("%s: %w", playerID, errAlreadyInside)
			}
		}
		if 1+len(l.Players) >= l.Capacity {
			return fmt.Errorf("%s: %w", code, errNoSeat)
		}
		return nil
	}
	// unknown codes are reported by the server's join-failed reply
	return nil
}

func fetchLobbies(url string) ([]lobbySummary, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	var lobbies []lobbySummary
	if err := json.NewDecoder(resp.Body).Decode(&lobbies); err != nil {
		return nil, fmt.Errorf("failed to decode lobbies: %w", err)
	}
	return lobbies, nil
}
