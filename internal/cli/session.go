// internal/cli/session.go
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jason-s-yu/relay/internal/client"
	"github.com/spf13/cobra"
)

func newHostCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Create a lobby and stay in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return interactive(cmd, cfg, func(ctx context.Context, c *client.Client) (string, error) {
				if err := c.Create(ctx, cfg.PlayerID); err != nil {
					return "", err
				}
				msg, err := c.Next(ctx)
				if err != nil {
					return "", err
				}
				if err := printMessage(cmd.OutOrStdout(), msg); err != nil {
					return "", err
				}
				if msg.Type != "lobby-created" {
					return "", fmt.Errorf("create failed: %s", msg.Message)
				}
				return msg.Code, nil
			})
		},
	}
}

func newJoinCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a lobby and stay in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return interactive(cmd, cfg, func(ctx context.Context, c *client.Client) (string, error) {
				joined, err := join(ctx, cmd.OutOrStdout(), c, args[0], cfg.PlayerID)
				return joined.Code, err
			})
		},
	}
}

func newSendCmd(cfg *Config) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <code> <json>",
		Short: "Join a lobby, relay one message and leave",
		Long: `send joins the lobby as a new member, relays the given JSON payload and
leaves again, printing what arrives until the leave is confirmed or --wait
runs out.

The lobby needs a free seat. An identity that is already in the lobby is
refused: joining with it would take it over from its own connection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("payload is not valid JSON")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), wait+5*time.Second)
			defer cancel()

			if err := checkSeat(cfg, args[0], cfg.PlayerID); err != nil {
				return err
			}

			c, err := client.Dial(ctx, cfg.wsURL())
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			joined, err := join(ctx, out, c, args[0], cfg.PlayerID)
			if err != nil {
				return err
			}
			if err := c.Send(ctx, joined.Code, json.RawMessage(args[1])); err != nil {
				return err
			}
			if err := c.Leave(ctx, joined.Code); err != nil {
				return err
			}

			waitCtx, cancelWait := context.WithTimeout(ctx, wait)
			defer cancelWait()
			for {
				msg, err := c.Next(waitCtx)
				if err != nil {
					// a timed out read closes the socket, which the server treats as a disconnect
					return nil
				}
				if err := printMessage(out, msg); err != nil {
					return err
				}
				if msg.Type == "player-left" && msg.PlayerID == joined.PlayerID {
					return nil
				}
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", time.Second, "How long to print replies before leaving")
	return cmd
}

// join sends join-lobby and returns the join-success reply.
func join(ctx context.Context, out io.Writer, c *client.Client, code, playerID string) (client.Message, error) {
	if err := c.Join(ctx, code, playerID); err != nil {
		return client.Message{}, err
	}
	msg, err := c.Next(ctx)
	if err != nil {
		return client.Message{}, err
	}
	if err := printMessage(out, msg); err != nil {
		return client.Message{}, err
	}
	if msg.Type != "join-success" {
		return client.Message{}, fmt.Errorf("join failed: %s", msg.Message)
	}
	return msg, nil
}

// interactive dials, runs enter to get into a lobby, then relays stdin lines
// and prints server messages until interrupted or the server closes.
func interactive(cmd *cobra.Command, cfg *Config, enter func(context.Context, *client.Client) (string, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, cfg.wsURL())
	if err != nil {
		return err
	}
	defer c.Close()

	code, err := enter(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "in lobby %s, type lines to relay, Ctrl+C to quit\n", code)

	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := c.Send(ctx, code, payload(line)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "send failed: %v\n", err)
				return
			}
		}
	}()

	for {
		msg, err := c.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}
		if err := printMessage(cmd.OutOrStdout(), msg); err != nil {
			return err
		}
	}
}

// payload sends valid JSON verbatim and wraps anything else as a string.
func payload(line string) interface{} {
	if json.Valid([]byte(line)) {
		return json.RawMessage(line)
	}
	return line
}

func printMessage(w io.Writer, msg client.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
