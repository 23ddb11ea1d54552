package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SamuelRCrider/piiguard/llm"
)

var (
	flagRelayServer  string
	flagRelayTool    string
	flagRelaySession string
)

func init() {
	relayCmd.Flags().StringVar(&flagRelayServer, "server", "", "MCP server command (default: MCP_SERVER_PATH)")
	relayCmd.Flags().StringVar(&flagRelayTool, "tool", "", "tool to call (default: MCP_TOOL_NAME or csp.llm.wrap)")
	relayCmd.Flags().StringVar(&flagRelaySession, "session", "", "session id (default: random UUID)")
	rootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay [text]",
	Short: "Send anonymized text to an MCP tool and print its restored answer",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		extra := map[string]any{}
		if cmd.Flags().Changed("server") {
			extra["relay.server_path"] = flagRelayServer
		}
		if cmd.Flags().Changed("tool") {
			extra["relay.tool_name"] = flagRelayTool
		}
		cfg, logger, guard, err := setup(cmd, extra)
		if err != nil {
			return err
		}
		defer func() { _ = guard.Close() }()

		text := strings.Join(args, " ")
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server, err := llm.GetMCPServerConfig(cfg.Relay.ServerPath)
		if err != nil {
			return fmt.Errorf("failed to configure MCP server: %w", err)
		}
		client, err := llm.DialStdio(ctx, server)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		sessionID := flagRelaySession
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		defer func() { _ = guard.ClearSession(sessionID) }()

		relay := llm.NewRelay(guard, client, llm.ConfigFrom(cfg.Relay), logger)
		output, err := relay.Process(ctx, sessionID, text)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	},
}

