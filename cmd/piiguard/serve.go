package main

import (
	"github.com/spf13/cobra"

	"github.com/SamuelRCrider/piiguard/mcpserver"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the PII tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, guard, err := setup(cmd, nil)
		if err != nil {
			return err
		}
		// ServeStdio returns on SIGINT/SIGTERM or stdin EOF
		defer func() {
			logger.Info("Shutting down...")
			_ = guard.Close()
		}()

		return mcpserver.New(guard, logger).ServeStdio()
	},
}
