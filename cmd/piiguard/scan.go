package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagScanSession string
	flagScanJSON    bool
)

func init() {
	scanCmd.Flags().StringVar(&flagScanSession, "session", "", "session id (default: random UUID)")
	scanCmd.Flags().BoolVar(&flagScanJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Anonymize text from the arguments or stdin and print the result",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, guard, err := setup(cmd, nil)
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

		sessionID := flagScanSession
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		result, err := guard.DetectAndAnonymize(text, sessionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagScanJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Fprintln(out, "Matches Found:")
		for _, d := range result.Detected {
			fmt.Fprintf(out, " - %s %s at [%d:%d]\n", d.Kind, d.Placeholder, d.Span.Start, d.Span.End)
		}
		fmt.Fprintln(out, "\nRedacted Output:")
		fmt.Fprintln(out, result.AnonymizedText)
		return nil
	},
}
