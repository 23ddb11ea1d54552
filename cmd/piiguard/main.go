// Command piiguard runs the reversible PII redaction engine as an MCP stdio
// server, an HTTP service, or a one-shot scanner.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SamuelRCrider/piiguard"
	"github.com/SamuelRCrider/piiguard/config"
	"github.com/SamuelRCrider/piiguard/utils"
)

var (
	flagConfig        string
	flagLogLevel      string
	flagLogJSON       bool
	flagSessionTTL    int64
	flagSweepInterval int64
	flagCatalog       string
	flagOverlap       string
)

var rootCmd = &cobra.Command{
	Use:           "piiguard",
	Short:         "Reversible PII redaction for LLM pipelines",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	pf.Int64Var(&flagSessionTTL, "session-ttl", 0, "session TTL in milliseconds")
	pf.Int64Var(&flagSweepInterval, "sweep-interval", 0, "expiry sweep interval in milliseconds")
	pf.StringVar(&flagCatalog, "catalog", "", "path to a YAML pattern catalog")
	pf.StringVar(&flagOverlap, "overlap", "", "overlap policy: keep_all or longest_wins")
}

// flagOverrides returns only the flags the user actually set
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		overrides["logging.level"] = flagLogLevel
	}
	if flags.Changed("log-json") {
		overrides["logging.json"] = flagLogJSON
	}
	if flags.Changed("session-ttl") {
		overrides["pii.session_ttl"] = flagSessionTTL
	}
	if flags.Changed("sweep-interval") {
		overrides["pii.sweep_interval"] = flagSweepInterval
	}
	if flags.Changed("catalog") {
		overrides["pii.catalog_path"] = flagCatalog
	}
	if flags.Changed("overlap") {
		overrides["pii.overlap_policy"] = flagOverlap
	}
	return overrides
}

// setup loads configuration and builds the logger and guard every
// subcommand shares. Logs always go to stderr; stdout may carry MCP frames.
func setup(cmd *cobra.Command, extra map[string]any) (config.Config, *utils.Logger, *piiguard.Guard, error) {
	overrides := flagOverrides(cmd)
	for k, v := range extra {
		overrides[k] = v
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath:    flagConfig,
		FlagOverrides: overrides,
	})
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	opts := utils.DefaultLoggerOptions()
	opts.Level = cfg.Logging.Level
	opts.JSON = cfg.Logging.JSON
	opts.Output = os.Stderr
	logger := utils.NewLogger(opts)

	guard, err := piiguard.NewFromConfig(cfg, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, guard, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
