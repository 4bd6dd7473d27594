package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/difflens/internal/config"
	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/github"
	"github.com/dshills/difflens/internal/logger"
	"github.com/dshills/difflens/internal/redact"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
	ExitParseError   = 5
)

// Streams used by commands; tests replace them.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Global flags
var (
	flagConfig    string
	flagDir       string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:           "difflens",
	Short:         "Rule-based review of unified diffs",
	Long:          "difflens parses unified diffs, runs language-aware review rules over the changes and reports findings with deterministic exit codes.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Run executes the root command and returns an exit code. With no args the
// process arguments are used.
func Run(args ...string) int {
	exitCode = ExitSuccess
	if args != nil {
		rootCmd.SetArgs(args)
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print difflens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "difflens version %s\n", version)
	},
}

// loadConfig merges configuration with the command-line overrides and
// installs the configured logger as the slog default.
func loadConfig() (config.Config, error) {
	overrides := buildOverrides()
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig, overrides)
	} else {
		cfg, err = config.Load(overrides)
	}
	if err != nil {
		return cfg, err
	}

	var w io.Writer
	if cfg.Log.Output == "" || cfg.Log.Output == "stderr" {
		w = stderr
	}
	slog.SetDefault(logger.NewLogger(cfg.Log, w))
	return cfg, nil
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

// exitFor maps an error to the process exit code.
func exitFor(err error) int {
	var pe *diffparse.ParseError
	switch {
	case errors.As(err, &pe):
		return ExitParseError
	case errors.Is(err, github.ErrAuth), errors.Is(err, github.ErrNoCredentials):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

// fail reports err on stderr and sets the exit code. Unparseable input is
// echoed with secrets redacted.
func fail(err error) {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var pe *diffparse.ParseError
	if errors.As(err, &pe) && pe.Block != "" {
		fmt.Fprintf(stderr, "Offending block:\n%s\n", redact.Secrets(pe.Block))
	}
	exitCode = exitFor(err)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/difflens/config.yaml)")
	pf.StringVarP(&flagDir, "dir", "C", "", "Run as if started in this directory")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}
