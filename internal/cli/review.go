package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/difflens/internal/config"
	"github.com/dshills/difflens/internal/gitctx"
	"github.com/dshills/difflens/internal/output"
	"github.com/dshills/difflens/internal/review"
)

// Shared review flags
var (
	flagPaths         string
	flagExclude       string
	flagContextLines  int
	flagMaxDiffBytes  int
	flagFormat        string
	flagOut           string
	flagFailOn        string
	flagRules         string
	flagLocale        string
	flagDetectSecrets bool
)

func addReviewFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	fs.StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	fs.IntVar(&flagContextLines, "context-lines", -1, "Number of context lines in diff")
	fs.IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	addOutputFlags(fs)
	addEngineFlags(fs)
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif, pretty)")
	fs.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	fs.StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, warning, error)")
}

func addEngineFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagRules, "rules", "", "Rules pack (YAML or JSON)")
	fs.StringVar(&flagLocale, "locale", "", "Message locale (en, zh)")
	fs.BoolVar(&flagDetectSecrets, "detect-secrets", false, "Flag hard-coded credentials on added lines")
}

func buildOverrides() map[string]any {
	m := make(map[string]any)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["fail_on"] = flagFailOn
	}
	if flagLocale != "" {
		m["locale"] = flagLocale
	}
	if flagRules != "" {
		m["rules_file"] = flagRules
	}
	if flagContextLines >= 0 {
		m["context_lines"] = flagContextLines
	}
	if flagMaxDiffBytes > 0 {
		m["max_diff_bytes"] = flagMaxDiffBytes
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	if flagLogFormat != "" {
		m["log.format"] = flagLogFormat
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		Dir:          flagDir,
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

// buildEngine applies the config locale, then the rules pack, then flags.
func buildEngine(cfg config.Config) (*review.Engine, error) {
	opts := []review.Option{review.WithLocale(cfg.Locale)}
	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	opts = append(opts, rules.Options()...)
	if flagLocale != "" {
		opts = append(opts, review.WithLocale(flagLocale))
	}
	if flagDetectSecrets {
		opts = append(opts, review.WithSecretDetection())
	}
	return review.NewEngine(opts...), nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// diffSource produces the diff for one review subcommand.
type diffSource func(ctx context.Context, cmd *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error)

// reviewRunE builds the RunE shared by the review subcommands.
func reviewRunE(source diffSource) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		diff, err := source(ctx, cmd, args, buildDiffOpts(cfg))
		if err != nil {
			fail(err)
			return nil
		}
		slog.Debug("diff collected", "mode", diff.Mode, "files", len(diff.Files), "bytes", len(diff.Diff), "truncated", diff.Truncated, "elapsed", diff.Elapsed)
		if diff.Truncated {
			fmt.Fprintf(stderr, "Warning: diff truncated to %d bytes\n", cfg.MaxDiffBytes)
		}

		report, err := review.Run(ctx, diff, engine)
		if err != nil {
			fail(err)
			return nil
		}
		emitReports([]*review.Report{report}, cfg)
		return nil
	}
}

// emitReports writes reports and applies the fail-on threshold.
func emitReports(reports []*review.Report, cfg config.Config) {
	var err error
	if flagOut != "" {
		err = output.WriteReports(reports, cfg.Format, flagOut)
	} else {
		err = output.Render(stdout, reports, cfg.Format)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if review.MeetsThreshold(review.HighestSeverity(reports...), cfg.FailOn) {
		exitCode = ExitFindings
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes with the rule engine. Use subcommands to specify what to review.",
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	RunE: reviewRunE(func(ctx context.Context, _ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Unstaged(ctx, opts)
	}),
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE: reviewRunE(func(ctx context.Context, _ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Staged(ctx, opts)
	}),
}

var (
	flagParent string
)

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: reviewRunE(func(ctx context.Context, _ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Commit(ctx, args[0], flagParent, opts)
	}),
}

var (
	flagMergeBase bool
	flagPerCommit bool
	flagJobs      int
)

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagPerCommit {
			return reviewRunE(func(ctx context.Context, _ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
				return gitctx.Range(ctx, args[0], flagMergeBase, opts)
			})(cmd, args)
		}
		return runPerCommit(cmd, args[0])
	},
}

// runPerCommit reviews every commit of a range as its own report.
func runPerCommit(cmd *cobra.Command, revRange string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := buildDiffOpts(cfg)
	commits, err := gitctx.ListCommits(ctx, opts.Dir, revRange, flagMergeBase)
	if err != nil {
		fail(err)
		return nil
	}
	if len(commits) == 0 {
		fmt.Fprintf(stderr, "No commits in %s.\n", revRange)
		return nil
	}
	diffs, err := gitctx.CommitDiffs(ctx, commits, opts)
	if err != nil {
		fail(err)
		return nil
	}
	slog.Debug("reviewing commits", "range", revRange, "commits", len(commits), "jobs", flagJobs)

	reports, err := review.RunBatch(ctx, diffs, engine, flagJobs)
	if err != nil {
		fail(err)
		return nil
	}
	emitReports(reports, cfg)
	return nil
}

var (
	flagSnippetPath string
	flagSnippetBase string
)

var reviewSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Review code from stdin as a new or changed file",
	RunE: reviewRunE(func(ctx context.Context, _ *cobra.Command, _ []string, _ gitctx.DiffOptions) (gitctx.DiffResult, error) {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return gitctx.DiffResult{}, fmt.Errorf("reading stdin: %w", err)
		}
		var base string
		if flagSnippetBase != "" {
			data, err := os.ReadFile(flagSnippetBase)
			if err != nil {
				return gitctx.DiffResult{}, fmt.Errorf("reading base file: %w", err)
			}
			base = string(data)
		}
		return gitctx.Snippet(ctx, string(content), flagSnippetPath, base)
	}),
}

var reviewFileCmd = &cobra.Command{
	Use:   "file [path]",
	Short: "Review a diff read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: reviewRunE(func(_ context.Context, _ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		text, err := readInput(args)
		if err != nil {
			return gitctx.DiffResult{}, err
		}
		res := gitctx.FromText(text, "file", opts)
		if meta, err := gitctx.GetRepoMeta(opts.Dir); err == nil {
			res.Repo = meta
		}
		return res, nil
	}),
}

var reviewCodebaseCmd = &cobra.Command{
	Use:   "codebase",
	Short: "Review all tracked files in the repository",
	RunE: reviewRunE(func(_ context.Context, _ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Codebase(opts)
	}),
}

// readInput reads args[0], or stdin when there is no argument or it is "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading diff: %w", err)
	}
	return string(data), nil
}

func init() {
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewSnippetCmd)
	reviewCmd.AddCommand(reviewFileCmd)
	reviewCmd.AddCommand(reviewCodebaseCmd)

	for _, cmd := range []*cobra.Command{
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewSnippetCmd,
		reviewFileCmd,
		reviewCodebaseCmd,
	} {
		addReviewFlags(cmd.Flags())
	}

	reviewCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")

	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	reviewRangeCmd.Flags().BoolVar(&flagPerCommit, "per-commit", false, "Review each commit in the range separately")
	reviewRangeCmd.Flags().IntVar(&flagJobs, "jobs", review.DefaultBatchLimit, "Commits reviewed concurrently with --per-commit")

	reviewSnippetCmd.Flags().StringVar(&flagSnippetPath, "path", "", "File path (for language detection and messages)")
	reviewSnippetCmd.Flags().StringVar(&flagSnippetBase, "base", "", "Base file to diff against")
}
