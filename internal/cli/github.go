package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/difflens/internal/cache"
	"github.com/dshills/difflens/internal/config"
	"github.com/dshills/difflens/internal/github"
	"github.com/dshills/difflens/internal/gitctx"
	"github.com/dshills/difflens/internal/review"
)

var (
	flagGHOwner  string
	flagGHRepo   string
	flagGHDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr>",
	Short: "Review a GitHub pull request",
	Long: `Fetch a pull request diff from GitHub, review it and post the findings
as a pull request review. <pr> is a number, owner/repo#number or a PR URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := github.ParsePRRef(args[0])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		if err := resolveRepo(&ref); err != nil {
			fmt.Fprintf(stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		client, err := github.NewFromConfig(ctx, cfg.GitHub, slog.Default())
		if err != nil {
			fail(err)
			return nil
		}

		fmt.Fprintf(stderr, "Fetching PR #%d from %s/%s...\n", ref.Number, ref.Owner, ref.Repo)
		pr, err := client.GetPullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
		if err != nil {
			fail(err)
			return nil
		}
		diff, err := fetchPRDiff(ctx, client, cfg, ref, pr)
		if err != nil {
			fail(err)
			return nil
		}
		if diff == "" {
			fmt.Fprintln(stdout, "PR has no diff, nothing to review.")
			return nil
		}

		res := gitctx.FromText(diff, "github-pr", buildDiffOpts(cfg))
		res.Range = fmt.Sprintf("%s..%s", pr.BaseRef, pr.HeadRef)
		res.Repo = gitctx.RepoMeta{
			Root:   fmt.Sprintf("%s/%s", ref.Owner, ref.Repo),
			Head:   pr.HeadSHA,
			Branch: pr.HeadRef,
		}

		report, err := review.Run(ctx, res, engine)
		if err != nil {
			fail(err)
			return nil
		}
		emitReports([]*review.Report{report}, cfg)
		if exitCode == ExitRuntimeError {
			return nil
		}

		req := github.BuildReview(report, cfg.FailOn)
		if flagGHDryRun {
			fmt.Fprintf(stderr, "Dry run: %d findings, %d inline comments, not posting to GitHub.\n", len(report.Issues), len(req.Comments))
			return nil
		}

		fmt.Fprintf(stderr, "Posting review (%d inline comments)...\n", len(req.Comments))
		if err := client.CreateReview(ctx, ref.Owner, ref.Repo, ref.Number, req); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintf(stderr, "Review posted to %s.\n", pr.HTMLURL)
		return nil
	},
}

// resolveRepo fills owner and repo from flags, then from the origin remote.
func resolveRepo(ref *github.PRRef) error {
	if flagGHOwner != "" {
		ref.Owner = flagGHOwner
	}
	if flagGHRepo != "" {
		ref.Repo = flagGHRepo
	}
	if ref.Owner != "" && ref.Repo != "" {
		return nil
	}
	dir := flagDir
	if dir == "" {
		dir = "."
	}
	owner, repo, err := github.DetectRepo(dir)
	if err != nil {
		return err
	}
	if ref.Owner == "" {
		ref.Owner = owner
	}
	if ref.Repo == "" {
		ref.Repo = repo
	}
	return nil
}

// fetchPRDiff returns the pull request diff, served from the cache while the
// head commit is unchanged.
func fetchPRDiff(ctx context.Context, client *github.Client, cfg config.Config, ref github.PRRef, pr *github.PullRequest) (string, error) {
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		slog.Warn("cache unavailable", "error", err)
		c = nil
	}
	key := cache.PullRequestKey(ref.Owner, ref.Repo, ref.Number, pr.HeadSHA)
	if c != nil {
		if diff, ok := c.Get(key); ok {
			slog.Debug("pull request diff cache hit", "pr", ref.Number, "head", pr.HeadSHA)
			return diff, nil
		}
	}

	diff, err := client.GetPullRequestDiff(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return "", err
	}
	if c != nil {
		if err := c.Put(key, "pr-diff", diff); err != nil {
			slog.Warn("caching pull request diff", "error", err)
		}
	}
	return diff, nil
}

func init() {
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "Repository owner (auto-detected from git remote)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "Repository name (auto-detected from git remote)")
	githubCmd.Flags().BoolVar(&flagGHDryRun, "dry-run", false, "Run review but do not post to GitHub")
	addOutputFlags(githubCmd.Flags())
	addEngineFlags(githubCmd.Flags())
}
