package gitctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	// Dir is the working directory git runs in; empty means the current one.
	Dir          string
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      string
	Range     string
	Include   []string
	Exclude   []string
	Truncated bool
	// Elapsed is the time spent collecting the diff.
	Elapsed time.Duration
	Repo    RepoMeta
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// GetRepoMeta opens the repository containing dir and reports its root,
// HEAD commit and branch. A repository without commits has an empty Head.
func GetRepoMeta(dir string) (RepoMeta, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return RepoMeta{}, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return RepoMeta{}, fmt.Errorf("opening repository: %w", err)
	}

	var meta RepoMeta
	if wt, err := repo.Worktree(); err == nil {
		meta.Root = wt.Filesystem.Root()
	}

	ref, err := repo.Head()
	if err != nil {
		// Unborn branch: HEAD points at a ref that has no commit yet.
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			if sym, serr := repo.Storer.Reference(plumbing.HEAD); serr == nil && sym.Type() == plumbing.SymbolicReference {
				meta.Branch = sym.Target().Short()
			}
			return meta, nil
		}
		return meta, fmt.Errorf("resolving HEAD: %w", err)
	}
	meta.Head = ref.Hash().String()
	if ref.Name().IsBranch() {
		meta.Branch = ref.Name().Short()
	} else {
		meta.Branch = "HEAD"
	}
	return meta, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	start := time.Now()
	args := buildDiffArgs(opts)
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(diff, "unstaged", "", opts, start)
}

// Staged returns the diff of index vs HEAD.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	start := time.Now()
	args := buildDiffArgs(opts)
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff", "--cached"}, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(diff, "staged", "", opts, start)
}

// Commit returns the diff for a specific commit vs its parent.
func Commit(ctx context.Context, sha string, parent string, opts DiffOptions) (DiffResult, error) {
	start := time.Now()
	args := buildDiffArgs(opts)
	if parent != "" {
		cmdArgs := append([]string{"diff", parent, sha}, args...)
		diff, err := gitOutput(ctx, opts.Dir, cmdArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
		}
		return buildResult(diff, "commit", sha, opts, start)
	}
	cmdArgs := append([]string{"diff", sha + "~1", sha}, args...)
	diff, err := gitOutput(ctx, opts.Dir, cmdArgs...)
	if err != nil {
		// Root commit: show it against the empty tree.
		showArgs := append([]string{"show", "--format=", sha}, args...)
		diff, err = gitOutput(ctx, opts.Dir, showArgs...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	return buildResult(diff, "commit", sha, opts, start)
}

// Range returns the combined diff for a revision range.
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	start := time.Now()
	args := buildDiffArgs(opts)
	cmdArgs := append([]string{"diff", mergeBaseRange(revRange, mergeBase)}, args...)
	diff, err := gitOutput(ctx, opts.Dir, cmdArgs...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(diff, "range", revRange, opts, start)
}

// Snippet wraps raw content as a "diff" for review. If base is provided, computes a real diff.
func Snippet(ctx context.Context, content, path, base string) (DiffResult, error) {
	start := time.Now()
	if path == "" {
		path = "snippet.txt"
	}
	var diff string
	if base != "" {
		tmpDir, err := os.MkdirTemp("", "difflens-snippet-*")
		if err != nil {
			return DiffResult{}, fmt.Errorf("creating temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		baseName := filepath.Base(path)
		aFile := filepath.Join(tmpDir, "a", baseName)
		bFile := filepath.Join(tmpDir, "b", baseName)
		for _, f := range []struct{ path, body string }{{aFile, base}, {bFile, content}} {
			if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
				return DiffResult{}, err
			}
			if err := os.WriteFile(f.path, []byte(f.body), 0o644); err != nil {
				return DiffResult{}, err
			}
		}

		// git diff --no-index exits 1 when the files differ.
		diff, err = gitOutput(ctx, tmpDir, "diff", "--no-index", "--", "a/"+baseName, "b/"+baseName)
		if err != nil && diff == "" {
			return DiffResult{}, fmt.Errorf("git diff --no-index: %w", err)
		}
		diff = strings.ReplaceAll(diff, "a/a/"+baseName, "a/"+path)
		diff = strings.ReplaceAll(diff, "b/b/"+baseName, "b/"+path)
	} else {
		diff = newFileDiff(path, content)
	}

	return DiffResult{
		Diff:    diff,
		Files:   []string{path},
		Mode:    "snippet",
		Elapsed: time.Since(start),
	}, nil
}

// FromText wraps diff text obtained elsewhere (a file, stdin, an HTTP body).
// Exclude filters and the byte limit apply as for git-produced diffs.
func FromText(text, mode string, opts DiffOptions) DiffResult {
	res := filterAndLimit(text, opts)
	res.Mode = mode
	return res
}

// newFileDiff renders content as the diff that adds it as a new file.
func newFileDiff(path, content string) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	b.WriteString("new file mode 100644\n")
	b.WriteString("--- /dev/null\n")
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		fmt.Fprintf(&b, "+%s\n", line)
	}
	return b.String()
}

func mergeBaseRange(revRange string, mergeBase bool) string {
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		return strings.Replace(revRange, "..", "...", 1)
	}
	return revRange
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func buildResult(diff, mode, rangeStr string, opts DiffOptions, start time.Time) (DiffResult, error) {
	meta, err := GetRepoMeta(opts.Dir)
	if err != nil {
		meta = RepoMeta{}
	}
	res := filterAndLimit(diff, opts)
	res.Mode = mode
	res.Range = rangeStr
	res.Repo = meta
	res.Elapsed = time.Since(start)
	return res, nil
}

// filterAndLimit drops excluded files and then applies the byte limit, so
// excluded files don't consume the budget.
func filterAndLimit(diff string, opts DiffOptions) DiffResult {
	files := extractFiles(diff)
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
		files = filterFileList(files, opts.Exclude)
	}

	truncated := false
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff = truncateDiff(diff, opts.MaxDiffBytes) + "... (diff truncated at max-diff-bytes limit)\n"
		truncated = true
	}

	return DiffResult{
		Diff:      diff,
		Files:     files,
		Include:   opts.Include,
		Exclude:   opts.Exclude,
		Truncated: truncated,
	}
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range splitDiffSections(diff) {
		f := extractPathFromSection(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	sections := splitDiffSections(diff)
	var kept []string
	for _, section := range sections {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func filterFileList(files []string, excludes []string) []string {
	var result []string
	for _, f := range files {
		if !MatchesAny(f, excludes) {
			result = append(result, f)
		}
	}
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// maxFileBytes is the per-file size limit for codebase review.
const maxFileBytes = 1 << 20 // 1MB

// binarySniffLen is how much of a file is checked for NUL bytes, as git does.
const binarySniffLen = 8000

// WalkFiles returns all tracked, non-binary files matching the
// include/exclude filters, sorted. The file list comes from the git index.
func WalkFiles(opts DiffOptions) ([]string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	root := wt.Filesystem.Root()
	var files []string
	for _, e := range idx.Entries {
		name := e.Name
		if len(opts.Include) > 0 && !MatchesAny(name, opts.Include) {
			continue
		}
		if len(opts.Exclude) > 0 && MatchesAny(name, opts.Exclude) {
			continue
		}
		if isBinary(filepath.Join(root, filepath.FromSlash(name))) {
			continue
		}
		files = append(files, name)
	}

	sort.Strings(files)
	return files, nil
}

// isBinary reports whether the file has a NUL byte near its start.
// Unreadable files count as binary so they are skipped.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, binarySniffLen)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}

// Codebase reads all tracked source files and assembles them as
// synthetic new-file diffs. Returns a DiffResult with Mode="codebase".
func Codebase(opts DiffOptions) (DiffResult, error) {
	start := time.Now()
	meta, err := GetRepoMeta(opts.Dir)
	if err != nil {
		return DiffResult{}, err
	}

	files, err := WalkFiles(opts)
	if err != nil {
		return DiffResult{}, err
	}

	var combined strings.Builder
	var includedFiles []string
	totalBytes := 0
	truncated := false

	for _, path := range files {
		data, err := os.ReadFile(filepath.Join(meta.Root, filepath.FromSlash(path)))
		if err != nil || len(data) == 0 || len(data) > maxFileBytes {
			continue
		}

		section := newFileDiff(path, string(data))

		// MaxDiffBytes is a total budget across files.
		if opts.MaxDiffBytes > 0 && totalBytes+len(section) > opts.MaxDiffBytes {
			truncated = true
			break
		}

		combined.WriteString(section)
		includedFiles = append(includedFiles, path)
		totalBytes += len(section)
	}

	return DiffResult{
		Diff:      combined.String(),
		Files:     includedFiles,
		Mode:      "codebase",
		Include:   opts.Include,
		Exclude:   opts.Exclude,
		Truncated: truncated,
		Elapsed:   time.Since(start),
		Repo:      meta,
	}, nil
}

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// ListCommits returns commits in a revision range, oldest first.
// If mergeBase is true, ".." is converted to "..." for merge-base comparison.
func ListCommits(ctx context.Context, dir, revRange string, mergeBase bool) ([]CommitInfo, error) {
	// Output format: "commit <sha>\n<subject>\n" per commit.
	out, err := gitOutput(ctx, dir, "rev-list", "--reverse", "--format=%s", mergeBaseRange(revRange, mergeBase))
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	lines := strings.Split(out, "\n")
	var commits []CommitInfo
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "commit ") {
			continue
		}
		sha := strings.TrimPrefix(line, "commit ")
		var subject string
		if i+1 < len(lines) {
			subject = strings.TrimSpace(lines[i+1])
			i++
		}
		commits = append(commits, CommitInfo{
			SHA:     sha,
			Subject: subject,
		})
	}
	return commits, nil
}

// CommitDiffs collects one DiffResult per commit, for per-commit review.
func CommitDiffs(ctx context.Context, commits []CommitInfo, opts DiffOptions) ([]DiffResult, error) {
	results := make([]DiffResult, 0, len(commits))
	for _, c := range commits {
		res, err := Commit(ctx, c.SHA, "", opts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
