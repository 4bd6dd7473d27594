package gitctx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/difflens/internal/diffparse"
)

func TestExtractFiles(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/util.go b/util.go
--- a/util.go
+++ b/util.go
@@ -5,3 +5,4 @@
+func helper() {}
`
	files := extractFiles(diff)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0] != "main.go" {
		t.Errorf("files[0] = %q, want %q", files[0], "main.go")
	}
	if files[1] != "util.go" {
		t.Errorf("files[1] = %q, want %q", files[1], "util.go")
	}
}

func TestExtractFiles_Dedup(t *testing.T) {
	diff := `+++ b/main.go
+++ b/main.go
`
	files := extractFiles(diff)
	if len(files) != 1 {
		t.Errorf("got %d files, want 1 (should dedup)", len(files))
	}
}

func TestFilterExcluded(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/vendor/lib.go b/vendor/lib.go
--- a/vendor/lib.go
+++ b/vendor/lib.go
@@ -1,3 +1,4 @@
+package lib
`
	result := filterExcluded(diff, []string{"vendor/**"})
	if strings.Contains(result, "vendor/lib.go") {
		t.Error("vendor/lib.go should be excluded")
	}
	if !strings.Contains(result, "main.go") {
		t.Error("main.go should be kept")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
		{"main.go", []string{"*.go"}, true},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestSplitDiffSections(t *testing.T) {
	diff := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,3 +1,4 @@
+line1
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,3 +1,4 @@
+line2
`
	sections := splitDiffSections(diff)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if !strings.Contains(sections[0], "a.go") {
		t.Error("section 0 should contain a.go")
	}
	if !strings.Contains(sections[1], "b.go") {
		t.Error("section 1 should contain b.go")
	}
}

func TestSnippet_NoBase(t *testing.T) {
	content := "package main\n\nfunc main() {}\n"
	result, err := Snippet(context.Background(), content, "main.go", "")
	if err != nil {
		t.Fatalf("Snippet error: %v", err)
	}
	if result.Mode != "snippet" {
		t.Errorf("Mode = %q, want %q", result.Mode, "snippet")
	}
	if len(result.Files) != 1 || result.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", result.Files)
	}
	if !strings.Contains(result.Diff, "+package main") {
		t.Error("Diff should contain added lines")
	}
	if !strings.Contains(result.Diff, "+++ b/main.go") {
		t.Error("Diff should contain file path header")
	}
	if !strings.Contains(result.Diff, "@@ -0,0 +1,3 @@") {
		t.Errorf("hunk header should count 3 lines, got:\n%s", result.Diff)
	}
}

func TestBuildDiffArgs(t *testing.T) {
	opts := DiffOptions{
		ContextLines: 5,
		Include:      []string{"*.go"},
	}
	args := buildDiffArgs(opts)
	if args[0] != "-U5" {
		t.Errorf("args[0] = %q, want %q", args[0], "-U5")
	}
	// Should contain -- separator
	found := false
	for _, a := range args {
		if a == "--" {
			found = true
		}
	}
	if !found {
		t.Error("args should contain -- separator")
	}
	// Should contain the include pattern
	if args[len(args)-1] != "*.go" {
		t.Errorf("last arg = %q, want %q", args[len(args)-1], "*.go")
	}
}

func TestBuildDiffArgs_DefaultInclude(t *testing.T) {
	opts := DiffOptions{
		ContextLines: 3,
		Include:      []string{"**/*"},
	}
	args := buildDiffArgs(opts)
	// **/* should NOT be passed to git (it's the default "include all")
	for _, a := range args {
		if a == "**/*" {
			t.Error("**/* should not be passed as a git path filter")
		}
	}
}

func TestBuildDiffArgs_NoContextLines(t *testing.T) {
	opts := DiffOptions{
		ContextLines: 0,
		Include:      []string{"*.go"},
	}
	args := buildDiffArgs(opts)
	// Should not have -U flag
	for _, a := range args {
		if strings.HasPrefix(a, "-U") {
			t.Error("Should not have -U flag with ContextLines=0")
		}
	}
}

func TestExtractPathFromSection(t *testing.T) {
	section := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,4 @@\n+import\n"
	path := extractPathFromSection(section)
	if path != "main.go" {
		t.Errorf("extractPathFromSection = %q, want %q", path, "main.go")
	}
}

func TestExtractPathFromSection_NoPath(t *testing.T) {
	section := "diff --git a/main.go b/main.go\nsome other content\n"
	path := extractPathFromSection(section)
	if path != "" {
		t.Errorf("extractPathFromSection = %q, want empty", path)
	}
}

func TestFilterFileList(t *testing.T) {
	files := []string{"main.go", "vendor/lib.go", "pkg/util.go", "dist/bundle.js"}
	result := filterFileList(files, []string{"vendor/**", "**/dist/**"})
	if len(result) != 2 {
		t.Fatalf("filterFileList got %d files, want 2", len(result))
	}
	if result[0] != "main.go" {
		t.Errorf("result[0] = %q, want %q", result[0], "main.go")
	}
	if result[1] != "pkg/util.go" {
		t.Errorf("result[1] = %q, want %q", result[1], "pkg/util.go")
	}
}

func TestFilterFileList_Empty(t *testing.T) {
	result := filterFileList(nil, []string{"vendor/**"})
	if len(result) != 0 {
		t.Errorf("filterFileList nil input got %d, want 0", len(result))
	}
}

func TestBuildResult_ExcludeBeforeTruncate(t *testing.T) {
	// Build a diff with a large excluded section and a small included section
	smallDiff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,4 @@\n+line\n"
	largeDiff := "diff --git a/vendor/big.go b/vendor/big.go\n--- a/vendor/big.go\n+++ b/vendor/big.go\n@@ -1,3 +1,4 @@\n+" + strings.Repeat("x", 500) + "\n"
	diff := largeDiff + smallDiff

	opts := DiffOptions{
		MaxDiffBytes: 100, // Very small limit
		Exclude:      []string{"vendor/**"},
	}
	result, err := buildResult(diff, "unstaged", "", opts, time.Now())
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}

	// After excluding vendor/, the remaining diff should be small enough to not truncate
	if strings.Contains(result.Diff, "truncated") {
		t.Error("Diff should not be truncated after excluding vendor/")
	}
	if !strings.Contains(result.Diff, "main.go") {
		t.Error("Diff should still contain main.go")
	}
}

func TestBuildResult_Truncation(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,4 @@\n+" + strings.Repeat("x", 200) + "\n"
	opts := DiffOptions{
		MaxDiffBytes: 50,
	}
	result, err := buildResult(diff, "unstaged", "", opts, time.Now())
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if !strings.Contains(result.Diff, "truncated") {
		t.Error("Large diff should be truncated")
	}
	if !result.Truncated {
		t.Error("Truncated flag should be set")
	}
	if strings.Contains(result.Diff, "xxx") {
		t.Error("partial line should not survive truncation")
	}
}

func TestTruncateDiff_FileBoundary(t *testing.T) {
	first := "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n+a\n"
	second := "diff --git a/b.go b/b.go\n--- a/b.go\n+++ b/b.go\n@@ -1 +1 @@\n+b\n"
	got := truncateDiff(first+second, len(first)+10)
	if got != first {
		t.Errorf("truncateDiff = %q, want first section only", got)
	}
}

func TestTruncateDiff_InsideFileHeader(t *testing.T) {
	tests := []struct {
		name string
		diff string
	}{
		{"git header", "diff --git a/app.js b/app.js\n--- a/app.js\n+++ b/app.js\n@@ -1 +1,2 @@\n x\n+console.log(x)\n"},
		{"plain header", "--- a/app.js\n+++ b/app.js\n@@ -1 +1,2 @@\n x\n+console.log(x)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FromText(tt.diff, "file", DiffOptions{MaxDiffBytes: strings.Index(tt.diff, "+++ ")})
			if !res.Truncated {
				t.Fatal("Truncated should be set")
			}
			if strings.Contains(res.Diff, "--- a/app.js") {
				t.Errorf("half-written header survived:\n%s", res.Diff)
			}
			parsed, err := diffparse.Parse(res.Diff)
			if err != nil {
				t.Fatalf("truncated diff does not parse: %v", err)
			}
			if len(parsed.Files) != 0 {
				t.Errorf("files = %v, want none", parsed.Files)
			}
		})
	}
}

func TestTruncateDiff_PlainSecondFile(t *testing.T) {
	first := "--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-a\n+b\n"
	second := "--- a/b.go\n+++ b/b.go\n@@ -1 +1 @@\n-c\n+d\n"
	diff := first + second

	got := truncateDiff(diff, len(first)+strings.Index(second, "+++ "))
	if got != first {
		t.Errorf("truncateDiff = %q, want first file only", got)
	}

	parsed, err := diffparse.Parse(got + "... (diff truncated at max-diff-bytes limit)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Files) != 1 || parsed.Files[0].Filename != "a.go" {
		t.Errorf("files = %+v, want [a.go]", parsed.Files)
	}
}

func TestTruncateDiff_InsideHunk(t *testing.T) {
	diff := "--- a/a.go\n+++ b/a.go\n@@ -1,3 +1,3 @@\n-one\n+uno\n two\n three\n"
	got := truncateDiff(diff, strings.Index(diff, " two")+2)
	if got != "--- a/a.go\n+++ b/a.go\n@@ -1,3 +1,3 @@\n-one\n+uno\n" {
		t.Errorf("truncateDiff = %q, want cut at the last full hunk line", got)
	}
}

func TestSplitDiffSections_PlainUnified(t *testing.T) {
	diff := "--- a/main.go\t2024-01-01\n+++ b/main.go\t2024-01-02\n@@ -1,2 +1,2 @@\n-old\n--- not a header\n+new\n+++ still body\n" +
		"--- a/vendor/lib.go\n+++ b/vendor/lib.go\n@@ -1 +1 @@\n-x\n+y\n" +
		"Binary files a/logo.png and b/logo.png differ\n"
	sections := splitDiffSections(diff)
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3: %q", len(sections), sections)
	}
	if strings.Join(sections, "") != diff {
		t.Error("sections should cover the diff exactly")
	}

	files := extractFiles(diff)
	want := []string{"main.go", "vendor/lib.go", "logo.png"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}

	res := FromText(diff, "file", DiffOptions{Exclude: []string{"vendor/**", "*.png"}})
	if strings.Contains(res.Diff, "vendor/lib.go") || strings.Contains(res.Diff, "logo.png") {
		t.Errorf("excluded files survived:\n%s", res.Diff)
	}
	if !strings.Contains(res.Diff, "+new") {
		t.Error("main.go should be kept whole")
	}
}

func TestSplitDiffSections_Preamble(t *testing.T) {
	diff := "commit message line\n\ndiff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-a\n+b\n"
	sections := splitDiffSections(diff)
	if len(sections) != 2 || sections[0] != "commit message line\n\n" {
		t.Errorf("sections = %q", sections)
	}
}

func TestFromText(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n+ok\n" +
		"diff --git a/gen/x.pb.go b/gen/x.pb.go\n--- a/gen/x.pb.go\n+++ b/gen/x.pb.go\n@@ -1 +1 @@\n+gen\n"
	res := FromText(diff, "file", DiffOptions{Exclude: []string{"**/*.pb.go"}})
	if res.Mode != "file" {
		t.Errorf("Mode = %q, want file", res.Mode)
	}
	if len(res.Files) != 1 || res.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", res.Files)
	}
	if strings.Contains(res.Diff, "x.pb.go") {
		t.Error("excluded file should be filtered from the diff")
	}
	if len(res.Exclude) != 1 {
		t.Errorf("Exclude = %v, want the exclude patterns recorded", res.Exclude)
	}
}

func TestExtractFiles_Deleted(t *testing.T) {
	diff := "diff --git a/old.go b/old.go\ndeleted file mode 100644\n--- a/old.go\n+++ /dev/null\n@@ -1 +0,0 @@\n-x\n"
	files := extractFiles(diff)
	if len(files) != 1 || files[0] != "old.go" {
		t.Errorf("files = %v, want [old.go]", files)
	}
}

func TestBuildResult_MetadataAndMode(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n+ok\n"
	result, err := buildResult(diff, "staged", "abc..def", DiffOptions{Dir: t.TempDir()}, time.Now())
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if result.Mode != "staged" {
		t.Errorf("Mode = %q, want %q", result.Mode, "staged")
	}
	if result.Range != "abc..def" {
		t.Errorf("Range = %q, want %q", result.Range, "abc..def")
	}
	if len(result.Files) != 1 || result.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", result.Files)
	}
}

func TestSnippet_WithBase(t *testing.T) {
	base := "package main\n\nfunc main() {}\n"
	content := "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(\"hello\") }\n"
	result, err := Snippet(context.Background(), content, "main.go", base)
	if err != nil {
		t.Fatalf("Snippet error: %v", err)
	}
	if result.Mode != "snippet" {
		t.Errorf("Mode = %q, want %q", result.Mode, "snippet")
	}
	if result.Diff == "" {
		t.Error("Diff should not be empty when base differs from content")
	}
	if !strings.Contains(result.Diff, "+++ b/main.go") {
		t.Errorf("Diff should name the snippet path, got:\n%s", result.Diff)
	}
}

func TestSnippet_EmptyPath(t *testing.T) {
	content := "x := 42\n"
	result, err := Snippet(context.Background(), content, "", "")
	if err != nil {
		t.Fatalf("Snippet error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0] != "snippet.txt" {
		t.Errorf("Files = %v, want [snippet.txt]", result.Files)
	}
}

func TestExtractFiles_Empty(t *testing.T) {
	files := extractFiles("")
	if len(files) != 0 {
		t.Errorf("got %d files from empty diff, want 0", len(files))
	}
}

func TestMatchesAny_EmptyPatterns(t *testing.T) {
	if MatchesAny("main.go", nil) {
		t.Error("matchesAny with nil patterns should return false")
	}
	if MatchesAny("main.go", []string{}) {
		t.Error("matchesAny with empty patterns should return false")
	}
}

// gitRunner runs commands inside a test repository.
type gitRunner func(args ...string) string

// setupTestRepo creates a temp git repo with some tracked files and returns
// its path and a runner for further git commands.
func setupTestRepo(t *testing.T) (string, gitRunner) {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
		return strings.TrimSpace(string(out))
	}
	write := func(name, body string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")

	write("main.go", "package main\n\nfunc main() {}\n")
	write("util.go", "package main\n\nfunc helper() {}\n")
	write("vendor/lib.go", "package vendor\n")
	write("logo.bin", "PNG\x00\x01\x02")

	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	return dir, run
}

func TestGetRepoMeta(t *testing.T) {
	dir, run := setupTestRepo(t)

	meta, err := GetRepoMeta(filepath.Join(dir, "vendor"))
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(meta.Root)
	if gotRoot != wantRoot {
		t.Errorf("Root = %q, want %q", meta.Root, dir)
	}
	if meta.Head != run("git", "rev-parse", "HEAD") {
		t.Errorf("Head = %q, want HEAD sha", meta.Head)
	}
	if meta.Branch != "main" {
		t.Errorf("Branch = %q, want main", meta.Branch)
	}
}

func TestGetRepoMeta_NotRepository(t *testing.T) {
	_, err := GetRepoMeta(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("err = %v, want ErrNotRepository", err)
	}
}

func TestStaged(t *testing.T) {
	dir, run := setupTestRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "util.go"), []byte("package main\n\nfunc helper() { println(1) }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("git", "add", "util.go")

	res, err := Staged(context.Background(), DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if res.Mode != "staged" {
		t.Errorf("Mode = %q, want staged", res.Mode)
	}
	if len(res.Files) != 1 || res.Files[0] != "util.go" {
		t.Errorf("Files = %v, want [util.go]", res.Files)
	}
	if res.Repo.Branch != "main" {
		t.Errorf("Repo.Branch = %q, want main", res.Repo.Branch)
	}

	unstaged, err := Unstaged(context.Background(), DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if unstaged.Diff != "" {
		t.Errorf("Unstaged diff should be empty after staging, got:\n%s", unstaged.Diff)
	}
}

func TestWalkFiles(t *testing.T) {
	dir, _ := setupTestRepo(t)

	files, err := WalkFiles(DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("WalkFiles error: %v", err)
	}

	want := []string{"main.go", "util.go", "vendor/lib.go"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v (sorted, binary skipped)", files, want)
	}
}

func TestWalkFiles_WithInclude(t *testing.T) {
	dir, _ := setupTestRepo(t)

	files, err := WalkFiles(DiffOptions{Dir: dir, Include: []string{"*.go"}})
	if err != nil {
		t.Fatalf("WalkFiles error: %v", err)
	}

	for _, f := range files {
		if !strings.HasSuffix(f, ".go") {
			t.Errorf("include filter failed: got %q", f)
		}
	}
}

func TestWalkFiles_WithExclude(t *testing.T) {
	dir, _ := setupTestRepo(t)

	files, err := WalkFiles(DiffOptions{Dir: dir, Exclude: []string{"vendor/**"}})
	if err != nil {
		t.Fatalf("WalkFiles error: %v", err)
	}

	for _, f := range files {
		if strings.HasPrefix(f, "vendor/") {
			t.Errorf("exclude filter failed: got %q", f)
		}
	}
}

func TestCodebase(t *testing.T) {
	dir, _ := setupTestRepo(t)

	result, err := Codebase(DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Codebase error: %v", err)
	}

	if result.Mode != "codebase" {
		t.Errorf("Mode = %q, want %q", result.Mode, "codebase")
	}
	if len(result.Files) != 3 {
		t.Errorf("Files = %v, want 3 text files", result.Files)
	}
	if !strings.Contains(result.Diff, "+++ b/main.go") {
		t.Error("Diff should contain +++ b/ headers")
	}
	if !strings.Contains(result.Diff, "@@ -0,0 +1,3 @@") {
		t.Error("hunk header should count the file's lines")
	}
	if !strings.Contains(result.Diff, "+package main") {
		t.Error("Diff should contain file contents as added lines")
	}
}

func TestCodebase_MaxDiffBytes(t *testing.T) {
	dir, _ := setupTestRepo(t)

	result, err := Codebase(DiffOptions{Dir: dir, MaxDiffBytes: 150})
	if err != nil {
		t.Fatalf("Codebase error: %v", err)
	}
	if len(result.Diff) > 150 {
		t.Errorf("Diff should be limited by MaxDiffBytes, got %d bytes", len(result.Diff))
	}
	if !result.Truncated {
		t.Error("Truncated should be set when files were left out")
	}
}

func TestListCommits(t *testing.T) {
	dir, run := setupTestRepo(t)
	initSHA := run("git", "rev-parse", "HEAD")

	for _, name := range []string{"a.go", "b.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("package main\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		run("git", "add", name)
		run("git", "commit", "-m", "add "+name)
	}

	commits, err := ListCommits(context.Background(), dir, initSHA+"..HEAD", false)
	if err != nil {
		t.Fatalf("ListCommits error: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}

	// Oldest first
	if commits[0].Subject != "add a.go" {
		t.Errorf("commits[0].Subject = %q, want %q", commits[0].Subject, "add a.go")
	}
	if commits[1].Subject != "add b.go" {
		t.Errorf("commits[1].Subject = %q, want %q", commits[1].Subject, "add b.go")
	}
	if len(commits[0].SHA) != 40 {
		t.Errorf("SHA length = %d, want 40", len(commits[0].SHA))
	}

	diffs, err := CommitDiffs(context.Background(), commits, DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("CommitDiffs error: %v", err)
	}
	if len(diffs) != 2 || diffs[1].Files[0] != "b.go" || diffs[1].Range != commits[1].SHA {
		t.Errorf("CommitDiffs = %+v", diffs)
	}
}

func TestCommit_RootCommit(t *testing.T) {
	dir, run := setupTestRepo(t)
	sha := run("git", "rev-parse", "HEAD")

	res, err := Commit(context.Background(), sha, "", DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if !strings.Contains(res.Diff, "+++ b/main.go") {
		t.Errorf("root commit diff should add main.go, got:\n%s", res.Diff)
	}
}

func TestListCommits_EmptyRange(t *testing.T) {
	dir, _ := setupTestRepo(t)

	commits, err := ListCommits(context.Background(), dir, "HEAD..HEAD", false)
	if err != nil {
		t.Fatalf("ListCommits error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("got %d commits for empty range, want 0", len(commits))
	}
}

func TestMergeBaseRange(t *testing.T) {
	tests := []struct {
		in        string
		mergeBase bool
		want      string
	}{
		{"main..HEAD", true, "main...HEAD"},
		{"main..HEAD", false, "main..HEAD"},
		{"main...HEAD", true, "main...HEAD"},
		{"abc123", true, "abc123"},
	}
	for _, tt := range tests {
		if got := mergeBaseRange(tt.in, tt.mergeBase); got != tt.want {
			t.Errorf("mergeBaseRange(%q, %v) = %q, want %q", tt.in, tt.mergeBase, got, tt.want)
		}
	}
}
