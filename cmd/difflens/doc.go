// Difflens is a rule-based reviewer for unified diffs.
//
// It parses diffs from git, files, stdin or GitHub pull requests, runs
// language-aware review rules over the changed lines and emits findings with
// deterministic exit codes suitable for CI gating and git hooks.
//
// Usage:
//
//	difflens review staged                 # review staged changes
//	difflens review range origin/main..HEAD --per-commit
//	difflens review file change.diff       # review a diff file
//	git diff | difflens analyze            # JSON analysis of stdin
//	difflens github owner/repo#42          # review and comment on a PR
//	difflens serve --addr :8080            # HTTP API
package main
