// Package gitctx collects diffs and commit metadata from a git repository.
//
// Diffs for the unstaged, staged, commit, range and snippet review modes come
// from shelling out to git; [FromText] wraps diff text read from a file or
// stdin. Results are filtered by include/exclude glob patterns and truncated
// at file or line boundaries to a configurable maximum byte size.
//
// Repository metadata and the tracked-file walk used by codebase mode read
// the repository directly with go-git. [ListCommits] and [CommitDiffs] feed
// per-commit range review.
package gitctx
