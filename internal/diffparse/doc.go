// Package diffparse turns unified-diff text into a typed change model.
//
// [Parse] splits the input into per-file blocks (git extended headers or
// plain ---/+++ pairs), walks every hunk using the line counts declared in
// its @@ header, and records each added, removed and context line with the
// line number the unified-diff format assigns to it. Every file block yields
// exactly one [FileChange]; binary and mode-only changes yield a FileChange
// with no lines.
//
// The repository-level [Summary] is always derived from the file list.
// Malformed headers fail with a [*ParseError] carrying the offending block.
package diffparse
