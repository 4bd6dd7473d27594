// Package cache provides a file-based cache for fetched pull request diffs.
//
// Entries are keyed by a SHA-256 hash of the key material (see
// [PullRequestKey]) and stored one JSON file per entry with a creation
// timestamp and a TTL in seconds. Expired entries are skipped and removed on
// read.
//
// The default cache directory is $XDG_CACHE_HOME/difflens (or the
// OS-appropriate equivalent).
package cache
