// Package github fetches pull request diffs and posts difflens findings as
// pull request reviews.
//
// The client wraps google/go-github and authenticates with either a personal
// access token (golang.org/x/oauth2) or a GitHub App installation
// (bradleyfalzon/ghinstallation). [BuildReview] turns a report into inline
// comments for lines present in the diff, with everything else summarized in
// the review body.
package github
