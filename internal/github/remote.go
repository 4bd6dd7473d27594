package github

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
)

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`^(?:ssh://)?[^@]+@[^:/]+[:/]([^/]+)/([^/\s]+)`)
	prURLRe       = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+)/pull/(\d+)`)
	prShortRe     = regexp.MustCompile(`^([^/\s]+)/([^/#\s]+)#(\d+)$`)
)

// DetectRepo reads owner/repo from the "origin" remote of the repository
// containing dir.
func DetectRepo(dir string) (owner, repo string, err error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: %w", err)
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", errors.New("cannot detect repo: origin has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}

// PRRef identifies a pull request.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// ParsePRRef accepts "123", "owner/repo#123" or a pull request URL. Owner and
// Repo are empty for the bare-number form.
func ParsePRRef(s string) (PRRef, error) {
	s = strings.TrimSpace(s)
	if m := prURLRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[3])
		return PRRef{Owner: m[1], Repo: m[2], Number: n}, nil
	}
	if m := prShortRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[3])
		return PRRef{Owner: m[1], Repo: m[2], Number: n}, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return PRRef{}, fmt.Errorf("invalid pull request reference %q (want 123, owner/repo#123 or a PR URL)", s)
	}
	return PRRef{Number: n}, nil
}
