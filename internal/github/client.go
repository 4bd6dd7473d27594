package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/dshills/difflens/internal/config"
)

var (
	// ErrNoCredentials means neither a token nor GitHub App settings were configured.
	ErrNoCredentials = errors.New("no GitHub credentials: set GITHUB_TOKEN or configure github.app_id, github.installation_id and github.private_key_path")
	// ErrAuth wraps 401 and 403 responses.
	ErrAuth = errors.New("GitHub authentication failed")
	// ErrNotFound wraps 404 responses.
	ErrNotFound = errors.New("not found on GitHub")
)

// PullRequest holds the pull request fields difflens uses.
type PullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HeadSHA string `json:"headSha"`
	HeadRef string `json:"headRef"`
	BaseRef string `json:"baseRef"`
	HTMLURL string `json:"htmlUrl"`
}

// Client wraps the go-github client with the operations difflens needs.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient wraps an existing go-github client.
func NewClient(gh *github.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gh: gh, logger: logger}
}

// NewTokenClient creates a client authenticated with a personal access token.
// baseURL selects a GitHub Enterprise server; empty means github.com.
func NewTokenClient(ctx context.Context, token, baseURL string, logger *slog.Logger) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return newClient(oauth2.NewClient(ctx, ts), baseURL, logger)
}

// NewAppClient creates a client authenticated as a GitHub App installation.
func NewAppClient(appID, installationID int64, privateKeyPath, baseURL string, logger *slog.Logger) (*Client, error) {
	itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub App transport: %w", err)
	}
	if baseURL != "" {
		itr.BaseURL = baseURL
	}
	return newClient(&http.Client{Transport: itr}, baseURL, logger)
}

// NewFromConfig picks token auth when a token is configured, otherwise
// GitHub App auth.
func NewFromConfig(ctx context.Context, cfg config.GitHubConfig, logger *slog.Logger) (*Client, error) {
	switch {
	case cfg.Token != "":
		return NewTokenClient(ctx, cfg.Token, cfg.BaseURL, logger)
	case cfg.AppID != 0 && cfg.InstallationID != 0 && cfg.PrivateKeyPath != "":
		return NewAppClient(cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath, cfg.BaseURL, logger)
	default:
		return nil, ErrNoCredentials
	}
}

func newClient(hc *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	gh := github.NewClient(hc)
	if baseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", baseURL, err)
		}
	}
	return NewClient(gh, logger), nil
}

// GetPullRequest retrieves a single pull request by its number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		c.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, classify(err, "pull request #%d in %s/%s", number, owner, repo)
	}
	return &PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		HeadSHA: pr.GetHead().GetSHA(),
		HeadRef: pr.GetHead().GetRef(),
		BaseRef: pr.GetBase().GetRef(),
		HTMLURL: pr.GetHTMLURL(),
	}, nil
}

// GetPullRequestDiff retrieves the unified diff of a pull request.
func (c *Client) GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		c.logger.Error("failed to get pull request diff", "owner", owner, "repo", repo, "pr", number, "error", err)
		return "", classify(err, "diff of pull request #%d in %s/%s", number, owner, repo)
	}
	return diff, nil
}

// CreateReview posts a pull request review with a summary and inline comments.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, req ReviewRequest) error {
	var comments []*github.DraftReviewComment
	for _, rc := range req.Comments {
		comments = append(comments, &github.DraftReviewComment{
			Path: github.Ptr(rc.Path),
			Line: github.Ptr(rc.Line),
			Side: github.Ptr("RIGHT"),
			Body: github.Ptr(rc.Body),
		})
	}
	event := req.Event
	if event == "" {
		event = EventComment
	}

	_, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
		Body:     github.Ptr(req.Body),
		Event:    github.Ptr(event),
		Comments: comments,
	})
	if err != nil {
		c.logger.Error("failed to create pull request review", "owner", owner, "repo", repo, "pr", number, "error", err)
		return classify(err, "review on pull request #%d in %s/%s", number, owner, repo)
	}
	return nil
}

// classify wraps API errors so callers can test for ErrAuth and ErrNotFound.
func classify(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %v", ErrAuth, what, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", what, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
