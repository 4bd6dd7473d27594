package github

import (
	"fmt"
	"strings"

	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/review"
)

// Review events accepted by the GitHub API.
const (
	EventComment        = "COMMENT"
	EventRequestChanges = "REQUEST_CHANGES"
)

// ReviewComment is an inline comment on the new side of a file.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// ReviewRequest is a pull request review to post.
type ReviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// commentableLines returns, per file, the new-side line numbers that appear
// in the diff and can therefore carry an inline comment.
func commentableLines(files []diffparse.FileChange) map[string]map[int]bool {
	out := make(map[string]map[int]bool, len(files))
	for _, f := range files {
		if f.Filename == "" {
			continue
		}
		lines := map[int]bool{}
		for _, c := range f.Changes {
			switch c.Kind {
			case diffparse.Added:
				if c.LineNumber != nil {
					lines[*c.LineNumber] = true
				}
			case diffparse.Context:
				if c.NewLineNumber != nil {
					lines[*c.NewLineNumber] = true
				}
			}
		}
		out[f.Filename] = lines
	}
	return out
}

// BuildReview converts a report into a PR review. Issues on a line present in
// the diff become inline comments; the rest go into the summary body along
// with the suggestions. failOn selects REQUEST_CHANGES when the highest
// severity meets it.
func BuildReview(report *review.Report, failOn string) ReviewRequest {
	valid := commentableLines(report.Files)

	var general []string
	comments := []ReviewComment{}
	for _, f := range report.Issues {
		if f.LineNumber != nil && valid[f.Filename][*f.LineNumber] {
			comments = append(comments, ReviewComment{
				Path: f.Filename,
				Line: *f.LineNumber,
				Body: formatInlineComment(f),
			})
			continue
		}
		general = append(general, formatFindingBody(f))
	}

	counts := report.Summary.Counts
	var sb strings.Builder
	sb.WriteString("## difflens review\n\n")
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Error | %d |\n", counts.Error)
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts.Warning)
	fmt.Fprintf(&sb, "| Info | %d |\n\n", counts.Info)

	if len(general) > 0 {
		sb.WriteString("### General findings\n\n")
		for _, g := range general {
			sb.WriteString(g)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if len(report.Suggestions) > 0 {
		sb.WriteString("### Suggestions\n\n")
		for _, s := range report.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}

	event := EventComment
	if review.MeetsThreshold(report.Summary.HighestSeverity, failOn) {
		event = EventRequestChanges
	}

	return ReviewRequest{
		Body:     sb.String(),
		Event:    event,
		Comments: comments,
	}
}

func formatInlineComment(f review.Finding) string {
	return fmt.Sprintf("**%s** (%s, `%s`)\n\n%s", strings.ToUpper(f.Severity.String()), f.Type, f.Rule, f.Message)
}

func formatFindingBody(f review.Finding) string {
	path := f.Filename
	if path == "" {
		path = "(deleted file)"
	}
	if f.LineNumber != nil {
		path = fmt.Sprintf("%s:%d", path, *f.LineNumber)
	}
	return fmt.Sprintf("- **%s** `%s`: %s (%s, `%s`)", strings.ToUpper(f.Severity.String()), path, f.Message, f.Type, f.Rule)
}
