package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/difflens/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	writeMarkdown(ew, report, true)
	return ew.err
}

// writeMarkdown renders the report. collapsible wraps each severity group
// in a <details> block, which only GitHub-style renderers understand.
func writeMarkdown(ew *errWriter, report *review.Report, collapsible bool) {
	counts := report.Summary.Counts
	total := counts.Error + counts.Warning + counts.Info

	ew.printf("## difflens review\n\n")
	d := report.Summary.Diff
	ew.printf("%d file(s) changed, +%d -%d", d.TotalFiles, d.TotalAdditions, d.TotalDeletions)
	if report.Inputs.Range != "" {
		ew.printf(" in `%s`", report.Inputs.Range)
	}
	ew.printf("\n\n")
	writeRenames(ew, report)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Error    | %d    |\n", counts.Error)
	ew.printf("| Warning  | %d    |\n", counts.Warning)
	ew.printf("| Info     | %d    |\n", counts.Info)
	ew.printf("| **Total** | **%d** |\n\n", total)

	if total == 0 {
		ew.println("No issues found. :white_check_mark:")
	} else {
		grouped := groupBySeverity(review.SortIssues(report.Issues))
		for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning, review.SeverityInfo} {
			issues := grouped[sev]
			if len(issues) == 0 {
				continue
			}

			label := strings.ToUpper(sev.String())
			if collapsible {
				ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), label, len(issues))
			} else {
				ew.printf("### %s (%d)\n\n", label, len(issues))
			}

			for _, f := range issues {
				ew.printf("- **`%s`** %s _(%s, `%s`)_\n", location(f), f.Message, f.Type, f.Rule)
			}
			ew.printf("\n")

			if collapsible {
				ew.printf("</details>\n\n")
			}
		}
	}

	if len(report.Suggestions) > 0 {
		ew.printf("\n### Suggestions\n\n")
		for _, s := range report.Suggestions {
			ew.printf("- %s\n", s)
		}
		ew.printf("\n")
	}

	ew.printf("*Reviewed in %dms (git: %dms, parse: %dms, rules: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ParseMs, report.Timing.AnalyzeMs)
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":orange_circle:"
	case review.SeverityInfo:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}

// writeRenames lists files that moved between revisions.
func writeRenames(ew *errWriter, report *review.Report) {
	first := true
	for _, f := range report.Files {
		if !f.Renamed() || f.OldFilename == nil {
			continue
		}
		if first {
			ew.printf("Renamed:\n\n")
			first = false
		}
		ew.printf("- `%s` → `%s`\n", *f.OldFilename, f.Filename)
	}
	if !first {
		ew.printf("\n")
	}
}
