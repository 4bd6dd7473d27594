package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/dshills/difflens/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	// Color enables ANSI colors.
	Color bool
}

// colorEnabled reports whether stdout should get colored text.
func colorEnabled() bool {
	return !color.NoColor && os.Getenv("NO_COLOR") == ""
}

var headerBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

func (t *TextWriter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	counts := report.Summary.Counts
	total := counts.Error + counts.Warning + counts.Info

	var head strings.Builder
	fmt.Fprintf(&head, "difflens review: %s mode", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		fmt.Fprintf(&head, "\nRange: %s", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		fmt.Fprintf(&head, "\nRepository: %s (branch: %s)", report.Repo.Root, report.Repo.Branch)
	}
	d := report.Summary.Diff
	fmt.Fprintf(&head, "\nFiles: %d  +%d -%d", d.TotalFiles, d.TotalAdditions, d.TotalDeletions)
	ew.println(headerBox.Render(head.String()))

	ew.printf("Issues: %d total", total)
	if total > 0 {
		ew.printf(" (%d error, %d warning, %d info)", counts.Error, counts.Warning, counts.Info)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
	} else {
		grouped := groupBySeverity(review.SortIssues(report.Issues))
		for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning, review.SeverityInfo} {
			issues := grouped[sev]
			if len(issues) == 0 {
				continue
			}

			label := t.severityColor(sev).Sprintf("%s %s", severityIcon(sev), strings.ToUpper(sev.String()))
			ew.printf("\n%s\n", label)
			ew.println(strings.Repeat("─", 40))

			for _, f := range issues {
				ew.printf("\n  %s  %s\n", t.paint(color.Bold).Sprint(location(f)), t.paint(color.FgHiBlack).Sprintf("[%s, %s]", f.Type, f.Rule))
				for _, line := range wrapText(f.Message, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	if len(report.Suggestions) > 0 {
		ew.printf("\n%s\n", t.paint(color.FgCyan, color.Bold).Sprint("Suggestions"))
		for _, s := range report.Suggestions {
			ew.printf("  • %s\n", s)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (git: %dms, parse: %dms, rules: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ParseMs, report.Timing.AnalyzeMs)

	return ew.err
}

func (t *TextWriter) severityColor(s review.Severity) *color.Color {
	switch s {
	case review.SeverityError:
		return t.paint(color.FgRed, color.Bold)
	case review.SeverityWarning:
		return t.paint(color.FgYellow, color.Bold)
	default:
		return t.paint(color.FgBlue)
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(issues []review.Finding) map[review.Severity][]review.Finding {
	m := make(map[review.Severity][]review.Finding)
	for _, f := range issues {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

// location renders "path:line", or just the path for file-level findings.
func location(f review.Finding) string {
	path := f.Filename
	if path == "" {
		path = "(deleted file)"
	}
	if f.LineNumber == nil {
		return path
	}
	return fmt.Sprintf("%s:%d", path, *f.LineNumber)
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return "[!!]"
	case review.SeverityWarning:
		return "[!]"
	case review.SeverityInfo:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
