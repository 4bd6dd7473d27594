// Package output formats review reports for display or machine consumption.
//
// Five formats are supported:
//   - text     human-readable terminal output (default), colored with fatih/color
//   - json     full structured JSON report
//   - markdown PR-comment-friendly with collapsible sections per severity
//   - sarif    SARIF v2.1.0 for upload to GitHub code scanning and other CI tools
//   - pretty   the markdown report rendered for the terminal with glamour
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// and [WriteReports] handle destination selection.
package output
