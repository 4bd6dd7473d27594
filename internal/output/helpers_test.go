package output

import (
	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/review"
)

func intp(n int) *int { return &n }

// sampleReport has one issue of each severity plus a file-level finding.
func sampleReport() *review.Report {
	issues := []review.Finding{
		{Filename: "web/app.ts", LineNumber: intp(12), Severity: review.SeverityWarning, Message: "console.log statement found", Type: review.TypeDebugCode, Rule: "js/console-log"},
		{Filename: "web/app.ts", LineNumber: intp(3), Severity: review.SeverityError, Message: "eval() is used", Type: review.TypeSecurity, Rule: "js/eval"},
		{Filename: "tools/run.py", LineNumber: intp(7), Severity: review.SeverityInfo, Message: "print() call found", Type: review.TypeDebugCode, Rule: "py/print"},
		{Filename: "data/seed.sql", Severity: review.SeverityWarning, Message: "this file adds a large amount of code (420 lines)", Type: review.TypeCodeReviewPractice, Rule: "general/large-change"},
	}
	diff := diffparse.Summary{TotalFiles: 3, TotalAdditions: 440, TotalDeletions: 2}
	return &review.Report{
		Tool:        review.ToolName,
		Version:     review.ReportVersion,
		RunID:       "test-run",
		Repo:        review.RepoInfo{Root: "/tmp/repo", Head: "abc123", Branch: "main"},
		Inputs:      review.InputInfo{Mode: "staged"},
		Summary:     review.ComputeSummary(diff, issues),
		Files:       []diffparse.FileChange{},
		Issues:      issues,
		Suggestions: []string{"Consider using ESLint and Prettier to keep code style consistent"},
		Timing:      review.Timing{GitMs: 5, ParseMs: 1, AnalyzeMs: 1, TotalMs: 7},
	}
}

func emptyReport() *review.Report {
	return &review.Report{
		Tool:        review.ToolName,
		Version:     review.ReportVersion,
		Inputs:      review.InputInfo{Mode: "unstaged"},
		Repo:        review.RepoInfo{Root: "/tmp/repo", Branch: "main"},
		Summary:     review.ComputeSummary(diffparse.Summary{}, nil),
		Files:       []diffparse.FileChange{},
		Issues:      []review.Finding{},
		Suggestions: []string{},
	}
}
