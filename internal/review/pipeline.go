package review

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/gitctx"
)

const (
	// ToolName identifies reports produced by this package.
	ToolName = "difflens"
	// ReportVersion is the version of the report format.
	ReportVersion = "1.0"
)

// Analysis is the parsed diff together with the engine's verdict on it.
type Analysis struct {
	Files       []diffparse.FileChange `json:"files"`
	Summary     diffparse.Summary      `json:"summary"`
	Issues      []Finding              `json:"issues"`
	Suggestions []string               `json:"suggestions"`

	parseTime   time.Duration
	analyzeTime time.Duration
}

// Analyze parses text and evaluates the result with e. Parse failures are
// returned as *diffparse.ParseError.
func Analyze(text string, e *Engine) (*Analysis, error) {
	start := time.Now()
	parsed, err := diffparse.Parse(text)
	if err != nil {
		return nil, err
	}
	parseTime := time.Since(start)

	start = time.Now()
	res := e.Evaluate(parsed.Files)
	return &Analysis{
		Files:       parsed.Files,
		Summary:     parsed.Summary,
		Issues:      res.Issues,
		Suggestions: res.Suggestions,
		parseTime:   parseTime,
		analyzeTime: time.Since(start),
	}, nil
}

// Run executes a review of the given diff result.
func Run(ctx context.Context, diff gitctx.DiffResult, e *Engine) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	a, err := Analyze(diff.Diff, e)
	if err != nil {
		return nil, fmt.Errorf("reviewing %s diff: %w", diff.Mode, err)
	}

	return &Report{
		Tool:    ToolName,
		Version: ReportVersion,
		RunID:   generateRunID(),
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Inputs: InputInfo{
			Mode:          diff.Mode,
			Range:         diff.Range,
			PathsIncluded: diff.Include,
			PathsExcluded: diff.Exclude,
		},
		Summary:     ComputeSummary(a.Summary, a.Issues),
		Files:       a.Files,
		Issues:      a.Issues,
		Suggestions: a.Suggestions,
		Timing: Timing{
			GitMs:     diff.Elapsed.Milliseconds(),
			ParseMs:   a.parseTime.Milliseconds(),
			AnalyzeMs: a.analyzeTime.Milliseconds(),
			TotalMs:   diff.Elapsed.Milliseconds() + time.Since(startTime).Milliseconds(),
		},
	}, nil
}

// SortIssues returns a copy of issues ordered by severity (error first),
// then file, then line. Writers use it; the engine's order is left intact.
func SortIssues(issues []Finding) []Finding {
	out := make([]Finding, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		ri := SeverityRank(out[i].Severity)
		rj := SeverityRank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if out[i].Filename != out[j].Filename {
			return out[i].Filename < out[j].Filename
		}
		return out[i].Line() < out[j].Line()
	})
	return out
}

// HighestSeverity returns the most severe level across reports, or 0.
func HighestSeverity(reports ...*Report) Severity {
	var highest Severity
	for _, r := range reports {
		if r == nil {
			continue
		}
		if SeverityRank(r.Summary.HighestSeverity) > SeverityRank(highest) {
			highest = r.Summary.HighestSeverity
		}
	}
	return highest
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
