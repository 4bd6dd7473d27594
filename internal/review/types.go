package review

import (
	"fmt"

	"github.com/dshills/difflens/internal/diffparse"
)

// Severity represents the severity level of a finding. The zero value is
// not a valid severity.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return ""
	}
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q (valid: info, warning, error)", name)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if SeverityRank(s) == 0 {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return int(s)
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
// A threshold of "none" or "" never matches.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	t, err := ParseSeverity(threshold)
	if err != nil {
		return false
	}
	return SeverityRank(s) >= SeverityRank(t)
}

// IssueType classifies what a finding is about.
type IssueType string

const (
	TypeDebugCode          IssueType = "debug-code"
	TypeSecurity           IssueType = "security"
	TypeCodeQuality        IssueType = "code-quality"
	TypeErrorHandling      IssueType = "error-handling"
	TypeCodeReviewPractice IssueType = "code-review-practice"
)

// Finding is a single issue raised by a rule.
type Finding struct {
	Filename string `json:"filename"`
	// LineNumber is absent for file-level findings.
	LineNumber *int      `json:"lineNumber,omitempty"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Type       IssueType `json:"type"`
	Rule       string    `json:"rule"`
}

// Line returns the finding's line number, or 0 when it has none.
func (f Finding) Line() int {
	if f.LineNumber == nil {
		return 0
	}
	return *f.LineNumber
}

// Result is the output of Engine.Evaluate.
type Result struct {
	Issues      []Finding `json:"issues"`
	Suggestions []string  `json:"suggestions"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// InputInfo describes what was reviewed.
type InputInfo struct {
	Mode          string   `json:"mode"`
	Range         string   `json:"range,omitempty"`
	PathsIncluded []string `json:"pathsIncluded,omitempty"`
	PathsExcluded []string `json:"pathsExcluded,omitempty"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Summary provides an overview of the diff and its findings.
type Summary struct {
	Diff   diffparse.Summary `json:"diff"`
	Counts SeverityCounts    `json:"counts"`
	// HighestSeverity is omitted when there are no findings.
	HighestSeverity Severity `json:"highestSeverity,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs     int64 `json:"gitMs"`
	ParseMs   int64 `json:"parseMs"`
	AnalyzeMs int64 `json:"analyzeMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool        string                 `json:"tool"`
	Version     string                 `json:"version"`
	RunID       string                 `json:"runId"`
	Repo        RepoInfo               `json:"repo"`
	Inputs      InputInfo              `json:"inputs"`
	Summary     Summary                `json:"summary"`
	Files       []diffparse.FileChange `json:"files"`
	Issues      []Finding              `json:"issues"`
	Suggestions []string               `json:"suggestions"`
	Timing      Timing                 `json:"timing"`
}

// ComputeSummary calculates the summary from the diff totals and findings.
func ComputeSummary(diff diffparse.Summary, findings []Finding) Summary {
	s := Summary{Diff: diff}
	for _, f := range findings {
		switch f.Severity {
		case SeverityInfo:
			s.Counts.Info++
		case SeverityWarning:
			s.Counts.Warning++
		case SeverityError:
			s.Counts.Error++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
