package diffparse

import (
	"fmt"
)

// ChangeKind classifies a line inside a hunk.
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Removed
	Context
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Context:
		return "context"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its lowercase name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	switch k {
	case Added, Removed, Context:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid change kind %d", int(k))
	}
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *ChangeKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "added":
		*k = Added
	case "removed":
		*k = Removed
	case "context":
		*k = Context
	default:
		return fmt.Errorf("invalid change kind %q", string(b))
	}
	return nil
}

// ChangeLine is one line of a hunk with its diff marker stripped.
type ChangeLine struct {
	Kind    ChangeKind `json:"kind"`
	Content string     `json:"content"`
	// LineNumber is the new-file line for Added, the old-file line for
	// Removed and the hunk's old-side start for Context.
	LineNumber *int `json:"lineNumber,omitempty"`
	// Exact per-side positions, set on Context lines only.
	OldLineNumber *int `json:"oldLineNumber,omitempty"`
	NewLineNumber *int `json:"newLineNumber,omitempty"`
}

// Line returns the line number and whether one is present.
func (c ChangeLine) Line() (int, bool) {
	if c.LineNumber == nil {
		return 0, false
	}
	return *c.LineNumber, true
}

// FileStatus is the tagged form of the filename/oldFilename pair.
type FileStatus string

const (
	StatusModified FileStatus = "modified"
	StatusAdded    FileStatus = "added"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// FileChange is one file's entry in a diff.
type FileChange struct {
	// Filename is the path in the new revision, empty for a deleted file.
	Filename string `json:"filename"`
	// OldFilename is set only when the old path differs from Filename.
	OldFilename *string      `json:"oldFilename,omitempty"`
	Status      FileStatus   `json:"status"`
	Language    string       `json:"language"`
	Binary      bool         `json:"binary,omitempty"`
	Additions   int          `json:"additions"`
	Deletions   int          `json:"deletions"`
	Changes     []ChangeLine `json:"changes"`
}

// Path returns the path that best identifies the file: the new path, or the
// removed path for deletions.
func (f FileChange) Path() string {
	if f.Filename == "" && f.OldFilename != nil {
		return *f.OldFilename
	}
	return f.Filename
}

// Renamed reports whether the file moved between revisions.
func (f FileChange) Renamed() bool {
	return f.Status == StatusRenamed
}

// Summary is the repository-level rollup of a parsed diff.
type Summary struct {
	TotalFiles     int `json:"totalFiles"`
	TotalAdditions int `json:"totalAdditions"`
	TotalDeletions int `json:"totalDeletions"`
}

// Summarize aggregates counts over files.
func Summarize(files []FileChange) Summary {
	s := Summary{TotalFiles: len(files)}
	for _, f := range files {
		s.TotalAdditions += f.Additions
		s.TotalDeletions += f.Deletions
	}
	return s
}

// Result is the output of Parse.
type Result struct {
	Files   []FileChange `json:"files"`
	Summary Summary      `json:"summary"`
}

func intPtr(n int) *int {
	return &n
}

func strPtr(s string) *string {
	return &s
}
