package diffparse

import (
	"errors"
	"fmt"
)

var (
	ErrHunkHeader   = errors.New("malformed hunk header")
	ErrOrphanHunk   = errors.New("hunk outside of a file block")
	ErrMissingNew   = errors.New("--- header not followed by +++")
	ErrUnknownPath  = errors.New("cannot determine file path")
	ErrCombinedDiff = errors.New("combined diffs are not supported")
)

// ParseError reports input the parser could not recognize.
type ParseError struct {
	Err error
	// Line is the 1-based input line where recognition failed.
	Line int
	// Block is the raw text of the file block containing Line.
	Block string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse diff: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
