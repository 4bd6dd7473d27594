package gitctx

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/difflens/internal/diffparse"
)

var hunkCountsRe = regexp.MustCompile(`^@@ -\d+(?:,(\d+))? \+\d+(?:,(\d+))? @@`)

// section is one file's slice of a diff, as byte offsets into the whole
// text. body is where the first hunk header starts, or end when the file
// has no hunks.
type section struct {
	start, body, end int
}

// scanSections finds file boundaries the way diffparse does: at "diff --git"
// lines, at a ---/+++ pair following a hunk or another --- header, and at a
// "Binary files ... differ" line outside a header. Hunk bodies are skipped by
// their declared counts, so a removed "-- " line is never taken for a header.
// Text before the first file is a section of its own.
func scanSections(diff string) []section {
	lines := strings.SplitAfter(diff, "\n")
	var secs []section
	open := func(off int) {
		if n := len(secs); n > 0 {
			closeSection(&secs[n-1], off)
		} else if off > 0 {
			secs = append(secs, section{start: 0, body: off, end: off})
		}
		secs = append(secs, section{start: off, body: -1})
	}

	var (
		inFile, sawHunk, sawOld, binary bool
		remOld, remNew                  int
	)
	off := 0
	for i, line := range lines {
		if line == "" {
			continue
		}
		text := strings.TrimRight(line, "\r\n")

		if remOld > 0 || remNew > 0 {
			if consumeHunkLine(text, &remOld, &remNew) {
				off += len(line)
				continue
			}
			remOld, remNew = 0, 0
		}

		switch {
		case strings.HasPrefix(text, "diff --git "):
			open(off)
			inFile, sawHunk, sawOld, binary = true, false, false, false
		case strings.HasPrefix(text, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			if !inFile || sawHunk || sawOld || binary {
				open(off)
				inFile, sawHunk, binary = true, false, false
			}
			sawOld = true
		case strings.HasPrefix(text, "Binary files "):
			if !inFile || sawHunk || binary {
				open(off)
				inFile, sawHunk, sawOld = true, false, false
			}
			binary = true
		case strings.HasPrefix(text, "@@") && inFile:
			if s := &secs[len(secs)-1]; s.body < 0 {
				s.body = off
			}
			sawHunk = true
			remOld, remNew = hunkCounts(text)
		}
		off += len(line)
	}

	if len(secs) == 0 {
		if diff == "" {
			return nil
		}
		return []section{{start: 0, body: len(diff), end: len(diff)}}
	}
	closeSection(&secs[len(secs)-1], len(diff))
	return secs
}

func closeSection(s *section, end int) {
	s.end = end
	if s.body < 0 {
		s.body = end
	}
}

// consumeHunkLine counts text against the remaining hunk lines and reports
// whether it belongs to the hunk.
func consumeHunkLine(text string, remOld, remNew *int) bool {
	if strings.HasPrefix(text, "diff --git ") {
		return false
	}
	switch {
	case text == "" || text[0] == ' ':
		*remOld--
		*remNew--
	case text[0] == '+':
		*remNew--
	case text[0] == '-':
		*remOld--
	case text[0] == '\\':
	default:
		return false
	}
	return true
}

func hunkCounts(header string) (int, int) {
	m := hunkCountsRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0
	}
	return countOrOne(m[1]), countOrOne(m[2])
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt32
	}
	return n
}

func splitDiffSections(diff string) []string {
	secs := scanSections(diff)
	out := make([]string, 0, len(secs))
	for _, s := range secs {
		out = append(out, diff[s.start:s.end])
	}
	return out
}

// truncateDiff cuts diff to at most max bytes. It prefers ending at a file
// boundary; within the first file it ends at a line boundary past the file
// header, so no ---/+++ pair is left half-written.
func truncateDiff(diff string, max int) string {
	if max >= len(diff) {
		return diff
	}
	for _, s := range scanSections(diff) {
		if max >= s.end {
			continue
		}
		if s.start > 0 {
			return diff[:s.start]
		}
		cut := strings.LastIndexByte(diff[:max], '\n') + 1
		if cut < s.body {
			return ""
		}
		return diff[:cut]
	}
	return diff[:max]
}

// extractPathFromSection returns the new path of a section, or the old one
// for deletions.
func extractPathFromSection(section string) string {
	var oldPath string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "):
			if p := headerPath(line[4:], "b/"); p != "" {
				return p
			}
			return oldPath
		case strings.HasPrefix(line, "--- "):
			oldPath = headerPath(line[4:], "a/")
		case strings.HasPrefix(line, "Binary files "):
			if o, n, ok := diffparse.BinaryPaths(line); ok {
				if n != "" {
					return n
				}
				return o
			}
		case strings.HasPrefix(line, "@@"):
			return oldPath
		}
	}
	return oldPath
}

// headerPath cleans a ---/+++ value: drops a trailing timestamp and the side
// prefix, and maps /dev/null to "".
func headerPath(raw, prefix string) string {
	if i := strings.IndexByte(raw, '\t'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	if raw == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(raw, prefix)
}
