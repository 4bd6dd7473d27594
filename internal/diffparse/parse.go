package diffparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

const devNull = "/dev/null"

// Parse converts unified-diff text into file changes and a summary.
// Text with no file blocks yields an empty, non-nil file list.
func Parse(text string) (*Result, error) {
	p := newParser(text)
	if err := p.run(); err != nil {
		return nil, err
	}
	files := p.files
	if files == nil {
		files = []FileChange{}
	}
	return &Result{
		Files:   files,
		Summary: Summarize(files),
	}, nil
}

type parser struct {
	lines []string
	pos   int
	files []FileChange
	cur   *fileBlock
}

// fileBlock accumulates header facts and lines for the file being read.
type fileBlock struct {
	start  int
	gitOld string
	gitNew string

	sawOld  bool
	sawNew  bool
	oldPath string
	newPath string

	renameFrom string
	renameTo   string
	isNew      bool
	isDeleted  bool
	binary     bool
	sawHunk    bool

	changes   []ChangeLine
	additions int
	deletions int
}

func newParser(text string) *parser {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &parser{lines: lines}
}

func (p *parser) run() error {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, "diff --cc ") || strings.HasPrefix(line, "diff --combined "):
			return p.fail(ErrCombinedDiff, p.pos)

		case strings.HasPrefix(line, "diff --git "):
			if err := p.finish(); err != nil {
				return err
			}
			p.cur = &fileBlock{start: p.pos}
			p.cur.gitOld, p.cur.gitNew = splitGitHeader(strings.TrimPrefix(line, "diff --git "))
			p.pos++

		case strings.HasPrefix(line, "--- ") && p.nextHasPrefix("+++ "):
			if p.cur == nil || p.cur.sawHunk || p.cur.sawOld {
				if err := p.finish(); err != nil {
					return err
				}
				p.cur = &fileBlock{start: p.pos}
			}
			p.cur.sawOld, p.cur.oldPath = true, cleanPath(line[4:], "a/")
			p.cur.sawNew, p.cur.newPath = true, cleanPath(p.lines[p.pos+1][4:], "b/")
			p.pos += 2

		case strings.HasPrefix(line, "--- "):
			if p.cur != nil && !p.cur.sawHunk {
				return p.fail(ErrMissingNew, p.pos)
			}
			p.pos++

		case strings.HasPrefix(line, "@@"):
			if p.cur == nil {
				return p.fail(ErrOrphanHunk, p.pos)
			}
			if err := p.readHunk(); err != nil {
				return err
			}

		case strings.HasPrefix(line, "Binary files ") && (p.cur == nil || p.cur.sawHunk || p.cur.binary):
			// diff -r reports binary files without any header.
			oldPath, newPath, ok := BinaryPaths(line)
			if !ok {
				p.pos++
				continue
			}
			if err := p.finish(); err != nil {
				return err
			}
			p.cur = &fileBlock{
				start:     p.pos,
				gitOld:    oldPath,
				gitNew:    newPath,
				isNew:     oldPath == "",
				isDeleted: newPath == "",
				binary:    true,
			}
			p.pos++

		case p.cur != nil && !p.cur.sawHunk:
			p.readExtendedHeader(line)
			p.pos++

		default:
			p.pos++
		}
	}
	return p.finish()
}

func (p *parser) nextHasPrefix(prefix string) bool {
	return p.pos+1 < len(p.lines) && strings.HasPrefix(p.lines[p.pos+1], prefix)
}

func (p *parser) readExtendedHeader(line string) {
	b := p.cur
	switch {
	case strings.HasPrefix(line, "new file mode"):
		b.isNew = true
	case strings.HasPrefix(line, "deleted file mode"):
		b.isDeleted = true
	case strings.HasPrefix(line, "rename from "):
		b.renameFrom = unquote(strings.TrimPrefix(line, "rename from "))
	case strings.HasPrefix(line, "rename to "):
		b.renameTo = unquote(strings.TrimPrefix(line, "rename to "))
	case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
		b.binary = true
	}
}

func (p *parser) readHunk() error {
	header := p.lines[p.pos]
	m := hunkHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return p.fail(ErrHunkHeader, p.pos)
	}
	oldStart, oldLen, ok := hunkRange(m[1], m[2])
	if !ok {
		return p.fail(ErrHunkHeader, p.pos)
	}
	newStart, newLen, ok := hunkRange(m[3], m[4])
	if !ok {
		return p.fail(ErrHunkHeader, p.pos)
	}

	b := p.cur
	b.sawHunk = true
	p.pos++

	oldLine, newLine := oldStart, newStart
	remOld, remNew := oldLen, newLen

	for (remOld > 0 || remNew > 0) && p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.HasPrefix(line, "diff --git ") {
			break
		}
		if line == "" {
			// Trailing newline of the input, or a context line whose
			// leading space was stripped by an editor.
			if p.pos == len(p.lines)-1 || remOld == 0 || remNew == 0 {
				break
			}
			line = " "
		}

		switch line[0] {
		case '+':
			if remNew == 0 {
				return nil
			}
			b.changes = append(b.changes, ChangeLine{
				Kind:       Added,
				Content:    line[1:],
				LineNumber: positive(newLine),
			})
			b.additions++
			newLine++
			remNew--
		case '-':
			if remOld == 0 {
				return nil
			}
			b.changes = append(b.changes, ChangeLine{
				Kind:       Removed,
				Content:    line[1:],
				LineNumber: positive(oldLine),
			})
			b.deletions++
			oldLine++
			remOld--
		case ' ':
			if remOld == 0 || remNew == 0 {
				return nil
			}
			b.changes = append(b.changes, ChangeLine{
				Kind:          Context,
				Content:       line[1:],
				LineNumber:    positive(oldStart),
				OldLineNumber: positive(oldLine),
				NewLineNumber: positive(newLine),
			})
			oldLine++
			newLine++
			remOld--
			remNew--
		case '\\':
			// "\ No newline at end of file"
		default:
			return nil
		}
		p.pos++
	}

	for p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], `\`) {
		p.pos++
	}
	return nil
}

// finish converts the current block into a FileChange.
func (p *parser) finish() error {
	b := p.cur
	if b == nil {
		return nil
	}
	p.cur = nil

	oldName, newName := b.gitOld, b.gitNew
	if b.renameFrom != "" {
		oldName = b.renameFrom
	}
	if b.renameTo != "" {
		newName = b.renameTo
	}
	if b.sawOld {
		oldName = b.oldPath
		if oldName == "" {
			b.isNew = true
		}
	}
	if b.sawNew {
		newName = b.newPath
		if newName == "" {
			b.isDeleted = true
		}
	}
	if b.isNew {
		oldName = ""
	}
	if b.isDeleted {
		newName = ""
	}
	if oldName == "" && newName == "" {
		return p.fail(ErrUnknownPath, b.start)
	}

	fc := FileChange{
		Filename:  newName,
		Language:  DetectLanguage(newName),
		Binary:    b.binary,
		Additions: b.additions,
		Deletions: b.deletions,
		Changes:   b.changes,
	}
	if fc.Changes == nil {
		fc.Changes = []ChangeLine{}
	}
	if oldName != "" && oldName != newName {
		fc.OldFilename = strPtr(oldName)
	}

	switch {
	case b.isDeleted:
		fc.Status = StatusDeleted
	case b.isNew:
		fc.Status = StatusAdded
	case oldName != newName:
		fc.Status = StatusRenamed
	default:
		fc.Status = StatusModified
	}

	p.files = append(p.files, fc)
	return nil
}

// fail builds a ParseError for the block containing line index at.
func (p *parser) fail(err error, at int) error {
	start := at
	if p.cur != nil && p.cur.start <= at {
		start = p.cur.start
	}
	end := at + 1
	for end < len(p.lines) && !strings.HasPrefix(p.lines[end], "diff --git ") {
		end++
	}
	return &ParseError{
		Err:   err,
		Line:  at + 1,
		Block: strings.Join(p.lines[start:end], "\n"),
	}
}

// hunkRange parses one side of a hunk header. An omitted count means 1.
// Ranges whose end would overflow int are rejected.
func hunkRange(start, count string) (int, int, bool) {
	s, err := strconv.Atoi(start)
	if err != nil {
		return 0, 0, false
	}
	n := 1
	if count != "" {
		if n, err = strconv.Atoi(count); err != nil {
			return 0, 0, false
		}
	}
	if s > math.MaxInt-n {
		return 0, 0, false
	}
	return s, n, true
}

// BinaryPaths extracts both paths from a "Binary files X and Y differ"
// line. A /dev/null side comes back empty.
func BinaryPaths(line string) (oldPath, newPath string, ok bool) {
	rest, found := strings.CutPrefix(line, "Binary files ")
	if !found {
		return "", "", false
	}
	if rest, found = strings.CutSuffix(rest, " differ"); !found {
		return "", "", false
	}
	o, n, found := strings.Cut(rest, " and ")
	if !found {
		return "", "", false
	}
	oldPath, newPath = cleanPath(o, "a/"), cleanPath(n, "b/")
	return oldPath, newPath, oldPath != "" || newPath != ""
}

func positive(n int) *int {
	if n < 1 {
		return nil
	}
	return intPtr(n)
}

// cleanPath normalizes a ---/+++ header value: drops a trailing timestamp,
// unquotes C-style quoting, maps /dev/null to "" and strips the side prefix.
func cleanPath(raw, prefix string) string {
	if i := strings.IndexByte(raw, '\t'); i >= 0 {
		raw = raw[:i]
	}
	raw = unquote(strings.TrimSpace(raw))
	if raw == devNull {
		return ""
	}
	return stripPrefix(raw, prefix)
}

func stripPrefix(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

// splitGitHeader recovers both paths from the tail of a "diff --git" line.
// Either result may be empty when the line is ambiguous; the ---/+++ and
// rename headers take precedence anyway.
func splitGitHeader(rest string) (string, string) {
	if strings.HasPrefix(rest, `"`) {
		if end := closingQuote(rest); end > 0 {
			oldPath := unquote(rest[:end+1])
			newPath := unquote(strings.TrimSpace(rest[end+1:]))
			return stripPrefix(oldPath, "a/"), stripPrefix(newPath, "b/")
		}
		return "", ""
	}

	// Unchanged path: "a/X b/X" splits exactly in the middle.
	if len(rest)%2 == 1 {
		mid := len(rest) / 2
		left, right := rest[:mid], rest[mid+1:]
		if rest[mid] == ' ' && len(left) > 2 && len(right) > 2 && left[2:] == right[2:] {
			return stripPrefix(left, "a/"), stripPrefix(right, "b/")
		}
	}

	if i := strings.LastIndex(rest, " b/"); i > 0 {
		return stripPrefix(rest[:i], "a/"), rest[i+3:]
	}
	if strings.Count(rest, " ") == 1 {
		parts := strings.SplitN(rest, " ", 2)
		return stripPrefix(parts[0], "a/"), stripPrefix(unquote(parts[1]), "b/")
	}
	return "", ""
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// String renders a compact one-line description, used in logs.
func (f FileChange) String() string {
	return fmt.Sprintf("%s (%s, +%d -%d)", f.Path(), f.Status, f.Additions, f.Deletions)
}
