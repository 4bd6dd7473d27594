package review

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/difflens/internal/diffparse"
)

// addedLineRule raises one finding for every added line that match accepts.
type addedLineRule struct {
	id       string
	match    func(content string) bool
	severity Severity
	typ      IssueType
	msg      MessageID
}

func (r addedLineRule) ID() string { return r.id }

func (r addedLineRule) CheckLine(file *diffparse.FileChange, line diffparse.ChangeLine, c *Collector) {
	if line.Kind != diffparse.Added || !r.match(line.Content) {
		return
	}
	c.Issue(file, line.LineNumber, r.severity, r.typ, r.msg)
}

// suggestionRule adds fixed suggestions for every file it is dispatched to.
type suggestionRule struct {
	id   string
	msgs []MessageID
}

func (r suggestionRule) ID() string { return r.id }

func (r suggestionRule) CheckFile(_ *diffparse.FileChange, c *Collector) {
	for _, m := range r.msgs {
		c.Suggest(m)
	}
}

var (
	evalCallRe   = regexp.MustCompile(`(^|[^A-Za-z0-9_$])eval\(`)
	bareExceptRe = regexp.MustCompile(`\bexcept\s*:`)
)

// Minimum length, in characters, of a // comment line before it counts as
// commented-out code.
const commentedCodeMinLen = 50

func javaScriptRules() []Rule {
	return []Rule{
		addedLineRule{
			id:       "js/console-log",
			match:    func(s string) bool { return strings.Contains(s, "console.log") },
			severity: SeverityWarning,
			typ:      TypeDebugCode,
			msg:      MsgConsoleLog,
		},
		addedLineRule{
			id:       "js/eval",
			match:    evalCallRe.MatchString,
			severity: SeverityError,
			typ:      TypeSecurity,
			msg:      MsgEval,
		},
		addedLineRule{
			id: "js/commented-code",
			match: func(s string) bool {
				return strings.HasPrefix(strings.TrimSpace(s), "//") && utf8.RuneCountInString(s) > commentedCodeMinLen
			},
			severity: SeverityInfo,
			typ:      TypeCodeQuality,
			msg:      MsgCommentedCode,
		},
		suggestionRule{
			id:   "js/suggestions",
			msgs: []MessageID{SuggestJSStyle, SuggestJSDoc},
		},
	}
}

func pythonRules() []Rule {
	return []Rule{
		addedLineRule{
			id:       "py/print",
			match:    func(s string) bool { return strings.Contains(s, "print(") },
			severity: SeverityInfo,
			typ:      TypeDebugCode,
			msg:      MsgPrint,
		},
		addedLineRule{
			id:       "py/bare-except",
			match:    bareExceptRe.MatchString,
			severity: SeverityWarning,
			typ:      TypeErrorHandling,
			msg:      MsgBareExcept,
		},
		suggestionRule{
			id:   "py/suggestions",
			msgs: []MessageID{SuggestPyFormatter, SuggestPyTypeHints},
		},
	}
}
