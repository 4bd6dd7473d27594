package review

import (
	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/redact"
)

// largeChangeRule flags files that add more lines than threshold.
type largeChangeRule struct {
	threshold int
}

func (largeChangeRule) ID() string { return "general/large-change" }

func (r largeChangeRule) CheckFile(file *diffparse.FileChange, c *Collector) {
	added := 0
	for _, ch := range file.Changes {
		if ch.Kind == diffparse.Added {
			added++
		}
	}
	if added <= r.threshold {
		return
	}
	c.Issue(file, nil, SeverityWarning, TypeCodeReviewPractice, MsgLargeChange, added)
	c.Suggest(SuggestSmallCommits)
}

// secretRule flags added lines that look like they embed a credential.
type secretRule struct {
	ignore []string
}

func (secretRule) ID() string { return "general/hardcoded-secret" }

func (r secretRule) CheckLine(file *diffparse.FileChange, line diffparse.ChangeLine, c *Collector) {
	if line.Kind != diffparse.Added {
		return
	}
	if len(r.ignore) > 0 && redact.MatchesPath(file.Path(), r.ignore) {
		return
	}
	kind, ok := redact.Detect(line.Content)
	if !ok {
		return
	}
	c.Issue(file, line.LineNumber, SeverityError, TypeSecurity, MsgHardcodedCreds, kind)
	c.Suggest(SuggestSecretStore)
}
