package review

import (
	"sort"

	"github.com/dshills/difflens/internal/diffparse"
)

// DefaultLargeChangeThreshold is the number of added lines in one file above
// which the large-change rule fires.
const DefaultLargeChangeThreshold = 300

// Rule is a named heuristic. Concrete rules implement LineRule, FileRule or both.
type Rule interface {
	ID() string
}

// LineRule inspects one changed line at a time.
type LineRule interface {
	Rule
	CheckLine(file *diffparse.FileChange, line diffparse.ChangeLine, c *Collector)
}

// FileRule inspects a whole file after all of its lines were checked.
type FileRule interface {
	Rule
	CheckFile(file *diffparse.FileChange, c *Collector)
}

type ruleSet struct {
	line []LineRule
	file []FileRule
}

func (s *ruleSet) add(r Rule) {
	if lr, ok := r.(LineRule); ok {
		s.line = append(s.line, lr)
	}
	if fr, ok := r.(FileRule); ok {
		s.file = append(s.file, fr)
	}
}

// Engine dispatches rules by file language. It holds no per-call state and
// is safe for concurrent use once built.
type Engine struct {
	byLang    map[string]*ruleSet
	general   ruleSet
	disabled  map[string]bool
	overrides map[string]Severity
	locale    string

	largeChangeThreshold int
	detectSecrets        bool
	secretIgnore         []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocale selects the message catalog. Unknown locales fall back to English.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		if SupportedLocale(locale) {
			e.locale = locale
		}
	}
}

// WithDisabled turns off rules by ID.
func WithDisabled(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.disabled[id] = true
		}
	}
}

// WithSeverityOverrides replaces the severity of findings whose rule ID or
// issue type is a key of overrides. Rule IDs win over types.
func WithSeverityOverrides(overrides map[string]Severity) Option {
	return func(e *Engine) {
		for k, v := range overrides {
			e.overrides[k] = v
		}
	}
}

// WithLargeChangeThreshold sets the added-line count above which a file is
// flagged. Non-positive values keep the default.
func WithLargeChangeThreshold(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.largeChangeThreshold = n
		}
	}
}

// WithSecretDetection enables the hardcoded-secret rule, skipping files that
// match any of the ignore globs.
func WithSecretDetection(ignore ...string) Option {
	return func(e *Engine) {
		e.detectSecrets = true
		e.secretIgnore = append(e.secretIgnore, ignore...)
	}
}

// NewEngine builds an engine with the built-in rules registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		byLang:               make(map[string]*ruleSet),
		disabled:             make(map[string]bool),
		overrides:            make(map[string]Severity),
		locale:               DefaultLocale,
		largeChangeThreshold: DefaultLargeChangeThreshold,
	}
	for _, o := range opts {
		o(e)
	}

	for _, lang := range []string{diffparse.LangJavaScript, diffparse.LangTypeScript} {
		for _, r := range javaScriptRules() {
			e.Register(lang, r)
		}
	}
	for _, r := range pythonRules() {
		e.Register(diffparse.LangPython, r)
	}
	if e.detectSecrets {
		e.RegisterGeneral(secretRule{ignore: e.secretIgnore})
	}
	e.RegisterGeneral(largeChangeRule{threshold: e.largeChangeThreshold})
	return e
}

// Register adds r to the rules applied to files of lang.
func (e *Engine) Register(lang string, r Rule) {
	s, ok := e.byLang[lang]
	if !ok {
		s = &ruleSet{}
		e.byLang[lang] = s
	}
	s.add(r)
}

// RegisterGeneral adds r to the rules applied to every file.
func (e *Engine) RegisterGeneral(r Rule) {
	e.general.add(r)
}

// RuleIDs lists the enabled rule IDs: language rules by language name, then
// general rules.
func (e *Engine) RuleIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	collect := func(rs []Rule) {
		for _, r := range rs {
			if !seen[r.ID()] && !e.disabled[r.ID()] {
				seen[r.ID()] = true
				ids = append(ids, r.ID())
			}
		}
	}
	langs := make([]string, 0, len(e.byLang))
	for lang := range e.byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		collect(e.byLang[lang].rules())
	}
	collect(e.general.rules())
	return ids
}

func (s *ruleSet) rules() []Rule {
	out := make([]Rule, 0, len(s.line)+len(s.file))
	for _, r := range s.line {
		out = append(out, r)
	}
	for _, r := range s.file {
		out = append(out, r)
	}
	return out
}

// Evaluate runs the rules over files. Issues come out in file order, then
// change order, with file-level findings after a file's line findings.
func (e *Engine) Evaluate(files []diffparse.FileChange) Result {
	c := newCollector(e)
	for i := range files {
		f := &files[i]
		lang := e.byLang[f.Language]

		for _, line := range f.Changes {
			if lang != nil {
				e.checkLine(lang.line, f, line, c)
			}
			e.checkLine(e.general.line, f, line, c)
		}
		if lang != nil {
			e.checkFile(lang.file, f, c)
		}
		e.checkFile(e.general.file, f, c)
	}
	return c.result()
}

func (e *Engine) checkLine(rules []LineRule, f *diffparse.FileChange, line diffparse.ChangeLine, c *Collector) {
	for _, r := range rules {
		if e.disabled[r.ID()] {
			continue
		}
		c.rule = r.ID()
		r.CheckLine(f, line, c)
	}
}

func (e *Engine) checkFile(rules []FileRule, f *diffparse.FileChange, c *Collector) {
	for _, r := range rules {
		if e.disabled[r.ID()] {
			continue
		}
		c.rule = r.ID()
		r.CheckFile(f, c)
	}
}

// Collector accumulates findings and suggestions for one Evaluate call.
type Collector struct {
	engine      *Engine
	rule        string
	issues      []Finding
	suggestions []string
	seen        map[string]struct{}
}

func newCollector(e *Engine) *Collector {
	return &Collector{
		engine: e,
		seen:   make(map[string]struct{}),
	}
}

// Issue records a finding for the running rule. line may be nil for
// file-level findings.
func (c *Collector) Issue(file *diffparse.FileChange, line *int, sev Severity, typ IssueType, msg MessageID, args ...any) {
	if o, ok := c.engine.overrides[c.rule]; ok {
		sev = o
	} else if o, ok := c.engine.overrides[string(typ)]; ok {
		sev = o
	}
	f := Finding{
		Filename: file.Filename,
		Severity: sev,
		Message:  Message(c.engine.locale, msg, args...),
		Type:     typ,
		Rule:     c.rule,
	}
	if line != nil {
		n := *line
		f.LineNumber = &n
	}
	c.issues = append(c.issues, f)
}

// Suggest adds a suggestion unless an identical one was already added.
func (c *Collector) Suggest(msg MessageID, args ...any) {
	s := Message(c.engine.locale, msg, args...)
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.suggestions = append(c.suggestions, s)
}

func (c *Collector) result() Result {
	r := Result{Issues: c.issues, Suggestions: c.suggestions}
	if r.Issues == nil {
		r.Issues = []Finding{}
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	return r
}
