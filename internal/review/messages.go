package review

import (
	"fmt"
	"sort"
)

// MessageID keys a finding message or suggestion in the catalog.
type MessageID string

const (
	MsgConsoleLog     MessageID = "console-log"
	MsgEval           MessageID = "eval"
	MsgCommentedCode  MessageID = "commented-code"
	MsgPrint          MessageID = "print"
	MsgBareExcept     MessageID = "bare-except"
	MsgLargeChange    MessageID = "large-change"
	MsgHardcodedCreds MessageID = "hardcoded-secret"

	SuggestJSStyle      MessageID = "suggest-js-style"
	SuggestJSDoc        MessageID = "suggest-jsdoc"
	SuggestPyFormatter  MessageID = "suggest-py-formatter"
	SuggestPyTypeHints  MessageID = "suggest-py-type-hints"
	SuggestSmallCommits MessageID = "suggest-small-commits"
	SuggestSecretStore  MessageID = "suggest-secret-store"
)

// DefaultLocale is used when no locale, or an unknown one, is requested.
const DefaultLocale = "en"

var catalogs = map[string]map[MessageID]string{
	"en": {
		MsgConsoleLog:     "console.log statement found; remove it before shipping to production",
		MsgEval:           "eval() is used, which can lead to code injection",
		MsgCommentedCode:  "large block of commented-out code; remove unused code",
		MsgPrint:          "print() call found; use logging in production code",
		MsgBareExcept:     "bare except clause; catch a specific exception type",
		MsgLargeChange:    "this file adds a large amount of code (%d lines); consider splitting it into smaller commits",
		MsgHardcodedCreds: "possible hard-coded %s; load credentials from the environment or a secret store",

		SuggestJSStyle:      "Consider using ESLint and Prettier to keep code style consistent",
		SuggestJSDoc:        "Consider adding JSDoc documentation to complex functions",
		SuggestPyFormatter:  "Consider formatting Python code with Black or YAPF",
		SuggestPyTypeHints:  "Use type hints to improve code readability",
		SuggestSmallCommits: "Consider splitting large changes into several smaller commits to ease review",
		SuggestSecretStore:  "Rotate any credential that was committed and move it to a secret manager",
	},
	"zh": {
		MsgConsoleLog:     "代码中包含console.log语句，生产环境中应移除",
		MsgEval:           "使用了eval函数，可能导致安全风险",
		MsgCommentedCode:  "存在大块注释代码，建议移除未使用代码",
		MsgPrint:          "代码中包含print语句，生产环境中应使用日志",
		MsgBareExcept:     "使用了通用异常捕获，应指定具体异常类型",
		MsgLargeChange:    "此文件添加了大量代码(%d行)，建议拆分为更小的提交",
		MsgHardcodedCreds: "可能存在硬编码的%s，应从环境变量或密钥管理服务读取",

		SuggestJSStyle:      "考虑使用ESLint和Prettier保持代码风格一致",
		SuggestJSDoc:        "对于复杂函数，考虑添加JSDoc文档",
		SuggestPyFormatter:  "考虑使用Black或YAPF格式化Python代码",
		SuggestPyTypeHints:  "使用类型提示(Type Hints)增强代码可读性",
		SuggestSmallCommits: "考虑将大型变更拆分为多个小型提交，便于审查",
		SuggestSecretStore:  "轮换已提交的凭据，并改用密钥管理服务存储",
	},
}

// Message renders id for locale, falling back to DefaultLocale.
func Message(locale string, id MessageID, args ...any) string {
	cat, ok := catalogs[locale]
	if !ok {
		cat = catalogs[DefaultLocale]
	}
	tmpl, ok := cat[id]
	if !ok {
		tmpl, ok = catalogs[DefaultLocale][id]
		if !ok {
			return string(id)
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locales lists the available message locales.
func Locales() []string {
	out := make([]string, 0, len(catalogs))
	for l := range catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// SupportedLocale reports whether a catalog exists for locale.
func SupportedLocale(locale string) bool {
	_, ok := catalogs[locale]
	return ok
}
