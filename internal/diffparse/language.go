package diffparse

import (
	"path"
	"strings"
)

// Language names produced by DetectLanguage.
const (
	LangJavaScript = "JavaScript"
	LangTypeScript = "TypeScript"
	LangPython     = "Python"
	LangJava       = "Java"
	LangRuby       = "Ruby"
	LangGo         = "Go"
	LangPHP        = "PHP"
	LangCSharp     = "C#"
	LangCPP        = "C++"
	LangC          = "C"
	LangRust       = "Rust"
	LangKotlin     = "Kotlin"
	LangSwift      = "Swift"
	LangUnknown    = "Unknown"
)

var extLanguages = map[string]string{
	"js":    LangJavaScript,
	"jsx":   LangJavaScript,
	"mjs":   LangJavaScript,
	"cjs":   LangJavaScript,
	"ts":    LangTypeScript,
	"tsx":   LangTypeScript,
	"py":    LangPython,
	"java":  LangJava,
	"rb":    LangRuby,
	"go":    LangGo,
	"php":   LangPHP,
	"cs":    LangCSharp,
	"cpp":   LangCPP,
	"cc":    LangCPP,
	"cxx":   LangCPP,
	"hpp":   LangCPP,
	"c":     LangC,
	"h":     LangC,
	"rs":    LangRust,
	"kt":    LangKotlin,
	"swift": LangSwift,
}

// DetectLanguage maps the extension of p (the text after the final dot of
// its last element) to a language name, or LangUnknown.
func DetectLanguage(p string) string {
	base := path.Base(p)
	idx := strings.LastIndex(base, ".")
	if p == "" || idx < 0 || idx == len(base)-1 {
		return LangUnknown
	}
	if lang, ok := extLanguages[base[idx+1:]]; ok {
		return lang
	}
	return LangUnknown
}
