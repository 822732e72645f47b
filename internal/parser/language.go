// Package parser wraps tree-sitter grammars behind the fixed 15-language
// extension table spec.md §6 defines, producing the Symbol/Reference shapes
// internal/symtypes describes. It is grounded on the teacher's
// internal/parser package: one parser+query pair per language, looked up by
// file extension, with the same defensive nil-check around tree_sitter.NewQuery
// the teacher's setup functions carry for the Go binding's typed-nil bug.
package parser

import "strings"

// Language is the closed set of languages the Extractor understands.
type Language string

const (
	LanguageRust       Language = "Rust"
	LanguagePython     Language = "Python"
	LanguageC          Language = "C"
	LanguageCpp        Language = "Cpp"
	LanguageJava       Language = "Java"
	LanguageGo         Language = "Go"
	LanguageJavaScript Language = "JavaScript"
	LanguageTypeScript Language = "TypeScript"
	LanguageRuby       Language = "Ruby"
	LanguageCSharp     Language = "CSharp"
	LanguageKotlin     Language = "Kotlin"
	LanguageScala      Language = "Scala"
	LanguageSwift      Language = "Swift"
	LanguagePHP        Language = "PHP"
	LanguageObjectiveC Language = "ObjectiveC"
)

// extensionTable is the closed, case-insensitive mapping spec.md §6 fixes.
// Anything not listed here is not a source file.
var extensionTable = map[string]Language{
	"rs":    LanguageRust,
	"py":    LanguagePython,
	"c":     LanguageC,
	"h":     LanguageC,
	"cpp":   LanguageCpp,
	"cc":    LanguageCpp,
	"cxx":   LanguageCpp,
	"hpp":   LanguageCpp,
	"hxx":   LanguageCpp,
	"java":  LanguageJava,
	"go":    LanguageGo,
	"js":    LanguageJavaScript,
	"jsx":   LanguageJavaScript,
	"ts":    LanguageTypeScript,
	"tsx":   LanguageTypeScript,
	"rb":    LanguageRuby,
	"cs":    LanguageCSharp,
	"kt":    LanguageKotlin,
	"kts":   LanguageKotlin,
	"scala": LanguageScala,
	"sc":    LanguageScala,
	"swift": LanguageSwift,
	"php":   LanguagePHP,
	"m":     LanguageObjectiveC,
	"mm":    LanguageObjectiveC,
}

// LanguageForPath determines a file's language from its extension. The
// second return is false when the extension is unlisted or the path has
// none, matching spec.md §4.3 step 7's "unknown -> Failed FileInfo" rule.
func LanguageForPath(path string) (Language, bool) {
	ext := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = path[i+1:]
	} else {
		return "", false
	}
	lang, ok := extensionTable[strings.ToLower(ext)]
	return lang, ok
}
