package parser

import (
	"strings"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_scala "github.com/tree-sitter-grammars/tree-sitter-scala/bindings/go"
	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tree_sitter_objc "github.com/tree-sitter-grammars/tree-sitter-objc/bindings/go"
	tree_sitter_swift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"

	"github.com/standardbeagle/codeindex/internal/debug"
	"github.com/standardbeagle/codeindex/internal/symtypes"
)

// kindPrefixTable is the fixed mapping spec.md §4.2.1 step 4 fixes from a
// name-capture's prefix to a Kind. Anything unlisted falls through to
// Variable, matching the spec's "else -> Variable" clause.
var kindPrefixTable = map[string]symtypes.Kind{
	"function":  symtypes.KindFunction,
	"method":    symtypes.KindMethod,
	"class":     symtypes.KindClass,
	"struct":    symtypes.KindStruct,
	"enum":      symtypes.KindEnum,
	"trait":     symtypes.KindInterface,
	"interface": symtypes.KindInterface,
	"const":     symtypes.KindConstant,
	"static":    symtypes.KindConstant,
	"module":    symtypes.KindModule,
	"import":    symtypes.KindImport,
	"variable":  symtypes.KindVariable,
}

func kindForPrefix(prefix string) symtypes.Kind {
	if k, ok := kindPrefixTable[prefix]; ok {
		return k
	}
	return symtypes.KindVariable
}

// languageEntry pairs a configured parser with its compiled symbol and
// reference queries. A nil query means that language's pattern set failed
// to compile and that half of extraction is skipped for it.
type languageEntry struct {
	parser       *tree_sitter.Parser
	symbolQuery  *tree_sitter.Query
	symbolNames  []string
	refQuery     *tree_sitter.Query
	refNames     []string
}

// Extractor holds one configured parser+query pair per supported language
// and implements spec.md §4.2.1's extract_symbols/extract_references.
// Grounded on the teacher's TreeSitterParser: a parsers-by-extension map
// plus a queries-by-extension map, built once at construction and reused
// across every call.
type Extractor struct {
	mu       sync.Mutex // tree-sitter parsers are not safe for concurrent Parse calls
	entries  map[Language]*languageEntry
}

// NewExtractor configures a parser and compiles both query sets for every
// language with a registered grammar. A language whose grammar or query
// fails to set up is simply absent from the map; ExtractSymbols then
// returns an empty result for files in that language, per spec.md §4.2.1's
// "total on well-formed input" contract.
func NewExtractor() *Extractor {
	e := &Extractor{entries: make(map[Language]*languageEntry, len(querySource))}

	e.setup(LanguageGo, tree_sitter_go.Language())
	e.setup(LanguagePython, tree_sitter_python.Language())
	e.setup(LanguageJavaScript, tree_sitter_javascript.Language())
	e.setup(LanguageTypeScript, tree_sitter_typescript.LanguageTypescript())
	e.setup(LanguageRust, tree_sitter_rust.Language())
	e.setup(LanguageC, tree_sitter_c.Language())
	e.setup(LanguageCpp, tree_sitter_cpp.Language())
	e.setup(LanguageJava, tree_sitter_java.Language())
	e.setup(LanguageCSharp, tree_sitter_csharp.Language())
	e.setup(LanguageRuby, tree_sitter_ruby.Language())
	e.setup(LanguageKotlin, tree_sitter_kotlin.Language())
	e.setup(LanguageScala, tree_sitter_scala.Language())
	e.setup(LanguageSwift, tree_sitter_swift.Language())
	e.setup(LanguagePHP, tree_sitter_php.LanguagePHP())
	e.setup(LanguageObjectiveC, tree_sitter_objc.Language())

	return e
}

func (e *Extractor) setup(lang Language, raw unsafe.Pointer) {
	qs, ok := querySource[lang]
	if !ok {
		return
	}

	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(raw)
	if err := parser.SetLanguage(language); err != nil {
		debug.Logf("parser: set language %s: %v", lang, err)
		return
	}

	entry := &languageEntry{parser: parser}

	if q, _ := tree_sitter.NewQuery(language, qs.symbols); q != nil {
		entry.symbolQuery = q
		entry.symbolNames = q.CaptureNames()
	}
	if q, _ := tree_sitter.NewQuery(language, qs.references); q != nil {
		entry.refQuery = q
		entry.refNames = q.CaptureNames()
	}

	e.entries[lang] = entry
}

// ExtractSymbols implements spec.md §4.2.1's extract_symbols. It is total:
// an unconfigured language, a nil tree, or a tree full of error nodes all
// yield an empty slice rather than an error.
func (e *Extractor) ExtractSymbols(source []byte, lang Language, filePath string) []symtypes.Symbol {
	entry, ok := e.entries[lang]
	if !ok || entry.symbolQuery == nil {
		return nil
	}

	tree := e.parse(entry, source, filePath)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var symbols []symtypes.Symbol

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(entry.symbolQuery, tree.RootNode(), source)

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var nameNode, defNode *tree_sitter.Node
		var prefix string
		for _, c := range match.Captures {
			capture := entry.symbolNames[c.Index]
			switch {
			case strings.HasSuffix(capture, ".name"):
				node := c.Node
				nameNode = &node
				prefix = strings.TrimSuffix(capture, ".name")
			case strings.HasSuffix(capture, ".definition"):
				node := c.Node
				defNode = &node
			}
		}
		if nameNode == nil {
			continue // step 3: the .name capture is required
		}

		locNode := nameNode
		if defNode != nil {
			locNode = defNode
		}

		name := string(source[nameNode.StartByte():nameNode.EndByte()])
		if name == "" {
			continue
		}

		start := locNode.StartPosition()
		end := locNode.EndPosition()
		loc := symtypes.Location{
			File:        filePath,
			StartLine:   int(start.Row) + 1,
			StartColumn: int(start.Column),
			EndLine:     int(end.Row) + 1,
			EndColumn:   int(end.Column),
		}

		symbols = append(symbols, symtypes.Symbol{
			ID:         symtypes.NewSymbolID(filePath, loc.StartLine, loc.StartColumn),
			Name:       name,
			Kind:       kindForPrefix(prefix),
			Location:   loc,
			Visibility: symtypes.VisibilityPublic,
		})
	}

	return symbols
}

// ExtractReferences implements spec.md §4.2.1's extract_references: every
// capture of the reference query yields one unresolved Reference with kind
// Usage. Resolution against known symbol names happens later, in the
// Pipeline (spec.md §4.3 step 10).
func (e *Extractor) ExtractReferences(source []byte, lang Language, filePath string) []symtypes.Reference {
	entry, ok := e.entries[lang]
	if !ok || entry.refQuery == nil {
		return nil
	}

	tree := e.parse(entry, source, filePath)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var refs []symtypes.Reference

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(entry.refQuery, tree.RootNode(), source)

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			node := c.Node
			start := node.StartPosition()
			end := node.EndPosition()
			refs = append(refs, symtypes.Reference{
				Location: symtypes.Location{
					File:        filePath,
					StartLine:   int(start.Row) + 1,
					StartColumn: int(start.Column),
					EndLine:     int(end.Row) + 1,
					EndColumn:   int(end.Column),
				},
				Kind:     symtypes.ReferenceUsage,
				TargetID: symtypes.NewSymbolID(filePath, -1, -1), // sentinel: unresolved
			})
		}
	}

	return refs
}

// parse runs the language's parser under a defensive copy of source, the
// same copy-on-parse discipline the teacher's ParseFileEnhanced* methods
// use because the tree-sitter C library mutates its input buffer, and
// recovers from any CGO-side panic rather than crashing the Pipeline.
func (e *Extractor) parse(entry *languageEntry, source []byte, filePath string) (tree *tree_sitter.Tree) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			debug.Logf("parser: panic parsing %s: %v", filePath, r)
			tree = nil
		}
	}()

	buf := make([]byte, len(source))
	copy(buf, source)
	return entry.parser.Parse(buf, nil)
}
