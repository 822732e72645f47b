// Package display renders Store query results as the plain-text outlines
// spec.md §6's get_file_outline and get_directory_outline operations
// return, and SPEC_FULL.md §4.9 specifies in more detail. Grounded on the
// teacher's internal/display.TreeFormatter.formatText for the "heading,
// then one indented row per item" shape, generalized from a call-tree
// walk to a flat per-kind symbol listing, and on the original Rust
// implementation's mcp/outline_tools.rs for the kind-to-heading grouping
// (OutlineTools::get_symbol_category) this package's FileOutline mirrors.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/codeindex/internal/symtypes"
)

// kindOrder orders the headings a file outline groups symbols under,
// matching the original implementation's category buckets.
var kindOrder = []symtypes.Kind{
	symtypes.KindModule,
	symtypes.KindImport,
	symtypes.KindClass,
	symtypes.KindStruct,
	symtypes.KindInterface,
	symtypes.KindEnum,
	symtypes.KindFunction,
	symtypes.KindMethod,
	symtypes.KindConstant,
	symtypes.KindVariable,
}

var kindHeading = map[symtypes.Kind]string{
	symtypes.KindModule:    "Modules",
	symtypes.KindImport:    "Imports",
	symtypes.KindClass:     "Classes",
	symtypes.KindStruct:    "Structs",
	symtypes.KindInterface: "Interfaces",
	symtypes.KindEnum:      "Enums",
	symtypes.KindFunction:  "Functions",
	symtypes.KindMethod:    "Methods",
	symtypes.KindConstant:  "Constants",
	symtypes.KindVariable:  "Variables",
}

// FileOutline renders symbols -- all belonging to one file -- as a
// plain-text outline grouped by kind, sorted by line number within each
// group, per SPEC_FULL.md §4.9.
func FileOutline(symbols []symtypes.Symbol) string {
	byKind := make(map[symtypes.Kind][]symtypes.Symbol)
	for _, s := range symbols {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}

	var sb strings.Builder
	for _, kind := range kindOrder {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Location.StartLine < group[j].Location.StartLine })

		sb.WriteString(kindHeading[kind])
		sb.WriteString(":\n")
		for _, s := range group {
			fmt.Fprintf(&sb, "  %s  %s:%d\n", s.Name, s.Location.File, s.Location.StartLine)
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return "(no symbols)\n"
	}
	return sb.String()
}

// includeToKinds maps get_directory_outline's lowercase `includes` values
// to the Kind(s) they select, per spec.md §6's includes default
// (["functions","classes","structs"]).
var includeToKinds = map[string][]symtypes.Kind{
	"functions": {symtypes.KindFunction},
	"methods":   {symtypes.KindMethod},
	"classes":   {symtypes.KindClass},
	"structs":   {symtypes.KindStruct},
	"enums":     {symtypes.KindEnum},
	"interfaces": {symtypes.KindInterface},
	"constants": {symtypes.KindConstant},
	"variables": {symtypes.KindVariable},
	"modules":   {symtypes.KindModule},
	"imports":   {symtypes.KindImport},
}

// KindsForIncludes resolves the includes filter to the set of kinds to
// display, defaulting to functions/classes/structs when includes is empty.
func KindsForIncludes(includes []string) map[symtypes.Kind]bool {
	if len(includes) == 0 {
		includes = []string{"functions", "classes", "structs"}
	}
	kinds := make(map[symtypes.Kind]bool)
	for _, inc := range includes {
		for _, k := range includeToKinds[strings.ToLower(inc)] {
			kinds[k] = true
		}
	}
	return kinds
}

// DirectoryOutline renders one listing per file under a directory, each
// followed by its included symbols, per spec.md §6's get_directory_outline.
// filesSymbols maps a file's path (relative to the directory, for display)
// to the symbols within it that already passed the includes filter.
func DirectoryOutline(directoryPath string, filesSymbols map[string][]symtypes.Symbol) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Directory: %s (%d files)\n\n", directoryPath, len(filesSymbols))

	files := make([]string, 0, len(filesSymbols))
	for f := range filesSymbols {
		files = append(files, f)
	}
	sort.Strings(files)

	total := 0
	for _, f := range files {
		symbols := filesSymbols[f]
		fmt.Fprintf(&sb, "%s\n", f)
		sort.Slice(symbols, func(i, j int) bool { return symbols[i].Location.StartLine < symbols[j].Location.StartLine })
		for _, s := range symbols {
			fmt.Fprintf(&sb, "  %s (%s)\n", s.Name, strings.ToLower(string(s.Kind)))
			total++
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Summary: %d symbols across %d files\n", total, len(files))
	return sb.String()
}
