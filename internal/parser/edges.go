package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/jscontext-mcp/pkg/types"
)

// Statement patterns are anchored (^) and applied to the text slice starting
// at each import/export keyword occurrence, so precedence is decided per
// anchor: the first pattern to match claims the statement.
var (
	importAnchorPattern = regexp.MustCompile(`\bimport\b`)
	exportAnchorPattern = regexp.MustCompile(`\bexport\b`)

	// import X from 'mod' / import X, { a, b as c } from 'mod'
	importDefaultPattern = regexp.MustCompile(`^import\s+([A-Za-z_$][\w$]*)\s*(?:,\s*\{([^}]*)\})?\s*from\s*['"]([^'"]+)['"];?`)
	// import * as X from 'mod'
	importNamespacePattern = regexp.MustCompile(`^import\s*\*\s*as\s+([A-Za-z_$][\w$]*)\s+from\s*['"]([^'"]+)['"];?`)
	// import { a, b as c } from 'mod'
	importNamedPattern = regexp.MustCompile(`^import\s*\{([^}]*)\}\s*from\s*['"]([^'"]+)['"];?`)
	// import 'mod'
	importSideEffectPattern = regexp.MustCompile(`^import\s*['"]([^'"]+)['"];?`)

	// export * from 'mod'
	exportAllPattern = regexp.MustCompile(`^export\s*\*\s*from\s*['"]([^'"]+)['"];?`)
	// export { a, b as c } / export { a } from 'mod'
	exportNamedPattern = regexp.MustCompile(`^export\s*\{([^}]*)\}(?:\s*from\s*['"]([^'"]+)['"])?;?`)
	// export [default] [async] const|let|var|function|class Name
	exportDeclPattern = regexp.MustCompile(`^export\s+(?:(default)\s+)?(?:(async)\s+)?(const|let|var|function|class)\s*\*?\s*([A-Za-z_$][\w$]*)`)
	// export default X;
	exportDefaultIdentPattern = regexp.MustCompile(`^export\s+default\s+([A-Za-z_$][\w$]*)[ \t]*(;|\n|$)`)
	// export default <anonymous function/class/object/array/call/new>
	exportDefaultExprPattern = regexp.MustCompile(`^export\s+default\s+(?:async\s+)?(function\b|class\b|\(|\{|\[|new\b|[A-Za-z_$][\w$]*\s*\()`)

	specifierAliasPattern = regexp.MustCompile(`^([\w$]+)\s+as\s+([\w$]+)$`)
)

// Keywords that begin a default-expression form and therefore disqualify a
// default-identifier match.
var defaultExprKeywords = map[string]bool{
	"function": true,
	"class":    true,
	"async":    true,
	"new":      true,
}

// extractImports locates every import statement and decomposes it into an
// ImportEdge. Each anchor is tried against the statement forms in fixed
// precedence: default, namespace, named list, side effect.
func (x *extraction) extractImports() {
	for _, loc := range importAnchorPattern.FindAllStringIndex(x.text, -1) {
		if edge, ok := x.importEdgeAt(loc[0]); ok {
			x.result.Imports = append(x.result.Imports, edge)
		}
	}
}

func (x *extraction) importEdgeAt(anchor int) (types.ImportEdge, bool) {
	rest := x.text[anchor:]

	if m := importDefaultPattern.FindStringSubmatch(rest); m != nil {
		specs := []types.ImportSpecifier{{
			Kind:         types.SpecifierDefault,
			ImportedName: "default",
			LocalName:    m[1],
		}}
		if m[2] != "" {
			specs = append(specs, parseImportSpecifiers(m[2])...)
		}
		return x.importEdge(anchor, m[0], m[3], specs), true
	}

	if m := importNamespacePattern.FindStringSubmatch(rest); m != nil {
		specs := []types.ImportSpecifier{{
			Kind:         types.SpecifierNamespace,
			ImportedName: "*",
			LocalName:    m[1],
		}}
		return x.importEdge(anchor, m[0], m[2], specs), true
	}

	if m := importNamedPattern.FindStringSubmatch(rest); m != nil {
		return x.importEdge(anchor, m[0], m[2], parseImportSpecifiers(m[1])), true
	}

	if m := importSideEffectPattern.FindStringSubmatch(rest); m != nil {
		specs := []types.ImportSpecifier{{Kind: types.SpecifierSideEffect}}
		return x.importEdge(anchor, m[0], m[1], specs), true
	}

	return types.ImportEdge{}, false
}

func (x *extraction) importEdge(anchor int, raw, source string, specs []types.ImportSpecifier) types.ImportEdge {
	return types.ImportEdge{
		Raw:        raw,
		Source:     source,
		Specifiers: specs,
		StartLine:  lineForOffset(x.lineStarts, anchor),
		EndLine:    lineForOffset(x.lineStarts, anchor+len(raw)-1),
	}
}

// parseImportSpecifiers splits the contents of a named import list on commas.
// Each part optionally matches "<name> as <alias>"; without an alias the
// local name equals the imported name.
func parseImportSpecifiers(list string) []types.ImportSpecifier {
	var specs []types.ImportSpecifier
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec := types.ImportSpecifier{Kind: types.SpecifierNamed}
		if m := specifierAliasPattern.FindStringSubmatch(part); m != nil {
			spec.ImportedName = m[1]
			spec.LocalName = m[2]
		} else {
			spec.ImportedName = part
			spec.LocalName = part
		}
		specs = append(specs, spec)
	}
	return specs
}

// extractExports locates every export statement and decomposes it into an
// ExportEdge. Forms are tried per anchor in fixed precedence with the
// default-expression form last, so a statement already claimed by the
// default-identifier form is never double-recorded.
func (x *extraction) extractExports() {
	for _, loc := range exportAnchorPattern.FindAllStringIndex(x.text, -1) {
		if edge, ok := x.exportEdgeAt(loc[0]); ok {
			x.result.Exports = append(x.result.Exports, edge)
		}
	}
}

func (x *extraction) exportEdgeAt(anchor int) (types.ExportEdge, bool) {
	rest := x.text[anchor:]

	if m := exportAllPattern.FindStringSubmatch(rest); m != nil {
		return x.exportEdge(anchor, m[0], types.ExportReExportAll, nil, m[1]), true
	}

	if m := exportNamedPattern.FindStringSubmatch(rest); m != nil {
		kind := types.ExportNamed
		if m[2] != "" {
			kind = types.ExportReExportNamed
		}
		return x.exportEdge(anchor, m[0], kind, parseExportItems(m[1]), m[2]), true
	}

	if m := exportDeclPattern.FindStringSubmatchIndex(rest); m != nil {
		return x.exportDeclarationAt(anchor, rest, m)
	}

	if m := exportDefaultIdentPattern.FindStringSubmatch(rest); m != nil && !defaultExprKeywords[m[1]] {
		raw := m[0]
		// Keep a trailing semicolon in the raw text, but not the newline
		// terminator.
		if m[2] != ";" {
			raw = strings.TrimRight(raw, "\n")
			raw = strings.TrimRight(raw, " \t")
		}
		items := []types.ExportItem{{PublicName: "default", LocalName: m[1]}}
		return x.exportEdge(anchor, raw, types.ExportDefaultIdentifier, items, ""), true
	}

	if m := exportDefaultExprPattern.FindStringSubmatchIndex(rest); m != nil {
		end, ok := x.statementEnd(anchor + m[2])
		if !ok {
			x.result.AddDiagnostic(x.path, lineForOffset(x.lineStarts, anchor),
				"dropping default export: no matching closing brace")
			return types.ExportEdge{}, false
		}
		raw := x.text[anchor:end]
		items := []types.ExportItem{{PublicName: "default"}}
		return x.exportEdge(anchor, raw, types.ExportDefaultExpression, items, ""), true
	}

	return types.ExportEdge{}, false
}

// exportDeclarationAt completes a declaration-form export. The statement end
// depends on what is declared: function and class bodies close at their
// matching brace, everything else ends at the nearer of the next semicolon
// or newline.
func (x *extraction) exportDeclarationAt(anchor int, rest string, m []int) (types.ExportEdge, bool) {
	declKind := rest[m[6]:m[7]]
	name := rest[m[8]:m[9]]

	var end int
	if declKind == "function" || declKind == "class" {
		var ok bool
		end, ok = x.statementEnd(anchor + m[1])
		if !ok {
			x.result.AddDiagnostic(x.path, lineForOffset(x.lineStarts, anchor),
				fmt.Sprintf("dropping export of %s %s: no matching closing brace", declKind, name))
			return types.ExportEdge{}, false
		}
	} else {
		end = x.simpleStatementEnd(anchor + m[1])
	}

	raw := x.text[anchor:end]
	items := []types.ExportItem{{PublicName: name, LocalName: name}}
	return x.exportEdge(anchor, raw, types.ExportDeclaration, items, ""), true
}

// statementEnd finds the exclusive end offset of a statement that is expected
// to contain a braced block: the matching close of the first opening brace,
// plus an adjacent trailing semicolon. When a semicolon or newline appears
// before any brace the statement is treated as braceless and ends there.
func (x *extraction) statementEnd(from int) (int, bool) {
	rest := x.text[from:]
	braceIdx := strings.IndexByte(rest, '{')
	semiIdx := strings.IndexByte(rest, ';')
	nlIdx := strings.IndexByte(rest, '\n')

	if braceIdx >= 0 && (semiIdx < 0 || braceIdx < semiIdx) && (nlIdx < 0 || braceIdx < nlIdx) {
		close := matchBrace(x.text, from+braceIdx)
		if close < 0 {
			return 0, false
		}
		end := close + 1
		if end < len(x.text) && x.text[end] == ';' {
			end++
		}
		return end, true
	}

	return x.simpleStatementEnd(from), true
}

// simpleStatementEnd returns the exclusive end offset at the nearer of the
// next semicolon (included) or newline (excluded), or end of text.
func (x *extraction) simpleStatementEnd(from int) int {
	rest := x.text[from:]
	semiIdx := strings.IndexByte(rest, ';')
	nlIdx := strings.IndexByte(rest, '\n')

	switch {
	case semiIdx >= 0 && (nlIdx < 0 || semiIdx < nlIdx):
		return from + semiIdx + 1
	case nlIdx >= 0:
		return from + nlIdx
	default:
		return len(x.text)
	}
}

func (x *extraction) exportEdge(anchor int, raw string, kind types.ExportKind, items []types.ExportItem, source string) types.ExportEdge {
	return types.ExportEdge{
		Raw:       raw,
		Kind:      kind,
		Items:     items,
		Source:    source,
		StartLine: lineForOffset(x.lineStarts, anchor),
		EndLine:   lineForOffset(x.lineStarts, anchor+len(raw)-1),
	}
}

// parseExportItems splits the contents of a named export list on commas.
// "local as public" aliases run the opposite direction from imports.
func parseExportItems(list string) []types.ExportItem {
	var items []types.ExportItem
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		item := types.ExportItem{}
		if m := specifierAliasPattern.FindStringSubmatch(part); m != nil {
			item.LocalName = m[1]
			item.PublicName = m[2]
		} else {
			item.PublicName = part
			item.LocalName = part
		}
		items = append(items, item)
	}
	return items
}
