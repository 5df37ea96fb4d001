package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dshills/jscontext-mcp/pkg/types"
)

// commentGroup optionally captures the comment immediately above a
// declaration: a /** ... */ block or a run of whole-line // comments.
// At most one newline may separate comment and header, so a blank line
// breaks the association. Captured separately so the declaration span
// never includes the comment.
const commentGroup = `((?:/\*\*[\s\S]*?\*/[ \t]*\n?|(?m:^[ \t]*//[^\n]*\n)+)[ \t]*)?`

// Declaration patterns. Compiled once; all scan state lives in the
// per-call extraction, so concurrent parses never share a cursor.
var (
	// groups: 1 comment, 2 header, 3 name, 4 extends
	classPattern = regexp.MustCompile(commentGroup +
		`((?:export\s+)?(?:default\s+)?\bclass\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([A-Za-z_$][\w$.]*))?)\s*\{`)

	// groups: 1 comment, 2 static, 3 async|get|set, 4 generator, 5 name, 6 params
	methodPattern = regexp.MustCompile(commentGroup +
		`(?:(static)\s+)?(?:(async|get|set)\s+)?(\*)?\s*(#?[A-Za-z_$][\w$]*)\s*\(([^)]*)\)\s*\{`)

	// groups: 1 comment, 2 header, 3 async, 4 generator, 5 name, 6 params
	functionPattern = regexp.MustCompile(commentGroup +
		`((?:export\s+)?(?:default\s+)?(async\s+)?\bfunction\s*(\*?)\s*([A-Za-z_$][\w$]*)\s*\(([^)]*)\))\s*\{`)
)

// reservedWords disqualify a method-shaped match; control-flow statements
// inside field initializer bodies look exactly like method headers.
var reservedWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "typeof": true, "do": true, "else": true,
	"try": true, "new": true, "delete": true, "void": true, "in": true,
	"of": true, "instanceof": true, "yield": true, "await": true, "with": true,
}

// Parser recovers the structural inventory of JavaScript-family source text
// using pattern matching and brace tracking instead of a grammar. A Parser
// holds no per-file state and is safe for concurrent use; every Parse call
// works on its own extraction.
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// ParseFile reads a source file and extracts its structural elements and
// module edges. The returned error covers I/O only; malformed source never
// fails the call, it surfaces as result diagnostics instead.
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(types.SourceUnit{Path: filePath, Text: string(content)}), nil
}

// Parse extracts classes, methods, functions, and import/export edges from
// one source unit. Passes run in fixed order: imports, exports, classes with
// their methods, then top-level functions filtered against class spans.
func (p *Parser) Parse(unit types.SourceUnit) *types.ParseResult {
	x := &extraction{
		text:       unit.Text,
		path:       unit.Path,
		lineStarts: buildLineStarts(unit.Text),
		result:     &types.ParseResult{FilePath: unit.Path},
	}

	x.extractImports()
	x.extractExports()
	x.extractClasses()
	x.extractFunctions()

	return x.result
}

// extraction carries the scan state for a single parse call.
type extraction struct {
	text       string
	path       string
	lineStarts []int
	result     *types.ParseResult
}

// extractClasses locates every class declaration, recovers its body span via
// brace matching, and re-runs the method matcher over the body text with
// offsets translated back to file-absolute coordinates.
func (x *extraction) extractClasses() {
	for _, m := range classPattern.FindAllStringSubmatchIndex(x.text, -1) {
		headerStart := m[4]
		openBrace := m[1] - 1
		name := x.text[m[6]:m[7]]

		extendsName := ""
		if m[8] >= 0 {
			extendsName = x.text[m[8]:m[9]]
		}

		closeBrace := matchBrace(x.text, openBrace)
		if closeBrace < 0 {
			x.result.AddDiagnostic(x.path, lineForOffset(x.lineStarts, headerStart),
				fmt.Sprintf("dropping class %s: no matching closing brace", name))
			continue
		}

		signature := "class " + name
		if extendsName != "" {
			signature += " extends " + extendsName
		}
		signature += " { ... }"

		el := types.StructuralElement{
			Name:        name,
			Kind:        types.KindClass,
			Signature:   signature,
			Summary:     matchSummary(x.text, 0, m),
			Snippet:     x.text[headerStart : closeBrace+1],
			StartLine:   lineForOffset(x.lineStarts, headerStart),
			EndLine:     lineForOffset(x.lineStarts, closeBrace),
			StartOffset: headerStart,
			EndOffset:   closeBrace + 1,
		}
		detectConventions(&el, extendsName)
		x.result.Elements = append(x.result.Elements, el)

		x.extractMethods(name, openBrace+1, closeBrace)
	}
}

// extractMethods scans the body of one class, which runs from bodyStart to
// the byte before closeBrace. Every offset the matcher produces is relative
// to the body slice and translated by bodyStart before recording. After a
// method is recorded the scan resumes past its closing brace, so statements
// inside method bodies are never mistaken for further methods.
func (x *extraction) extractMethods(className string, bodyStart, closeBrace int) {
	body := x.text[bodyStart:closeBrace]

	pos := 0
	for pos < len(body) {
		m := methodPattern.FindStringSubmatchIndex(body[pos:])
		if m == nil {
			return
		}

		name := body[pos+m[10] : pos+m[11]]
		if reservedWords[name] {
			pos += m[1]
			continue
		}

		headerStart := pos + m[0]
		if m[2] >= 0 {
			headerStart = pos + m[3]
		}
		openBrace := pos + m[1] - 1

		closeRel := matchBrace(body, openBrace)
		if closeRel < 0 {
			x.result.AddDiagnostic(x.path, lineForOffset(x.lineStarts, bodyStart+headerStart),
				fmt.Sprintf("dropping method %s.%s: no matching closing brace", className, name))
			pos = openBrace + 1
			continue
		}

		var mods []string
		if m[4] >= 0 {
			mods = append(mods, body[pos+m[4]:pos+m[5]])
		}
		if m[6] >= 0 {
			mods = append(mods, body[pos+m[6]:pos+m[7]])
		}
		params := body[pos+m[12] : pos+m[13]]
		signature := strings.Join(append(mods, name+"("+params+")"), " ")

		el := types.StructuralElement{
			Name:        name,
			Kind:        types.KindMethod,
			ClassName:   className,
			Signature:   signature,
			Summary:     matchSummary(body, pos, m),
			Snippet:     x.text[bodyStart+headerStart : bodyStart+closeRel+1],
			StartLine:   lineForOffset(x.lineStarts, bodyStart+headerStart),
			EndLine:     lineForOffset(x.lineStarts, bodyStart+closeRel),
			StartOffset: bodyStart + headerStart,
			EndOffset:   bodyStart + closeRel + 1,
		}
		detectConventions(&el, "")
		x.result.Elements = append(x.result.Elements, el)

		pos = closeRel + 1
	}
}

// extractFunctions scans the whole file for top-level function declarations.
// A match starting inside any recovered class span is a method already
// recorded by the class pass and is discarded; a match on the same line as an
// "export default function" declaration edge is already fully represented by
// that edge and is discarded too.
func (x *extraction) extractFunctions() {
	classes := make([]types.StructuralElement, 0)
	for _, el := range x.result.Elements {
		if el.Kind == types.KindClass {
			classes = append(classes, el)
		}
	}

	pos := 0
	for pos < len(x.text) {
		m := functionPattern.FindStringSubmatchIndex(x.text[pos:])
		if m == nil {
			return
		}

		headerStart := pos + m[4]
		openBrace := pos + m[1] - 1
		name := x.text[pos+m[10] : pos+m[11]]
		startLine := lineForOffset(x.lineStarts, headerStart)

		if x.insideClass(classes, headerStart) || x.coveredByDefaultExport(startLine) {
			pos += m[1]
			continue
		}

		closeBrace := matchBrace(x.text, openBrace)
		if closeBrace < 0 {
			x.result.AddDiagnostic(x.path, startLine,
				fmt.Sprintf("dropping function %s: no matching closing brace", name))
			pos = openBrace + 1
			continue
		}

		signature := "function"
		if m[6] >= 0 {
			signature = "async function"
		}
		if x.text[pos+m[8]:pos+m[9]] == "*" {
			signature += "*"
		}
		params := x.text[pos+m[12] : pos+m[13]]
		signature += " " + name + "(" + params + ")"

		el := types.StructuralElement{
			Name:        name,
			Kind:        types.KindFunction,
			Signature:   signature,
			Summary:     matchSummary(x.text, pos, m),
			Snippet:     x.text[headerStart : closeBrace+1],
			StartLine:   startLine,
			EndLine:     lineForOffset(x.lineStarts, closeBrace),
			StartOffset: headerStart,
			EndOffset:   closeBrace + 1,
		}
		detectConventions(&el, "")
		x.result.Elements = append(x.result.Elements, el)

		// Scan resumes just past the header brace so nested named functions
		// are still discovered.
		pos += m[1]
	}
}

// insideClass reports whether offset falls within any recovered class span.
func (x *extraction) insideClass(classes []types.StructuralElement, offset int) bool {
	for i := range classes {
		if classes[i].Contains(offset) {
			return true
		}
	}
	return false
}

// coveredByDefaultExport reports whether a declaration edge of the form
// "export default function ..." already records the statement at line.
func (x *extraction) coveredByDefaultExport(line int) bool {
	for _, edge := range x.result.Exports {
		if edge.Kind == types.ExportDeclaration &&
			strings.HasPrefix(edge.Raw, "export default") &&
			edge.StartLine == line {
			return true
		}
	}
	return false
}

// matchSummary summarizes the comment group of a match found at scan
// position pos within s.
func matchSummary(s string, pos int, m []int) string {
	if m[2] < 0 {
		return ""
	}
	return summarizeComment(s[pos+m[2] : pos+m[3]])
}
