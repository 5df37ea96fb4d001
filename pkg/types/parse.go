package types

import "fmt"

// SourceUnit is the immutable input to a parse: the complete text of one
// file plus an opaque path identifier. The path is never interpreted, only
// echoed into the produced records.
type SourceUnit struct {
	Path string
	Text string
}

// ParseResult represents the output of structurally parsing one source file.
// It is a pure value: created once per parse invocation, owned by the caller,
// never mutated afterwards.
type ParseResult struct {
	FilePath string

	// Extracted data
	Elements []StructuralElement
	Imports  []ImportEdge
	Exports  []ExportEdge

	// Non-fatal problems encountered while parsing, e.g. declarations
	// dropped because their closing brace was never found
	Diagnostics []Diagnostic
}

// Diagnostic records a non-fatal parsing problem tied to a source location
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
}

// HasDiagnostics returns true if any declarations were dropped or skipped
func (pr *ParseResult) HasDiagnostics() bool {
	return len(pr.Diagnostics) > 0
}

// AddDiagnostic appends a parsing diagnostic to the result
func (pr *ParseResult) AddDiagnostic(file string, line int, msg string) {
	pr.Diagnostics = append(pr.Diagnostics, Diagnostic{
		File:    file,
		Line:    line,
		Message: msg,
	})
}

// ClassNames returns the names of all class elements in the result, in
// recovery order. Useful for verifying method containment.
func (pr *ParseResult) ClassNames() []string {
	var names []string
	for i := range pr.Elements {
		if pr.Elements[i].Kind == KindClass {
			names = append(names, pr.Elements[i].Name)
		}
	}
	return names
}
