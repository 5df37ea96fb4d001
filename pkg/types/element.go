package types

import "errors"

// ElementKind represents the kind of structural declaration recovered from source
type ElementKind string

const (
	KindClass    ElementKind = "class"
	KindFunction ElementKind = "function"
	KindMethod   ElementKind = "method"
)

// StructuralElement represents a class, function, or method declaration
// recovered from JavaScript-family source text. Spans are recorded both as
// 1-based line numbers and as byte offsets into the original file text; the
// offsets make overlap checks exact even when identical code appears twice.
type StructuralElement struct {
	// Identification
	Name      string
	Kind      ElementKind
	ClassName string // For methods: name of the enclosing class

	// Content
	Signature string // Simplified declaration header, e.g. "class Foo { ... }"
	Summary   string // One-line description derived from the preceding comment
	Snippet   string // Full source text from header through closing brace

	// Location
	StartLine   int
	EndLine     int
	StartOffset int // Byte offset of the declaration header
	EndOffset   int // Byte offset just past the closing brace

	// Naming Convention Flags
	IsComponent  bool
	IsHook       bool
	IsService    bool
	IsController bool
	IsStore      bool
	IsHandler    bool
}

// IsConvention returns true if this element matches any recognized naming convention
func (e *StructuralElement) IsConvention() bool {
	return e.IsComponent || e.IsHook || e.IsService ||
		e.IsController || e.IsStore || e.IsHandler
}

// ValidateKind checks if the element kind is valid
func (e *StructuralElement) ValidateKind() error {
	switch e.Kind {
	case KindClass, KindFunction, KindMethod:
		return nil
	default:
		return errors.New("invalid element kind")
	}
}

// Validate performs comprehensive validation of the element
func (e *StructuralElement) Validate() error {
	if e.Name == "" {
		return errors.New("element name is required")
	}

	if err := e.ValidateKind(); err != nil {
		return err
	}

	// Methods must belong to a class
	if e.Kind == KindMethod && e.ClassName == "" {
		return errors.New("methods must have a containing class name")
	}

	// Non-methods must not claim one
	if e.Kind != KindMethod && e.ClassName != "" {
		return errors.New("only methods can have a containing class name")
	}

	if e.StartLine <= 0 || e.EndLine <= 0 {
		return errors.New("invalid span: line numbers must be positive")
	}

	if e.StartLine > e.EndLine {
		return errors.New("invalid span: start line must be before or equal to end line")
	}

	if e.StartOffset < 0 || e.EndOffset < e.StartOffset {
		return errors.New("invalid span: byte offsets out of order")
	}

	return nil
}

// Contains reports whether the given byte offset falls within the element's span.
func (e *StructuralElement) Contains(offset int) bool {
	return offset >= e.StartOffset && offset < e.EndOffset
}
