package types

import "errors"

// SpecifierKind identifies the binding form of one import specifier
type SpecifierKind string

const (
	SpecifierDefault    SpecifierKind = "default"     // import X from 'mod'
	SpecifierNamespace  SpecifierKind = "namespace"   // import * as X from 'mod'
	SpecifierNamed      SpecifierKind = "named"       // import { a, b as c } from 'mod'
	SpecifierSideEffect SpecifierKind = "side_effect" // import 'mod'
)

// ImportSpecifier is one binding introduced by an import statement.
// For named specifiers an absent alias means LocalName equals ImportedName;
// side-effect imports carry neither name.
type ImportSpecifier struct {
	Kind         SpecifierKind
	ImportedName string // Name as exported by the source module
	LocalName    string // Name bound in the importing file
}

// ImportEdge represents one import statement decomposed into its source
// module and ordered specifier list.
type ImportEdge struct {
	Raw        string // Statement text as it appears in the file
	Source     string // Module path, e.g. "./utils" or "lodash"
	Specifiers []ImportSpecifier

	StartLine int
	EndLine   int
}

// Validate performs comprehensive validation of the import edge
func (ie *ImportEdge) Validate() error {
	if ie.Source == "" {
		return errors.New("import source module is required")
	}

	if ie.StartLine <= 0 || ie.EndLine < ie.StartLine {
		return errors.New("invalid import span")
	}

	for _, spec := range ie.Specifiers {
		switch spec.Kind {
		case SpecifierDefault, SpecifierNamespace, SpecifierNamed:
			if spec.LocalName == "" {
				return errors.New("import specifier requires a local name")
			}
		case SpecifierSideEffect:
			if spec.ImportedName != "" || spec.LocalName != "" {
				return errors.New("side-effect specifier cannot carry names")
			}
		default:
			return errors.New("invalid import specifier kind")
		}
	}

	return nil
}

// ExportKind identifies the statement form of an export
type ExportKind string

const (
	ExportDefaultIdentifier ExportKind = "default_identifier" // export default X;
	ExportDefaultExpression ExportKind = "default_expression" // export default () => {...}
	ExportDeclaration       ExportKind = "declaration"        // export const x = ..., export function f() {...}
	ExportNamed             ExportKind = "named"              // export { a, b as c }
	ExportReExportNamed     ExportKind = "re-export_named"    // export { a } from './mod'
	ExportReExportAll       ExportKind = "re-export_all"      // export * from './mod'
)

// ExportItem is one name made public by an export statement.
type ExportItem struct {
	PublicName string // Name visible to importers
	LocalName  string // Name inside the exporting file
}

// ExportEdge represents one export statement decomposed into kind,
// exported items, and (for re-exports) the source module.
type ExportEdge struct {
	Raw    string
	Kind   ExportKind
	Items  []ExportItem
	Source string // Set only for re-export forms

	StartLine int
	EndLine   int
}

// IsReExport reports whether the edge re-exports from another module.
func (ee *ExportEdge) IsReExport() bool {
	return ee.Kind == ExportReExportNamed || ee.Kind == ExportReExportAll
}

// Validate performs comprehensive validation of the export edge
func (ee *ExportEdge) Validate() error {
	switch ee.Kind {
	case ExportDefaultIdentifier, ExportDefaultExpression, ExportDeclaration,
		ExportNamed, ExportReExportNamed, ExportReExportAll:
	default:
		return errors.New("invalid export kind")
	}

	if ee.IsReExport() && ee.Source == "" {
		return errors.New("re-export requires a source module")
	}

	if !ee.IsReExport() && ee.Source != "" {
		return errors.New("only re-exports can carry a source module")
	}

	if ee.StartLine <= 0 || ee.EndLine < ee.StartLine {
		return errors.New("invalid export span")
	}

	return nil
}
