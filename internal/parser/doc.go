// Package parser recovers the structural inventory of JavaScript-family
// source files using heuristic pattern matching instead of a grammar.
//
// The parser locates class, method, and function declarations with compiled
// regular expressions, recovers each body span by depth-counting braces, and
// decomposes import/export statements into module edges. It builds no
// abstract syntax tree, which keeps it fast and tolerant of malformed input:
// a declaration whose closing brace never appears is dropped with a
// diagnostic while the rest of the file is still parsed.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/app.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, el := range result.Elements {
//	    fmt.Printf("Found %s: %s\n", el.Kind, el.Name)
//	}
//
// # Extraction Passes
//
// Each Parse call runs four passes in fixed order:
//  1. imports: statement forms tried per anchor in precedence order
//     (default, namespace, named list, side effect)
//  2. exports: six forms, with default-expression matching last
//  3. classes: header match, body via brace matching, then the method
//     matcher re-run over the body with offsets translated to file-absolute
//     coordinates
//  4. top-level functions: whole-file scan, discarding matches inside any
//     recovered class span
//
// # Naming Convention Detection
//
// The parser flags common JavaScript architectural roles based on naming:
//
//	element.IsComponent   // "*Component" suffix or extends *Component
//	element.IsHook        // "useXxx" functions
//	element.IsService     // "*Service" suffix
//	element.IsController  // "*Controller" suffix
//	element.IsStore       // "*Store" suffix
//	element.IsHandler     // "*Handler" suffix or "handleXxx"
//
// # Known Limitations
//
// Brace matching counts every brace, including ones inside string, template,
// and regex literals and comments; pathological inputs can desynchronize
// block boundaries. The package favors recovering most structure from most
// files over grammatical exactness.
//
// # Concurrency
//
// A Parser holds no mutable state. All scan cursors live in per-call
// extraction state, so concurrent parses of different files require no
// coordination.
package parser
