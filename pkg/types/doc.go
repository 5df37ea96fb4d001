// Package types provides shared type definitions for the JSContext MCP server.
//
// This package defines domain types used across multiple components of
// JSContext, including structural elements, module edges, chunks, parse
// results, and search results.
//
// # Core Types
//
// StructuralElement represents a JavaScript declaration (class, function, or
// method) recovered from source text via heuristic pattern matching:
//
//	element := &types.StructuralElement{
//	    Name:      "UserService",
//	    Kind:      types.KindClass,
//	    Signature: "class UserService { ... }",
//	    StartLine: 12,
//	    EndLine:   84,
//	}
//
// ImportEdge and ExportEdge decompose module statements into their source
// module and specifier lists:
//
//	edge := &types.ImportEdge{
//	    Source: "./utils",
//	    Specifiers: []types.ImportSpecifier{
//	        {Kind: types.SpecifierNamed, ImportedName: "clamp", LocalName: "clamp"},
//	    },
//	}
//
// Chunk represents a semantic code section for embedding and search:
//
//	chunk := &types.Chunk{
//	    Content:       element.Snippet,
//	    ContextBefore: importBlock,
//	    ChunkType:     types.ChunkClass,
//	}
//
// # Parse Results
//
// ParseResult aggregates everything recovered from one file. It is a pure
// value owned by the caller; parse diagnostics (e.g. a declaration dropped
// because its closing brace was never found) are carried inside the result
// rather than returned as errors:
//
//	result := parser.Parse(unit)
//	for _, d := range result.Diagnostics {
//	    log.Println(d.Error())
//	}
//
// # Validation
//
// All domain types implement validation methods to ensure data integrity:
//
//	if err := element.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Results
//
// SearchResult combines element metadata with relevance scoring:
//
//	result := &types.SearchResult{
//	    ChunkID:        123,
//	    Rank:           1,
//	    RelevanceScore: 0.92,
//	    Element:        element,
//	    Content:        chunkContent,
//	}
//
// Relevance scores are normalized to [0, 1] range, with higher values
// indicating better matches.
package types
