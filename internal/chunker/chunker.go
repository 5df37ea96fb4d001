package chunker

import (
	"strings"

	"github.com/dshills/jscontext-mcp/pkg/types"
)

// Chunker creates semantic code chunks from parsed JavaScript files
type Chunker struct{}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// ChunkFile creates semantic chunks from one parsed source file. Every
// structural element becomes a chunk carrying its own snippet, in element
// order, so chunk i corresponds to parseResult.Elements[i]. When the file
// has import or export statements they are aggregated into one trailing
// module_edges chunk.
//
// Element database IDs are not known at chunking time; the caller links
// chunks to stored elements through the positional correspondence.
func (c *Chunker) ChunkFile(parseResult *types.ParseResult, fileID int64) []*types.Chunk {
	chunks := make([]*types.Chunk, 0, len(parseResult.Elements)+1)

	importContext := c.buildImportContext(parseResult)

	for i := range parseResult.Elements {
		el := &parseResult.Elements[i]
		chunks = append(chunks, c.createElementChunk(el, parseResult, importContext, fileID))
	}

	if edges := c.createModuleEdgesChunk(parseResult, fileID); edges != nil {
		chunks = append(chunks, edges)
	}

	return chunks
}

// createElementChunk creates the chunk for a single structural element.
// Methods carry their enclosing class header as context; classes and
// top-level functions carry the file's import block.
func (c *Chunker) createElementChunk(el *types.StructuralElement, parseResult *types.ParseResult, importContext string, fileID int64) *types.Chunk {
	contextBefore := importContext
	if el.Kind == types.KindMethod {
		contextBefore = c.enclosingClassSignature(el, parseResult)
	}

	chunk := &types.Chunk{
		FileID:        fileID,
		Content:       el.Snippet,
		ContextBefore: contextBefore,
		StartLine:     el.StartLine,
		EndLine:       el.EndLine,
		ChunkType:     c.elementChunkType(el.Kind),
	}

	chunk.ComputeTokenCount()
	chunk.ComputeContentHash()

	return chunk
}

// createModuleEdgesChunk aggregates the raw import and export statements of
// a file into one chunk describing its module surface. Returns nil when the
// file has neither.
func (c *Chunker) createModuleEdgesChunk(parseResult *types.ParseResult, fileID int64) *types.Chunk {
	if len(parseResult.Imports) == 0 && len(parseResult.Exports) == 0 {
		return nil
	}

	var statements []string
	startLine, endLine := 0, 0

	span := func(start, end int) {
		if startLine == 0 || start < startLine {
			startLine = start
		}
		if end > endLine {
			endLine = end
		}
	}

	for i := range parseResult.Imports {
		imp := &parseResult.Imports[i]
		statements = append(statements, imp.Raw)
		span(imp.StartLine, imp.EndLine)
	}
	for i := range parseResult.Exports {
		exp := &parseResult.Exports[i]
		statements = append(statements, exp.Raw)
		span(exp.StartLine, exp.EndLine)
	}

	chunk := &types.Chunk{
		FileID:    fileID,
		Content:   strings.Join(statements, "\n"),
		StartLine: startLine,
		EndLine:   endLine,
		ChunkType: types.ChunkModuleEdges,
	}

	chunk.ComputeTokenCount()
	chunk.ComputeContentHash()

	return chunk
}

// buildImportContext renders the file's import statements as shared context
// for class and function chunks.
func (c *Chunker) buildImportContext(parseResult *types.ParseResult) string {
	if len(parseResult.Imports) == 0 {
		return ""
	}

	var context strings.Builder
	for i := range parseResult.Imports {
		context.WriteString(parseResult.Imports[i].Raw)
		context.WriteString("\n")
	}

	return context.String()
}

// enclosingClassSignature finds the header of the class a method belongs
// to. Name and span containment must both match, so same-named classes in
// one file cannot cross-wire.
func (c *Chunker) enclosingClassSignature(method *types.StructuralElement, parseResult *types.ParseResult) string {
	for i := range parseResult.Elements {
		el := &parseResult.Elements[i]
		if el.Kind == types.KindClass && el.Name == method.ClassName && el.Contains(method.StartOffset) {
			return el.Signature
		}
	}
	return ""
}

// elementChunkType maps element kinds to chunk types
func (c *Chunker) elementChunkType(kind types.ElementKind) types.ChunkType {
	switch kind {
	case types.KindClass:
		return types.ChunkClass
	case types.KindMethod:
		return types.ChunkMethod
	default:
		return types.ChunkFunction
	}
}
