// Package chunker divides parsed JavaScript source into semantic chunks for
// embedding and search.
//
// Chunks follow the structural elements the parser recovered: one chunk per
// class, function, or method, plus one module_edges chunk aggregating the
// file's import and export statements.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.ChunkFile(parseResult, fileID)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("Chunk: %d tokens, lines %d-%d\n",
//	        chunk.TokenCount, chunk.StartLine, chunk.EndLine)
//	}
//
// # Context
//
// Each chunk includes context that situates the snippet:
//   - Methods: the enclosing class header
//   - Classes and functions: the file's import block
//
// Context is stored separately from content so hashing and deduplication
// operate on the snippet alone; FullContent joins both for embedding.
//
// # Content Hashing
//
// Each chunk computes a SHA-256 hash of its content:
//
//	chunk.ComputeContentHash()
//	// chunk.ContentHash is now [32]byte SHA-256 hash
//
// This enables incremental indexing by detecting unchanged chunks:
//
//	if storedHash == chunk.ContentHash {
//	    // Skip re-embedding this chunk
//	}
//
// Token estimation uses a simple heuristic (chars/4). For more accuracy,
// use a proper tokenizer library.
package chunker
