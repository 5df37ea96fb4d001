// Package storage provides SQLite-based persistence for indexed JavaScript code.
//
// The storage layer manages:
//   - Project metadata
//   - File information and content hashes
//   - Structural elements (classes, functions, methods)
//   - Import and export edges
//   - Code chunks
//   - Vector embeddings
//   - Full-text search indexes
//
// # Database Schema
//
// Tables:
//   - projects: Project metadata (root path, package.json name)
//   - files: File paths, language, and SHA-256 content hashes
//   - elements: Recovered declarations with convention flags
//   - imports: Import statements decomposed into source and specifiers
//   - exports: Export statements decomposed into kind and items
//   - chunks: Element-aligned code chunks plus a module-edges chunk per file
//   - embeddings: Vector embeddings for chunks
//   - elements_fts, chunks_fts: FTS5 full-text search indexes
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.jscontext/indices/project.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	file := &storage.File{
//	    ProjectID:   projectID,
//	    FilePath:    "src/services/UserService.js",
//	    Language:    "javascript",
//	    ContentHash: hash,
//	}
//	if err := store.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//
// # Transactions
//
// Use transactions to replace a file's elements, edges, and chunks atomically:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.DeleteElementsByFile(ctx, fileID)
//	for _, element := range elements {
//	    _ = tx.UpsertElement(ctx, element)
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// Nested transactions are not supported; calling BeginTx on a transaction
// returns an error.
//
// # Incremental Updates
//
// Compare stored content hashes to skip unchanged files:
//
//	stored, err := store.GetFile(ctx, projectID, filePath)
//	if err == nil && stored.ContentHash == currentHash {
//	    return nil // unchanged
//	}
//
// # Vector Operations
//
// Embeddings are stored as little-endian float32 blobs. Vector search uses
// the sqlite-vec extension when available (sqlite_vec build tag) and falls
// back to cosine similarity computed in Go for purego builds:
//
//	results, err := store.SearchVector(ctx, projectID, queryVector, 10, nil)
//
// # Full-Text Search
//
// Chunk content is indexed with FTS5 and ranked with BM25. Raw BM25 scores
// are normalized into (0, 1] before being returned:
//
//	results, err := store.SearchText(ctx, projectID, "session token refresh", 10, nil)
//
// Element names and signatures have their own FTS index queried through
// SearchElements.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO build (sqlite_vec tag) uses github.com/mattn/go-sqlite3 with the
// sqlite-vec extension:
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec,fts5"
//
// Pure Go build (default, or purego tag) uses modernc.org/sqlite:
//
//	CGO_ENABLED=0 go build -tags "purego"
package storage
