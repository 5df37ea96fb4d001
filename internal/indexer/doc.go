// Package indexer coordinates the end-to-end indexing pipeline for JavaScript codebases.
//
// The indexer orchestrates parsing, chunking, embedding, and storage operations,
// managing concurrency and error handling for production-scale code indexing.
//
// # Basic Usage
//
//	idx := indexer.NewWithEmbedder(store, emb)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", &indexer.Config{
//	    Workers:            4,
//	    IncludeTests:       true,
//	    GenerateEmbeddings: true,
//	})
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// Use indexer.New(store) when no embedding provider is wired; the pipeline
// then produces a keyword-only index.
//
// # Indexing Pipeline
//
// The indexer executes a multi-stage pipeline:
//
//  1. Project Discovery: find .js/.jsx/.mjs/.cjs files, apply exclusion filters
//  2. Incremental Decision: compare content hashes, skip unchanged files
//  3. Parse & Chunk: extract structural elements and module edges (parallel)
//  4. Store: persist files, elements, edges, and chunks in batch transactions
//  5. Embed: generate vector embeddings for the committed chunks
//
// File discovery always skips node_modules, hidden directories, and minified
// *.min.js bundles. Test files (*.test.js, *.spec.js, __tests__/) are skipped
// unless Config.IncludeTests is set, and Config.IgnorePatterns accepts
// doublestar globs matched against project-relative paths:
//
//	config.IgnorePatterns = []string{"dist/**", "build/**", "**/*.stories.js"}
//
// # Incremental Indexing
//
// By default, the indexer only processes changed files:
//
//	// First index: processes all files
//	stats1, _ := idx.IndexProject(ctx, root, config)
//	// Files: 247 indexed, 0 skipped
//
//	// Subsequent index: only changed files
//	stats2, _ := idx.IndexProject(ctx, root, config)
//	// Files: 3 indexed, 244 skipped
//
// File change detection uses SHA-256 content hashing. When a file changed,
// its stored elements, import/export edges, and chunks are dropped before the
// re-parse so renamed or moved declarations never leave stale rows behind.
// Config.ForceReindex treats every file as changed.
//
// # Concurrent Processing
//
// Files are processed in batches of Config.BatchSize, one transaction per
// batch, with batches running concurrently under an errgroup. A semaphore
// bounds the total number of files in flight at Config.Workers (default:
// runtime.NumCPU()). A second IndexProject call on the same Indexer while one
// is running fails fast with ErrIndexingInProgress.
//
// # Embedding Batching
//
// Chunks are embedded in batches of Config.EmbeddingBatch (default 20) after
// their transaction commits:
//
//	for i := 0; i < len(chunks); i += batchSize {
//	    batch := chunks[i:min(i+batchSize, len(chunks))]
//	    embeddings, _ := embedder.GenerateBatch(ctx, batch)
//	}
//
// Embedding failures are counted in Statistics.EmbeddingsFailed and recorded
// in Statistics.ErrorMessages; they never abort the run, so a flaky provider
// degrades the index to keyword-only instead of failing it.
//
// # Progress Tracking
//
// Monitor progress with a callback:
//
//	config.OnProgress = func(p indexer.Progress) {
//	    fmt.Printf("%d/%d files\n", p.FilesProcessed, p.TotalFiles)
//	}
//
// The callback fires after each file completes and may be invoked
// concurrently from worker goroutines.
//
// # Error Handling
//
// IndexProject returns an error only for fatal problems (storage failure,
// invalid ignore pattern, context cancellation). Per-file failures are
// recorded and indexing continues:
//
//	stats, err := idx.IndexProject(ctx, root, config)
//	if stats.FilesFailed > 0 {
//	    for _, msg := range stats.ErrorMessages {
//	        log.Println(msg)
//	    }
//	}
//
// Every run is tagged with a UUID in Statistics.RunID for correlation with
// logs and status output.
package indexer
