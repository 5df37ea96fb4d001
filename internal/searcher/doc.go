// Package searcher implements hybrid code search combining vector similarity and keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: Combines vector + BM25 keyword search (recommended)
//   - Vector: Pure semantic search using embeddings
//   - Keyword: BM25 full-text search only
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "user authentication logic",
//	    Limit:     10,
//	    Mode:      searcher.SearchModeHybrid,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.File.Path, result.RelevanceScore)
//	}
//
// # Search Modes
//
// Hybrid Mode (default, recommended):
//
//   - Combines vector similarity + BM25 keyword search
//
//   - Runs both searches concurrently and merges with Reciprocal Rank Fusion (RRF)
//
//   - Best for most queries (semantic + exact matching)
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "fetch user profile",
//     Mode:  searcher.SearchModeHybrid,
//     })
//
// Vector Mode:
//
//   - Pure semantic search using embeddings
//
//   - Best for conceptual queries ("debounced event handlers")
//
//   - Requires embedding provider available
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "retry failed network requests",
//     Mode:  searcher.SearchModeVector,
//     })
//
// Keyword Mode:
//
//   - BM25 full-text search only
//
//   - Best for exact identifiers ("useCartStore")
//
//   - Faster, no embedding required (works offline)
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "useCartStore",
//     Mode:  searcher.SearchModeKeyword,
//     })
//
// # Reciprocal Rank Fusion (RRF)
//
// Hybrid mode uses RRF to combine vector and keyword results:
//
//	For each result r in vector_results:
//	    rrf_score[r.chunk_id] += 1 / (k + r.rank)
//
//	For each result r in keyword_results:
//	    rrf_score[r.chunk_id] += 1 / (k + r.rank)
//
//	Sort by rrf_score descending
//
// Where k = 60 (standard RRF constant). Chunks found by both searches
// accumulate both contributions and rank above single-source matches.
//
// # Filtering
//
// Apply filters to narrow search:
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    Query: "validation",
//	    Filters: &storage.SearchFilters{
//	        ElementKinds: []string{"function", "method"},
//	        ClassNames:   []string{"UserService"},
//	        FilePattern:  "src/services/*",
//	        MinRelevance: 0.7,
//	    },
//	})
//
// Available filters:
//   - ElementKinds: class, function, method
//   - ClassNames: Restrict to named classes and their methods
//   - FilePattern: Glob pattern matched against file paths
//   - MinRelevance: Minimum relevance score (0.0-1.0)
//
// # Relevance Scoring
//
// Relevance scores are normalized to [0, 1]:
//   - 1.0: Perfect match
//   - 0.8-1.0: Highly relevant
//   - 0.6-0.8: Moderately relevant
//   - 0.4-0.6: Somewhat relevant
//   - <0.4: Low relevance
//
// In hybrid mode the score is the raw RRF sum, which is much smaller
// (at most 2/(k+1)) but preserves the same ordering semantics.
//
// # Context Enrichment
//
// Results include surrounding context:
//
//	result.Content       // Main chunk content
//	result.Element       // Element metadata (nil for module-edge chunks)
//	result.File          // File path, language, line numbers
//	result.Context       // Context before/after for understanding
//
// Example:
//
//	fmt.Printf("Found in %s:%d\n", result.File.Path, result.File.StartLine)
//	fmt.Printf("Element: %s %s\n", result.Element.Kind, result.Element.Name)
//	fmt.Printf("Code:\n%s\n", result.Content)
//
// # Query Analytics
//
// Every completed search is recorded in the search_queries table with a
// generated query ID, the query text, mode, result count, and duration.
// Recording is best-effort and never fails the search.
//
// # Caching
//
// Search responses are cached in an LRU cache keyed by a hash of the
// query, mode, project, limit, and filters:
//
//	// First search: generates embedding and hits the database
//	resp1, _ := s.Search(ctx, req)
//
//	// Repeat search: served from cache (CacheHit is true)
//	resp2, _ := s.Search(ctx, req)
//
// Cache entries expire after 1 hour (configurable per request via
// CacheTTL) or when evicted past 1000 entries. Re-indexing a project
// invalidates the cache via InvalidateCache.
package searcher
