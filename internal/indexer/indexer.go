package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/jscontext-mcp/internal/chunker"
	"github.com/dshills/jscontext-mcp/internal/embedder"
	"github.com/dshills/jscontext-mcp/internal/parser"
	"github.com/dshills/jscontext-mcp/internal/storage"
	"github.com/dshills/jscontext-mcp/pkg/types"
)

// Indexer coordinates the indexing pipeline: parse -> chunk -> embed -> store
type Indexer struct {
	parser   *parser.Parser
	chunker  *chunker.Chunker
	storage  storage.Storage
	embedder embedder.Embedder // nil when embeddings are not wired

	// Worker pool configuration
	workers int

	// Guards against overlapping IndexProject calls on the same Indexer
	lock IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers            int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize          int      // Number of files to commit per transaction (default: 20)
	EmbeddingBatch     int      // Number of chunks per embedding request (default: 20)
	IncludeTests       bool     // Whether to index *.test.js / *.spec.js files and __tests__ dirs
	GenerateEmbeddings bool     // Whether to generate vector embeddings (requires an embedder)
	ForceReindex       bool     // Re-index files even when their content hash is unchanged
	IgnorePatterns     []string // doublestar globs matched against project-relative paths

	// OnProgress, when set, is called after each file completes. It may be
	// invoked concurrently from worker goroutines.
	OnProgress func(Progress)
}

// Progress is a point-in-time snapshot of a running index operation
type Progress struct {
	TotalFiles     int32
	FilesProcessed int32
	FilesIndexed   int32
	FilesSkipped   int32
	FilesFailed    int32
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	RunID               string // UUID assigned per indexing run
	FilesTotal          int
	FilesIndexed        int
	FilesSkipped        int
	FilesFailed         int
	ElementsExtracted   int
	EdgesExtracted      int
	ChunksCreated       int
	EmbeddingsGenerated int
	EmbeddingsFailed    int
	Duration            time.Duration
	ErrorMessages       []string
}

// chunkWithID pairs a stored chunk with the text to embed for it. Chunk IDs
// are only known after the upsert, so embedding happens downstream of storage.
type chunkWithID struct {
	chunk   *storage.Chunk
	content string
}

// New creates a new Indexer instance. Embeddings are disabled; use
// NewWithEmbedder to enable vector generation.
func New(storage storage.Storage) *Indexer {
	return &Indexer{
		parser:  parser.New(),
		chunker: chunker.New(),
		storage: storage,
		workers: runtime.NumCPU(),
	}
}

// NewWithEmbedder creates an Indexer that generates vector embeddings for
// chunks when Config.GenerateEmbeddings is set.
func NewWithEmbedder(storage storage.Storage, emb embedder.Embedder) *Indexer {
	idx := New(storage)
	idx.embedder = emb
	return idx
}

// IndexProject indexes an entire JavaScript project
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{
			Workers:      runtime.NumCPU(),
			BatchSize:    20,
			IncludeTests: true,
		}
	}

	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	idx.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.New().String(),
		ErrorMessages: make([]string, 0),
	}

	// Get or create project
	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	// Discover JavaScript-family files
	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesTotal = len(files)

	// Index files concurrently
	err = idx.indexFiles(ctx, project, files, config, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	// Update project statistics
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	// Try to get existing project
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}

	if err != storage.ErrNotFound {
		return nil, err
	}

	// Create new project, named from package.json when one exists
	project = &storage.Project{
		RootPath:     rootPath,
		Name:         filepath.Base(rootPath),
		IndexVersion: storage.CurrentSchemaVersion,
	}

	pkgPath := filepath.Join(rootPath, "package.json")
	if pkg, err := parsePackageJSON(pkgPath); err == nil && pkg.Name != "" {
		project.Name = pkg.Name
	}

	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// sourceExtensions are the file extensions the indexer considers source code
var sourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// discoverFiles finds all JavaScript-family files in the project
func (idx *Indexer) discoverFiles(rootPath string, config *Config) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Never descend into the root itself or dependency trees
			if path == rootPath {
				return nil
			}
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			// Skip hidden directories
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			// Skip test directories unless explicitly included
			if !config.IncludeTests && d.Name() == "__tests__" {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if !sourceExtensions[filepath.Ext(name)] {
			return nil
		}

		// Minified bundles carry no useful structure
		if strings.HasSuffix(name, ".min.js") {
			return nil
		}

		// Skip test files unless explicitly included
		if !config.IncludeTests && isTestFile(name) {
			return nil
		}

		// Apply user ignore patterns against the project-relative path
		if len(config.IgnorePatterns) > 0 {
			rel, err := filepath.Rel(rootPath, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			for _, pattern := range config.IgnorePatterns {
				matched, err := doublestar.Match(pattern, rel)
				if err != nil {
					return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
				}
				if matched {
					return nil
				}
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// isTestFile reports whether a file name follows the common JavaScript test
// naming conventions (app.test.js, app.spec.jsx, ...)
func isTestFile(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".spec")
}

// detectLanguage maps a file path to the language label stored on its record
func detectLanguage(path string) string {
	if filepath.Ext(path) == ".jsx" {
		return "jsx"
	}
	return "javascript"
}

// indexFiles indexes a batch of files concurrently
func (idx *Indexer) indexFiles(ctx context.Context, project *storage.Project, files []string, config *Config, stats *Statistics) error {
	// Create worker pool with semaphore
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var (
		indexed   int32
		skipped   int32
		failed    int32
		elements  int32
		edges     int32
		chunks    int32
		embedded  int32
		embFailed int32
	)

	// Process files in batches for transaction efficiency
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	var report func()
	if config.OnProgress != nil {
		total := int32(len(files))
		report = func() {
			i := atomic.LoadInt32(&indexed)
			s := atomic.LoadInt32(&skipped)
			f := atomic.LoadInt32(&failed)
			config.OnProgress(Progress{
				TotalFiles:     total,
				FilesProcessed: i + s + f,
				FilesIndexed:   i,
				FilesSkipped:   s,
				FilesFailed:    f,
			})
		}
	}

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, project, batch, config, semaphore, report,
				&indexed, &skipped, &failed, &elements, &edges, &chunks, &embedded, &embFailed,
				&mu, stats)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return err
	}

	// Update statistics
	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.ElementsExtracted = int(elements)
	stats.EdgesExtracted = int(edges)
	stats.ChunksCreated = int(chunks)
	stats.EmbeddingsGenerated = int(embedded)
	stats.EmbeddingsFailed = int(embFailed)

	return nil
}

// indexBatch indexes a batch of files within a transaction, then generates
// embeddings for the chunks the batch produced
func (idx *Indexer) indexBatch(ctx context.Context, project *storage.Project, files []string,
	config *Config, semaphore chan struct{}, report func(),
	indexed, skipped, failed, elements, edges, chunks, embedded, embFailed *int32,
	mu *sync.Mutex, stats *Statistics) error {

	// Start a transaction for this batch
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var batchChunks []chunkWithID

	// Process each file in the batch
	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		stored, err := idx.indexFile(ctx, tx, project, filePath, config, indexed, skipped, elements, edges, chunks)
		<-semaphore // Release semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			// Continue with other files
		} else {
			batchChunks = append(batchChunks, stored...)
		}

		if report != nil {
			report()
		}
	}

	// Commit the batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Embeddings run outside the transaction: chunk IDs are durable now, and
	// a slow or failing embedding provider must not hold the write lock
	if config.GenerateEmbeddings && idx.embedder != nil && len(batchChunks) > 0 {
		idx.generateEmbeddingsForChunks(ctx, batchChunks, config.EmbeddingBatch, embedded, embFailed, mu, stats)
	}

	return nil
}

// indexFile indexes a single file and returns the chunks it stored
func (idx *Indexer) indexFile(ctx context.Context, store storage.Storage, project *storage.Project,
	filePath string, config *Config, indexed, skipped, elements, edges, chunks *int32) ([]chunkWithID, error) {

	// Compute relative path
	relPath, err := filepath.Rel(project.RootPath, filePath)
	if err != nil {
		return nil, err
	}

	// Read once; the hash decides whether the parse is needed at all
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(content)

	// Check if file has changed and handle incremental update
	shouldSkip, err := idx.checkFileChanged(ctx, store, project.ID, relPath, hash, config.ForceReindex, skipped)
	if err != nil {
		return nil, err
	}
	if shouldSkip {
		return nil, nil
	}

	// Parse the file
	text := string(content)
	parseResult := idx.parser.Parse(types.SourceUnit{Path: filePath, Text: text})

	// Create or update file record
	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    relPath,
		Language:    detectLanguage(relPath),
		ContentHash: hash,
		SizeBytes:   int64(len(content)),
		LineCount:   countLines(text),
	}

	if err := store.UpsertFile(ctx, file); err != nil {
		return nil, err
	}

	// Store import edges
	edgeCount := 0
	for i := range parseResult.Imports {
		imp := storage.FromTypesImport(parseResult.Imports[i], file.ID)
		if err := store.UpsertImport(ctx, imp); err != nil {
			return nil, fmt.Errorf("failed to store import: %w", err)
		}
		edgeCount++
	}

	// Store export edges
	for i := range parseResult.Exports {
		exp := storage.FromTypesExport(parseResult.Exports[i], file.ID)
		if err := store.UpsertExport(ctx, exp); err != nil {
			return nil, fmt.Errorf("failed to store export: %w", err)
		}
		edgeCount++
	}

	// Store structural elements, keeping their IDs for chunk linking
	stored := make([]*storage.Element, len(parseResult.Elements))
	for i := range parseResult.Elements {
		el := storage.FromTypesElement(parseResult.Elements[i], file.ID)
		if err := store.UpsertElement(ctx, el); err != nil {
			return nil, fmt.Errorf("failed to store element: %w", err)
		}
		stored[i] = el
	}

	// Create and store chunks. Chunk i belongs to element i; a trailing
	// module-edges chunk, when present, has no element
	fileChunks := idx.chunker.ChunkFile(parseResult, file.ID)

	collected := make([]chunkWithID, 0, len(fileChunks))
	for i, chunk := range fileChunks {
		storageChunk := &storage.Chunk{
			FileID:        file.ID,
			Content:       chunk.Content,
			ContentHash:   chunk.ContentHash,
			TokenCount:    chunk.TokenCount,
			StartLine:     chunk.StartLine,
			EndLine:       chunk.EndLine,
			ContextBefore: chunk.ContextBefore,
			ContextAfter:  chunk.ContextAfter,
			ChunkType:     string(chunk.ChunkType),
		}
		if i < len(stored) {
			storageChunk.ElementID = &stored[i].ID
		}
		if err := store.UpsertChunk(ctx, storageChunk); err != nil {
			return nil, fmt.Errorf("failed to store chunk: %w", err)
		}
		collected = append(collected, chunkWithID{chunk: storageChunk, content: chunk.Content})
	}

	// Update counters
	atomic.AddInt32(indexed, 1)
	atomic.AddInt32(elements, int32(len(parseResult.Elements)))
	atomic.AddInt32(edges, int32(edgeCount))
	atomic.AddInt32(chunks, int32(len(collected)))

	return collected, nil
}

// checkFileChanged checks if a file has changed and needs re-indexing. A
// changed or force-indexed file has its stale rows dropped so the re-parse
// starts clean
func (idx *Indexer) checkFileChanged(ctx context.Context, store storage.Storage, projectID int64,
	relPath string, hash [32]byte, force bool, skipped *int32) (bool, error) {

	existingFile, err := store.GetFile(ctx, projectID, relPath)
	if err == storage.ErrNotFound {
		// New file, needs indexing
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !force && existingFile.ContentHash == hash {
		// File unchanged, skip
		atomic.AddInt32(skipped, 1)
		return true, nil
	}

	// Chunks go first so the element cascade never races the module-edges
	// chunk, which has no element row
	if err := store.DeleteChunksByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old chunks: %w", err)
	}
	if err := store.DeleteElementsByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old elements: %w", err)
	}
	if err := store.DeleteImportsByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old imports: %w", err)
	}
	if err := store.DeleteExportsByFile(ctx, existingFile.ID); err != nil {
		return false, fmt.Errorf("failed to delete old exports: %w", err)
	}

	return false, nil
}

// generateEmbeddingsForChunks generates and stores embeddings in batches.
// Failures are recorded but never abort the run
func (idx *Indexer) generateEmbeddingsForChunks(ctx context.Context, chunks []chunkWithID, batchSize int,
	generated, failed *int32, mu *sync.Mutex, stats *Statistics) {

	if batchSize <= 0 {
		batchSize = 20
	}

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.content
		}

		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			atomic.AddInt32(failed, int32(len(batch)))
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("embedding batch failed: %v", err))
			mu.Unlock()
			continue
		}

		for j, emb := range resp.Embeddings {
			if j >= len(batch) {
				break
			}
			record := &storage.Embedding{
				ChunkID:   batch[j].chunk.ID,
				Vector:    storage.SerializeVector(emb.Vector),
				Dimension: emb.Dimension,
				Provider:  emb.Provider,
				Model:     emb.Model,
			}
			if err := idx.storage.UpsertEmbedding(ctx, record); err != nil {
				atomic.AddInt32(failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("failed to store embedding for chunk %d: %v", batch[j].chunk.ID, err))
				mu.Unlock()
				continue
			}
			atomic.AddInt32(generated, 1)
		}
	}
}

// updateProjectStats updates the project's file and chunk counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	// Get file count
	files, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return err
	}

	// Count chunks across all files
	totalChunks := 0
	for _, file := range files {
		chunks, err := idx.storage.ListChunksByFile(ctx, file.ID)
		if err != nil {
			return err
		}
		totalChunks += len(chunks)
	}

	project.TotalFiles = len(files)
	project.TotalChunks = totalChunks
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// countLines counts the lines of a source text. A trailing newline does not
// open a new line
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// packageInfo carries the fields read from package.json
type packageInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// parsePackageJSON extracts basic info from a package.json file
func parsePackageJSON(path string) (*packageInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	info := &packageInfo{}
	if err := json.Unmarshal(content, info); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return info, nil
}
