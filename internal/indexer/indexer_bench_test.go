package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/jscontext-mcp/internal/embedder"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

// MockEmbedder provides a fast, fake embedder for benchmarking
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	return &embedder.Embedding{
		Vector:    make([]float32, m.dimension),
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-v1",
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		embeddings[i] = &embedder.Embedding{
			Vector:    make([]float32, m.dimension),
			Dimension: m.dimension,
			Provider:  "mock",
			Model:     "mock-v1",
			Hash:      embedder.ComputeHash(text),
		}
	}
	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-v1",
	}, nil
}

func (m *MockEmbedder) Dimension() int   { return m.dimension }
func (m *MockEmbedder) Provider() string { return "mock" }
func (m *MockEmbedder) Model() string    { return "mock-v1" }
func (m *MockEmbedder) Close() error     { return nil }

// getTestFixtures returns the path to test fixtures
func getTestFixtures(b *testing.B) string {
	wd, err := os.Getwd()
	if err != nil {
		b.Fatal(err)
	}
	// Navigate from internal/indexer to tests/testdata/fixtures
	fixturesDir := filepath.Join(filepath.Dir(filepath.Dir(wd)), "tests", "testdata", "fixtures")
	if _, err := os.Stat(fixturesDir); os.IsNotExist(err) {
		b.Skipf("Fixtures directory not found: %s", fixturesDir)
	}
	return fixturesDir
}

// findFixtureFile returns one JavaScript file from the fixture project
func findFixtureFile(b *testing.B, fixturesDir string) string {
	var testFile string
	err := filepath.WalkDir(fixturesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Ext(path) == ".js" && testFile == "" {
			testFile = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil || testFile == "" {
		b.Skip("No JavaScript files found in fixtures")
	}
	return testFile
}

// BenchmarkIndexProject benchmarks full project indexing
func BenchmarkIndexProject(b *testing.B) {
	fixturesDir := getTestFixtures(b)

	config := &Config{
		Workers:            4,
		BatchSize:          20,
		EmbeddingBatch:     30,
		IncludeTests:       true,
		GenerateEmbeddings: true,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		mockEmb := NewMockEmbedder(384)
		idx := NewWithEmbedder(store, mockEmb)
		b.StartTimer()

		_, err = idx.IndexProject(context.Background(), fixturesDir, config)
		if err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		_ = store.Close()
		b.StartTimer()
	}
}

// BenchmarkIndexProjectNoEmbeddings benchmarks indexing without embeddings
func BenchmarkIndexProjectNoEmbeddings(b *testing.B) {
	fixturesDir := getTestFixtures(b)

	config := &Config{
		Workers:            4,
		BatchSize:          20,
		IncludeTests:       true,
		GenerateEmbeddings: false,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		idx := New(store)
		b.StartTimer()

		_, err = idx.IndexProject(context.Background(), fixturesDir, config)
		if err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		_ = store.Close()
		b.StartTimer()
	}
}

// BenchmarkIncrementalIndex benchmarks re-indexing with no changes
func BenchmarkIncrementalIndex(b *testing.B) {
	fixturesDir := getTestFixtures(b)

	// Setup: do initial indexing once
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	mockEmb := NewMockEmbedder(384)
	idx := NewWithEmbedder(store, mockEmb)
	config := &Config{
		Workers:            4,
		BatchSize:          20,
		IncludeTests:       true,
		GenerateEmbeddings: false,
	}

	// Initial indexing
	_, err = idx.IndexProject(context.Background(), fixturesDir, config)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	// Benchmark re-indexing (should skip unchanged files)
	for i := 0; i < b.N; i++ {
		_, err := idx.IndexProject(context.Background(), fixturesDir, config)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFileDiscovery benchmarks file discovery only
func BenchmarkFileDiscovery(b *testing.B) {
	fixturesDir := getTestFixtures(b)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	idx := New(store)
	config := &Config{IncludeTests: true}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := idx.discoverFiles(fixturesDir, config)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFileDiscoveryWithIgnores benchmarks discovery with glob filtering
func BenchmarkFileDiscoveryWithIgnores(b *testing.B) {
	fixturesDir := getTestFixtures(b)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	idx := New(store)
	config := &Config{
		IncludeTests:   true,
		IgnorePatterns: []string{"dist/**", "build/**", "**/*.stories.js"},
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := idx.discoverFiles(fixturesDir, config)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseFile benchmarks individual file parsing
func BenchmarkParseFile(b *testing.B) {
	fixturesDir := getTestFixtures(b)
	testFile := findFixtureFile(b, fixturesDir)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	idx := New(store)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := idx.parser.ParseFile(testFile)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkChunkFile benchmarks individual file chunking
func BenchmarkChunkFile(b *testing.B) {
	fixturesDir := getTestFixtures(b)
	testFile := findFixtureFile(b, fixturesDir)

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	idx := New(store)

	// Parse once to get parse result
	parseResult, err := idx.parser.ParseFile(testFile)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = idx.chunker.ChunkFile(parseResult, 1)
	}
}

// BenchmarkEmbeddingGeneration benchmarks batch embedding generation
func BenchmarkEmbeddingGeneration(b *testing.B) {
	mockEmb := NewMockEmbedder(384)
	ctx := context.Background()

	// Test different batch sizes
	batchSizes := []int{1, 10, 30, 50, 100}

	for _, size := range batchSizes {
		b.Run(fmt.Sprintf("%03d_chunks", size), func(b *testing.B) {
			texts := make([]string, size)
			for i := range texts {
				texts[i] = "function example() { return null; }"
			}

			req := embedder.BatchEmbeddingRequest{Texts: texts}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_, err := mockEmb.GenerateBatch(ctx, req)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkWorkerCounts benchmarks different worker pool sizes
func BenchmarkWorkerCounts(b *testing.B) {
	fixturesDir := getTestFixtures(b)
	workerCounts := []int{1, 2, 4, 8, 16}

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("%02d_workers", workers), func(b *testing.B) {
			config := &Config{
				Workers:            workers,
				BatchSize:          20,
				IncludeTests:       true,
				GenerateEmbeddings: false,
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store, err := storage.NewSQLiteStorage(":memory:")
				if err != nil {
					b.Fatal(err)
				}
				idx := New(store)
				b.StartTimer()

				_, err = idx.IndexProject(context.Background(), fixturesDir, config)
				if err != nil {
					b.Fatal(err)
				}

				b.StopTimer()
				_ = store.Close()
				b.StartTimer()
			}
		})
	}
}

// BenchmarkBatchSizes benchmarks different transaction batch sizes
func BenchmarkBatchSizes(b *testing.B) {
	fixturesDir := getTestFixtures(b)
	batchSizes := []int{5, 10, 20, 50, 100}

	for _, batchSize := range batchSizes {
		b.Run(fmt.Sprintf("%03d_batch", batchSize), func(b *testing.B) {
			config := &Config{
				Workers:            4,
				BatchSize:          batchSize,
				IncludeTests:       true,
				GenerateEmbeddings: false,
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store, err := storage.NewSQLiteStorage(":memory:")
				if err != nil {
					b.Fatal(err)
				}
				idx := New(store)
				b.StartTimer()

				_, err = idx.IndexProject(context.Background(), fixturesDir, config)
				if err != nil {
					b.Fatal(err)
				}

				b.StopTimer()
				_ = store.Close()
				b.StartTimer()
			}
		})
	}
}

// BenchmarkPackageJSONParsing benchmarks package.json parsing
func BenchmarkPackageJSONParsing(b *testing.B) {
	fixturesDir := getTestFixtures(b)
	pkgPath := filepath.Join(fixturesDir, "package.json")

	// Check if package.json exists
	if _, err := os.Stat(pkgPath); os.IsNotExist(err) {
		b.Skip("package.json not found in fixtures")
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := parsePackageJSON(pkgPath)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLargeScaleIndexing simulates indexing a large JavaScript codebase
func BenchmarkLargeScaleIndexing(b *testing.B) {
	// Create a temporary directory with generated JavaScript files
	tempDir := b.TempDir()

	// Generate 100 files, each with a service class and ~150 functions
	b.Logf("Generating 100 test files...")
	for fileNum := 0; fileNum < 100; fileNum++ {
		var content strings.Builder
		fmt.Fprintf(&content, "import { shared } from './generated_%03d.js';\n\n", (fileNum+1)%100)

		fmt.Fprintf(&content, "export class Service%d {\n", fileNum)
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&content, "  method%d(data) {\n", i)
			content.WriteString("    if (!data) {\n")
			content.WriteString("      return null;\n")
			content.WriteString("    }\n")
			content.WriteString("    return shared(data);\n")
			content.WriteString("  }\n\n")
		}
		content.WriteString("}\n\n")

		for i := 0; i < 150; i++ {
			funcNum := fileNum*150 + i
			fmt.Fprintf(&content, "export function transform%d(x, y) {\n", funcNum)
			content.WriteString("  let result = x + y;\n")
			content.WriteString("  for (let i = 0; i < 10; i++) {\n")
			content.WriteString("    result = result * 2;\n")
			content.WriteString("    if (result > 1000) {\n")
			content.WriteString("      result = result / 2;\n")
			content.WriteString("    }\n")
			content.WriteString("  }\n")
			content.WriteString("  return result;\n")
			content.WriteString("}\n\n")
		}

		fileName := fmt.Sprintf("generated_%03d.js", fileNum)
		filePath := filepath.Join(tempDir, fileName)
		if err := os.WriteFile(filePath, []byte(content.String()), 0644); err != nil {
			b.Fatal(err)
		}
	}

	b.Logf("Generated test corpus at %s", tempDir)

	config := &Config{
		Workers:            8, // More workers for large project
		BatchSize:          50,
		EmbeddingBatch:     50,
		IncludeTests:       false,
		GenerateEmbeddings: true,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		mockEmb := NewMockEmbedder(384)
		idx := NewWithEmbedder(store, mockEmb)
		b.StartTimer()

		stats, err := idx.IndexProject(context.Background(), tempDir, config)
		if err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		b.Logf("Large-scale indexing: %d files, %d elements, %d chunks, %d embeddings in %v",
			stats.FilesIndexed, stats.ElementsExtracted, stats.ChunksCreated,
			stats.EmbeddingsGenerated, stats.Duration)

		if stats.Duration > 5*time.Minute {
			b.Logf("WARNING: Large-scale indexing took %v, exceeds 5 minute target", stats.Duration)
		}

		_ = store.Close()
		b.StartTimer()
	}
}
