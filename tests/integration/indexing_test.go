package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dshills/jscontext-mcp/internal/indexer"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

// IndexingTestSuite drives the indexing pipeline end to end against the
// JavaScript fixture project.
type IndexingTestSuite struct {
	suite.Suite
	storage     storage.Storage
	indexer     *indexer.Indexer
	fixturesDir string
	ctx         context.Context
}

func (s *IndexingTestSuite) SetupSuite() {
	s.ctx = context.Background()

	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.fixturesDir = filepath.Join(filepath.Dir(wd), "testdata", "fixtures")

	_, err = os.Stat(s.fixturesDir)
	s.Require().NoError(err, "fixtures directory should exist")
}

func (s *IndexingTestSuite) SetupTest() {
	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.storage = store

	s.indexer = indexer.NewWithEmbedder(s.storage, NewMockEmbedder(384))
}

func (s *IndexingTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *IndexingTestSuite) TestFullIndexing() {
	config := &indexer.Config{
		IncludeTests:       true,
		Workers:            2,
		BatchSize:          10,
		GenerateEmbeddings: false,
	}

	stats, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.Require().NoError(err, "indexing should succeed")
	s.NotNil(stats)

	s.T().Logf("Indexing stats: %+v", stats)
	s.Greater(stats.FilesIndexed, 0, "should index at least one file")
	s.Greater(stats.ElementsExtracted, 0, "should extract elements")
	s.Greater(stats.EdgesExtracted, 0, "should extract import/export edges")
	s.Greater(stats.ChunksCreated, 0, "should create chunks")
	s.Equal(0, stats.FilesFailed, "fixture files should all be readable")

	project, err := s.storage.GetProject(s.ctx, s.fixturesDir)
	s.Require().NoError(err)
	s.Equal(s.fixturesDir, project.RootPath)
	s.Equal("shop-frontend", project.Name, "name should come from package.json")
	s.Greater(project.TotalFiles, 0)
	s.Greater(project.TotalChunks, 0)
	s.False(project.LastIndexedAt.IsZero())

	files, err := s.storage.ListFiles(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(files, stats.FilesIndexed, "every indexed file should have a row")

	s.verifyServiceElements(project.ID)
	s.verifyConventionFlags(project.ID)
	s.verifyModuleEdgeChunks(project.ID)
}

func (s *IndexingTestSuite) TestIncrementalIndexing() {
	config := &indexer.Config{IncludeTests: true}

	stats1, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.Require().NoError(err)
	s.Greater(stats1.FilesIndexed, 0)

	stats2, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.Require().NoError(err)

	s.Equal(0, stats2.FilesIndexed, "unchanged files should be skipped")
	s.Equal(stats1.FilesIndexed, stats2.FilesSkipped)

	project, err := s.storage.GetProject(s.ctx, s.fixturesDir)
	s.Require().NoError(err)
	files, err := s.storage.ListFiles(s.ctx, project.ID)
	s.NoError(err)
	s.Len(files, stats1.FilesIndexed)
}

func (s *IndexingTestSuite) TestModifiedFileReindexing() {
	tempDir := s.T().TempDir()

	srcPath := filepath.Join(s.fixturesDir, "src", "utils", "validation.js")
	dstPath := filepath.Join(tempDir, "validation.js")

	content, err := os.ReadFile(srcPath)
	s.Require().NoError(err)
	s.Require().NoError(os.WriteFile(dstPath, content, 0644))

	config := &indexer.Config{IncludeTests: true}

	stats1, err := s.indexer.IndexProject(s.ctx, tempDir, config)
	s.Require().NoError(err)
	s.Equal(1, stats1.FilesIndexed)

	project, err := s.storage.GetProject(s.ctx, tempDir)
	s.Require().NoError(err)

	files, err := s.storage.ListFiles(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(files, 1)

	initialChunks, err := s.storage.ListChunksByFile(s.ctx, files[0].ID)
	s.Require().NoError(err)
	initialCount := len(initialChunks)

	time.Sleep(10 * time.Millisecond)
	modified := append(content, []byte("\nexport function validateZip(value) {\n  return /^\\d{5}$/.test(value);\n}\n")...)
	s.Require().NoError(os.WriteFile(dstPath, modified, 0644))

	stats2, err := s.indexer.IndexProject(s.ctx, tempDir, config)
	s.Require().NoError(err)
	s.Equal(1, stats2.FilesIndexed, "modified file should re-index")
	s.Equal(0, stats2.FilesSkipped)

	files, err = s.storage.ListFiles(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(files, 1)

	newChunks, err := s.storage.ListChunksByFile(s.ctx, files[0].ID)
	s.NoError(err)
	s.Greater(len(newChunks), initialCount, "the added function should add a chunk")
}

// Malformed source must degrade to diagnostics, never to failed files.
func (s *IndexingTestSuite) TestMalformedSourceStillIndexes() {
	tempDir := s.T().TempDir()

	s.Require().NoError(os.WriteFile(filepath.Join(tempDir, "good.js"),
		[]byte("export function ok() {\n  return 1;\n}\n"), 0644))
	s.Require().NoError(os.WriteFile(filepath.Join(tempDir, "broken.js"),
		[]byte("export class Broken {\n  method() {\n    if (true) {\n"), 0644))

	config := &indexer.Config{IncludeTests: true}

	stats, err := s.indexer.IndexProject(s.ctx, tempDir, config)
	s.Require().NoError(err)

	s.Equal(2, stats.FilesIndexed, "both files index, broken one with diagnostics")
	s.Equal(0, stats.FilesFailed)
	s.Greater(stats.ElementsExtracted, 0, "the well-formed function should survive")
}

func (s *IndexingTestSuite) TestEmptyDirectory() {
	tempDir := s.T().TempDir()

	config := &indexer.Config{IncludeTests: true}

	stats, err := s.indexer.IndexProject(s.ctx, tempDir, config)
	s.Require().NoError(err)
	s.Equal(0, stats.FilesIndexed)
	s.Equal(0, stats.ElementsExtracted)
	s.Equal(0, stats.ChunksCreated)
}

func (s *IndexingTestSuite) TestIncludeTestsToggle() {
	withTests, err := s.indexer.IndexProject(s.ctx, s.fixturesDir,
		&indexer.Config{IncludeTests: true})
	s.Require().NoError(err)

	store2, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	defer store2.Close()
	idx2 := indexer.NewWithEmbedder(store2, NewMockEmbedder(384))

	withoutTests, err := idx2.IndexProject(s.ctx, s.fixturesDir,
		&indexer.Config{IncludeTests: false})
	s.Require().NoError(err)

	s.Greater(withTests.FilesTotal, withoutTests.FilesTotal,
		"excluding tests should discover fewer files")
}

func (s *IndexingTestSuite) TestForceReindex() {
	config := &indexer.Config{IncludeTests: true}

	stats1, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.Require().NoError(err)

	forced, err := s.indexer.IndexProject(s.ctx, s.fixturesDir,
		&indexer.Config{IncludeTests: true, ForceReindex: true})
	s.Require().NoError(err)

	s.Equal(stats1.FilesIndexed, forced.FilesIndexed, "force should rebuild every file")
	s.Equal(0, forced.FilesSkipped)
}

func (s *IndexingTestSuite) TestEmbeddingGeneration() {
	emb := NewMockEmbedder(384)
	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	defer store.Close()

	idx := indexer.NewWithEmbedder(store, emb)

	stats, err := idx.IndexProject(s.ctx, s.fixturesDir, &indexer.Config{
		IncludeTests:       true,
		GenerateEmbeddings: true,
		EmbeddingBatch:     16,
	})
	s.Require().NoError(err)

	s.Equal(stats.ChunksCreated, stats.EmbeddingsGenerated,
		"every chunk should get an embedding")
	s.Equal(0, stats.EmbeddingsFailed)
	s.Greater(emb.CallCount(), 0)
}

func (s *IndexingTestSuite) TestConcurrentIndexing() {
	config := &indexer.Config{
		IncludeTests: true,
		Workers:      4,
		BatchSize:    1,
	}

	stats, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.Require().NoError(err)
	s.Greater(stats.FilesIndexed, 0)

	project, err := s.storage.GetProject(s.ctx, s.fixturesDir)
	s.Require().NoError(err)

	files, err := s.storage.ListFiles(s.ctx, project.ID)
	s.NoError(err)
	s.NotEmpty(files)

	for _, file := range files {
		s.NotEmpty(file.FilePath)
		s.NotZero(file.ContentHash)

		elements, err := s.storage.ListElementsByFile(s.ctx, file.ID)
		s.NoError(err)

		chunks, err := s.storage.ListChunksByFile(s.ctx, file.ID)
		s.NoError(err)

		s.True(len(elements) > 0 || len(chunks) > 0,
			"file %s should contribute elements or chunks", file.FilePath)
	}
}

func (s *IndexingTestSuite) TestConcurrentIndexingAttempts() {
	config := &indexer.Config{IncludeTests: true, GenerateEmbeddings: false}

	first, err := s.indexer.IndexProject(s.ctx, s.fixturesDir, config)
	s.NoError(err)
	s.NotNil(first)
	s.Greater(first.FilesIndexed, 0)

	// Race two runs on one indexer instance. Either both complete in
	// sequence or the loser reports ErrIndexingInProgress.
	racer := indexer.NewWithEmbedder(s.storage, NewMockEmbedder(384))
	results := make(chan error, 2)

	go func() {
		_, err := racer.IndexProject(s.ctx, s.fixturesDir, config)
		results <- err
	}()
	go func() {
		time.Sleep(time.Millisecond)
		_, err := racer.IndexProject(s.ctx, s.fixturesDir, config)
		results <- err
	}()

	var successes, busy, unexpected int
	timeout := time.After(10 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			switch {
			case err == nil:
				successes++
			case errors.Is(err, indexer.ErrIndexingInProgress):
				busy++
			default:
				unexpected++
				s.T().Logf("unexpected error: %v", err)
			}
		case <-timeout:
			s.Fail("timed out waiting for concurrent runs")
			return
		}
	}

	s.GreaterOrEqual(successes, 1, "at least one run should complete")
	s.Equal(0, unexpected, "only ErrIndexingInProgress is acceptable")
}

func (s *IndexingTestSuite) verifyServiceElements(projectID int64) {
	files, err := s.storage.ListFiles(s.ctx, projectID)
	s.Require().NoError(err)

	var serviceFile *storage.File
	for _, f := range files {
		if strings.HasSuffix(f.FilePath, "userService.js") {
			serviceFile = f
			break
		}
	}
	s.Require().NotNil(serviceFile, "userService.js should be indexed")

	elements, err := s.storage.ListElementsByFile(s.ctx, serviceFile.ID)
	s.Require().NoError(err)
	s.NotEmpty(elements)

	byName := make(map[string]*storage.Element)
	for i := range elements {
		byName[elements[i].Name] = elements[i]
	}

	s.Require().Contains(byName, "UserService")
	s.Equal("class", byName["UserService"].Kind)

	s.Require().Contains(byName, "fetchUser")
	s.Equal("method", byName["fetchUser"].Kind)
	s.Equal("UserService", byName["fetchUser"].ClassName)

	s.Require().Contains(byName, "normalizeUser")
	s.Equal("function", byName["normalizeUser"].Kind)
	s.Empty(byName["normalizeUser"].ClassName)
}

func (s *IndexingTestSuite) verifyConventionFlags(projectID int64) {
	files, err := s.storage.ListFiles(s.ctx, projectID)
	s.Require().NoError(err)

	var foundComponent, foundService, foundStore bool
	for _, file := range files {
		elements, err := s.storage.ListElementsByFile(s.ctx, file.ID)
		s.Require().NoError(err)
		for _, el := range elements {
			if el.IsComponent {
				foundComponent = true
			}
			if el.IsService {
				foundService = true
			}
			if el.IsStore {
				foundStore = true
			}
		}
	}

	s.True(foundComponent, "UserProfile should be flagged as a component")
	s.True(foundService, "UserService should be flagged as a service")
	s.True(foundStore, "CartStore should be flagged as a store")
}

func (s *IndexingTestSuite) verifyModuleEdgeChunks(projectID int64) {
	files, err := s.storage.ListFiles(s.ctx, projectID)
	s.Require().NoError(err)

	found := false
	for _, file := range files {
		chunks, err := s.storage.ListChunksByFile(s.ctx, file.ID)
		s.Require().NoError(err)
		for _, chunk := range chunks {
			if chunk.ChunkType == "module_edges" {
				s.Nil(chunk.ElementID, "module-edges chunks carry no element")
				found = true
			}
		}
	}
	s.True(found, "files with imports or exports should produce module-edges chunks")
}

func TestIndexingTestSuite(t *testing.T) {
	suite.Run(t, new(IndexingTestSuite))
}
