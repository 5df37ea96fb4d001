package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/jscontext-mcp/internal/indexer"
)

var (
	indexForce        bool
	indexEmbeddings   bool
	indexIncludeTests bool
	indexWorkers      int
	indexIgnore       []string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a JavaScript project",
	Long: `Index parses every JavaScript-family file (.js, .jsx, .mjs, .cjs) under
the given directory (default: current directory) and stores structural
chunks in the local database for search.

Unchanged files are skipped on re-index unless --force is given.

Examples:
  jscontext index .                    # Index current directory
  jscontext index /path/to/project     # Index a specific project
  jscontext index --force .            # Re-index unchanged files too
  jscontext index --embeddings=false . # Keyword search only, no vectors`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index files even when unchanged")
	indexCmd.Flags().BoolVar(&indexEmbeddings, "embeddings", true, "generate vector embeddings")
	indexCmd.Flags().BoolVar(&indexIncludeTests, "include-tests", true, "index *.test.js / *.spec.js files")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "concurrent workers (default from config)")
	indexCmd.Flags().StringArrayVar(&indexIgnore, "ignore", nil, "glob pattern to skip, repeatable")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	emb, err := cfg.NewEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer emb.Close()

	idx := indexer.NewWithEmbedder(store, emb)

	idxConfig := &indexer.Config{
		Workers:            cfg.Indexer.Workers,
		BatchSize:          cfg.Indexer.BatchSize,
		EmbeddingBatch:     cfg.Embedder.BatchSize,
		IncludeTests:       cfg.Indexer.IncludeTests,
		GenerateEmbeddings: indexEmbeddings,
		ForceReindex:       indexForce,
		IgnorePatterns:     append(append([]string{}, cfg.Indexer.IgnorePatterns...), indexIgnore...),
	}
	// Flags beat the config file, but only when actually given
	if cmd.Flags().Changed("include-tests") {
		idxConfig.IncludeTests = indexIncludeTests
	}
	if indexWorkers > 0 {
		idxConfig.Workers = indexWorkers
	}

	// The bar is sized lazily because the file count is only known once
	// discovery completes. OnProgress arrives from worker goroutines.
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	idxConfig.OnProgress = func(p indexer.Progress) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(int(p.TotalFiles),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Indexing"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		_ = bar.Set(int(p.FilesProcessed))
	}

	fmt.Printf("Scanning %s...\n", absPath)

	stats, err := idx.IndexProject(cmd.Context(), absPath, idxConfig)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete in %s:\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("  Files indexed:   %d\n", stats.FilesIndexed)
	fmt.Printf("  Files skipped:   %d (unchanged)\n", stats.FilesSkipped)
	if stats.FilesFailed > 0 {
		fmt.Printf("  Files failed:    %d\n", stats.FilesFailed)
	}
	fmt.Printf("  Elements:        %d\n", stats.ElementsExtracted)
	fmt.Printf("  Module edges:    %d\n", stats.EdgesExtracted)
	fmt.Printf("  Chunks created:  %d\n", stats.ChunksCreated)
	if stats.EmbeddingsGenerated > 0 || stats.EmbeddingsFailed > 0 {
		fmt.Printf("  Embeddings:      %d generated, %d failed\n",
			stats.EmbeddingsGenerated, stats.EmbeddingsFailed)
	}

	if len(stats.ErrorMessages) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, msg := range stats.ErrorMessages {
			fmt.Printf("  - %s\n", msg)
		}
	}

	if dbFile, err := cfg.DatabaseFile(); err == nil {
		fmt.Printf("\nIndex stored at: %s\n", dbFile)
	}
	return nil
}
