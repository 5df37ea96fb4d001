package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/jscontext-mcp/internal/searcher"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

var (
	searchProjectPath string
	searchLimit       int
	searchMode        string
	searchKinds       []string
	searchClass       string
	searchPattern     string
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed code",
	Long: `Search runs a hybrid (vector + keyword) query over a previously indexed
project and prints the most relevant chunks. The project is identified by
its root path, current directory by default.

Examples:
  jscontext search "checkout validation"
  jscontext search --mode keyword validateEmail
  jscontext search --kind class --class CartStore "empty cart"
  jscontext search --json "fetch user data"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchProjectPath, "path", "p", "", "project root (default: current directory)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max results (default from config)")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "hybrid, vector, or keyword (default from config)")
	searchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "filter by element kind (class, function, method)")
	searchCmd.Flags().StringVar(&searchClass, "class", "", "restrict to a class and its methods")
	searchCmd.Flags().StringVar(&searchPattern, "file-pattern", "", "glob filter on file paths")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

// searchResultJSON is the --json output shape for one result.
type searchResultJSON struct {
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
	Kind      string  `json:"kind,omitempty"`
	Name      string  `json:"name,omitempty"`
	ClassName string  `json:"class_name,omitempty"`
	File      string  `json:"file,omitempty"`
	StartLine int     `json:"start_line,omitempty"`
	EndLine   int     `json:"end_line,omitempty"`
	Content   string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	rootPath := searchProjectPath
	if rootPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		rootPath = wd
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	project, err := store.GetProject(ctx, absRoot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("project not indexed: %s (run 'jscontext index' first)", absRoot)
		}
		return fmt.Errorf("failed to look up project: %w", err)
	}

	emb, err := cfg.NewEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer emb.Close()

	srch := searcher.NewSearcher(store, emb)

	limit := cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}
	mode := cfg.Search.Mode
	if searchMode != "" {
		mode = searchMode
	}

	req := searcher.SearchRequest{
		Query:     query,
		ProjectID: project.ID,
		Limit:     limit,
		Mode:      searcher.SearchMode(mode),
	}
	if len(searchKinds) > 0 || searchClass != "" || searchPattern != "" {
		req.Filters = &storage.SearchFilters{
			ElementKinds: searchKinds,
			FilePattern:  searchPattern,
		}
		if searchClass != "" {
			req.Filters.ClassNames = []string{searchClass}
		}
	}

	resp, err := srch.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		out := make([]searchResultJSON, 0, len(resp.Results))
		for i := range resp.Results {
			r := &resp.Results[i]
			entry := searchResultJSON{
				Rank:    r.Rank,
				Score:   r.RelevanceScore,
				Content: r.Content,
			}
			if r.Element != nil {
				entry.Kind = string(r.Element.Kind)
				entry.Name = r.Element.Name
				entry.ClassName = r.Element.ClassName
			}
			if r.File != nil {
				entry.File = r.File.Path
				entry.StartLine = r.File.StartLine
				entry.EndLine = r.File.EndLine
			}
			out = append(out, entry)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results in %s (%s mode)\n\n",
		resp.TotalResults, resp.Duration.Round(time.Millisecond), resp.SearchMode)
	for i := range resp.Results {
		r := &resp.Results[i]

		header := ""
		if r.Element != nil {
			header = fmt.Sprintf("%s %s", r.Element.Kind, r.Element.Name)
			if r.Element.ClassName != "" {
				header = fmt.Sprintf("%s %s.%s", r.Element.Kind, r.Element.ClassName, r.Element.Name)
			}
		}
		if r.File != nil {
			loc := fmt.Sprintf("%s:L%d-%d", r.File.Path, r.File.StartLine, r.File.EndLine)
			if header == "" {
				header = loc
			} else {
				header = fmt.Sprintf("%s  %s", header, loc)
			}
		}

		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", r.Rank, header, r.RelevanceScore)

		// Truncate long chunks for terminal display
		content := r.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Println(content)
		fmt.Println()
	}

	return nil
}
