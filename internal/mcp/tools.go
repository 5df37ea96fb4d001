package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/jscontext-mcp/internal/indexer"
	"github.com/dshills/jscontext-mcp/internal/searcher"
	"github.com/dshills/jscontext-mcp/internal/storage"
	"github.com/dshills/jscontext-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed           = -32001 // Project not indexed
	ErrorCodeIndexingInProgress   = -32002 // Another indexing operation is already running
	ErrorCodePathError            = -32003 // Path missing, unreadable, or not a JavaScript project/file
	ErrorCodeEmbeddingUnavailable = -32004 // Embedding provider failed; keyword mode still works
)

// sourceExtensions mirrors the indexer's file discovery set
var sourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validateProjectPath(path); err != nil {
		return nil, newMCPError(ErrorCodePathError, "invalid project path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	config := &indexer.Config{
		IncludeTests:       getBoolDefault(args, "include_tests", true),
		GenerateEmbeddings: getBoolDefault(args, "embeddings", true),
		ForceReindex:       getBoolDefault(args, "force", false),
	}

	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":              true,
		"run_id":               stats.RunID,
		"path":                 path,
		"files_total":          stats.FilesTotal,
		"files_indexed":        stats.FilesIndexed,
		"files_skipped":        stats.FilesSkipped,
		"files_failed":         stats.FilesFailed,
		"elements_extracted":   stats.ElementsExtracted,
		"edges_extracted":      stats.EdgesExtracted,
		"chunks_created":       stats.ChunksCreated,
		"embeddings_generated": stats.EmbeddingsGenerated,
		"embeddings_failed":    stats.EmbeddingsFailed,
		"duration_ms":          stats.Duration.Milliseconds(),
	}

	if project, err := s.storage.GetProject(ctx, path); err == nil {
		response["project"] = project.Name
		// Responses cached before this run may reference replaced chunks
		_ = s.searcher.InvalidateCache(ctx, project.ID)
	}
	s.rememberProject(path, stats.RunID)

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := getStringDefault(args, "mode", "hybrid")
	switch mode {
	case "hybrid", "vector", "keyword":
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	filters := parseSearchFilters(args)

	project, err := s.resolveProject(ctx, args)
	if err != nil {
		return nil, err
	}

	req := searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Mode:      searcher.SearchMode(mode),
		Filters:   filters,
		ProjectID: project.ID,
		UseCache:  true,
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "query embedding") {
			return nil, newMCPError(ErrorCodeEmbeddingUnavailable, "embedding provider unavailable", map[string]interface{}{
				"error": err.Error(),
				"hint":  "retry with mode=keyword",
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"mode":          string(resp.SearchMode),
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       formatSearchResults(resp.Results),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetFileStructure handles the get_file_structure tool invocation.
// The file is parsed on demand; no index is consulted or required.
func (s *Server) handleGetFileStructure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validateSourceFile(path); err != nil {
		return nil, newMCPError(ErrorCodePathError, "invalid source file", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodePathError, "failed to read file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	result := s.parser.Parse(types.SourceUnit{Path: path, Text: string(content)})

	response := map[string]interface{}{
		"file":     path,
		"elements": formatElements(result.Elements),
		"imports":  formatImports(result.Imports),
		"exports":  formatExports(result.Exports),
	}

	if len(result.Diagnostics) > 0 {
		diags := make([]map[string]interface{}, 0, len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			diags = append(diags, map[string]interface{}{
				"line":    d.Line,
				"message": d.Message,
			})
		}
		response["diagnostics"] = diags
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	project, err := s.resolveProject(ctx, args)
	if err != nil {
		// Not-indexed is a status report, not a protocol error
		var mcpErr *MCPError
		if errors.As(err, &mcpErr) && mcpErr.Code == ErrorCodeNotIndexed {
			response := map[string]interface{}{
				"indexed": false,
				"message": "Project not indexed. Use the index_codebase tool to index a project.",
			}
			if path := getStringDefault(args, "path", ""); path != "" {
				response["path"] = path
			}
			return mcp.NewToolResultText(formatJSON(response)), nil
		}
		return nil, err
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"name":            project.Name,
			"index_version":   project.IndexVersion,
			"last_indexed_at": project.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":      status.FilesCount,
			"elements_count":   status.ElementsCount,
			"imports_count":    status.ImportsCount,
			"exports_count":    status.ExportsCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_indexes_built":    status.Health.FTSIndexesBuilt,
		},
		"build": map[string]interface{}{
			"mode":             storage.BuildMode,
			"driver":           storage.DriverName,
			"vector_extension": storage.VectorExtensionAvailable,
		},
	}

	if _, runID := s.sessionState(); runID != "" {
		response["last_run_id"] = runID
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// resolveProject finds the project a tool call refers to. An explicit path
// argument wins; otherwise the project most recently indexed through this
// server is used.
func (s *Server) resolveProject(ctx context.Context, args map[string]interface{}) (*storage.Project, error) {
	path := getStringDefault(args, "path", "")
	if path == "" {
		path, _ = s.sessionState()
	}
	if path == "" {
		return nil, newMCPError(ErrorCodeNotIndexed, "no project indexed yet", map[string]interface{}{
			"reason": "pass a path argument or run index_codebase first",
		})
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path":   path,
			"reason": "run index_codebase on this path first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// parseSearchFilters builds storage filters from the optional tool arguments.
// Returns nil when no filter argument is present.
func parseSearchFilters(args map[string]interface{}) *storage.SearchFilters {
	kinds := getStringSlice(args, "element_kinds")
	className := getStringDefault(args, "class_name", "")
	filePattern := getStringDefault(args, "file_pattern", "")

	if len(kinds) == 0 && className == "" && filePattern == "" {
		return nil
	}

	filters := &storage.SearchFilters{
		ElementKinds: kinds,
		FilePattern:  filePattern,
	}
	if className != "" {
		filters.ClassNames = []string{className}
	}
	return filters
}

// formatSearchResults flattens search results into JSON-friendly maps
func formatSearchResults(results []types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for i := range results {
		r := &results[i]
		entry := map[string]interface{}{
			"rank":    r.Rank,
			"score":   r.RelevanceScore,
			"content": r.Content,
		}
		if r.File != nil {
			entry["file"] = r.File.Path
			entry["language"] = r.File.Language
			entry["start_line"] = r.File.StartLine
			entry["end_line"] = r.File.EndLine
		}
		if r.Element != nil {
			element := map[string]interface{}{
				"name":      r.Element.Name,
				"kind":      string(r.Element.Kind),
				"signature": r.Element.Signature,
			}
			if r.Element.ClassName != "" {
				element["class_name"] = r.Element.ClassName
			}
			if r.Element.Summary != "" {
				element["summary"] = r.Element.Summary
			}
			entry["element"] = element
		}
		out = append(out, entry)
	}
	return out
}

// formatElements flattens structural elements into JSON-friendly maps
func formatElements(elements []types.StructuralElement) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(elements))
	for i := range elements {
		el := &elements[i]
		entry := map[string]interface{}{
			"name":       el.Name,
			"kind":       string(el.Kind),
			"signature":  el.Signature,
			"start_line": el.StartLine,
			"end_line":   el.EndLine,
		}
		if el.ClassName != "" {
			entry["class_name"] = el.ClassName
		}
		if el.Summary != "" {
			entry["summary"] = el.Summary
		}
		if conventions := conventionNames(el); len(conventions) > 0 {
			entry["conventions"] = conventions
		}
		out = append(out, entry)
	}
	return out
}

// conventionNames lists the naming conventions an element matched
func conventionNames(el *types.StructuralElement) []string {
	var names []string
	if el.IsComponent {
		names = append(names, "component")
	}
	if el.IsHook {
		names = append(names, "hook")
	}
	if el.IsService {
		names = append(names, "service")
	}
	if el.IsController {
		names = append(names, "controller")
	}
	if el.IsStore {
		names = append(names, "store")
	}
	if el.IsHandler {
		names = append(names, "handler")
	}
	return names
}

// formatImports flattens import edges into JSON-friendly maps
func formatImports(imports []types.ImportEdge) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(imports))
	for _, imp := range imports {
		specs := make([]map[string]interface{}, 0, len(imp.Specifiers))
		for _, spec := range imp.Specifiers {
			entry := map[string]interface{}{
				"kind": string(spec.Kind),
			}
			if spec.ImportedName != "" {
				entry["imported"] = spec.ImportedName
			}
			if spec.LocalName != "" {
				entry["local"] = spec.LocalName
			}
			specs = append(specs, entry)
		}
		out = append(out, map[string]interface{}{
			"source":     imp.Source,
			"specifiers": specs,
			"start_line": imp.StartLine,
		})
	}
	return out
}

// formatExports flattens export edges into JSON-friendly maps
func formatExports(exports []types.ExportEdge) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(exports))
	for _, exp := range exports {
		entry := map[string]interface{}{
			"kind":       string(exp.Kind),
			"start_line": exp.StartLine,
		}
		if exp.Source != "" {
			entry["source"] = exp.Source
		}
		if len(exp.Items) > 0 {
			items := make([]map[string]interface{}, 0, len(exp.Items))
			for _, item := range exp.Items {
				itemEntry := map[string]interface{}{
					"public": item.PublicName,
				}
				if item.LocalName != "" && item.LocalName != item.PublicName {
					itemEntry["local"] = item.LocalName
				}
				items = append(items, itemEntry)
			}
			entry["items"] = items
		}
		out = append(out, entry)
	}
	return out
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateProjectPath checks that a path is an absolute, readable directory
// holding at least one JavaScript-family source file
func validateProjectPath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	// Look for at least one source file, honoring the same skip rules the
	// indexer applies so a directory of nothing but node_modules is rejected
	hasSource := false
	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if p != path && (name == "node_modules" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if sourceExtensions[filepath.Ext(p)] {
			hasSource = true
			return filepath.SkipAll
		}
		return nil
	})

	if !hasSource {
		return ErrNoSourceFiles
	}

	return nil
}

// validateSourceFile checks that a path names an absolute, readable
// JavaScript-family source file
func validateSourceFile(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrNotFile
	}

	if !sourceExtensions[filepath.Ext(path)] {
		return ErrUnsupportedExtension
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value.
// JSON numbers decode as float64, so both forms are accepted.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, dropping non-string entries
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validation helpers

var (
	ErrPathRequired         = errors.New("path is required")
	ErrPathNotAbsolute      = errors.New("path must be absolute")
	ErrPathNotFound         = errors.New("path does not exist")
	ErrPathNotReadable      = errors.New("path is not readable")
	ErrNotDirectory         = errors.New("path is not a directory")
	ErrNotFile              = errors.New("path is not a file")
	ErrNoSourceFiles        = errors.New("directory contains no JavaScript source files")
	ErrUnsupportedExtension = errors.New("file extension is not a JavaScript source extension")
)
