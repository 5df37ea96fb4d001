package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index a JavaScript codebase to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the JavaScript project root (the directory holding package.json, if any)",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *.test.js, *.spec.js and __tests__/ files",
					"default":     true,
				},
				"embeddings": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, generate vector embeddings for semantic search",
					"default":     true,
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index every file ignoring content hashes (full rebuild)",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search an indexed JavaScript codebase with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed project. Defaults to the project most recently indexed through this server",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"element_kinds": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to element kinds",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"class", "function", "method"},
					},
				},
				"class_name": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to the named class and its methods",
				},
				"file_pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern for file paths (e.g., 'src/components/**')",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getFileStructureTool returns the tool definition for get_file_structure
func getFileStructureTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file_structure",
		Description: "Parse one JavaScript file and return its classes, functions, methods, imports, and exports without indexing",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a JavaScript source file (.js, .jsx, .mjs, .cjs)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a JavaScript project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a project. Defaults to the project most recently indexed through this server",
				},
			},
		},
	}
}
