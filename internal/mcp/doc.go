// Package mcp implements the Model Context Protocol (MCP) server for jscontext.
//
// The MCP server exposes four tools to AI coding assistants:
//   - index_codebase: Index a JavaScript project for structural and semantic search
//   - search_code: Search indexed code with natural language or keyword queries
//   - get_file_structure: Parse one file on demand and return its structure
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	jscontext serve
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout. Everything else (logs included) goes to stderr.
//
// # Tool: index_codebase
//
// Index a JavaScript codebase to make it searchable:
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "include_tests": true,
//	    "embeddings": true,
//	    "force": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "run_id": "7a0ce3f2-...",
//	  "project": "shop-frontend",
//	  "files_indexed": 247,
//	  "files_skipped": 89,
//	  "elements_extracted": 1432,
//	  "edges_extracted": 611,
//	  "chunks_created": 1688,
//	  "embeddings_generated": 1688,
//	  "duration_ms": 3520
//	}
//
// A successful run becomes the session's active project: later search_code
// and get_status calls may omit their path argument and operate on it.
//
// # Tool: search_code
//
// Search indexed code semantically or by keywords:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "shopping cart checkout logic",
//	    "limit": 10,
//	    "mode": "hybrid",
//	    "element_kinds": ["class", "method"],
//	    "class_name": "CartStore",
//	    "file_pattern": "src/stores/**"
//	  }
//	}
//
//	Response:
//	{
//	  "query": "shopping cart checkout logic",
//	  "mode": "hybrid",
//	  "total_results": 3,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "score": 0.0321,
//	      "file": "src/stores/cartStore.js",
//	      "start_line": 45,
//	      "end_line": 72,
//	      "element": {
//	        "name": "checkout",
//	        "kind": "method",
//	        "class_name": "CartStore",
//	        "signature": "async checkout(paymentInfo)"
//	      },
//	      "content": "async checkout(paymentInfo) { ... }"
//	    }
//	  ]
//	}
//
// # Tool: get_file_structure
//
// Parse a single file without touching the index. Useful for structure
// queries against files that change faster than the index:
//
//	Request:
//	{
//	  "name": "get_file_structure",
//	  "arguments": {
//	    "path": "/path/to/project/src/services/userService.js"
//	  }
//	}
//
//	Response:
//	{
//	  "file": "/path/to/project/src/services/userService.js",
//	  "elements": [
//	    {"name": "UserService", "kind": "class", "start_line": 4, "end_line": 38},
//	    {"name": "fetchUser", "kind": "method", "class_name": "UserService", ...}
//	  ],
//	  "imports": [
//	    {"source": "./api.js", "specifiers": [{"kind": "named", "imported": "get", "local": "get"}], "start_line": 1}
//	  ],
//	  "exports": [
//	    {"kind": "declaration", "items": [{"public": "UserService"}], "start_line": 4}
//	  ]
//	}
//
// # Tool: get_status
//
// Check indexing status. With no arguments it reports on the session's
// active project:
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "project": {
//	    "path": "/path/to/project",
//	    "name": "shop-frontend",
//	    "index_version": "1.0.0",
//	    "last_indexed_at": "2025-01-12T10:32:11Z"
//	  },
//	  "statistics": {
//	    "files_count": 247,
//	    "elements_count": 1432,
//	    "imports_count": 502,
//	    "exports_count": 311,
//	    "chunks_count": 1688,
//	    "embeddings_count": 1688
//	  },
//	  "health": {
//	    "database_accessible": true,
//	    "embeddings_available": true,
//	    "fts_indexes_built": true
//	  },
//	  "build": {"mode": "purego", "driver": "sqlite", "vector_extension": false}
//	}
//
// # MCP Client Configuration
//
// Configure in an MCP client's settings:
//
//	{
//	  "mcpServers": {
//	    "jscontext": {
//	      "command": "/usr/local/bin/jscontext",
//	      "args": ["serve"],
//	      "env": {
//	        "JINA_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32003,
//	    "message": "invalid project path",
//	    "data": {
//	      "param": "path",
//	      "reason": "path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Project not indexed
//   - -32002: Indexing already in progress
//   - -32003: Path missing, unreadable, or not a JavaScript project/file
//   - -32004: Embedding provider unavailable (keyword mode still works)
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("MCP server started")
package mcp
