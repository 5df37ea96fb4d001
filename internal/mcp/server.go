package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/jscontext-mcp/internal/embedder"
	"github.com/dshills/jscontext-mcp/internal/indexer"
	"github.com/dshills/jscontext-mcp/internal/parser"
	"github.com/dshills/jscontext-mcp/internal/searcher"
	"github.com/dshills/jscontext-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "jscontext-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.jscontext/indices"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	parser   *parser.Parser
	indexer  *indexer.Indexer
	searcher *searcher.Searcher

	// Session state: the project most recently indexed through this server.
	// search_code and get_status fall back to it when no path argument is given.
	mu         sync.Mutex
	activeRoot string
	lastRunID  string
}

// NewServer creates a new MCP server instance with the embedder selected
// from the environment
func NewServer(dbPath string) (*Server, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return NewServerWithEmbedder(dbPath, emb)
}

// NewServerWithEmbedder creates a new MCP server instance on an explicit
// embedder. The CLI uses this when the config file names a provider; tests
// use it to supply a mock.
func NewServerWithEmbedder(dbPath string, emb embedder.Embedder) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".jscontext", "indices")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// A single database file holds every indexed project
	dbFile := filepath.Join(dbPath, "jscontext.db")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One embedder instance is shared by the indexer and the searcher so
	// embeddings cached during indexing are reused for query embedding
	idx := indexer.NewWithEmbedder(store, emb)
	srch := searcher.NewSearcher(store, emb)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		parser:   parser.New(),
		indexer:  idx,
		searcher: srch,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the server's storage handle. Serve closes it on exit;
// Close is for callers that construct a server but never reach Serve.
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Register index_codebase tool
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)

	// Register search_code tool
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)

	// Register get_file_structure tool
	s.mcp.AddTool(getFileStructureTool(), s.handleGetFileStructure)

	// Register get_status tool
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}

// rememberProject records the project a successful index run worked on
func (s *Server) rememberProject(rootPath, runID string) {
	s.mu.Lock()
	s.activeRoot = rootPath
	s.lastRunID = runID
	s.mu.Unlock()
}

// sessionState returns the active project root and last run ID, either of
// which may be empty before the first index run
func (s *Server) sessionState() (rootPath, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRoot, s.lastRunID
}
