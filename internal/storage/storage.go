package storage

import (
	"context"
	"time"

	"github.com/dshills/jscontext-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying indexed code data
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	GetFileByHash(ctx context.Context, contentHash [32]byte) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Element operations
	UpsertElement(ctx context.Context, element *Element) error
	GetElement(ctx context.Context, elementID int64) (*Element, error)
	ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error)
	DeleteElementsByFile(ctx context.Context, fileID int64) error
	SearchElements(ctx context.Context, query string, limit int) ([]*Element, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, chunkID int64) error
	DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (deletedCount int, err error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error

	// Search operations
	SearchVector(ctx context.Context, projectID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)
	RecordSearchQuery(ctx context.Context, record *SearchQuery) error

	// Import operations
	UpsertImport(ctx context.Context, imp *Import) error
	ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error)
	DeleteImportsByFile(ctx context.Context, fileID int64) error

	// Export operations
	UpsertExport(ctx context.Context, exp *Export) error
	ListExportsByFile(ctx context.Context, fileID int64) ([]*Export, error)
	DeleteExportsByFile(ctx context.Context, fileID int64) error

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an indexed JavaScript codebase
type Project struct {
	ID            int64
	RootPath      string
	Name          string // From package.json when present, else directory name
	TotalFiles    int
	TotalChunks   int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked JavaScript-family source file
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	Language      string // javascript or jsx
	ContentHash   [32]byte
	SizeBytes     int64
	LineCount     int
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Element represents a structural declaration recovered from a source file
type Element struct {
	ID          int64
	FileID      int64
	Name        string
	Kind        string
	ClassName   string // Empty for classes and top-level functions
	Signature   string
	Summary     string
	Snippet     string
	StartLine   int
	EndLine     int
	StartOffset int
	EndOffset   int

	IsComponent  bool
	IsHook       bool
	IsService    bool
	IsController bool
	IsStore      bool
	IsHandler    bool

	CreatedAt time.Time
}

// Chunk represents a code section for embedding
type Chunk struct {
	ID            int64
	FileID        int64
	ElementID     *int64 // Nullable - the module-edges chunk has no element
	Content       string
	ContentHash   [32]byte
	TokenCount    int
	StartLine     int
	EndLine       int
	ContextBefore string
	ContextAfter  string
	ChunkType     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array, little-endian
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Import represents one import statement decomposed into source and specifiers
type Import struct {
	ID         int64
	FileID     int64
	Source     string // Module path, e.g. "./utils" or "lodash"
	Raw        string
	Specifiers []types.ImportSpecifier // Stored as JSON
	StartLine  int
	EndLine    int
	CreatedAt  time.Time
}

// Export represents one export statement decomposed into kind and items
type Export struct {
	ID        int64
	FileID    int64
	Kind      string
	Source    string // Set only for re-export forms
	Raw       string
	Items     []types.ExportItem // Stored as JSON
	StartLine int
	EndLine   int
	CreatedAt time.Time
}

// SearchQuery is one row of the search analytics log
type SearchQuery struct {
	ID          int64
	QueryID     string // UUID assigned per search call
	QueryText   string
	Mode        string
	ResultCount int
	DurationMS  int64
	CreatedAt   time.Time
}

// SearchFilters contains filters for narrowing search results
type SearchFilters struct {
	ElementKinds []string // Filter by element kind (class, function, method)
	ClassNames   []string // Restrict to named classes and their methods
	FilePattern  string   // Glob pattern for file paths
	MinRelevance float64  // Minimum relevance score
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project         *Project
	FilesCount      int
	ElementsCount   int
	ImportsCount    int
	ExportsCount    int
	ChunksCount     int
	EmbeddingsCount int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexesBuilt     bool
}

// ToTypesElement converts a storage Element to types.StructuralElement
func (e *Element) ToTypesElement() types.StructuralElement {
	return types.StructuralElement{
		Name:         e.Name,
		Kind:         types.ElementKind(e.Kind),
		ClassName:    e.ClassName,
		Signature:    e.Signature,
		Summary:      e.Summary,
		Snippet:      e.Snippet,
		StartLine:    e.StartLine,
		EndLine:      e.EndLine,
		StartOffset:  e.StartOffset,
		EndOffset:    e.EndOffset,
		IsComponent:  e.IsComponent,
		IsHook:       e.IsHook,
		IsService:    e.IsService,
		IsController: e.IsController,
		IsStore:      e.IsStore,
		IsHandler:    e.IsHandler,
	}
}

// FromTypesElement converts types.StructuralElement to a storage Element
func FromTypesElement(el types.StructuralElement, fileID int64) *Element {
	return &Element{
		FileID:       fileID,
		Name:         el.Name,
		Kind:         string(el.Kind),
		ClassName:    el.ClassName,
		Signature:    el.Signature,
		Summary:      el.Summary,
		Snippet:      el.Snippet,
		StartLine:    el.StartLine,
		EndLine:      el.EndLine,
		StartOffset:  el.StartOffset,
		EndOffset:    el.EndOffset,
		IsComponent:  el.IsComponent,
		IsHook:       el.IsHook,
		IsService:    el.IsService,
		IsController: el.IsController,
		IsStore:      el.IsStore,
		IsHandler:    el.IsHandler,
	}
}

// FromTypesImport converts types.ImportEdge to a storage Import
func FromTypesImport(edge types.ImportEdge, fileID int64) *Import {
	return &Import{
		FileID:     fileID,
		Source:     edge.Source,
		Raw:        edge.Raw,
		Specifiers: edge.Specifiers,
		StartLine:  edge.StartLine,
		EndLine:    edge.EndLine,
	}
}

// ToTypesImport converts a storage Import to types.ImportEdge
func (i *Import) ToTypesImport() types.ImportEdge {
	return types.ImportEdge{
		Raw:        i.Raw,
		Source:     i.Source,
		Specifiers: i.Specifiers,
		StartLine:  i.StartLine,
		EndLine:    i.EndLine,
	}
}

// FromTypesExport converts types.ExportEdge to a storage Export
func FromTypesExport(edge types.ExportEdge, fileID int64) *Export {
	return &Export{
		FileID:    fileID,
		Kind:      string(edge.Kind),
		Source:    edge.Source,
		Raw:       edge.Raw,
		Items:     edge.Items,
		StartLine: edge.StartLine,
		EndLine:   edge.EndLine,
	}
}

// ToTypesExport converts a storage Export to types.ExportEdge
func (e *Export) ToTypesExport() types.ExportEdge {
	return types.ExportEdge{
		Raw:       e.Raw,
		Kind:      types.ExportKind(e.Kind),
		Items:     e.Items,
		Source:    e.Source,
		StartLine: e.StartLine,
		EndLine:   e.EndLine,
	}
}
