package integration

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dshills/jscontext-mcp/internal/embedder"
)

// MockEmbedder produces deterministic vectors derived from the text hash,
// so identical chunks always embed identically and nothing leaves the
// process. A failure toggle lets tests exercise degraded search paths.
type MockEmbedder struct {
	dimension int

	mu    sync.Mutex
	calls int
	fail  bool
}

// NewMockEmbedder creates a mock embedder with the given dimension
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

// GenerateEmbedding derives a unit-length vector from the SHA-256 of the text
func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	m.mu.Lock()
	m.calls++
	fail := m.fail
	m.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("mock provider unavailable")
	}
	if req.Text == "" {
		return nil, embedder.ErrEmptyText
	}

	hash := sha256.Sum256([]byte(req.Text))
	vector := make([]float32, m.dimension)
	for i := range vector {
		word := binary.BigEndian.Uint32(hash[(i*4)%28 : (i*4)%28+4])
		vector[i] = (float32(word)/float32(1<<32))*2 - 1
	}

	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		inv := 1 / float32(sumSquares)
		for i := range vector {
			vector[i] *= inv
		}
	}

	return &embedder.Embedding{
		Vector:    vector,
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-v1",
		Hash:      embedder.ComputeHash(req.Text),
	}, nil
}

// GenerateBatch embeds each text in order
func (m *MockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	if len(req.Texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	embeddings := make([]*embedder.Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}

	return &embedder.BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-v1",
	}, nil
}

// Dimension returns the configured vector dimension
func (m *MockEmbedder) Dimension() int { return m.dimension }

// Provider returns the provider name
func (m *MockEmbedder) Provider() string { return "mock" }

// Model returns the model name
func (m *MockEmbedder) Model() string { return "mock-v1" }

// Close releases nothing
func (m *MockEmbedder) Close() error { return nil }

// SetFail makes subsequent embedding calls return an error
func (m *MockEmbedder) SetFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// CallCount reports how many single-text embeddings have been requested
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
