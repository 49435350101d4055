package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks bankassist/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// VectorStore defines the interface for vector storage operations.
// Search applies no filtering; callers enforce access rules on the results.
type VectorStore interface {
	// Recreate drops the collection if present and creates it empty.
	Recreate(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k points ordered by descending similarity.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// CollectionInfo returns size and status information for a collection.
	CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)
}
