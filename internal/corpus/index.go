package corpus

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks bankassist/internal/corpus Embedder

import (
	"context"
	"fmt"

	"bankassist/internal/contextutil"
	"bankassist/internal/vectorstore"
)

// DefaultK is the number of records returned by Search unless configured otherwise.
const DefaultK = 6

const embedBatchSize = 32

// Embedder turns texts into vectors. Identical input must yield identical vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the similarity index over all customer records. It knows nothing
// about ownership: Search returns the nearest records of any customer.
type Index struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	vectorSize int
	k          int
}

// NewIndex creates an index over collection in store. k <= 0 selects DefaultK.
func NewIndex(embedder Embedder, store vectorstore.VectorStore, collection string, vectorSize, k int) *Index {
	if k <= 0 {
		k = DefaultK
	}
	return &Index{
		embedder:   embedder,
		store:      store,
		collection: collection,
		vectorSize: vectorSize,
		k:          k,
	}
}

// K returns the number of records Search asks for.
func (i *Index) K() int {
	return i.k
}

// Collection returns the backing collection name.
func (i *Index) Collection() string {
	return i.collection
}

// Build replaces the whole collection with records. There is no incremental
// update: every build starts from an empty collection.
func (i *Index) Build(ctx context.Context, records []Record) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := i.store.Recreate(ctx, i.collection, i.vectorSize); err != nil {
		return 0, fmt.Errorf("failed to recreate collection: %w", err)
	}

	indexed := 0
	for start := 0; start < len(records); start += embedBatchSize {
		select {
		case <-ctx.Done():
			return indexed, ctx.Err()
		default:
		}

		end := start + embedBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for j, r := range batch {
			texts[j] = r.Text
		}

		vectors, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to embed records: %w", err)
		}
		if len(vectors) != len(batch) {
			return indexed, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}

		points := make([]vectorstore.Point, len(batch))
		for j, r := range batch {
			points[j] = vectorstore.Point{
				ID:   r.PointID(),
				Vec:  vectors[j],
				Meta: r.Meta(),
			}
		}

		if err := i.store.Upsert(ctx, i.collection, points); err != nil {
			return indexed, fmt.Errorf("failed to upsert records: %w", err)
		}
		indexed += len(batch)
		logger.DebugContext(ctx, "indexed record batch", "collection", i.collection, "batch", len(batch), "total", indexed)
	}

	return indexed, nil
}

// Search returns the K records most similar to query, best first.
func (i *Index) Search(ctx context.Context, query string) ([]Record, error) {
	embeddings, err := i.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	results, err := i.store.Search(ctx, i.collection, embeddings[0], i.k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	records := make([]Record, 0, len(results))
	for _, res := range results {
		rec, err := RecordFromMeta(res.Meta)
		if err != nil {
			return nil, fmt.Errorf("malformed point %s: %w", res.PointID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}
