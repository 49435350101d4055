package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"bankassist/internal/contextutil"
)

// SQLiteStore implements VectorStore on a SQLite database with an exact,
// brute-force cosine search. It suits corpora of a few thousand records and
// deployments without a Qdrant server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed store and ensures its schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("vectorstore: db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS vector_collections (
			name TEXT PRIMARY KEY,
			vector_size INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS vector_points (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding BLOB NOT NULL,
			payload TEXT NOT NULL,
			FOREIGN KEY (collection) REFERENCES vector_collections(name) ON DELETE CASCADE,
			UNIQUE (collection, id)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("vectorstore: failed to create schema: %w", err)
		}
	}
	return nil
}

// Recreate drops the collection's points and registers it with vectorSize.
func (s *SQLiteStore) Recreate(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vector_points WHERE collection = ?", collection); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vector_collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO vector_collections (name, vector_size) VALUES (?, ?)",
		collection, vectorSize,
	); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
	return nil
}

// Upsert inserts or replaces points. Every vector must match the collection's size.
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	size, err := s.vectorSize(ctx, collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vector_points (collection, id, embedding, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET embedding = excluded.embedding, payload = excluded.payload`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		if len(p.Vec) != size {
			return fmt.Errorf("point %s has size %d, expected %d", p.ID, len(p.Vec), size)
		}
		payload, err := json.Marshal(p.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode payload for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, encodeEmbedding(p.Vec), string(payload)); err != nil {
			return fmt.Errorf("failed to upsert point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit points: %w", err)
	}
	return nil
}

// Search scores every point in the collection and returns the top k.
// Equal scores keep insertion order.
func (s *SQLiteStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, embedding, payload FROM vector_points WHERE collection = ? ORDER BY seq",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []SearchResult
	for rows.Next() {
		var (
			id      string
			blob    []byte
			payload string
		)
		if err := rows.Scan(&id, &blob, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", id, err)
		}
		score, err := cosineSimilarity(query, vec)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", id, err)
		}

		meta := make(map[string]any)
		if err := json.Unmarshal([]byte(payload), &meta); err != nil {
			return nil, fmt.Errorf("point %s: failed to decode payload: %w", id, err)
		}

		results = append(results, SearchResult{PointID: id, Score: float32(score), Meta: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// CollectionExists checks if a collection exists.
func (s *SQLiteStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_collections WHERE name = ?", collection).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return n > 0, nil
}

// CollectionInfo returns the vector size and point count of a collection.
func (s *SQLiteStore) CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	size, err := s.vectorSize(ctx, collection)
	if err != nil {
		return nil, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_points WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count points: %w", err)
	}

	return &CollectionInfo{VectorSize: size, PointsCount: count, Status: "green"}, nil
}

func (s *SQLiteStore) vectorSize(ctx context.Context, collection string) (int, error) {
	var size int
	err := s.db.QueryRowContext(ctx, "SELECT vector_size FROM vector_collections WHERE name = ?", collection).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("collection %s does not exist", collection)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection: %w", err)
	}
	return size, nil
}

// encodeEmbedding stores a vector as little-endian IEEE 754 float32 values.
func encodeEmbedding(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}
