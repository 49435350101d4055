package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"bankassist/internal/corpus"
)

// TokensPerRune is an approximation for token counting (4 chars per token).
const TokensPerRune = 4.0

// Stats summarises one ingestion run.
type Stats struct {
	FilesScanned   int `json:"files_scanned"`
	BlocksSeen     int `json:"blocks_seen"`
	BlocksDropped  int `json:"blocks_dropped"`
	RecordsIndexed int `json:"records_indexed"`
	// PerCustomer counts indexed records by owner.
	PerCustomer      map[string]int   `json:"per_customer"`
	RecordTokenStats RecordTokenStats `json:"record_token_stats"`
	SegmenterVersion string           `json:"segmenter_version"`
	// IndexVersion is a hash identifying the index build (segmenter + embedding model + K).
	IndexVersion string `json:"index_version"`
}

// RecordTokenStats contains statistics about approximate token counts per record.
type RecordTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// IndexVersion hashes everything that changes what the index contains for
// the same sources.
func IndexVersion(embeddingModelName string, k int) string {
	input := fmt.Sprintf("%s|%s|k=%d", corpus.SegmenterVersion, embeddingModelName, k)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// estimateTokens approximates the token count of text, never below one.
func estimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

// recordStats fills the per-customer and token statistics for records.
func recordStats(records []corpus.Record) (map[string]int, RecordTokenStats) {
	perCustomer := make(map[string]int)
	tokenCounts := make([]int, 0, len(records))
	for _, r := range records {
		perCustomer[r.OwnerID]++
		tokenCounts = append(tokenCounts, estimateTokens(r.Text))
	}
	return perCustomer, computeTokenStats(tokenCounts)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) RecordTokenStats {
	if len(tokenCounts) == 0 {
		return RecordTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return RecordTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
