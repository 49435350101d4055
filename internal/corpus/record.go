// Package corpus holds the customer-owned records that back retrieval:
// segmentation of raw source documents and the similarity index built over them.
package corpus

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Payload keys stored alongside every indexed vector.
const (
	MetaText       = "text"
	MetaCustomerID = "customer_id"
	MetaSource     = "source"
	MetaBlockIndex = "block_index"
)

var customerIDPattern = regexp.MustCompile(`^CUST[0-9]+$`)

// pointNamespace scopes deterministic point IDs to this corpus.
var pointNamespace = uuid.MustParse("5b0d6c1e-8f3a-4c4e-9d55-3c3a1f6f7e21")

// Record is a single customer-owned block of a source document.
// Records are immutable once produced by the segmenter.
type Record struct {
	// Text is the trimmed block content.
	Text string
	// OwnerID is the upper-cased customer identifier (CUST<digits>).
	OwnerID string
	// Source is the name of the document the block came from.
	Source string
	// Block is the position of the block within Source, counting dropped blocks.
	Block int
}

// PointID returns a stable identifier for the record derived from its
// source position, so rebuilding from identical sources yields identical IDs.
func (r Record) PointID() string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s#%d", r.Source, r.Block))).String()
}

// Meta returns the payload persisted with the record's vector.
func (r Record) Meta() map[string]any {
	return map[string]any{
		MetaText:       r.Text,
		MetaCustomerID: r.OwnerID,
		MetaSource:     r.Source,
		MetaBlockIndex: r.Block,
	}
}

// ValidCustomerID reports whether id is a canonical customer identifier.
func ValidCustomerID(id string) bool {
	return customerIDPattern.MatchString(id)
}

// RecordFromMeta rebuilds a record from a stored payload.
func RecordFromMeta(meta map[string]any) (Record, error) {
	text, _ := meta[MetaText].(string)
	if text == "" {
		return Record{}, fmt.Errorf("payload missing %s", MetaText)
	}
	owner, _ := meta[MetaCustomerID].(string)
	if owner == "" {
		return Record{}, fmt.Errorf("payload missing %s", MetaCustomerID)
	}
	source, _ := meta[MetaSource].(string)

	var block int
	switch v := meta[MetaBlockIndex].(type) {
	case int:
		block = v
	case int64:
		block = int(v)
	case float64:
		block = int(v)
	}

	return Record{Text: text, OwnerID: owner, Source: source, Block: block}, nil
}
