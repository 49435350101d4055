package rag

import (
	"regexp"
	"strings"

	"bankassist/internal/corpus"
)

var mentionPattern = regexp.MustCompile(`CUST[0-9]+`)

// FindCustomerIDs returns every customer identifier mentioned in query,
// upper-cased, in order of appearance. Matching ignores case and word
// boundaries, so "xcust12" mentions CUST12.
func FindCustomerIDs(query string) []string {
	return mentionPattern.FindAllString(strings.ToUpper(query), -1)
}

// MentionGuard reports whether query names a customer other than principal,
// returning the first such identifier.
func MentionGuard(principal, query string) (string, bool) {
	for _, id := range FindCustomerIDs(query) {
		if id != principal {
			return id, true
		}
	}
	return "", false
}

// FilterOwned keeps the records owned by principal, preserving order.
func FilterOwned(records []corpus.Record, principal string) []corpus.Record {
	owned := make([]corpus.Record, 0, len(records))
	for _, rec := range records {
		if rec.OwnerID == principal {
			owned = append(owned, rec)
		}
	}
	return owned
}
