package rag

import "strings"

var policyKeywords = []string{"apply", "eligibility", "eligible"}

// PolicyAnswer returns the institution-wide policy text when query asks
// about applying or eligibility.
func PolicyAnswer(query string) (string, bool) {
	if containsAny(strings.ToLower(query), policyKeywords) {
		return PolicyMessage, true
	}
	return "", false
}
