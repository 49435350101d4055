package rag

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const sectionDelim = "==="

// ExtractSection returns the trimmed body of the first section in text
// headed "=== name ===". The name matches case-insensitively with any
// whitespace around it inside the markers. The body runs to the next "==="
// or the end of text.
func ExtractSection(text, name string) (string, bool) {
	if name == "" {
		return "", false
	}

	for i := 0; i < len(text); {
		off := strings.Index(text[i:], sectionDelim)
		if off < 0 {
			break
		}
		start := i + off

		if bodyStart, ok := matchSectionHeader(text, start+len(sectionDelim), name); ok {
			body := text[bodyStart:]
			if end := strings.Index(body, sectionDelim); end >= 0 {
				body = body[:end]
			}
			return strings.TrimSpace(body), true
		}

		// Markers may overlap ("====="), so resume one byte on.
		i = start + 1
	}

	return "", false
}

// matchSectionHeader matches `\s*name\s*===` at pos and returns the offset
// just past the closing marker.
func matchSectionHeader(text string, pos int, name string) (int, bool) {
	pos = skipSpace(text, pos)
	if len(text)-pos < len(name) || !strings.EqualFold(text[pos:pos+len(name)], name) {
		return 0, false
	}
	pos = skipSpace(text, pos+len(name))
	if !strings.HasPrefix(text[pos:], sectionDelim) {
		return 0, false
	}
	return pos + len(sectionDelim), true
}

func skipSpace(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}
