package corpus

import (
	"regexp"
	"strings"
)

// SegmenterVersion identifies the segmentation rules. Bump it when the
// separator or owner rules change so index versions change with it.
const SegmenterVersion = "v1"

var (
	// A run of ten or more '=' separates customer blocks. Section markers
	// inside a block use three, so they never split a block.
	blockSeparator = regexp.MustCompile(`={10,}`)
	ownerLine      = regexp.MustCompile(`(?i)customer id:[ \t]*(cust[0-9]+)`)
)

// Segmentation is the outcome of segmenting one source document.
type Segmentation struct {
	Records []Record
	// Blocks counts every non-empty block seen, kept or not.
	Blocks int
	// Dropped counts blocks discarded for lacking an owner marker.
	Dropped int
}

// Segment splits a source document into customer records.
// Blocks without a "Customer ID: CUST<digits>" line are dropped; that is a
// data-quality gate, not an error.
func Segment(source, text string) Segmentation {
	var out Segmentation

	for i, raw := range blockSeparator.Split(text, -1) {
		block := strings.TrimSpace(raw)
		if block == "" {
			continue
		}
		out.Blocks++

		owner, ok := findOwner(block)
		if !ok {
			out.Dropped++
			continue
		}

		out.Records = append(out.Records, Record{
			Text:    block,
			OwnerID: owner,
			Source:  source,
			Block:   i,
		})
	}

	return out
}

// findOwner returns the first customer identifier declared in block,
// upper-cased.
func findOwner(block string) (string, bool) {
	m := ownerLine.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
