// Package pdf turns uploaded PDF bytes into plain text.
//
// Two independent parsers back the two real extraction endpoints:
// ledongthuc/pdf (primary) and rsc.io/pdf (alternate). Both are pure Go,
// so the server stays a single binary with no CGO.
package pdf

import (
	"strings"
)

// NoTextPlaceholder is returned to clients when a PDF yields no text.
const NoTextPlaceholder = "No text found in PDF"

// ExtractionResult holds the output from a PDF text extraction.
type ExtractionResult struct {
	Text      string // Extracted text content
	PageCount int    // Number of pages
	WordCount int    // Word count
}

// Extractor is one way of reading text out of a PDF.
//
// Go Pattern: Small interfaces. Handlers depend on this, not on a concrete
// parser, so the alternate endpoint can wrap the primary one and tests can
// swap in a parser that panics.
type Extractor interface {
	Name() string
	Extract(data []byte) (*ExtractionResult, error)
}

// ValidatePDF checks if the data looks like a valid PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// TextOrPlaceholder returns NoTextPlaceholder for an empty result.
func TextOrPlaceholder(r *ExtractionResult) string {
	if r == nil || strings.TrimSpace(r.Text) == "" {
		return NoTextPlaceholder
	}
	return r.Text
}

func newResult(text string, pages int) *ExtractionResult {
	text = strings.TrimSpace(text)
	return &ExtractionResult{
		Text:      text,
		PageCount: pages,
		WordCount: len(strings.Fields(text)),
	}
}
