package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Primary extracts text with github.com/ledongthuc/pdf.
type Primary struct{}

// Name identifies the parser in logs.
func (Primary) Name() string { return "primary" }

// Extract reads every page and joins the plain text, one page per block.
//
// Go Pattern: The pdf library needs an io.ReaderAt for random access to the
// cross-reference table, and bytes.Reader gives us one over the upload.
func (Primary) Extract(data []byte) (*ExtractionResult, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := pdfReader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only pages have no text layer; keep going.
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return newResult(strings.Join(pages, "\n\n"), pageCount), nil
}
