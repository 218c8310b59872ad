package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	rscpdf "rsc.io/pdf"
)

// lineTolerance is how far apart (in points) two text runs can sit
// vertically and still count as the same line.
const lineTolerance = 2.0

// Alternate extracts text with rsc.io/pdf by walking each page's content
// stream. When that fails, or panics on a malformed file, it retries with
// Fallback.
type Alternate struct {
	Fallback Extractor
}

// NewAlternate returns an Alternate that falls back to the primary parser.
func NewAlternate() *Alternate {
	return &Alternate{Fallback: Primary{}}
}

// Name identifies the parser in logs.
func (a *Alternate) Name() string { return "alternate" }

// Extract tries the content-stream decoder first, then Fallback.
func (a *Alternate) Extract(data []byte) (*ExtractionResult, error) {
	result, err := decodeContentStreams(data)
	if err == nil {
		return result, nil
	}
	if a.Fallback == nil {
		return nil, err
	}

	log.Printf("⚠️  Alternate PDF decoder failed (%v), falling back to %s parser", err, a.Fallback.Name())
	fallback, fbErr := a.Fallback.Extract(data)
	if fbErr != nil {
		return nil, fmt.Errorf("alternate decoder: %w; fallback also failed: %w", err, fbErr)
	}
	return fallback, nil
}

// decodeContentStreams never panics; rsc.io/pdf panics on some malformed
// files, so the panic is turned into an error.
func decodeContentStreams(data []byte) (result *ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()

	if !ValidatePDF(data) {
		return nil, errors.New("not a PDF file")
	}

	reader, err := rscpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := reader.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if text := pageText(page.Content().Text); text != "" {
			pages = append(pages, text)
		}
	}

	return newResult(strings.Join(pages, "\n"), pageCount), nil
}

// pageText joins text runs in content-stream order, starting a new line
// whenever the baseline moves and inserting a space between runs that
// aren't adjacent.
func pageText(runs []rscpdf.Text) string {
	var b strings.Builder
	var lastY, lastEnd float64
	for i, t := range runs {
		if t.S == "" {
			continue
		}
		switch {
		case i == 0 || b.Len() == 0:
		case math.Abs(t.Y-lastY) > lineTolerance:
			b.WriteByte('\n')
		case t.X-lastEnd > t.FontSize*0.2:
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		lastY = t.Y
		lastEnd = t.X + t.W
	}
	return strings.TrimSpace(b.String())
}
