// extract.go handles the three PDF text extraction endpoints.
//
// POST /api/extract-pdf-text         : primary parser
// POST /api/extract-pdf-text-alt     : alternate decoder, falls back to the primary parser
// POST /api/extract-pdf-text-external: simulated text built from the file name
//
// All three take a multipart upload with field "file" and answer {"text": ...}.
package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/docpost-api/internal/middleware"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
	pdfservice "github.com/Shimizu-Technology/docpost-api/internal/services/pdf"
)

// ExtractPrimary extracts text with the primary parser.
// POST /api/extract-pdf-text
func (h *Handler) ExtractPrimary(c *gin.Context) {
	h.extractWith(c, h.Primary)
}

// ExtractAlternate extracts text with the alternate decoder.
// POST /api/extract-pdf-text-alt
func (h *Handler) ExtractAlternate(c *gin.Context) {
	h.extractWith(c, h.Alternate)
}

// ExtractSimulated returns fabricated text derived from the file name only.
// The upload is still required so every extraction endpoint shares one contract.
// POST /api/extract-pdf-text-external
func (h *Handler) ExtractSimulated(c *gin.Context) {
	header, _, ok := h.readUpload(c)
	if !ok {
		return
	}
	log.Printf("🧪 Using simulated text extraction for %s", header.Filename)
	c.JSON(http.StatusOK, models.ExtractResponse{Text: h.Simulated.Text(header.Filename)})
}

func (h *Handler) extractWith(c *gin.Context, extractor pdfservice.Extractor) {
	header, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	// Tag each upload so log lines from concurrent requests can be told apart.
	uploadID := middleware.GetRequestID(c)
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	log.Printf("📄 [%s] %s extraction of %s (%d bytes)", short(uploadID), extractor.Name(), header.Filename, len(data))

	result, err := extractor.Extract(data)
	if err != nil {
		log.Printf("❌ [%s] PDF parsing error: %v", short(uploadID), err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "extraction_failed",
			Message: "PDF parsing error: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	log.Printf("✅ [%s] Parsed %d pages, %d words", short(uploadID), result.PageCount, result.WordCount)
	c.JSON(http.StatusOK, models.ExtractResponse{Text: pdfservice.TextOrPlaceholder(result)})
}

// readUpload pulls the "file" field out of the multipart body, writing a
// 400 reply and returning ok=false when it is missing or unreadable.
func (h *Handler) readUpload(c *gin.Context) (*multipart.FileHeader, []byte, bool) {
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: fmt.Sprintf("No file uploaded. Upload a file with the field name 'file'. Max size: %dMB.", h.MaxUploadBytes>>20),
			Code:    http.StatusBadRequest,
		})
		return nil, nil, false
	}
	defer file.Close()

	// Go Pattern: io.ReadAll reads the entire reader into a byte slice.
	// The PDF libraries need random access, so the upload lives in memory.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusBadRequest,
		})
		return nil, nil, false
	}
	return header, data, true
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
