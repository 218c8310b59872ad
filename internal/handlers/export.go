// export.go renders a draft as a downloadable file.
//
// POST /api/drafts/export?format=text|markdown|html|json
//
// The body is a Draft as returned by the client pipeline; nothing is stored
// server-side, so the handler is a pure transformation.
package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/render"
)

// ExportDraft renders the posted draft in the requested format.
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) ExportDraft(c *gin.Context) {
	format := c.DefaultQuery("format", render.FormatMarkdown)

	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid draft: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	out, err := render.Render(draft, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Go Pattern: We sanitize the name for use in the Content-Disposition
	// header. Titles from a model can contain anything.
	filename := render.SanitizeFilename(strings.TrimSuffix(draft.FileName, filepath.Ext(draft.FileName)))
	if filename == "" {
		filename = "draft"
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, filename, out.Extension))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}
