// providers.go exposes one-shot connectivity checks for each LLM provider.
//
// POST /api/test-openai
// POST /api/test-deepseek
package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/llmcheck"
)

// TestProvider returns a handler bound to one provider name.
//
// Go Pattern: A function that returns a gin.HandlerFunc (a closure) lets
// one implementation serve several routes with different parameters.
func (h *Handler) TestProvider(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ProviderTestRequest
		// An empty body is fine: the server key is used.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body: " + err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}

		resp, err := h.Checker.Check(c.Request.Context(), provider, req.APIKey)
		if err != nil {
			status := http.StatusBadGateway
			code := "provider_test_failed"
			if errors.Is(err, llmcheck.ErrNoAPIKey) {
				status, code = http.StatusBadRequest, "missing_api_key"
			}
			log.Printf("❌ %s connectivity test failed: %v", provider, err)
			c.JSON(status, models.ErrorResponse{
				Error:   code,
				Message: err.Error(),
				Code:    status,
			})
			return
		}

		log.Printf("✅ %s connectivity test passed (%d tokens)", provider, resp.TotalTokens)
		c.JSON(http.StatusOK, resp)
	}
}
