// proxy.go relays chat-completion calls so API keys and CORS stay server-side.
//
// POST /api/proxy-ai {endpoint, apiKey, data}
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/proxy"
)

// ProxyAI forwards data to endpoint and answers with the upstream status.
// POST /api/proxy-ai
func (h *Handler) ProxyAI(c *gin.Context) {
	var req models.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// The client key is optional when the server holds one for the endpoint,
	// so only endpoint and data are checked up front.
	data := strings.TrimSpace(string(req.Data))
	if req.Endpoint == "" || data == "" || data == "null" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing_parameters",
			Message: "Missing required parameters",
			Code:    http.StatusBadRequest,
			Details: map[string]any{
				"hasEndpoint": req.Endpoint != "",
				"hasApiKey":   req.APIKey != "",
				"hasData":     data != "" && data != "null",
			},
		})
		return
	}

	result, err := h.Forwarder.Forward(c.Request.Context(), req.Endpoint, req.APIKey, req.Data)
	if err != nil {
		status, code := proxyErrorStatus(err)
		log.Printf("❌ Proxy error: %v", err)
		c.JSON(status, models.ErrorResponse{
			Error:   code,
			Message: err.Error(),
			Code:    status,
		})
		return
	}

	c.JSON(result.StatusCode, result.Body)
}

func proxyErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, proxy.ErrInvalidEndpoint):
		return http.StatusBadRequest, "invalid_endpoint"
	case errors.Is(err, proxy.ErrMissingAPIKey):
		return http.StatusBadRequest, "missing_api_key"
	case errors.Is(err, proxy.ErrHostNotAllowed):
		return http.StatusForbidden, "host_not_allowed"
	default:
		return http.StatusInternalServerError, "proxy_error"
	}
}
