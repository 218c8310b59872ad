package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// ExtractionPlaceholder is the text returned when a PDF parser panics.
const ExtractionPlaceholder = "Text could not be extracted from this PDF. The file may be scanned, encrypted, or malformed."

// ExtractionRecovery turns a panic inside an extraction handler into a
// normal 200 reply carrying placeholder text, so one hostile PDF never
// takes the ladder down with a 500. Panics after the response started
// are only logged.
func ExtractionRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("💥 Extraction panic on %s (request %s): %v", c.FullPath(), GetRequestID(c), r)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusOK, models.ExtractResponse{Text: ExtractionPlaceholder})
			}
		}()
		c.Next()
	}
}
