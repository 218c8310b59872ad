// cors.go configures Cross-Origin Resource Sharing (CORS).
//
// The document uploader UI is served from a different port than the API,
// and the server may even move to a random port at startup, so without
// CORS headers browsers would block every call.
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns configured CORS middleware. An empty allowedOrigins list
// allows any origin, which is what local tooling needs.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", HeaderRequestID, "Content-Length"},
		MaxAge:        12 * time.Hour, // Cache preflight responses
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
