package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.RateLimit())
	r.POST("/api/proxy-ai", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/proxy-ai", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name          string
		ip            string
		wantStatus    int
		wantRemaining string
	}{
		{"first request", "10.0.0.1", http.StatusOK, "1"},
		{"second request", "10.0.0.1", http.StatusOK, "0"},
		{"bucket empty", "10.0.0.1", http.StatusTooManyRequests, "0"},
		{"other client unaffected", "10.0.0.2", http.StatusOK, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(tt.ip)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("X-RateLimit-Remaining"); got != tt.wantRemaining {
				t.Errorf("X-RateLimit-Remaining = %q, want %q", got, tt.wantRemaining)
			}
			if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
				t.Errorf("X-RateLimit-Limit = %q, want 2", got)
			}
		})
	}

	// Half an hour refills one of two tokens.
	now = now.Add(30 * time.Minute)
	if w := do("10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("invalid request ID %q", id)
		}
		if w.Body.String() != id {
			t.Errorf("context ID %q != header ID %q", w.Body.String(), id)
		}
	})

	t.Run("keeps a valid incoming ID", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, incoming)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get(HeaderRequestID); got != incoming {
			t.Errorf("request ID = %q, want %q", got, incoming)
		}
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get(HeaderRequestID); got == "<script>" {
			t.Error("garbage request ID was echoed")
		}
	})
}

func TestExtractionRecovery(t *testing.T) {
	r := gin.New()
	r.Use(ExtractionRecovery())
	r.POST("/api/extract-pdf-text", func(c *gin.Context) { panic("malformed xref") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/extract-pdf-text", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.ExtractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Text != ExtractionPlaceholder {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/api/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
