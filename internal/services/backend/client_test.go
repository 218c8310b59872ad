package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// serve starts handler and returns a client plus the port it listens on.
func serve(t *testing.T, handler http.Handler) (*Client, int) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return NewWithHTTPClient(u.Hostname(), srv.Client()), port
}

func TestProbe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathTest, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.TestResponse{Message: models.LivenessMessage})
	})
	c, port := serve(t, mux)

	require.NoError(t, c.Probe(context.Background(), port, time.Second))
}

func TestProbe_WrongMarker(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "some other service"})
	}))

	err := c.Probe(context.Background(), port, time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected liveness message")
}

func TestProbe_Timeout(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))

	require.Error(t, c.Probe(context.Background(), port, 20*time.Millisecond))
}

func TestExtractPDF(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, PathExtractAlternate, r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		json.NewEncoder(w).Encode(models.ExtractResponse{Text: header.Filename + ":" + string(data)})
	}))

	text, err := c.ExtractPDF(context.Background(), port, PathExtractAlternate, Upload{Name: "a.pdf", Data: []byte("%PDF-1.4")}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "a.pdf:%PDF-1.4", text)
}

func TestExtractPDF_ServerError(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"PDF parsing error"}`))
	}))

	_, err := c.ExtractPDF(context.Background(), port, PathExtractPrimary, Upload{Name: "a.pdf"}, time.Second)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Contains(t, httpErr.Body, "PDF parsing error")
}

func TestProxyChat(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ProxyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://api.example.com/v1/chat/completions", req.Endpoint)
		require.Equal(t, "sk-test", req.APIKey)
		require.JSONEq(t, `{"model":"m"}`, string(req.Data))
		w.Write([]byte(`{"status":200,"choices":[]}`))
	}))

	body, err := c.ProxyChat(context.Background(), port, models.ProxyRequest{
		Endpoint: "https://api.example.com/v1/chat/completions",
		APIKey:   "sk-test",
		Data:     json.RawMessage(`{"model":"m"}`),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":200,"choices":[]}`, string(body))
}

func TestProxyChat_UpstreamFailure(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":401,"error":{"message":"bad key"}}`))
	}))

	_, err := c.ProxyChat(context.Background(), port, models.ProxyRequest{})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestStatus(t *testing.T) {
	c, port := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.StatusResponse{
			Status: "online",
			APIs:   map[string]models.APIStatus{"openai": {Configured: true, KeyPrefix: "sk-ab"}},
		})
	}))

	status, err := c.Status(context.Background(), port)
	require.NoError(t, err)
	require.Equal(t, "online", status.Status)
	require.True(t, status.APIs["openai"].Configured)
}
