// Package backend is the client side of the docpost server's HTTP API.
//
// The port resolver, the extraction pipeline and the generation providers
// all talk to the server through this one typed client, so request
// building, timeouts and error decoding live in one place.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Endpoint paths served by cmd/server.
const (
	PathTest               = "/api/test"
	PathStatus             = "/api/status"
	PathExtractPrimary     = "/api/extract-pdf-text"
	PathExtractAlternate   = "/api/extract-pdf-text-alt"
	PathExtractSimulated   = "/api/extract-pdf-text-external"
	PathProxyAI            = "/api/proxy-ai"
	PathTestProviderPrefix = "/api/test-"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 2048

// HTTPError is returned when the server answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Upload is an in-memory file handed to an extraction endpoint.
type Upload struct {
	Name string
	Data []byte
}

// Client calls the docpost server on a given local port.
type Client struct {
	host       string
	httpClient *http.Client
}

// New creates a client for servers on host (usually "localhost").
//
// Go Pattern: The http.Client itself carries no timeout here. Every call
// takes a context with its own deadline instead, because each pipeline
// stage has a different budget (2s probes, 10s extraction, 60s LLM calls).
func New(host string) *Client {
	if host == "" {
		host = "localhost"
	}
	return &Client{
		host:       host,
		httpClient: &http.Client{},
	}
}

// NewWithHTTPClient is used by tests to inject an httptest client.
func NewWithHTTPClient(host string, hc *http.Client) *Client {
	c := New(host)
	c.httpClient = hc
	return c
}

// BaseURL returns the server root for port.
func (c *Client) BaseURL(port int) string {
	return fmt.Sprintf("http://%s:%d", c.host, port)
}

// Probe checks that a docpost server answers the liveness endpoint on port.
func (c *Client) Probe(ctx context.Context, port int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp models.TestResponse
	if err := c.getJSON(ctx, c.BaseURL(port)+PathTest, &resp); err != nil {
		return err
	}
	if resp.Message != models.LivenessMessage {
		return fmt.Errorf("unexpected liveness message %q on port %d", resp.Message, port)
	}
	return nil
}

// Status fetches provider-availability flags from the server.
func (c *Client) Status(ctx context.Context, port int) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := c.getJSON(ctx, c.BaseURL(port)+PathStatus, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractPDF uploads file to one extraction endpoint and returns the text it produced.
// An empty string is a valid result.
func (c *Client) ExtractPDF(ctx context.Context, port int, path string, file Upload, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Go Pattern: multipart.Writer handles boundary generation and MIME
	// encoding, similar to FormData in JavaScript.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL(port)+path, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp models.ExtractResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ProxyChat sends a proxy request and returns the raw reply body.
// Non-2xx replies come back as *HTTPError.
func (c *Client) ProxyChat(ctx context.Context, port int, proxyReq models.ProxyRequest) ([]byte, error) {
	payload, err := json.Marshal(proxyReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL(port)+PathProxyAI, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}
	return body, nil
}

// TestProvider asks the server to run a one-shot completion against provider ("openai" or "deepseek").
func (c *Client) TestProvider(ctx context.Context, port int, provider, apiKey string) (*models.ProviderTestResponse, error) {
	payload, err := json.Marshal(models.ProviderTestRequest{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.BaseURL(port) + PathTestProviderPrefix + strings.ToLower(provider)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.ProviderTestResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
