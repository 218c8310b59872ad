// Package proxy forwards chat-completion requests from local clients to an
// upstream LLM API, adding the bearer token on the way out.
//
// The forwarder never treats an upstream error status as its own failure:
// whatever the upstream answered is relayed, with status and statusText
// folded into the JSON body so clients can see both at once.
package proxy

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// maxUpstreamBody caps how much of an upstream reply is buffered.
const maxUpstreamBody = 10 << 20

var (
	// ErrMissingAPIKey means neither the client nor the server has a key for the endpoint.
	ErrMissingAPIKey = errors.New("no API key for endpoint")
	// ErrHostNotAllowed means the endpoint's host is outside the allowlist.
	ErrHostNotAllowed = errors.New("endpoint host not allowed")
	// ErrInvalidEndpoint means the endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint URL")
)

// Options configures a Forwarder.
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	AllowedHosts       []string          // Empty = any host
	ServerKeys         map[string]string // Hostname → key used when the client sends none
}

// Forwarder relays JSON bodies to upstream endpoints.
type Forwarder struct {
	client       *http.Client
	allowedHosts []string
	serverKeys   map[string]string
}

// Result is what the upstream answered.
type Result struct {
	StatusCode int
	Body       map[string]any
}

// New creates a Forwarder.
func New(opts Options) *Forwarder {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		log.Println("⚠️  Proxy TLS verification disabled (PROXY_INSECURE_SKIP_VERIFY)")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local development
	}

	hosts := make([]string, 0, len(opts.AllowedHosts))
	for _, h := range opts.AllowedHosts {
		hosts = append(hosts, strings.ToLower(h))
	}

	return &Forwarder{
		client:       &http.Client{Timeout: opts.Timeout, Transport: transport},
		allowedHosts: hosts,
		serverKeys:   opts.ServerKeys,
	}
}

// NewWithHTTPClient is used by tests to point the forwarder at httptest servers.
func NewWithHTTPClient(hc *http.Client, opts Options) *Forwarder {
	f := New(opts)
	f.client = hc
	return f
}

// Forward POSTs data to endpoint and returns the upstream reply with
// "status" and "statusText" merged in. Only transport-level failures
// (DNS, refused connection, timeout) and request validation return an error.
func (f *Forwarder) Forward(ctx context.Context, endpoint, apiKey string, data json.RawMessage) (*Result, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	host := strings.ToLower(u.Hostname())
	if len(f.allowedHosts) > 0 && !slices.Contains(f.allowedHosts, host) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	if apiKey == "" {
		apiKey = f.serverKeys[host]
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	log.Printf("🔀 Proxying request to %s", endpoint)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}
	log.Printf("📨 Upstream %s answered %d in %s", host, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       mergeStatus(raw, resp.StatusCode),
	}, nil
}

// mergeStatus decodes the upstream body and adds status fields. Non-object
// bodies (HTML error pages, plain text) are kept under "raw".
func mergeStatus(raw []byte, status int) map[string]any {
	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			body = map[string]any{"raw": string(raw)}
		}
	}
	// A JSON null decodes into a nil map
	if body == nil {
		body = map[string]any{}
	}
	body["status"] = status
	body["statusText"] = http.StatusText(status)
	return body
}
