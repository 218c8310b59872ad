package portresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Advertisement file names written by the server at startup.
const (
	PortInfoFile = "port-info.json"
	PortTextFile = "server-port.txt"
)

// DescriptorSource reads the port advertisement files the server publishes.
type DescriptorSource interface {
	PortInfo(ctx context.Context) (*models.PortInfo, error)
	PortText(ctx context.Context) (string, error)
}

// DirSource reads advertisement files from a local directory,
// typically the server's public dir on the same machine.
type DirSource struct {
	Dir string
}

// PortInfo decodes port-info.json from the directory.
func (s DirSource) PortInfo(_ context.Context) (*models.PortInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, PortInfoFile))
	if err != nil {
		return nil, err
	}
	return decodePortInfo(data)
}

// PortText reads server-port.txt from the directory.
func (s DirSource) PortText(_ context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, PortTextFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// URLSource fetches advertisement files from a static file server.
type URLSource struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// PortInfo fetches and decodes port-info.json.
func (s URLSource) PortInfo(ctx context.Context) (*models.PortInfo, error) {
	data, err := s.fetch(ctx, PortInfoFile)
	if err != nil {
		return nil, err
	}
	return decodePortInfo(data)
}

// PortText fetches server-port.txt.
func (s URLSource) PortText(ctx context.Context) (string, error) {
	data, err := s.fetch(ctx, PortTextFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s URLSource) fetch(ctx context.Context, name string) ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Cache-busting query so an intermediate cache never serves an old port.
	url := fmt.Sprintf("%s/%s?_t=%d", strings.TrimRight(s.BaseURL, "/"), name, time.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	hc := s.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", name, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<10))
}

func decodePortInfo(data []byte) (*models.PortInfo, error) {
	var info models.PortInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", PortInfoFile, err)
	}
	if info.Port <= 0 {
		return nil, fmt.Errorf("invalid %s: missing port", PortInfoFile)
	}
	return &info, nil
}

// parsePort validates a port number read from text.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
