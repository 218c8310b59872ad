// Package extraction turns a local PDF into text by asking the docpost
// server, one endpoint at a time, until an endpoint answers.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Shimizu-Technology/docpost-api/internal/errors"
	"github.com/Shimizu-Technology/docpost-api/internal/fallback"
	"github.com/Shimizu-Technology/docpost-api/internal/services/backend"
)

// Default per-stage budgets.
const (
	DefaultPrimaryTimeout   = 10 * time.Second
	DefaultAlternateTimeout = 10 * time.Second
	DefaultSimulatedTimeout = 5 * time.Second
)

// File is a document handed to the pipeline.
type File struct {
	Name string
	Data []byte
}

// LoadFile reads a document from disk.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// PortResolver finds the server. *portresolver.Resolver satisfies it.
type PortResolver interface {
	Resolve(ctx context.Context) (int, error)
}

// Uploader posts a file to one extraction endpoint. *backend.Client satisfies it.
type Uploader interface {
	ExtractPDF(ctx context.Context, port int, path string, file backend.Upload, timeout time.Duration) (string, error)
}

// Stage is one extraction endpoint and its time budget.
type Stage struct {
	Name    string
	Path    string
	Timeout time.Duration
}

// DefaultStages is the primary → alternate → simulated ladder.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "primary", Path: backend.PathExtractPrimary, Timeout: DefaultPrimaryTimeout},
		{Name: "alternate", Path: backend.PathExtractAlternate, Timeout: DefaultAlternateTimeout},
		{Name: "simulated", Path: backend.PathExtractSimulated, Timeout: DefaultSimulatedTimeout},
	}
}

// Pipeline runs the extraction ladder.
type Pipeline struct {
	resolver PortResolver
	uploader Uploader
	stages   []Stage
	log      *slog.Logger
}

// New creates a Pipeline. A nil stages slice selects DefaultStages.
func New(resolver PortResolver, uploader Uploader, stages []Stage, logger *slog.Logger) *Pipeline {
	if stages == nil {
		stages = DefaultStages()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver: resolver,
		uploader: uploader,
		stages:   stages,
		log:      logger.With("component", "extraction"),
	}
}

// Extract returns the text of file. An empty string is a valid result.
// Any failure, including a failure to locate the server, is reported as
// EXTRACTION_FAILED.
func (p *Pipeline) Extract(ctx context.Context, file File) (string, error) {
	port, err := p.resolver.Resolve(ctx)
	if err != nil {
		p.log.Error("cannot extract without a server", "file", file.Name, "error", err)
		return "", apperrors.NewExtractionFailed(file.Name, err)
	}

	upload := backend.Upload{Name: file.Name, Data: file.Data}
	strategies := make([]fallback.Strategy[backend.Upload, string], 0, len(p.stages))
	for _, stage := range p.stages {
		strategies = append(strategies, p.strategy(port, stage))
	}

	text, attempts, err := fallback.FirstSuccess(ctx, upload, strategies...)
	if err != nil {
		p.log.Error("all extraction methods failed", "file", file.Name, "error", err)
		return "", apperrors.NewExtractionFailed(file.Name, err)
	}

	p.log.Info("extracted text", "file", file.Name, "chars", len([]rune(text)), "failed_stages", len(attempts))
	return text, nil
}

func (p *Pipeline) strategy(port int, stage Stage) fallback.Strategy[backend.Upload, string] {
	return fallback.Strategy[backend.Upload, string]{
		Name: stage.Name,
		Run: func(ctx context.Context, upload backend.Upload) (string, error) {
			p.log.Debug("trying extraction stage", "stage", stage.Name, "port", port)
			text, err := p.uploader.ExtractPDF(ctx, port, stage.Path, upload, stage.Timeout)
			if err != nil {
				p.log.Warn("extraction stage failed", "stage", stage.Name, "error", err)
				return "", err
			}
			return text, nil
		},
	}
}
