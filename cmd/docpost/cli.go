package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	apperrors "github.com/Shimizu-Technology/docpost-api/internal/errors"
	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/render"
	"github.com/Shimizu-Technology/docpost-api/internal/services/extraction"
	"github.com/Shimizu-Technology/docpost-api/internal/services/watcher"
	"github.com/Shimizu-Technology/docpost-api/internal/services/worker"
)

// watchQueueSize bounds how many dropped files may wait for the worker.
const watchQueueSize = 100

// newCLIApp creates the CLI application with all commands.
// deps may be nil when only --help or --version is requested.
func newCLIApp(deps *appDeps) *cli.App {
	app := &cli.App{
		Name:    "docpost",
		Usage:   "Draft social media posts from PDF documents",
		Version: Version,
		Commands: []*cli.Command{
			generateCmd(deps),
			watchCmd(deps),
			statusCmd(deps),
			testProviderCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: " + strings.Join(render.Formats, "|")},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write drafts into this directory instead of stdout"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide provider progress"},
	}
}

// generateCmd creates the generate command.
func generateCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Draft a post for each PDF, one file at a time",
		ArgsUsage: "<file.pdf> [file.pdf...]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(apperrors.NewInvalidRequest("at least one PDF path is required"))
			}
			opts, err := deps.outputOptions(c)
			if err != nil {
				return outputError(err)
			}

			failed := 0
			for _, path := range c.Args().Slice() {
				if err := deps.draftFile(c.Context, path, opts); err != nil {
					failed++
					deps.reportError(path, err)
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, c.NArg()), 1)
			}
			return nil
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Draft a post for every PDF dropped into a directory",
		ArgsUsage: "<dir>",
		Flags: append(outputFlags(),
			&cli.BoolFlag{Name: "existing", Usage: "Also draft PDFs already in the directory"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(apperrors.NewInvalidRequest("exactly one directory is required"))
			}
			opts, err := deps.outputOptions(c)
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return deps.watch(ctx, c.Args().First(), c.Bool("existing"), opts)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Find the server and show which providers it holds keys for",
		Action: func(c *cli.Context) error {
			port, err := deps.resolver.Resolve(c.Context)
			if err != nil {
				return outputError(err)
			}
			status, err := deps.server.Status(c.Context, port)
			if err != nil {
				return outputError(apperrors.NewInternal(err))
			}
			return deps.outputJSON(statusOutput{
				Port:           port,
				Server:         status,
				RemainingCalls: deps.generator.RemainingCalls(),
			})
		},
	}
}

type statusOutput struct {
	Port           int                    `json:"port"`
	Server         *models.StatusResponse `json:"server"`
	RemainingCalls int                    `json:"remainingCalls"`
}

// testProviderCmd creates the test-provider command.
func testProviderCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "test-provider",
		Usage:     "Send a greeting to a provider through the server",
		ArgsUsage: "<openai|deepseek>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-key", Usage: "Key to test (defaults to the configured key, then the server's)"},
		},
		Action: func(c *cli.Context) error {
			provider := strings.ToLower(c.Args().First())
			apiKey := c.String("api-key")
			switch provider {
			case "openai":
				if apiKey == "" {
					apiKey = deps.cfg.Providers.OpenAI.APIKey
				}
			case "deepseek":
				if apiKey == "" {
					apiKey = deps.cfg.Providers.DeepSeek.APIKey
				}
			default:
				return outputError(apperrors.NewInvalidRequest("provider must be openai or deepseek"))
			}

			port, err := deps.resolver.Resolve(c.Context)
			if err != nil {
				return outputError(err)
			}
			resp, err := deps.server.TestProvider(c.Context, port, provider, apiKey)
			if err != nil {
				return outputError(apperrors.NewProviderCallFailed(provider, err))
			}
			return deps.outputJSON(resp)
		},
	}
}

// outputOptions controls how a draft is written.
type outputOptions struct {
	format string
	dir    string
	quiet  bool
}

func (d *appDeps) outputOptions(c *cli.Context) (outputOptions, error) {
	opts := outputOptions{
		format: d.cfg.Output.Format,
		dir:    d.cfg.Output.Dir,
		quiet:  c.Bool("quiet"),
	}
	if c.IsSet("format") {
		opts.format = c.String("format")
	}
	if c.IsSet("out") {
		opts.dir = c.String("out")
	}
	if _, err := render.Render(models.Draft{}, opts.format); err != nil {
		return opts, apperrors.NewInvalidRequest(err.Error())
	}
	if opts.dir != "" {
		if err := os.MkdirAll(opts.dir, 0o755); err != nil {
			return opts, apperrors.NewInternal(err)
		}
	}
	return opts, nil
}

// draftFile runs one document through extraction, generation and rendering.
// Only extraction can fail; generation always yields a draft.
func (d *appDeps) draftFile(ctx context.Context, path string, opts outputOptions) error {
	file, err := extraction.LoadFile(path)
	if err != nil {
		return apperrors.NewInvalidRequest(err.Error())
	}

	text, err := d.extractor.Extract(ctx, file)
	if err != nil {
		return err
	}

	onStatus := func(provider string, phase models.Phase) {
		if !opts.quiet {
			fmt.Fprintf(d.stderr, "  %s %s: %s\n", phaseIcon(phase), provider, phase)
		}
	}
	draft := d.generator.Generate(ctx, text, file.Name, onStatus)

	out, err := render.Render(draft, opts.format)
	if err != nil {
		return apperrors.NewInternal(err)
	}
	return d.write(file.Name, out, opts)
}

func (d *appDeps) write(fileName string, out *render.Output, opts outputOptions) error {
	if opts.dir == "" {
		_, err := d.stdout.Write(out.Body)
		return err
	}
	stem := render.SanitizeFilename(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	if stem == "" {
		stem = "draft"
	}
	target := filepath.Join(opts.dir, stem+out.Extension)
	if err := os.WriteFile(target, out.Body, 0o644); err != nil {
		return apperrors.NewInternal(err)
	}
	fmt.Fprintf(d.stderr, "📝 %s → %s\n", fileName, target)
	return nil
}

// watch feeds settled files from dir into a single-worker queue until ctx ends.
func (d *appDeps) watch(ctx context.Context, dir string, existing bool, opts outputOptions) error {
	pool := worker.NewPool(ctx, 1, watchQueueSize, func(ctx context.Context, job worker.Job) error {
		if err := d.draftFile(ctx, job.Path, opts); err != nil {
			d.reportError(job.Path, err)
			return err
		}
		return nil
	}, d.log)
	pool.Start()
	defer pool.Stop()

	w := watcher.New(dir, watcher.Options{IncludeExisting: existing, Logger: d.log})
	err := w.Run(ctx, func(path string) {
		if err := pool.Submit(worker.NewJob(path)); err != nil {
			d.reportError(path, err)
		}
	})
	if err != nil {
		return outputError(apperrors.NewInvalidRequest(err.Error()))
	}
	return nil
}

// reportError prints a failure and, for errors a user can act on, the fix.
func (d *appDeps) reportError(path string, err error) {
	fmt.Fprintf(d.stderr, "❌ %s: %v\n", path, err)
	if de, ok := apperrors.As(err); ok {
		if remedy := de.Remedy(); remedy != "" {
			fmt.Fprintf(d.stderr, "   %s\n", remedy)
		}
	}
}

func phaseIcon(phase models.Phase) string {
	switch phase {
	case models.PhaseSuccess, models.PhaseRetrieved:
		return "✅"
	case models.PhaseFailed:
		return "❌"
	case models.PhaseFallback:
		return "⚠️"
	default:
		return "⏳"
	}
}

// outputJSON writes v as indented JSON to stdout.
func (d *appDeps) outputJSON(v any) error {
	return writeJSON(d.stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if de, ok := apperrors.As(err); ok {
		msg := fmt.Sprintf("[%s] %s", de.Code, de.Message)
		if remedy := de.Remedy(); remedy != "" {
			msg += "\n" + remedy
		}
		return cli.Exit(msg, 1)
	}
	return cli.Exit(err.Error(), 1)
}
