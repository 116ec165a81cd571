package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/docsnip/internal/artifact"
	"github.com/sha1n/docsnip/internal/config"
	"github.com/sha1n/docsnip/internal/curate"
	"github.com/sha1n/docsnip/internal/markdown"
	mcputil "github.com/sha1n/docsnip/internal/mcp"
	"github.com/sha1n/docsnip/internal/pipeline"
	"github.com/sha1n/docsnip/internal/search"
	"github.com/spf13/pflag"
)

// ErrExtractionFailed is returned when a document could not be scanned or parsed
var ErrExtractionFailed = errors.New("extraction failed")

// ErrDrift is returned by check when the output root does not match the documents
var ErrDrift = errors.New("extracted snippets are out of date")

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(context.Context, *config.Settings, string) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO

	// Out receives reports. Defaults to stdout.
	Out io.Writer
	// LogOutput receives logs. Defaults to stderr.
	LogOutput io.Writer

	NewRunID func() string
	Now      func() time.Time
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
		Out:            os.Stdout,
		LogOutput:      os.Stderr,
		NewRunID:       uuid.NewString,
		Now:            time.Now,
	}
}

func (p RunParams) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

func (p RunParams) runID() string {
	if p.NewRunID == nil {
		return uuid.NewString()
	}
	return p.NewRunID()
}

func (p RunParams) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// prepare loads and validates settings and configures the default logger.
func prepare(params RunParams, flags *pflag.FlagSet, serving bool, command, version string) (*config.Settings, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs always go to stderr so stdout carries only reports and stdio MCP traffic
	logOutput := params.LogOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}
	slog.SetDefault(config.NewLogger(logOutput, settings.LogLevel))

	slog.Info("Starting docsnip", "command", command, "version", version)
	config.Log(settings, serving)
	return settings, nil
}

// newScanner builds the document scanner, excluding generated trees that
// live inside the input root.
func newScanner(settings *config.Settings) *markdown.Scanner {
	exclude := append([]string{}, settings.Exclude...)
	exclude = append(exclude, markdown.OutputExcludes(settings.InputRoot, settings.OutputRoot)...)
	filter := markdown.NewFileFilter(settings.Extensions, exclude...)
	return markdown.NewScanner(settings.InputRoot, filter, settings.MaxFileSize)
}

func pipelineOptions(settings *config.Settings) pipeline.Options {
	return pipeline.Options{Workers: settings.Workers, Strict: settings.StrictFences}
}

// withRunLock runs fn while holding the output root lock.
func withRunLock(ctx context.Context, settings *config.Settings, fn func() error) error {
	lock := pipeline.NewRunLock(settings.OutputRoot)
	if err := lock.Acquire(ctx, settings.LockTimeout); err != nil {
		return fmt.Errorf("failed to lock output root: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Error("Failed to release output lock", "error", err)
		}
	}()
	return fn()
}

// extract runs the pipeline into the output root and records the run in the
// manifest. The caller must hold the run lock.
func extract(ctx context.Context, settings *config.Settings, runID string, now time.Time) (*pipeline.Summary, error) {
	slog.Info("Extracting snippets", "run_id", runID)

	emitter := artifact.NewEmitter(settings.OutputRoot)
	summary, err := pipeline.New(newScanner(settings), emitter, pipelineOptions(settings)).Run(ctx)
	if err != nil {
		return nil, err
	}

	manifestPath := artifact.ManifestPath(settings.OutputRoot)
	manifest, err := artifact.LoadManifest(manifestPath)
	if err != nil {
		return summary, err
	}
	for _, name := range pipeline.UpdateManifest(manifest, summary, runID, now) {
		slog.Info("Dropped document from manifest", "document", name)
	}
	if err := manifest.Save(manifestPath); err != nil {
		return summary, err
	}

	slog.Info("Extraction complete", "run_id", runID, "documents", summary.Documents,
		"fences", summary.Fences, "artifacts", summary.Artifacts, "failures", len(summary.Failures))
	return summary, nil
}

// render runs the pipeline into memory and returns the expected artifacts.
func render(ctx context.Context, settings *config.Settings) (*pipeline.Summary, map[string][]byte, error) {
	collector := curate.NewCollector()
	summary, err := pipeline.New(newScanner(settings), collector, pipelineOptions(settings)).Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return summary, collector.Files(), nil
}

// RunExtract extracts all snippets and prints the run summary.
func RunExtract(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := prepare(params, flags, false, "extract", version)
	if err != nil {
		return err
	}

	var summary *pipeline.Summary
	err = withRunLock(ctx, settings, func() error {
		summary, err = extract(ctx, settings, params.runID(), params.now())
		return err
	})
	if summary != nil {
		WriteSummary(params.out(), summary)
	}
	if err != nil {
		return err
	}
	if summary.Failed() {
		return ErrExtractionFailed
	}
	return nil
}

// RunCheck compares the artifacts the documents would produce with the
// output root and prints every drift. It writes nothing.
func RunCheck(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := prepare(params, flags, false, "check", version)
	if err != nil {
		return err
	}

	summary, expected, err := render(ctx, settings)
	if err != nil {
		return err
	}

	drifts, err := curate.Check(settings.OutputRoot, expected)
	if err != nil {
		return err
	}

	out := params.out()
	WriteFailures(out, summary.Failures)
	WriteDrifts(out, drifts)

	if summary.Failed() {
		return ErrExtractionFailed
	}
	if len(drifts) > 0 {
		return fmt.Errorf("%w: %d artifact(s) differ", ErrDrift, len(drifts))
	}
	return nil
}

// RunArchive moves artifacts the documents no longer produce to the archive.
func RunArchive(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := prepare(params, flags, false, "archive", version)
	if err != nil {
		return err
	}

	return withRunLock(ctx, settings, func() error {
		summary, expected, err := render(ctx, settings)
		if err != nil {
			return err
		}
		// A document that failed to scan would look orphaned.
		if summary.Failed() {
			WriteFailures(params.out(), summary.Failures)
			return fmt.Errorf("%w: refusing to archive", ErrExtractionFailed)
		}

		orphans, err := curate.Orphans(settings.OutputRoot, expected)
		if err != nil {
			return err
		}
		moved, err := curate.Archive(settings.OutputRoot, orphans)
		WriteArchived(params.out(), moved)
		return err
	})
}

// RunServe indexes the extracted snippets and serves them over MCP
func RunServe(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := prepare(params, flags, true, "serve", version)
	if err != nil {
		return err
	}

	mcpServer, cleanup, err := params.CreateServer(ctx, settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if settings.Serve.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Serve.Host, "port", settings.Serve.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// CreateMCPServer builds the snippet index and the MCP server exposing it.
// When the index cannot be built the server starts without snippet tools.
func CreateMCPServer(ctx context.Context, settings *config.Settings, version string) (*mcp.Server, func(), error) {
	svc, err := search.NewService(settings.OutputRoot, settings.Serve.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create search service: %w", err)
	}

	initialize := func() error {
		if settings.Serve.ExtractOnStart {
			if _, err := extract(ctx, settings, uuid.NewString(), time.Now()); err != nil {
				slog.Error("Extraction on start failed, indexing existing snippets", "error", err)
			}
		}
		return svc.Initialize(ctx)
	}

	err = withRunLock(ctx, settings, initialize)
	if errors.Is(err, pipeline.ErrLockTimeout) {
		slog.Warn("Timeout waiting for output lock, indexing without it", "error", err)
		err = svc.Initialize(ctx)
	}

	var searchSvc *search.Service
	var cleanup func()
	if err != nil {
		slog.Error("Snippet index initialization failed", "error", err)
		if closeErr := svc.Close(); closeErr != nil {
			slog.Error("Failed to close search service", "error", closeErr)
		}
	} else {
		searchSvc = svc
		cleanup = func() {
			if err := svc.Close(); err != nil {
				slog.Error("Failed to close search service", "error", err)
			}
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:      "docsnip",
		Version:   version,
		SearchSvc: searchSvc,
	})

	return server, cleanup, nil
}
