package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/behole/scribble/internal/adapters/driven/ai"
	"github.com/behole/scribble/internal/adapters/driven/artifact"
	"github.com/behole/scribble/internal/adapters/driven/command"
	"github.com/behole/scribble/internal/adapters/driven/config/file"
	"github.com/behole/scribble/internal/adapters/driven/fetch"
	"github.com/behole/scribble/internal/adapters/driven/ocr/tesseract"
	"github.com/behole/scribble/internal/adapters/driven/storage/memory"
	"github.com/behole/scribble/internal/adapters/driven/storage/sqlite"
	"github.com/behole/scribble/internal/adapters/driving/cli"
	dashboard "github.com/behole/scribble/internal/adapters/driving/http"
	mcpserver "github.com/behole/scribble/internal/adapters/driving/mcp"
	"github.com/behole/scribble/internal/connectors/filesystem"
	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/services"
	"github.com/behole/scribble/internal/extractors"
	"github.com/behole/scribble/internal/extractors/pdf"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/prompts"
)

// build wires adapters and services for one command invocation.
func build(_ context.Context, opts cli.Options) (*cli.Services, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	file.LoadEnv(dir)

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("%v", err)
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	contentStore, schedulerStore, closeStore, err := openStores(dir, settings.DBPath, opts.Memory)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	promptStore, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		closeAll() //nolint:errcheck
		return nil, fmt.Errorf("opening prompts: %w", err)
	}
	loader := prompts.NewLoader(promptStore)

	llm, err := ai.NewLLMService(settings.LLM, ai.Options{
		VisionSystem: loader.Get(driven.PromptVisionSystem),
	})
	if err != nil {
		// Heuristic-only mode; ingestion still works without a provider.
		logger.Warn("%v", err)
		llm = nil
	}
	if llm != nil {
		closers = append(closers, llm.Close)
	}

	runner := command.New()
	registry := extractors.NewDefault(extractors.Deps{
		Settings: settings.Processing,
		OCR:      tesseract.New(runner),
		LLM:      llm,
		Fetcher:  fetch.New(fetch.Config{}),
		Renderers: []driven.PageRenderer{
			pdf.NewPopplerRenderer(runner),
			pdf.NewMuPDFRenderer(runner),
		},
		Prompts: loader,
	})

	outputDir := settings.OutputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(dir, outputDir)
	}

	enricher := services.NewEnrichmentService(llm, loader, settings.LLM)
	dispatcher := services.NewDispatchService(registry, enricher, contentStore)
	digests := services.NewDigestService(contentStore, llm, loader, artifact.NewWriter(outputDir), settings.LLM)
	library := services.NewLibraryService(contentStore)
	backlog := services.NewBacklogService(contentStore, enricher, settings.Processing.BacklogDelay)
	scheduler := services.NewScheduler(domain.SchedulerConfigFrom(settings.Schedule), schedulerStore, digests)

	mcpSrv, err := mcpserver.NewServer(&mcpserver.Ports{
		Library:    library,
		Digests:    digests,
		Dispatcher: dispatcher,
	})
	if err != nil {
		closeAll() //nolint:errcheck
		return nil, err
	}
	httpSrv, err := dashboard.NewServer(settings.Server.Addr, dashboard.Deps{
		Library: library,
		MCP:     mcpSrv.Handler(),
	})
	if err != nil {
		closeAll() //nolint:errcheck
		return nil, err
	}

	watcher := filesystem.New(settings.NotesFolder)
	closers = append(closers, watcher.Close)

	return &cli.Services{
		Dispatcher: dispatcher,
		Digests:    digests,
		Backlog:    backlog,
		Library:    library,
		Settings:   settingsSvc,
		Scheduler:  scheduler,
		Watcher:    services.NewDaemon(watcher, dispatcher, nil, nil),
		Daemon:     services.NewDaemon(watcher, dispatcher, scheduler, httpSrv),
		HTTP:       httpSrv,
		Close:      closeAll,
	}, nil
}

// openStores opens the SQLite database, or in-memory stores when memory is set.
func openStores(configDir, dbPath string, memoryOnly bool) (driven.ContentStore, driven.SchedulerStore, func() error, error) {
	if memoryOnly {
		logger.Info("using in-memory store; nothing will be saved")
		return memory.NewContentStore(), memory.NewSchedulerStore(), func() error { return nil }, nil
	}

	if dbPath == "" {
		dbPath = filepath.Join(configDir, "data", "scribble.db")
	}
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("store: %s", dbPath)
	return store.ContentStore(), store.SchedulerStore(), store.Close, nil
}
