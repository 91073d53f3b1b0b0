package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"AwardScanner/internal/aggregate"
	"AwardScanner/internal/config"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/extract"
	"AwardScanner/internal/infrastructure/llm"
	"AwardScanner/internal/infrastructure/source"
	"AwardScanner/internal/infrastructure/storage"
	"AwardScanner/internal/intel"
	"AwardScanner/internal/logging"
	"AwardScanner/internal/ports"
	"AwardScanner/internal/usecase"
	"AwardScanner/internal/validate"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	source   ports.PageSource
	repo     ports.SnapshotRepository
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	norm := validate.NewNormalizer(cfg.Keywords)
	pattern := extract.NewPatternExtractor(cfg.Keywords, norm, baseLogger.With("component", "extract.pattern"))

	var model *extract.ModelExtractor
	if client := llm.NewChatGPTClient(cfg.ChatGPT, cfg.Extraction, baseLogger.With("component", "llm")); client != nil {
		model = extract.NewModelExtractor(client, pattern, norm, cfg.Extraction.ChunkLimit,
			baseLogger.With("component", "extract.model"))
	} else {
		baseLogger.Warn("completion capability unavailable, deterministic-only extraction")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Model:      model,
		Fallback:   pattern,
		Aggregator: aggregate.New(pattern, baseLogger.With("component", "aggregate")),
		Intel:      intel.NewBuilder(cfg.Intel, norm, baseLogger.With("component", "intel")),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	var repo ports.SnapshotRepository
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("snapshot persistence disabled", "error", err)
		} else {
			repo = storage.NewPostgresRepository(db)
		}
	}

	return &Application{
		cfg:      cfg,
		pipeline: pipeline,
		source:   source.NewFileSource(cfg.Input.PagesFile),
		repo:     repo,
		logger:   baseLogger,
	}
}

// Run executes a single query end to end: load pages, build both payloads,
// print them as JSON, and persist when a repository is configured.
func (a *Application) Run(ctx context.Context, query string) error {
	pages, err := a.source.Pages(ctx, query)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}

	snapshot := a.pipeline.Extract(ctx, pages, query)
	competitorIntel := a.pipeline.BuildCompetitorIntel(pages, query)

	out := struct {
		Snapshot domain.AwardSnapshot   `json:"snapshot"`
		Intel    domain.CompetitorIntel `json:"intel"`
	}{Snapshot: snapshot, Intel: competitorIntel}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode payloads: %w", err)
	}

	if a.repo != nil {
		if err := a.repo.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		if err := a.repo.SaveIntel(ctx, query, competitorIntel); err != nil {
			return fmt.Errorf("persist intel: %w", err)
		}
	}

	return nil
}
