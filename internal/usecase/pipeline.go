package usecase

import (
	"context"
	"log/slog"
	"strings"

	"AwardScanner/internal/aggregate"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/extract"
	"AwardScanner/internal/intel"
	"AwardScanner/internal/textnorm"
)

// noteUnavailable flags payloads produced without the probabilistic path.
const noteUnavailable = "llm unavailable"

// PipelineDeps wires the extraction components into the orchestration
// pipeline. Model may be nil when the completion capability could not be
// constructed.
type PipelineDeps struct {
	Model      *extract.ModelExtractor
	Fallback   *extract.PatternExtractor
	Aggregator *aggregate.Aggregator
	Intel      *intel.Builder
	Logger     *slog.Logger
}

// Pipeline implements the single-query extraction workflow. Its operations
// are total: no failure below escapes as an error, each page is isolated,
// and degraded runs are flagged in the payload instead.
type Pipeline struct {
	model      *extract.ModelExtractor
	fallback   *extract.PatternExtractor
	aggregator *aggregate.Aggregator
	intel      *intel.Builder
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		model:      deps.Model,
		fallback:   deps.Fallback,
		aggregator: deps.Aggregator,
		intel:      deps.Intel,
		logger:     deps.Logger,
	}
}

// Extract runs every page through the configured extraction path and folds
// the results into an AwardSnapshot. Pages with empty text are skipped; a
// page whose extraction panics contributes nothing but does not abort the
// rest.
func (p *Pipeline) Extract(ctx context.Context, pages []domain.PageRecord, query string) domain.AwardSnapshot {
	note := ""
	if p.model == nil {
		note = noteUnavailable
	}

	var contribs []aggregate.Contribution
	for _, page := range pages {
		text := textnorm.Clean(textnorm.StripHTML(page.Text))
		if strings.TrimSpace(text) == "" {
			continue
		}
		cleaned := domain.PageRecord{
			URL:   strings.TrimSpace(page.URL),
			Title: strings.TrimSpace(page.Title),
			Text:  text,
		}

		result, ok := p.extractOne(ctx, cleaned)
		if !ok {
			continue
		}
		contribs = append(contribs, aggregate.Contribution{Page: cleaned, Result: result})
	}

	snapshot := p.aggregator.Build(query, contribs, note)
	if p.logger != nil {
		p.logger.Info("extract done",
			"query", query,
			"pages", len(pages),
			"contributions", len(contribs),
			"top_winners", len(snapshot.Signals.TopWinners),
			"evidences", len(snapshot.Evidences),
			"degraded", note != "",
		)
	}
	return snapshot
}

// BuildCompetitorIntel produces the lightweight market summary from the raw
// pages, deterministic path only.
func (p *Pipeline) BuildCompetitorIntel(pages []domain.PageRecord, query string) domain.CompetitorIntel {
	out := p.intel.Build(pages, query)
	if p.logger != nil {
		p.logger.Info("competitor intel done",
			"query", query,
			"pages", len(pages),
			"competitors", len(out.TopCompetitors),
		)
	}
	return out
}

// extractOne isolates a single page: a panic inside either extraction path
// skips the page instead of failing the call.
func (p *Pipeline) extractOne(ctx context.Context, page domain.PageRecord) (result domain.ExtractionResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Warn("page extraction panicked, skipping page", "url", page.URL, "panic", r)
			}
			ok = false
		}
	}()

	if p.model != nil {
		return p.model.ExtractPage(ctx, page), true
	}
	return p.fallback.Extract(page.Text), true
}
