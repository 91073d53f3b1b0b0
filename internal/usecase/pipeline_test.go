package usecase

import (
	"context"
	"testing"

	"AwardScanner/internal/aggregate"
	"AwardScanner/internal/config"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/extract"
	"AwardScanner/internal/intel"
	"AwardScanner/internal/validate"
)

func newDeterministicPipeline() *Pipeline {
	cfg := config.Default()
	norm := validate.NewNormalizer(cfg.Keywords)
	fallback := extract.NewPatternExtractor(cfg.Keywords, norm, nil)
	return NewPipeline(PipelineDeps{
		Fallback:   fallback,
		Aggregator: aggregate.New(fallback, nil),
		Intel:      intel.NewBuilder(cfg.Intel, norm, nil),
	})
}

func TestExtractDeterministicOnly(t *testing.T) {
	t.Parallel()

	p := newDeterministicPipeline()
	pages := []domain.PageRecord{
		{
			URL:   "https://example.com/1",
			Title: "낙찰 공고",
			Text:  "낙찰자: 한빛시스템 (주), 낙찰금액: 1,200,000,000원",
		},
		{
			URL:   "https://example.com/2",
			Title: "낙찰 공고 2",
			Text:  "낙찰자: 한빛시스템 (주)\n발주기관: 조달청",
		},
	}

	snap := p.Extract(context.Background(), pages, "관제 시스템")

	if snap.Note != "llm unavailable" {
		t.Fatalf("degraded run not flagged: %q", snap.Note)
	}
	if len(snap.Signals.TopWinners) == 0 || snap.Signals.TopWinners[0].Name != "한빛시스템" {
		t.Fatalf("deterministic winners missing: %+v", snap.Signals.TopWinners)
	}
	if snap.Signals.TopWinners[0].Wins != 2 {
		t.Fatalf("wins not accumulated across pages: %+v", snap.Signals.TopWinners[0])
	}
	if len(snap.Evidences) != 2 {
		t.Fatalf("expected evidence per page, got %d", len(snap.Evidences))
	}
}

func TestExtractStripsMarkupAndSkipsEmptyPages(t *testing.T) {
	t.Parallel()

	p := newDeterministicPipeline()
	pages := []domain.PageRecord{
		{
			URL:  "https://example.com/html",
			Text: "<html><body><script>alert(1)</script><p>낙찰자: 가나다전자</p></body></html>",
		},
		{Text: "   \n\t  "},
	}

	snap := p.Extract(context.Background(), pages, "q")
	if len(snap.Evidences) != 1 {
		t.Fatalf("blank page not skipped: %+v", snap.Evidences)
	}
	if len(snap.Signals.TopWinners) != 1 || snap.Signals.TopWinners[0].Name != "가나다전자" {
		t.Fatalf("markup not stripped before extraction: %+v", snap.Signals.TopWinners)
	}
}

func TestExtractEmptyPages(t *testing.T) {
	t.Parallel()

	p := newDeterministicPipeline()
	snap := p.Extract(context.Background(), nil, "빈 질의")

	if snap.Query != "빈 질의" {
		t.Fatalf("query dropped: %q", snap.Query)
	}
	if snap.Winners == nil || snap.Evidences == nil || snap.Signals.TopWinners == nil {
		t.Fatalf("payload lists must be present on empty input")
	}
	if len(snap.Signals.TopWinners) != 0 {
		t.Fatalf("empty input produced winners: %+v", snap.Signals.TopWinners)
	}
}

func TestBuildCompetitorIntelDelegates(t *testing.T) {
	t.Parallel()

	p := newDeterministicPipeline()
	pages := []domain.PageRecord{{
		Title: "낙찰 결과",
		Text:  "낙찰자: 한빛시스템\n낙찰금액: 500,000,000원",
	}}

	out := p.BuildCompetitorIntel(pages, "관제 시스템")
	if len(out.TopCompetitors) != 1 || out.TopCompetitors[0].Name != "한빛시스템" {
		t.Fatalf("intel delegation broken: %+v", out.TopCompetitors)
	}
	if out.MarketLandscape.Query != "관제 시스템" {
		t.Fatalf("query dropped: %+v", out.MarketLandscape)
	}
}
