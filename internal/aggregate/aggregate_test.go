package aggregate

import (
	"fmt"
	"testing"

	"AwardScanner/internal/config"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/extract"
	"AwardScanner/internal/validate"
)

func newTestAggregator() *Aggregator {
	kw := config.Default().Keywords
	return New(extract.NewPatternExtractor(kw, validate.NewNormalizer(kw), nil), nil)
}

func contribution(winners []domain.Winner, reasons []string, agency, text string) Contribution {
	return Contribution{
		Page:   domain.PageRecord{URL: "https://example.com", Title: "공고", Text: text},
		Result: domain.ExtractionResult{Winners: winners, Reasons: reasons, Agency: agency},
	}
}

func TestBuildRanksRepeatWinnerFirst(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	contribs := []Contribution{
		contribution([]domain.Winner{{Name: "한빛시스템"}}, nil, "조달청", "본문1"),
		contribution([]domain.Winner{{Name: "가나다전자"}}, nil, "조달청", "본문2"),
		contribution([]domain.Winner{{Name: "한빛시스템"}}, nil, "", "본문3"),
	}

	snap := g.Build("관제 시스템", contribs, "")

	top := snap.Signals.TopWinners
	if len(top) != 2 {
		t.Fatalf("expected 2 top winners, got %+v", top)
	}
	if top[0].Name != "한빛시스템" || top[0].Wins != 2 {
		t.Fatalf("repeat winner not ranked first: %+v", top[0])
	}
	if top[1].Name != "가나다전자" || top[1].Wins != 1 {
		t.Fatalf("unexpected second winner: %+v", top[1])
	}
	if len(snap.Signals.Agencies) != 1 || snap.Signals.Agencies[0].Freq != 2 {
		t.Fatalf("agency votes lost: %+v", snap.Signals.Agencies)
	}
}

func TestBuildTieBreaksByName(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	contribs := []Contribution{
		contribution([]domain.Winner{{Name: "하늘정보"}}, nil, "", "본문"),
		contribution([]domain.Winner{{Name: "가나다전자"}}, nil, "", "본문"),
	}

	snap := g.Build("q", contribs, "")
	top := snap.Signals.TopWinners
	if len(top) != 2 || top[0].Name != "가나다전자" || top[1].Name != "하늘정보" {
		t.Fatalf("equal-wins ordering wrong: %+v", top)
	}
}

func TestBuildAveragesAmounts(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	contribs := []Contribution{
		contribution([]domain.Winner{{Name: "한빛시스템", Amount: "1,000,000,000원"}}, nil, "", "본문"),
		contribution([]domain.Winner{{Name: "한빛시스템", Amount: "2,000,000,000원"}}, nil, "", "본문"),
		contribution([]domain.Winner{{Name: "한빛시스템", Amount: "금액 미기재"}}, nil, "", "본문"),
		contribution([]domain.Winner{{Name: "가나다전자"}}, nil, "", "본문"),
	}

	snap := g.Build("q", contribs, "")
	top := snap.Signals.TopWinners

	if top[0].AvgAmount == nil || *top[0].AvgAmount != 1_500_000_000 {
		t.Fatalf("unexpected average: %+v", top[0].AvgAmount)
	}
	if top[1].AvgAmount != nil {
		t.Fatalf("amount invented for winner without one: %+v", top[1])
	}
}

func TestBuildAppliesCaps(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	var contribs []Contribution
	for i := 0; i < 30; i++ {
		contribs = append(contribs, contribution(
			[]domain.Winner{{Name: fmt.Sprintf("업체%02d", i)}},
			[]string{fmt.Sprintf("사유 %02d", i)},
			fmt.Sprintf("기관%02d", i),
			fmt.Sprintf("본문 %02d", i),
		))
	}

	snap := g.Build("q", contribs, "")
	if len(snap.Signals.TopWinners) != 8 {
		t.Fatalf("topWinners cap: got %d", len(snap.Signals.TopWinners))
	}
	if len(snap.Signals.TopReasons) != 8 {
		t.Fatalf("topReasons cap: got %d", len(snap.Signals.TopReasons))
	}
	if len(snap.Signals.Agencies) != 6 {
		t.Fatalf("agencies cap: got %d", len(snap.Signals.Agencies))
	}
	if len(snap.Winners) != 5 {
		t.Fatalf("legacy winners cap: got %d", len(snap.Winners))
	}
	if len(snap.Evidences) != 20 {
		t.Fatalf("evidences cap: got %d", len(snap.Evidences))
	}
}

func TestBuildGlobalFallback(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	contribs := []Contribution{
		contribution(nil, nil, "", "무관한본문입니다."),
		contribution(nil, nil, "", "낙찰자: 한빛시스템 (주), 낙찰금액: 900,000,000원"),
	}

	snap := g.Build("q", contribs, "")
	if len(snap.Signals.TopWinners) == 0 || snap.Signals.TopWinners[0].Name != "한빛시스템" {
		t.Fatalf("global fallback missed winner: %+v", snap.Signals.TopWinners)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	snap := g.Build("빈 질의", nil, "llm unavailable")

	if snap.Query != "빈 질의" || snap.Note != "llm unavailable" {
		t.Fatalf("query or note dropped: %+v", snap)
	}
	if snap.Winners == nil || snap.Evidences == nil {
		t.Fatalf("list fields must be present on empty input")
	}
	if snap.Signals.TopWinners == nil || snap.Signals.TopReasons == nil || snap.Signals.Agencies == nil {
		t.Fatalf("signal lists must be present on empty input")
	}
	if len(snap.Signals.TopWinners) != 0 || len(snap.Evidences) != 0 {
		t.Fatalf("empty input produced data: %+v", snap)
	}
}

func TestBuildReasonFrequency(t *testing.T) {
	t.Parallel()

	g := newTestAggregator()
	contribs := []Contribution{
		contribution(nil, []string{"기술평가 우수", "최저가 투찰"}, "", "본문"),
		contribution(nil, []string{"최저가 투찰"}, "", "본문"),
	}

	snap := g.Build("q", contribs, "")
	reasons := snap.Signals.TopReasons
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %+v", reasons)
	}
	if reasons[0].Reason != "최저가 투찰" || reasons[0].Freq != 2 {
		t.Fatalf("frequency ordering wrong: %+v", reasons)
	}
}
