package intel

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"AwardScanner/internal/config"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/textnorm"
	"AwardScanner/internal/validate"
)

const (
	maxCompetitors = 5
	maxEvidences   = 10
	maxTags        = 8
	agencyScanRows = 80
	agencyMaxRunes = 60
	noticeIDRunes  = 50
	snippetLen     = 240
)

var (
	winnerPat      = regexp.MustCompile(`(?:낙찰자|낙찰업체|낙찰\s*사)\s*[:：]\s*([가-힣A-Za-z0-9&·()\-㈜_ ]+)`)
	titleWinnerPat = regexp.MustCompile(`낙찰\s*(?:자|업체|사)\s*[:：]?\s*([가-힣A-Za-z0-9&·()\-㈜_ ]{2,})`)
	amountPat      = regexp.MustCompile(`(?:낙찰금액|계약금액|금액)\s*[:：]\s*([0-9,]+)\s*(?:원|KRW)?`)
	datePat        = regexp.MustCompile(`(?:개찰일|계약일|발표일)\s*[:：]\s*([0-9]{4}[./-][0-9]{1,2}[./-][0-9]{1,2})`)
	bracketPrefix  = regexp.MustCompile(`\[[^\]]+\]`)
	tagSplit       = regexp.MustCompile(`[\s/·:,]+`)
)

// Builder produces the lightweight market-intelligence summary straight from
// raw pages, deterministic path only. Build is total and returns a
// well-formed empty payload for empty input.
type Builder struct {
	norm     *validate.Normalizer
	award    []string
	compete  []string
	inst     []string
	concNorm float64
	logger   *slog.Logger
}

// NewBuilder wires the intel keyword sets and the shared name validator.
func NewBuilder(cfg config.IntelConfig, norm *validate.Normalizer, logger *slog.Logger) *Builder {
	concNorm := cfg.ConcentrationNorm
	if concNorm <= 0 {
		concNorm = 40
	}
	return &Builder{
		norm:     norm,
		award:    cfg.AwardContextKeys,
		compete:  cfg.CompetitionKeys,
		inst:     cfg.InstitutionKeys,
		concNorm: concNorm,
		logger:   logger,
	}
}

// Build filters pages to award-context ones, mines winner/amount/date per
// page via single-shot label patterns, and aggregates the top competitors
// plus a bounded market-concentration signal.
func (b *Builder) Build(pages []domain.PageRecord, query string) domain.CompetitorIntel {
	awards := []domain.Award{}
	evidences := []domain.EvidenceItem{}

	for _, p := range pages {
		title := strings.TrimSpace(p.Title)
		text := p.Text
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !containsAny(title+text, b.award) {
			continue
		}

		winner, amount, openDate := b.extractAwardFields(title, text)
		awards = append(awards, domain.Award{
			NoticeID:  cutRunes(title, noticeIDRunes),
			Title:     title,
			Agency:    b.guessAgency(text),
			Winner:    winner,
			Amount:    amount,
			OpenDate:  openDate,
			TopicTags: tagsFromTitle(title),
			URL:       strings.TrimSpace(p.URL),
		})

		if len(evidences) < maxEvidences {
			evidences = append(evidences, domain.EvidenceItem{
				URL:     strings.TrimSpace(p.URL),
				Title:   title,
				Snippet: textnorm.Truncate(text, snippetLen),
			})
		}
	}

	type agg struct {
		wins    int
		amounts []float64
	}
	byComp := map[string]*agg{}
	var order []string
	for _, a := range awards {
		if a.Winner == "" {
			continue
		}
		entry, ok := byComp[a.Winner]
		if !ok {
			entry = &agg{}
			byComp[a.Winner] = entry
			order = append(order, a.Winner)
		}
		entry.wins++
		if a.Amount != nil {
			entry.amounts = append(entry.amounts, *a.Amount)
		}
	}

	ranked := make([]domain.TopWinner, 0, len(order))
	for _, name := range order {
		entry := byComp[name]
		ranked = append(ranked, domain.TopWinner{
			Name:      name,
			Wins:      entry.wins,
			AvgAmount: average(entry.amounts),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return deref(ranked[i].AvgAmount) > deref(ranked[j].AvgAmount)
	})
	if len(ranked) > maxCompetitors {
		ranked = ranked[:maxCompetitors]
	}

	if b.logger != nil {
		b.logger.Debug("intel built", "awards", len(awards), "competitors", len(ranked))
	}

	return domain.CompetitorIntel{
		TopCompetitors:  ranked,
		MarketLandscape: domain.MarketLandscape{CCI: b.concentration(pages), Query: query},
		Evidences:       evidences,
	}
}

// extractAwardFields mines winner, amount and open date with single-shot
// label patterns; the title is the winner fallback source.
func (b *Builder) extractAwardFields(title, text string) (string, *float64, string) {
	winnerRaw := ""
	if m := winnerPat.FindStringSubmatch(text); m != nil {
		winnerRaw = m[1]
	} else if m := titleWinnerPat.FindStringSubmatch(title); m != nil {
		winnerRaw = m[1]
	}
	winner := b.norm.CompanyName(winnerRaw)

	var amount *float64
	if m := amountPat.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			amount = &v
		}
	}

	openDate := ""
	if m := datePat.FindStringSubmatch(text); m != nil {
		raw := strings.NewReplacer(".", "-", "/", "-").Replace(m[1])
		if dt, err := time.Parse("2006-1-2", raw); err == nil {
			openDate = dt.Format("2006-01-02")
		} else {
			openDate = raw
		}
	}

	return winner, amount, openDate
}

// guessAgency scans the opening lines for one carrying an institutional
// keyword and returns it truncated to 60 runes.
func (b *Builder) guessAgency(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > agencyScanRows {
		lines = lines[:agencyScanRows]
	}
	for _, line := range lines {
		if containsAny(line, b.inst) {
			return cutRunes(strings.TrimSpace(line), agencyMaxRunes)
		}
	}
	return ""
}

// concentration counts competitiveness keywords across the whole page set,
// scaled by the configured normalizer and clamped to 1.0.
func (b *Builder) concentration(pages []domain.PageRecord) float64 {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
		sb.WriteString(" ")
	}
	total := sb.String()

	signal := 0
	for _, k := range b.compete {
		signal += strings.Count(total, k)
	}
	cci := float64(signal) / b.concNorm
	if cci > 1.0 {
		cci = 1.0
	}
	return cci
}

// tagsFromTitle extracts topic tags: bracketed prefixes removed, tokens of
// at least 2 runes that are not purely numeric, order-preserving dedupe,
// capped at 8.
func tagsFromTitle(title string) []string {
	base := bracketPrefix.ReplaceAllString(title, " ")
	seen := map[string]struct{}{}
	var tags []string
	for _, tok := range tagSplit.Split(base, -1) {
		tok = strings.TrimSpace(tok)
		if utf8.RuneCountInString(tok) < 2 || isNumeric(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tags = append(tags, tok)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func cutRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
