package extract

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"AwardScanner/internal/config"
	"AwardScanner/internal/domain"
	"AwardScanner/internal/textnorm"
	"AwardScanner/internal/validate"
)

const (
	companyPat     = `(?:주식회사\s*)?(?:㈜|\(주\)|\(유\))?\s*[가-힣A-Za-z0-9&.,\-·() ]{2,60}`
	agencyNamePat  = `[가-힣A-Za-z0-9&.,\-·() ]{2,60}`
	scoreThreshold = 2
	proximityRunes = 40
	maxWinners     = 10
	maxReasons     = 10
)

// genericLabels introduce a company name without award context.
var genericLabels = []string{"업체명", "사업자", "제안사", "업체"}

var sentenceSplit = regexp.MustCompile(`[\n.]`)

// PatternExtractor recovers winners, reasons and the agency from a single
// cleaned text using keyword-anchored patterns plus a plausibility score.
// It is the fallback for the probabilistic path and the sole extractor for
// the competitor-intel payload. Extract is total: it never fails and returns
// empty values on empty input.
type PatternExtractor struct {
	norm       *validate.Normalizer
	reasonKeys []string
	labelKeys  []string
	logger     *slog.Logger

	reWinnerLabeled *regexp.Regexp
	reGenericLabel  *regexp.Regexp
	reNearWinner    *regexp.Regexp
	reAmount        *regexp.Regexp
	reAgency        *regexp.Regexp
}

// NewPatternExtractor compiles the pattern families from the configured
// keyword sets.
func NewPatternExtractor(kw config.KeywordConfig, norm *validate.Normalizer, logger *slog.Logger) *PatternExtractor {
	winnerAlt := quoteAlt(kw.WinnerKeys)
	labelKeys := make([]string, 0, len(kw.WinnerKeys)+len(kw.AgencyKeys)+len(kw.AmountKeys))
	labelKeys = append(labelKeys, kw.WinnerKeys...)
	labelKeys = append(labelKeys, kw.AgencyKeys...)
	labelKeys = append(labelKeys, kw.AmountKeys...)
	return &PatternExtractor{
		norm:       norm,
		reasonKeys: kw.ReasonKeys,
		labelKeys:  labelKeys,
		logger:     logger,
		reWinnerLabeled: regexp.MustCompile(
			`(?:` + winnerAlt + `)\s*[:：\-–]?\s*(` + companyPat + `)`),
		reGenericLabel: regexp.MustCompile(
			`(?:` + quoteAlt(genericLabels) + `)\s*[:：\-–]?\s*(` + companyPat + `)`),
		reNearWinner: regexp.MustCompile(
			`(?:` + winnerAlt + `)[\s\S]{0,40}?(` + companyPat + `)|(` + companyPat + `)[\s\S]{0,40}?(?:` + winnerAlt + `)`),
		reAmount: regexp.MustCompile(
			`(?:` + quoteAlt(kw.AmountKeys) + `)\s*[:：\-–]?\s*([0-9][0-9,.\s]*\s*(?:` + quoteAlt(kw.AmountUnits) + `)?)`),
		reAgency: regexp.MustCompile(
			`(?:` + quoteAlt(kw.AgencyKeys) + `)\s*[:：\-–]?\s*(` + agencyNamePat + `)`),
	}
}

type candidate struct {
	name   string
	amount string
	score  int
	start  int
}

// Extract runs the three pattern families over the text and returns scored,
// deduplicated winners (≤10), reason sentences (≤10), and the agency if one
// was labeled.
func (p *PatternExtractor) Extract(text string) domain.ExtractionResult {
	text = textnorm.Clean(text)
	if text == "" {
		return domain.ExtractionResult{}
	}

	cands := p.collectCandidates(text)
	p.assignAmounts(text, cands)

	agency := ""
	if m := p.reAgency.FindStringSubmatch(text); m != nil {
		agency = p.norm.CompanyName(m[1])
	}

	reasons := p.collectReasons(text)
	winners := rankWinners(cands)

	if p.logger != nil {
		p.logger.Debug("pattern extract done",
			"candidates", len(cands), "winners", len(winners), "reasons", len(reasons))
	}
	return domain.ExtractionResult{Winners: winners, Reasons: reasons, Agency: agency}
}

func (p *PatternExtractor) collectCandidates(text string) []*candidate {
	var cands []*candidate
	add := func(raw string, matchStart, matchEnd int) {
		raw = p.trimAtLabel(raw)
		score, name := p.scoreCandidate(raw, text, matchStart, matchEnd)
		if score < scoreThreshold || name == "" {
			return
		}
		cands = append(cands, &candidate{name: name, score: score, start: matchStart})
	}

	for _, m := range p.reWinnerLabeled.FindAllStringSubmatchIndex(text, -1) {
		if m[2] >= 0 {
			add(text[m[2]:m[3]], m[0], m[1])
		}
	}
	for _, m := range p.reGenericLabel.FindAllStringSubmatchIndex(text, -1) {
		if m[2] >= 0 {
			add(text[m[2]:m[3]], m[0], m[1])
		}
	}
	for _, m := range p.reNearWinner.FindAllStringSubmatchIndex(text, -1) {
		switch {
		case m[2] >= 0:
			add(text[m[2]:m[3]], m[0], m[1])
		case m[4] >= 0:
			add(text[m[4]:m[5]], m[0], m[1])
		}
	}
	return cands
}

// scoreCandidate rates a raw capture: +2 corporate hint, +1 embedded space
// or corporate prefix, -2 long unbroken token without a hint, +1 presence
// inside the ±40-rune window around the triggering match. Candidates whose
// name fails validation are rejected outright.
func (p *PatternExtractor) scoreCandidate(raw, text string, matchStart, matchEnd int) (int, string) {
	name := p.norm.CompanyName(raw)
	if name == "" {
		return -1 << 30, ""
	}

	score := 0
	if p.norm.HasHint(raw) || p.norm.HasHint(name) {
		score += 2
	}
	if strings.Contains(name, " ") || hasCorporatePrefix(raw) || hasCorporatePrefix(name) {
		score++
	}
	if !strings.Contains(name, " ") && utf8.RuneCountInString(name) >= 16 && !p.norm.HasHint(name) {
		score -= 2
	}

	win := runeWindow(text, matchStart, matchEnd, proximityRunes)
	if strings.Contains(win, strings.TrimSpace(raw)) || strings.Contains(win, name) {
		score++
	}
	return score, name
}

// assignAmounts maps each amount-like span to the nearest candidate without
// an amount yet, considering only the 3 closest; ties keep iteration order.
func (p *PatternExtractor) assignAmounts(text string, cands []*candidate) {
	if len(cands) == 0 {
		return
	}
	for _, m := range p.reAmount.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 {
			continue
		}
		amt := strings.TrimSpace(text[m[2]:m[3]])
		if !p.norm.IsNumberLike(amt) {
			continue
		}
		pos := m[0]
		byDist := make([]*candidate, len(cands))
		copy(byDist, cands)
		sort.SliceStable(byDist, func(i, j int) bool {
			return abs(pos-byDist[i].start) < abs(pos-byDist[j].start)
		})
		limit := len(byDist)
		if limit > 3 {
			limit = 3
		}
		for _, c := range byDist[:limit] {
			if c.amount == "" {
				c.amount = amt
				break
			}
		}
	}
}

func (p *PatternExtractor) collectReasons(text string) []string {
	var reasons []string
	seen := map[string]struct{}{}
	for _, sent := range sentenceSplit.Split(text, -1) {
		s := strings.TrimSpace(sent)
		if s == "" {
			continue
		}
		if !containsAny(s, p.reasonKeys) {
			continue
		}
		s = textnorm.Truncate(s, 100)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		reasons = append(reasons, s)
		if len(reasons) == maxReasons {
			break
		}
	}
	return reasons
}

func rankWinners(cands []*candidate) []domain.Winner {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].name < cands[j].name
	})

	seen := map[string]struct{}{}
	var winners []domain.Winner
	for _, c := range cands {
		if _, ok := seen[c.name]; ok {
			continue
		}
		seen[c.name] = struct{}{}
		winners = append(winners, domain.Winner{Name: c.name, Amount: c.amount})
		if len(winners) == maxWinners {
			break
		}
	}
	return winners
}

// trimAtLabel cuts a greedy capture at the first embedded label keyword so
// "한빛시스템 (주), 낙찰금액" does not carry the next field's label into the name.
func (p *PatternExtractor) trimAtLabel(raw string) string {
	cut := len(raw)
	for _, k := range p.labelKeys {
		if idx := strings.Index(raw, k); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return raw[:cut]
}

// runeWindow widens [start,end) by spanRunes runes on each side, honoring
// UTF-8 boundaries.
func runeWindow(text string, start, end, spanRunes int) string {
	for i := 0; i < spanRunes && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		if size == 0 {
			break
		}
		start -= size
	}
	for i := 0; i < spanRunes && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		if size == 0 {
			break
		}
		end += size
	}
	return text[start:end]
}

func hasCorporatePrefix(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "(주)") || strings.HasPrefix(s, "㈜") || strings.HasPrefix(s, "(유)")
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func quoteAlt(keys []string) string {
	quoted := make([]string, 0, len(keys))
	for _, k := range keys {
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	return strings.Join(quoted, "|")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
