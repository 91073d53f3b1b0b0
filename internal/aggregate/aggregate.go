package aggregate

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"AwardScanner/internal/domain"
	"AwardScanner/internal/extract"
	"AwardScanner/internal/textnorm"
)

const (
	maxTopWinners    = 8
	maxTopReasons    = 8
	maxAgencies      = 6
	maxLegacyWinners = 5
	maxEvidences     = 20
	snippetLen       = 240
)

// Contribution pairs a page with its extraction outcome.
type Contribution struct {
	Page   domain.PageRecord
	Result domain.ExtractionResult
}

// Aggregator folds per-page extraction results into ranked signals. Every
// Build call owns fresh counters; nothing is carried across invocations.
type Aggregator struct {
	fallback *extract.PatternExtractor
	logger   *slog.Logger
}

// New wires the deterministic extractor used for the last-resort global
// fallback over the concatenated corpus.
func New(fallback *extract.PatternExtractor, logger *slog.Logger) *Aggregator {
	return &Aggregator{fallback: fallback, logger: logger}
}

// Build recomputes AggregateSignals from scratch and assembles the final
// snapshot. All list fields are present (possibly empty) even on empty
// input; note is carried through for degraded runs.
func (g *Aggregator) Build(query string, contribs []Contribution, note string) domain.AwardSnapshot {
	var (
		winCounter  = map[string]int{}
		winOrder    []string
		amountBag   = map[string][]float64{}
		reasonCount = map[string]int{}
		reasonOrder []string
		agencyCount = map[string]int{}
		agencyOrder []string
		evidences   = []domain.EvidenceItem{}
	)

	countWinner := func(name string, amount string) {
		if name == "" {
			return
		}
		if _, seen := winCounter[name]; !seen {
			winOrder = append(winOrder, name)
		}
		winCounter[name]++
		if amt, ok := parseAmount(amount); ok {
			amountBag[name] = append(amountBag[name], amt)
		}
	}
	countReason := func(reason string) {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return
		}
		if _, seen := reasonCount[reason]; !seen {
			reasonOrder = append(reasonOrder, reason)
		}
		reasonCount[reason]++
	}
	countAgency := func(name string) {
		if name == "" {
			return
		}
		if _, seen := agencyCount[name]; !seen {
			agencyOrder = append(agencyOrder, name)
		}
		agencyCount[name]++
	}

	for _, c := range contribs {
		for _, w := range c.Result.Winners {
			countWinner(w.Name, w.Amount)
		}
		for _, r := range c.Result.Reasons {
			countReason(r)
		}
		countAgency(c.Result.Agency)

		if len(evidences) < maxEvidences && strings.TrimSpace(c.Page.Text) != "" {
			evidences = append(evidences, domain.EvidenceItem{
				URL:     strings.TrimSpace(c.Page.URL),
				Title:   strings.TrimSpace(c.Page.Title),
				Snippet: textnorm.Truncate(c.Page.Text, snippetLen),
			})
		}
	}

	// Last resort: every page came back empty, so mine the combined corpus
	// once with the deterministic extractor.
	if len(winCounter) == 0 && g.fallback != nil {
		var parts []string
		for _, c := range contribs {
			if t := textnorm.Clean(c.Page.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			fb := g.fallback.Extract(strings.Join(parts, "\n\n"))
			for _, w := range fb.Winners {
				countWinner(w.Name, w.Amount)
			}
			if len(reasonOrder) == 0 {
				for _, r := range fb.Reasons {
					countReason(r)
				}
			}
			countAgency(fb.Agency)
			if g.logger != nil {
				g.logger.Debug("global fallback fired", "winners", len(fb.Winners))
			}
		}
	}

	ranked := rankWinners(winCounter, winOrder)

	topWinners := make([]domain.TopWinner, 0, maxTopWinners)
	for _, name := range ranked {
		if len(topWinners) == maxTopWinners {
			break
		}
		topWinners = append(topWinners, domain.TopWinner{
			Name:      name,
			Wins:      winCounter[name],
			AvgAmount: average(amountBag[name]),
		})
	}

	legacy := make([]domain.WinnerCount, 0, maxLegacyWinners)
	for _, name := range ranked {
		if len(legacy) == maxLegacyWinners {
			break
		}
		legacy = append(legacy, domain.WinnerCount{Name: name, Count: winCounter[name]})
	}

	topReasons := make([]domain.ReasonFreq, 0, maxTopReasons)
	for _, r := range rankByFreq(reasonCount, reasonOrder) {
		if len(topReasons) == maxTopReasons {
			break
		}
		topReasons = append(topReasons, domain.ReasonFreq{Reason: r, Freq: reasonCount[r]})
	}

	agencies := make([]domain.AgencyFreq, 0, maxAgencies)
	for _, a := range rankByFreq(agencyCount, agencyOrder) {
		if len(agencies) == maxAgencies {
			break
		}
		agencies = append(agencies, domain.AgencyFreq{Name: a, Freq: agencyCount[a]})
	}

	return domain.AwardSnapshot{
		Query:   query,
		Winners: legacy,
		Signals: domain.AggregateSignals{
			TopWinners: topWinners,
			TopReasons: topReasons,
			Agencies:   agencies,
		},
		Evidences: evidences,
		Score:     domain.ScoreCard{},
		Note:      note,
	}
}

// rankWinners orders names by descending mention count, ties by name.
func rankWinners(counter map[string]int, order []string) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		if counter[ranked[i]] != counter[ranked[j]] {
			return counter[ranked[i]] > counter[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// rankByFreq orders keys by descending frequency, ties by first appearance.
func rankByFreq(counter map[string]int, order []string) []string {
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counter[ranked[i]] > counter[ranked[j]]
	})
	return ranked
}

// parseAmount strips everything but digits and the decimal point before
// parsing; unparseable values are dropped silently.
func parseAmount(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
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
