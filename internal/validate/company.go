package validate

import (
	"regexp"
	"strings"
	"unicode"

	"AwardScanner/internal/config"
	"AwardScanner/internal/textnorm"
)

var (
	corporatePrefix = regexp.MustCompile(`\s*(?:주식회사|㈜|\(주\)|\(유\))\s*`)
	innerWS         = regexp.MustCompile(`\s+`)
	bareParticle    = regexp.MustCompile(`^[가-힣]{1,2}$`)
)

const trimCutset = " ,.;:·-()[]|"

// Normalizer filters and canonicalizes noisy entity-name candidates. Both
// extraction paths route every candidate through it before counting.
type Normalizer struct {
	banTokens []string
	hints     []string
	units     []string
}

// NewNormalizer builds a validator from the configured keyword sets.
func NewNormalizer(kw config.KeywordConfig) *Normalizer {
	return &Normalizer{
		banTokens: kw.BanTokens,
		hints:     kw.CompanyHints,
		units:     kw.AmountUnits,
	}
}

// CompanyName returns the cleaned company name, or "" when the candidate is
// implausible: boilerplate phrases, fragments without letters, long unbroken
// tokens with no corporate hint, or low alphanumeric density.
func (n *Normalizer) CompanyName(raw string) string {
	if raw == "" {
		return ""
	}
	name := textnorm.Clean(raw)
	name = strings.TrimSpace(innerWS.ReplaceAllString(name, " "))
	name = strings.TrimSpace(corporatePrefix.ReplaceAllString(name, ""))
	name = strings.Trim(name, trimCutset)
	if name == "" {
		return ""
	}

	runes := []rune(name)
	if len(runes) < 2 {
		return ""
	}

	for _, ban := range n.banTokens {
		if strings.Contains(name, ban) {
			return ""
		}
	}

	if !hasLetter(runes) {
		return ""
	}

	// A long unbroken token is usually a captured sentence fragment unless
	// it carries a corporate marker.
	if !strings.Contains(name, " ") && len(runes) >= 16 && !n.HasHint(name) {
		return ""
	}

	alnum := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if float64(alnum)/float64(len(runes)) < 0.6 {
		return ""
	}

	if bareParticle.MatchString(name) {
		return ""
	}

	return name
}

// HasHint reports whether the text contains a corporate-hint token.
func (n *Normalizer) HasHint(name string) bool {
	for _, h := range n.hints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

// IsNumberLike reports whether the string plausibly denotes an amount:
// it contains a digit or a configured currency/unit token.
func (n *Normalizer) IsNumberLike(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	for _, u := range n.units {
		if strings.Contains(s, u) {
			return true
		}
	}
	return false
}

func hasLetter(runes []rune) bool {
	for _, r := range runes {
		if r >= '가' && r <= '힣' {
			return true
		}
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return true
		}
	}
	return false
}
