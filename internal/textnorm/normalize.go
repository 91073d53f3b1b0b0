package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	invisibleReplacer = strings.NewReplacer(
		"​", "",
		"‌", "",
		"\uFEFF", "",
		"&nbsp;", " ",
		" ", " ",
		"\r", "\n",
	)
	horizontalWS = regexp.MustCompile(`[ \t]+`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Clean strips invisible characters and whitespace noise left behind by HTML
// scrapes. It is idempotent and never fails; empty input yields empty output.
// Text is NFKC-normalized first so full-width/compatibility forms common in
// Korean notices compare equal to their plain counterparts.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = invisibleReplacer.Replace(s)
	s = horizontalWS.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return s
}

// Truncate collapses all whitespace and hard-cuts the text to n runes,
// appending an ellipsis marker when something was dropped.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(Clean(s)), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// StripHTML reduces markup-bearing page text to its visible text. Input
// without tags passes through unchanged; parse failures return the input.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}
