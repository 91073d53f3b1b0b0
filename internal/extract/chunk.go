package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"AwardScanner/internal/textnorm"
)

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// SplitChunks slices a long body on paragraph boundaries into chunks of at
// most limit runes, concatenating paragraphs greedily. A paragraph is never
// split unless it alone exceeds the limit, in which case it becomes the
// chunk on its own.
func SplitChunks(body string, limit int) []string {
	body = textnorm.Clean(body)
	if utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range paragraphSplit.Split(body, -1) {
		pLen := utf8.RuneCountInString(para)
		if curLen+pLen+2 <= limit {
			if cur.Len() > 0 {
				cur.WriteString("\n\n")
				curLen += 2
			}
			cur.WriteString(para)
			curLen += pLen
			continue
		}
		flush()
		cur.WriteString(para)
		curLen = pLen
	}
	flush()
	return chunks
}
