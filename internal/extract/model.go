package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"AwardScanner/internal/domain"
	"AwardScanner/internal/ports"
	"AwardScanner/internal/textnorm"
	"AwardScanner/internal/validate"
)

// extractionSchema is the fixed shape requested from the model for every
// chunk. All fields are optional so a sparse but honest answer validates.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "winners": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "amount": {"type": ["string", "number", "null"]}
        },
        "required": ["name"]
      }
    },
    "agency": {"type": "string"},
    "reasons": {"type": "array", "items": {"type": "string"}}
  }
}`

const userPromptTemplate = `아래 본문은 입찰 결과/낙찰 공고와 관련된 텍스트입니다.
이 텍스트에서 '낙찰업체(또는 우선협상대상자/계약상대자)', '발주기관(가능시)', '낙찰금액(가능시)', 그리고 '낙찰 사유/근거(문구형태)'를 찾아 JSON으로만 출력하세요.

반드시 아래 스키마로만 출력:
{
  "winners": [{"name": "회사명", "amount": "숫자(원 단위 또는 기재된 단위 그대로)"}],
  "agency": "발주기관 이름 또는 빈 문자열",
  "reasons": ["키워드 또는 짧은 근거 문구"]
}

지켜야 할 규칙:
- 문서에 없는 정보는 생성하지 말고 빈 값으로 남겨두세요.
- 'winners'는 실제 회사명만 넣습니다(설명/문장 조각 금지).
- 표/선정 결과/공고의 '낙찰자·우선협상대상자·계약상대자'를 우선 반영합니다.
- 금액은 원문 단위를 보존합니다(숫자 포함 시).

[제목]
%s

[URL]
%s

[본문 (일부 청크)]
%s
`

const reasonTruncateLen = 100

// ModelExtractor delegates per-page extraction to the remote completion
// capability, chunking long bodies, recovering loose JSON from the answers,
// and falling back to the pattern extractor when a whole page yields no
// winners.
type ModelExtractor struct {
	client     ports.CompletionClient
	fallback   *PatternExtractor
	norm       *validate.Normalizer
	chunkLimit int
	schema     *jsonschema.Schema
	logger     *slog.Logger
}

// NewModelExtractor wires the completion client with the deterministic
// fallback. chunkLimit bounds each prompt body in runes.
func NewModelExtractor(client ports.CompletionClient, fallback *PatternExtractor, norm *validate.Normalizer, chunkLimit int, logger *slog.Logger) *ModelExtractor {
	if chunkLimit <= 0 {
		chunkLimit = 9000
	}
	return &ModelExtractor{
		client:     client,
		fallback:   fallback,
		norm:       norm,
		chunkLimit: chunkLimit,
		schema:     jsonschema.MustCompileString("extraction.json", extractionSchema),
		logger:     logger,
	}
}

// ExtractPage runs every chunk of the page through the model and merges the
// deterministic fallback in if no winner was accumulated. It never fails:
// chunk-level errors count as empty chunks.
func (m *ModelExtractor) ExtractPage(ctx context.Context, page domain.PageRecord) domain.ExtractionResult {
	chunks := SplitChunks(page.Text, m.chunkLimit)

	var (
		winners     []domain.Winner
		reasons     []string
		agencyVotes = map[string]int{}
		agencyOrder []string
	)

	for i, chunk := range chunks {
		prompt := fmt.Sprintf(userPromptTemplate, page.Title, page.URL, chunk)
		out, err := m.client.Complete(ctx, prompt)
		if err != nil {
			m.debug("chunk completion failed", "chunk", i+1, "chunks", len(chunks), "error", err)
			continue
		}

		data := textnorm.ParseLooseJSON(out)
		if len(data) == 0 {
			m.debug("chunk returned no parseable object", "chunk", i+1, "chunks", len(chunks))
			continue
		}
		if err := m.schema.Validate(data); err != nil {
			// Shape drift is tolerated; the field reads below skip whatever
			// does not cast.
			m.warn("model output failed schema check", "chunk", i+1, "error", err)
		}

		cw, cr, ca := m.readFields(data)
		winners = append(winners, cw...)
		reasons = append(reasons, cr...)
		if ca != "" {
			if _, seen := agencyVotes[ca]; !seen {
				agencyOrder = append(agencyOrder, ca)
			}
			agencyVotes[ca]++
		}
	}

	accumulated := domain.ExtractionResult{
		Winners: dedupeWinners(winners),
		Reasons: reasons,
		Agency:  topAgency(agencyVotes, agencyOrder),
	}

	if len(accumulated.Winners) == 0 {
		fb := m.fallback.Extract(page.Text)
		m.debug("page-level fallback fired", "fallback_winners", len(fb.Winners))
		accumulated = MergeResults(accumulated, fb)
		accumulated.Winners = dedupeWinners(accumulated.Winners)
	}
	return accumulated
}

// readFields pulls winners, reasons and the agency out of a loose-parsed
// object, validating every name and preserving amount units.
func (m *ModelExtractor) readFields(data map[string]any) ([]domain.Winner, []string, string) {
	var winners []domain.Winner
	if list, ok := data["winners"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := entry["name"].(string)
			name = m.norm.CompanyName(name)
			if name == "" {
				continue
			}
			winners = append(winners, domain.Winner{Name: name, Amount: amountString(entry["amount"])})
		}
	}

	var reasons []string
	if list, ok := data["reasons"].([]any); ok {
		for _, item := range list {
			r, ok := item.(string)
			if !ok {
				continue
			}
			if r = textnorm.Truncate(r, reasonTruncateLen); r != "" {
				reasons = append(reasons, r)
			}
		}
	}

	agency := ""
	if a, ok := data["agency"].(string); ok && strings.TrimSpace(a) != "" {
		agency = m.norm.CompanyName(a)
	}
	return winners, reasons, agency
}

func amountString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func dedupeWinners(winners []domain.Winner) []domain.Winner {
	seen := map[string]struct{}{}
	var out []domain.Winner
	for _, w := range winners {
		if w.Name == "" {
			continue
		}
		if _, ok := seen[w.Name]; ok {
			continue
		}
		seen[w.Name] = struct{}{}
		out = append(out, w)
	}
	return out
}

func topAgency(votes map[string]int, order []string) string {
	best, bestCount := "", 0
	for _, name := range order {
		if votes[name] > bestCount {
			best, bestCount = name, votes[name]
		}
	}
	return best
}

func (m *ModelExtractor) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *ModelExtractor) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
