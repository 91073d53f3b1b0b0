package extract

import "AwardScanner/internal/domain"

// MergeResults combines a primary extraction with its fallback. Precedence:
// the primary value wins whenever it is non-empty; the fallback only fills
// winners, reasons, or agency that the primary left empty.
func MergeResults(primary, fallback domain.ExtractionResult) domain.ExtractionResult {
	out := primary
	if len(out.Winners) == 0 {
		out.Winners = fallback.Winners
	}
	if len(out.Reasons) == 0 {
		out.Reasons = fallback.Reasons
	}
	if out.Agency == "" {
		out.Agency = fallback.Agency
	}
	return out
}
