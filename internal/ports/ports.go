package ports

import (
	"context"

	"AwardScanner/internal/domain"
)

// CompletionClient sends a prompt to a remote text-completion capability and
// returns whatever text payload it managed to recover from the response.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SnapshotRepository persists finished payloads for callers that want history.
// The extraction core itself never reads back mid-call.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot domain.AwardSnapshot) error
	SaveIntel(ctx context.Context, query string, intel domain.CompetitorIntel) error
}

// PageSource supplies materialized page records for a query.
type PageSource interface {
	Pages(ctx context.Context, query string) ([]domain.PageRecord, error)
}
