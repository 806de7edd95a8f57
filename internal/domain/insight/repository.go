package insight

import (
	"context"
	"encoding/json"
)

// Repository persists insights and serves their history.
type Repository interface {
	// Save persists an insight. A zero ID or CreatedAt is filled in.
	Save(ctx context.Context, insight *Insight) error

	// History returns persisted insights matching the filter, newest first.
	History(ctx context.Context, filter HistoryFilter) ([]Insight, error)
}

// ResultCache caches serialized engine results keyed by model type and
// request digest. Implementations are best-effort: a degraded cache reports
// misses, never errors.
type ResultCache interface {
	GetResult(ctx context.Context, modelType, digest string) (json.RawMessage, bool)
	StoreResult(ctx context.Context, modelType, digest string, result any)
}
