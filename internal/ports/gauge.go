package ports

import "context"

// PointsGauge reads the account's inference-points counter. No caching;
// callers decide sampling cadence.
type PointsGauge interface {
	FetchInferencePoints(ctx context.Context) (int64, error)
}
