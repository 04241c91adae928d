package domain

import "time"

// PointsSnapshot is one sample of the account's inference-points counter.
// The counter is owned by the service and is monotonically non-decreasing
// over a verification window; any increase is taken as proof that a
// server-side effect occurred.
type PointsSnapshot struct {
	Points    int64
	SampledAt time.Time
}
