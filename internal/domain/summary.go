package domain

import "time"

// RunSummary is the observational record of the last automation run. Thread
// content is deliberately absent; only counters and timestamps are kept.
type RunSummary struct {
	LastRunAt         time.Time
	Model             string
	MessagesDelivered int
	MessagesFailed    int
	PointsConsumed    int64
	PoolSize          int
	LastPrunedAt      time.Time
}
