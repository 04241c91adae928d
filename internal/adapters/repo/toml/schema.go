package toml

import (
	"time"

	"github.com/bnema/chatdrive/internal/domain"
)

type fileSchema struct {
	Summary *summarySchema `toml:"summary,omitempty"`
}

type summarySchema struct {
	LastRunAt         time.Time `toml:"last_run_at"`
	Model             string    `toml:"model"`
	MessagesDelivered int       `toml:"messages_delivered"`
	MessagesFailed    int       `toml:"messages_failed"`
	PointsConsumed    int64     `toml:"points_consumed"`
	PoolSize          int       `toml:"pool_size"`
	LastPrunedAt      time.Time `toml:"last_pruned_at,omitempty"`
}

func toSchema(summary domain.RunSummary) summarySchema {
	return summarySchema{
		LastRunAt:         summary.LastRunAt,
		Model:             summary.Model,
		MessagesDelivered: summary.MessagesDelivered,
		MessagesFailed:    summary.MessagesFailed,
		PointsConsumed:    summary.PointsConsumed,
		PoolSize:          summary.PoolSize,
		LastPrunedAt:      summary.LastPrunedAt,
	}
}

func fromSchema(schema summarySchema) domain.RunSummary {
	return domain.RunSummary{
		LastRunAt:         schema.LastRunAt,
		Model:             schema.Model,
		MessagesDelivered: schema.MessagesDelivered,
		MessagesFailed:    schema.MessagesFailed,
		PointsConsumed:    schema.PointsConsumed,
		PoolSize:          schema.PoolSize,
		LastPrunedAt:      schema.LastPrunedAt,
	}
}
