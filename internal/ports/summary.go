package ports

import (
	"context"

	"github.com/bnema/chatdrive/internal/domain"
)

type RunSummaryRepository interface {
	Get(ctx context.Context) (domain.RunSummary, error)
	Save(ctx context.Context, summary domain.RunSummary) error
}
