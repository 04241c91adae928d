package ports

import (
	"context"

	"github.com/bnema/chatdrive/internal/domain"
)

// OutcomeVerifier decides whether an exchange that died at the transport
// level actually landed server-side. It never fails; an unverifiable
// exchange resolves false.
type OutcomeVerifier interface {
	Resolve(ctx context.Context, before *domain.PointsSnapshot) bool
}
