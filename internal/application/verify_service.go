package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

// DefaultSettleDelay is how long the server-side effect is given to land
// before the points counter is re-sampled.
const DefaultSettleDelay = 3 * time.Second

// OutcomeResolver is a best-effort external proof of effect: it decides
// whether an aborted exchange actually consumed inference points. It runs
// inside an already-degraded path and therefore never fails; anything it
// cannot prove resolves false.
type OutcomeResolver struct {
	gauge   ports.PointsGauge
	sleeper ports.Sleeper
	settle  time.Duration
	log     *logrus.Logger
}

var _ ports.OutcomeVerifier = (*OutcomeResolver)(nil)

func NewOutcomeResolver(gauge ports.PointsGauge, sleeper ports.Sleeper, settle time.Duration, log *logrus.Logger) *OutcomeResolver {
	if sleeper == nil {
		sleeper = ports.SystemSleeper{}
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &OutcomeResolver{
		gauge:   gauge,
		sleeper: sleeper,
		settle:  settle,
		log:     log,
	}
}

// Resolve reports true iff the points counter strictly exceeds the sample
// taken before the exchange.
func (r *OutcomeResolver) Resolve(ctx context.Context, before *domain.PointsSnapshot) bool {
	if before == nil {
		r.log.Warn("no baseline points sample, cannot verify delivery")
		return false
	}

	if err := r.sleeper.Sleep(ctx, r.settle); err != nil {
		r.log.WithError(err).Warn("verification wait interrupted")
		return false
	}

	after, err := r.gauge.FetchInferencePoints(ctx)
	if err != nil {
		r.log.WithError(err).Warn("points fetch failed during verification")
		return false
	}

	verified := after > before.Points
	r.log.WithFields(logrus.Fields{
		"before":   before.Points,
		"after":    after,
		"verified": verified,
	}).Info("resolved stream outcome from points counter")

	return verified
}
