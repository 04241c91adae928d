package api

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

// RetryPolicy bounds the transient-failure recovery of one call.
type RetryPolicy struct {
	// MaxRetries is the number of backoff retries after the first attempt.
	MaxRetries int
	// InitialDelay is the first backoff interval.
	InitialDelay time.Duration
	// Multiplier grows the interval between consecutive retries.
	Multiplier float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 2000 * time.Millisecond,
		Multiplier:   1.5,
	}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialDelay
	expo.Multiplier = p.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxInterval = time.Hour
	expo.MaxElapsedTime = 0
	expo.Reset()
	return expo
}

// Executor wraps remote calls with credential rotation on authorization
// failure and bounded exponential backoff on transient failure. Failure
// classes are evaluated in order: authorization, transient, stream abort,
// other.
type Executor struct {
	policy  RetryPolicy
	rotator ports.CredentialRotator
	sleeper ports.Sleeper
	log     *logrus.Logger
}

func NewExecutor(policy RetryPolicy, rotator ports.CredentialRotator, sleeper ports.Sleeper, log *logrus.Logger) *Executor {
	if sleeper == nil {
		sleeper = ports.SystemSleeper{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Executor{
		policy:  policy,
		rotator: rotator,
		sleeper: sleeper,
		log:     log,
	}
}

// Do runs call until it succeeds or a recovery budget is spent. An
// authorization failure rotates the pool and restarts the backoff schedule;
// a transient failure waits and retries; a stream abort propagates
// unretried for the caller to resolve out of band.
func (e *Executor) Do(ctx context.Context, label string, call func(ctx context.Context) error) error {
	return e.run(ctx, label, call, true)
}

// DoFixed is Do with rotation disabled: authorization failures propagate
// unchanged. Used when the caller manages credential selection itself.
func (e *Executor) DoFixed(ctx context.Context, label string, call func(ctx context.Context) error) error {
	return e.run(ctx, label, call, false)
}

func (e *Executor) run(ctx context.Context, label string, call func(ctx context.Context) error, rotate bool) error {
	attempt := 0
	rotations := 0
	expo := e.policy.newBackOff()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx)
		if err == nil {
			return nil
		}

		var authErr *domain.AuthorizationError
		var transientErr *domain.TransientError
		var abortErr *domain.StreamAbortError

		switch {
		case errors.As(err, &authErr):
			size := e.rotator.PoolSize()
			if !rotate || size <= 1 {
				return err
			}
			if rotations >= size-1 {
				// One full pass of the pool; every credential was offered.
				return &domain.ExhaustionError{Rotations: rotations, Last: err}
			}
			rotations++
			cred, _ := e.rotator.Rotate()
			attempt = 0
			expo.Reset()
			e.log.WithFields(logrus.Fields{
				"call":       label,
				"status":     authErr.Status,
				"rotation":   rotations,
				"credential": cred.Masked(),
			}).Warn("credential rejected, rotated pool")

		case errors.As(err, &transientErr):
			if attempt >= e.policy.MaxRetries {
				return &domain.ExhaustionError{Attempts: attempt + 1, Last: err}
			}
			delay := expo.NextBackOff()
			e.log.WithFields(logrus.Fields{
				"call":    label,
				"attempt": attempt + 1,
				"delay":   delay,
			}).Warn("transient failure, backing off")
			if sleepErr := e.sleeper.Sleep(ctx, delay); sleepErr != nil {
				return sleepErr
			}
			attempt++

		case errors.As(err, &abortErr):
			// The service may already have processed the request; retrying
			// here could double-deliver. Surfaced for out-of-band resolution.
			e.log.WithFields(logrus.Fields{
				"call":    label,
				"partial": len(abortErr.Partial),
			}).Warn("response stream aborted")
			return err

		default:
			return err
		}
	}
}
