package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

// PoolService owns the process-wide credential pool. All access goes through
// its lock so rotation and "read active credential" never interleave into a
// torn read.
type PoolService struct {
	mu    sync.Mutex
	pool  *domain.CredentialPool
	store ports.CredentialStore
	log   *logrus.Logger
}

var _ ports.CredentialRotator = (*PoolService)(nil)

func NewPoolService(store ports.CredentialStore, log *logrus.Logger) *PoolService {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &PoolService{
		pool:  domain.NewCredentialPool(nil),
		store: store,
		log:   log,
	}
}

// Load populates the pool from the credential source. An empty source is not
// an error here; callers decide whether an empty pool is fatal.
func (s *PoolService) Load(ctx context.Context) error {
	lines, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential source: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool = domain.NewCredentialPool(lines)
	s.log.WithField("size", s.pool.Len()).Info("credential pool loaded")
	return nil
}

func (s *PoolService) ActiveCredential() (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pool.Active()
}

func (s *PoolService) Rotate() (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.pool.Rotate()
	if ok {
		s.log.WithFields(logrus.Fields{
			"index": s.pool.Cursor(),
			"size":  s.pool.Len(),
		}).Info("rotated to next credential")
	}
	return cred, ok
}

func (s *PoolService) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pool.Len()
}

func (s *PoolService) Tokens() []domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pool.Tokens()
}

// VerifyAndPrune challenges every credential in pool order, keeps only the
// survivors, resets the cursor and persists the surviving set. The sweep
// runs to completion and is not itself retried; an indeterminate
// verification aborts the whole operation so no partial prune is persisted.
func (s *PoolService) VerifyAndPrune(ctx context.Context, verify func(ctx context.Context, cred domain.Credential) (bool, error)) (int, error) {
	tokens := s.Tokens()

	survivors := make([]domain.Credential, 0, len(tokens))
	for _, cred := range tokens {
		valid, err := verify(ctx, cred)
		if err != nil {
			return 0, fmt.Errorf("verify credential %s: %w", cred.Masked(), err)
		}
		if !valid {
			s.log.WithField("credential", cred.Masked()).Warn("pruning invalid credential")
			continue
		}
		survivors = append(survivors, cred)
	}

	s.mu.Lock()
	s.pool.Replace(survivors)
	s.mu.Unlock()

	if err := s.store.Save(ctx, survivors); err != nil {
		return 0, fmt.Errorf("persist surviving credentials: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"checked": len(tokens),
		"kept":    len(survivors),
	}).Info("credential pool pruned")

	return len(survivors), nil
}
