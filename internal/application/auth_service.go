package application

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

// AuthService validates credentials against the identity endpoint and caches
// the authenticated identity. The cache records which credential produced
// it, so rotation invalidates it implicitly.
type AuthService struct {
	pool     *PoolService
	identity ports.IdentityClient
	log      *logrus.Logger

	mu     sync.Mutex
	cached *domain.Identity
	loaded bool
}

func NewAuthService(pool *PoolService, identity ports.IdentityClient, log *logrus.Logger) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &AuthService{
		pool:     pool,
		identity: identity,
		log:      log,
	}
}

// Login selects a credential from the pool (rotating when forced), validates
// it against the identity endpoint and caches the resulting identity. On a
// definitive rejection it walks the rest of the pool once before giving up.
func (s *AuthService) Login(ctx context.Context, forceRotate bool) (domain.Credential, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return "", err
	}

	if s.pool.PoolSize() == 0 {
		return "", domain.ErrEmptyPool
	}

	if forceRotate {
		s.pool.Rotate()
	}

	size := s.pool.PoolSize()
	for tries := 0; ; tries++ {
		cred, ok := s.pool.ActiveCredential()
		if !ok {
			return "", domain.ErrEmptyPool
		}

		identity, valid, err := s.identity.ValidateCredential(ctx, cred)
		if err != nil {
			return "", fmt.Errorf("login: %w", err)
		}
		if valid {
			s.setCached(identity)
			s.log.WithFields(logrus.Fields{
				"credential": cred.Masked(),
				"account":    identity.ID,
			}).Info("login validated credential")
			return cred, nil
		}

		if size <= 1 || tries >= size-1 {
			return "", fmt.Errorf("login: %w", &domain.ExhaustionError{
				Rotations: tries,
				Last:      &domain.AuthorizationError{Status: http.StatusUnauthorized},
			})
		}
		s.pool.Rotate()
	}
}

// Identity returns the cached identity when it is still bound to the active
// credential, otherwise refreshes it through the identity endpoint.
func (s *AuthService) Identity(ctx context.Context, useCache bool) (domain.Identity, error) {
	if useCache {
		if cached, ok := s.validCached(); ok {
			return cached, nil
		}
	}

	identity, err := s.identity.FetchIdentity(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	s.setCached(identity)

	return identity, nil
}

// BuildAuthHeaders merges the default headers with the credential carrier
// header for external collaborators that issue their own requests.
func (s *AuthService) BuildAuthHeaders() (http.Header, error) {
	cred, ok := s.pool.ActiveCredential()
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+string(cred))
	headers.Set("Content-Type", "application/json")
	return headers, nil
}

func (s *AuthService) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	if err := s.pool.Load(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *AuthService) setCached(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &identity
}

// validCached returns the cached identity only while the credential that
// produced it is still active.
func (s *AuthService) validCached() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		return domain.Identity{}, false
	}
	active, ok := s.pool.ActiveCredential()
	if !ok || active != s.cached.Credential {
		s.cached = nil
		return domain.Identity{}, false
	}

	return *s.cached, true
}
