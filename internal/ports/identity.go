package ports

import (
	"context"

	"github.com/bnema/chatdrive/internal/domain"
)

// IdentityClient talks to the remote identity endpoint.
type IdentityClient interface {
	// FetchIdentity resolves the identity behind the active credential,
	// rotating on authorization failure.
	FetchIdentity(ctx context.Context) (domain.Identity, error)
	// ValidateCredential challenges a single credential without rotation.
	// A definitive rejection reports ok=false with a nil error.
	ValidateCredential(ctx context.Context, cred domain.Credential) (domain.Identity, bool, error)
}
