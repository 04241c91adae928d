package ports

import (
	"context"

	"github.com/bnema/chatdrive/internal/domain"
)

// CredentialStore is the persisted line-oriented token list: one token per
// line, blank lines ignored.
type CredentialStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, tokens []domain.Credential) error
}

// CredentialProvider exposes the active credential to the transport layer.
type CredentialProvider interface {
	ActiveCredential() (domain.Credential, bool)
}

// CredentialRotator advances the pool cursor after a credential is rejected.
type CredentialRotator interface {
	CredentialProvider
	Rotate() (domain.Credential, bool)
	PoolSize() int
}
