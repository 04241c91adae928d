package domain

// Identity is the remote account behind a credential, as reported by the
// identity endpoint. Credential records which token produced it so a cached
// identity can be discarded after rotation.
type Identity struct {
	ID         string
	Name       string
	Email      string
	Credential Credential
}
