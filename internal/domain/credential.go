package domain

import "strings"

// Credential is an opaque session token. Validity is unknown until the token
// is challenged against the remote service.
type Credential string

// Masked returns a log-safe form of the token.
func (c Credential) Masked() string {
	token := string(c)
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

// CredentialPool is a ring of credentials walked forward by a circular
// cursor. The zero value is an empty pool. The pool itself is not safe for
// concurrent use; callers own the locking.
type CredentialPool struct {
	tokens []Credential
	cursor int
}

// NewCredentialPool builds a pool from raw token lines, trimming whitespace
// and dropping blanks while preserving input order.
func NewCredentialPool(raw []string) *CredentialPool {
	tokens := make([]Credential, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, Credential(trimmed))
	}

	return &CredentialPool{tokens: tokens}
}

func (p *CredentialPool) Len() int {
	return len(p.tokens)
}

// Active returns the credential at the cursor. A cursor that drifted past the
// end of a shrunk pool is clamped to 0 first.
func (p *CredentialPool) Active() (Credential, bool) {
	if len(p.tokens) == 0 {
		return "", false
	}
	if p.cursor >= len(p.tokens) {
		p.cursor = 0
	}

	return p.tokens[p.cursor], true
}

// Rotate advances the cursor circularly and returns the new active
// credential.
func (p *CredentialPool) Rotate() (Credential, bool) {
	if len(p.tokens) == 0 {
		return "", false
	}

	p.cursor = (p.cursor + 1) % len(p.tokens)
	return p.tokens[p.cursor], true
}

// Cursor reports the current cursor position.
func (p *CredentialPool) Cursor() int {
	return p.cursor
}

// Tokens returns a copy of the credentials in pool order.
func (p *CredentialPool) Tokens() []Credential {
	tokens := make([]Credential, len(p.tokens))
	copy(tokens, p.tokens)
	return tokens
}

// Replace swaps the pool contents for the surviving credentials and resets
// the cursor to 0.
func (p *CredentialPool) Replace(survivors []Credential) {
	tokens := make([]Credential, len(survivors))
	copy(tokens, survivors)
	p.tokens = tokens
	p.cursor = 0
}
