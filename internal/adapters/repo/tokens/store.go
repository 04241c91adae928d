// Package tokens persists the credential pool as a line-oriented token
// file: one token per line, blank lines ignored, trailing newline present
// iff the list is non-empty.
package tokens

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/chatdrive/internal/domain"
	"github.com/bnema/chatdrive/internal/ports"
)

const (
	tokenFileMode   = 0o600
	tokenDirMode    = 0o700
	tempFilePattern = ".tokens-*.tmp"
)

type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(path string) *Store {
	cleaned := filepath.Clean(path)
	return &Store{path: cleaned, mu: lockForPath(cleaned)}
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}
	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (s *Store) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("token file %q not found: %w", s.path, err)
		}
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	return lines, nil
}

// Save atomically replaces the token file with the given credentials.
func (s *Store) Save(ctx context.Context, creds []domain.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), tokenDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	var builder strings.Builder
	for _, cred := range creds {
		builder.WriteString(string(cred))
		builder.WriteByte('\n')
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.WriteString(builder.String()); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}

	if err := tempFile.Chmod(tokenFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp token file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}

	cleanup = false

	return nil
}
