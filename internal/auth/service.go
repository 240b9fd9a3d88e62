package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/rallyops/designops/internal/access"
)

// ErrInvalidKey is returned when the provided API key does not match any active key.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// KeyPrefix starts every raw API key.
const KeyPrefix = "dops_"

// KeyService issues and authenticates API keys for machine clients.
type KeyService struct {
	repo       KeyRepository
	bcryptCost int
}

// NewKeyService creates a new KeyService.
func NewKeyService(repo KeyRepository, bcryptCost int) *KeyService {
	return &KeyService{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first 8 chars),
// and the bcrypt hash. The raw key is: 32 random bytes -> base64url -> prepend "dops_".
func (s *KeyService) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Issue mints and stores a key with the given role. The raw key is returned
// once and never stored.
func (s *KeyService) Issue(ctx context.Context, name string, role access.Role) (*APIKey, string, error) {
	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	key := &APIKey{
		Name:   name,
		Prefix: prefix,
		Hash:   hash,
		Role:   role,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, "", fmt.Errorf("creating api key: %w", err)
	}

	slog.Info("api key issued", "keyId", key.ID, "name", name, "role", role)
	return key, rawKey, nil
}

// Authenticate resolves a raw API key to its stored record. It extracts the
// prefix, looks up candidates, and bcrypt-compares each one.
func (s *KeyService) Authenticate(ctx context.Context, rawKey string) (*APIKey, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.repo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding keys by prefix: %w", err)
	}

	for _, k := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(rawKey)) == nil {
			return &k, nil
		}
	}

	return nil, ErrInvalidKey
}

// List returns every issued key.
func (s *KeyService) List(ctx context.Context) ([]APIKey, error) {
	return s.repo.List(ctx)
}

// Revoke disables a key permanently.
func (s *KeyService) Revoke(ctx context.Context, id string) error {
	if err := s.repo.Revoke(ctx, id); err != nil {
		return err
	}
	slog.Info("api key revoked", "keyId", id)
	return nil
}
