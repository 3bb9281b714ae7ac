// Package identity verifies operator credentials against stored bcrypt
// hashes. It only accepts or rejects; there are no roles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Verifier accepts or rejects a username and password. An error means the
// credential store could not be consulted, not that the password was wrong.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewStaticVerifier verifies against an in-memory username to hash map.
func NewStaticVerifier(hashes map[string]string) *Service {
	return NewService(NewMemoryRepository(hashes))
}

// LoadFileVerifier verifies against the users listed in a YAML file.
func LoadFileVerifier(path string) (*Service, error) {
	repo, err := LoadFileRepository(path)
	if err != nil {
		return nil, err
	}
	return NewService(repo), nil
}

func (s *Service) Verify(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	hash, err := s.repo.PasswordHash(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		// Compare anyway so unknown users take as long as known ones.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup credentials: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// HashPassword produces the stored form of a password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", errors.New("password too short")
	}
	if len(password) > MaxPasswordLength {
		return "", errors.New("password too long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("resistx-unknown-user"), bcrypt.DefaultCost)
	})
	return dummy
}

// NewRedisVerifier verifies against the hash stored at key.
func NewRedisVerifier(client *redis.Client, key string) *Service {
	return NewService(NewRedisRepository(client, key))
}
