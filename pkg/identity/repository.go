package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

var ErrUserNotFound = errors.New("user not found")

// Repository looks up the stored bcrypt hash for a username.
type Repository interface {
	PasswordHash(ctx context.Context, username string) (string, error)
}

type MemoryRepository struct {
	hashes map[string]string
}

func NewMemoryRepository(hashes map[string]string) *MemoryRepository {
	copied := make(map[string]string, len(hashes))
	for user, hash := range hashes {
		copied[user] = hash
	}
	return &MemoryRepository{hashes: copied}
}

func (r *MemoryRepository) PasswordHash(_ context.Context, username string) (string, error) {
	hash, ok := r.hashes[username]
	if !ok {
		return "", ErrUserNotFound
	}
	return hash, nil
}

type credentialsFile struct {
	Users []struct {
		Username     string `yaml:"username"`
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"users"`
}

// LoadFileRepository reads a YAML file of the form
//
//	users:
//	  - username: nurse1
//	    password_hash: $2a$10$...
func LoadFileRepository(path string) (*MemoryRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	hashes := make(map[string]string, len(file.Users))
	for i, u := range file.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("credentials file: user %d needs username and password_hash", i)
		}
		if _, dup := hashes[name]; dup {
			return nil, fmt.Errorf("credentials file: duplicate user %q", name)
		}
		hashes[name] = u.PasswordHash
	}
	return &MemoryRepository{hashes: hashes}, nil
}

// RedisRepository keeps hashes in a single redis hash, one field per user.
type RedisRepository struct {
	client *redis.Client
	key    string
}

func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	return &RedisRepository{client: client, key: key}
}

func (r *RedisRepository) PasswordHash(ctx context.Context, username string) (string, error) {
	hash, err := r.client.HGet(ctx, r.key, username).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}
