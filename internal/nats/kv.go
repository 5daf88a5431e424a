package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

const tokenKey = "token"

// TokenStore keeps the session token in a JetStream key-value bucket.
type TokenStore struct {
	kv jetstream.KeyValue
}

func NewTokenStore(kv jetstream.KeyValue) *TokenStore {
	return &TokenStore{kv: kv}
}

func (s *TokenStore) Get(ctx context.Context) (string, error) {
	entry, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read key %s: %w", tokenKey, err)
	}

	return string(entry.Value()), nil
}

func (s *TokenStore) Put(ctx context.Context, token string) error {
	_, err := s.kv.Put(ctx, tokenKey, []byte(token))
	if err != nil {
		return fmt.Errorf("failed to store key %s: %w", tokenKey, err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	err := s.kv.Delete(ctx, tokenKey)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", tokenKey, err)
	}
	return nil
}
