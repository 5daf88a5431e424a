package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yallapost/internal/config"
	"yallapost/internal/core"
	"yallapost/internal/nats"
)

var (
	ErrStorage      = errors.New("token storage error")
	ErrUnknownStore = errors.New("unknown token store")
)

// CloseFunc releases the connections held by a token store.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error {
	return nil
}

// Open builds the token store selected by the config.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.TokenStore, CloseFunc, error) {
	logger = logger.With("component", "storage.Open", "store", cfg.TokenStore)

	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return NewMemory(""), noopClose, nil

	case config.TokenStoreFile:
		logger.Debug("using token file", "path", cfg.TokenFile)
		return NewFile(cfg.TokenFile), noopClose, nil

	case config.TokenStoreRedis:
		client, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("connected to redis", "addr", cfg.RedisAddr)
		return NewRedis(client), func(context.Context) error { return client.Close() }, nil

	case config.TokenStoreNATS:
		conn := &nats.NATS{Logger: logger, Config: cfg}
		if err := conn.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		logger.Debug("connected to nats", "url", cfg.NATSURL)
		return &natsStore{TokenStore: nats.NewTokenStore(conn.KV), conn: conn}, conn.Shutdown, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.TokenStore)
}

// natsStore keeps the connection next to the bucket so health checks reach it.
type natsStore struct {
	*nats.TokenStore
	conn *nats.NATS
}

func (s *natsStore) HealthCheck(ctx context.Context) error {
	return s.conn.HealthCheck(ctx)
}
