package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/subauthgw/internal/config"
	"github.com/vyrodovalexey/subauthgw/internal/observability"
	"github.com/vyrodovalexey/subauthgw/internal/subscription"
)

// Redis key suffixes under the configured prefix.
const (
	redisRecordKey = "sub:"
	redisClaimKey  = "claim:"
)

// RedisStore is a Redis-backed Store. Records are stored as JSON under
// "<prefix>sub:<id>"; a secondary index "<prefix>claim:<claim>" maps a
// federated-identity claim to a subscription id.
type RedisStore struct {
	logger    observability.Logger
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, logger observability.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout.Duration(),
		ReadTimeout:  cfg.ReadTimeout.Duration(),
		WriteTimeout: cfg.WriteTimeout.Duration(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	logger.Info("redis subscription store connected",
		observability.String("address", cfg.Address),
		observability.Int("db", cfg.DB))

	return &RedisStore{
		logger:    logger,
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// FetchByID implements Store.
func (s *RedisStore) FetchByID(ctx context.Context, id string) (*subscription.Record, error) {
	key := s.keyPrefix + redisRecordKey + strings.ToLower(id)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, mapRedisError(err)
	}
	return decodeRecord(data)
}

// FetchByClaim implements Store. The claim index is followed to the
// record, which must carry matching federated-identity fields; a stale
// index entry is reported as not found.
func (s *RedisStore) FetchByClaim(ctx context.Context, claim string) (*subscription.Record, error) {
	lowered := strings.ToLower(claim)

	id, err := s.client.Get(ctx, s.keyPrefix+redisClaimKey+lowered).Result()
	if err != nil {
		return nil, mapRedisError(err)
	}

	rec, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsEntraUser || !strings.EqualFold(rec.EntraUser, lowered) {
		s.logger.Warn("stale claim index entry",
			observability.String("claim", lowered),
			observability.String("id", id))
		return nil, ErrNotFound
	}
	return rec, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// decodeRecord unmarshals a stored record. Undecodable payloads are a
// data-quality problem, not an absence, and are reported as invalid.
func decodeRecord(data []byte) (*subscription.Record, error) {
	var rec subscription.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decoding stored record: %v", subscription.ErrInvalidRecord, err)
	}
	return &rec, nil
}

// mapRedisError translates go-redis errors into store errors. A missing
// key is ErrNotFound; everything else, timeouts included, is a
// retryable backend failure.
func mapRedisError(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
