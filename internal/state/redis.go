package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps the state document under a single Redis key, for
// deployments without a writable volume.
type RedisStore struct {
	client   *redis.Client
	key      string
	capacity int
	logger   zerolog.Logger
}

// RedisOptions parameterise the Redis state backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(opts RedisOptions, capacity int, logger zerolog.Logger) *RedisStore {
	key := opts.Key
	if key == "" {
		key = "newswatcher:state"
	}

	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		key:      key,
		capacity: capacity,
		logger:   logger.With().Str("component", "state_redis").Logger(),
	}
}

// Load fetches the state document. The same corruption and legacy-schema
// handling applies as for the file backend.
func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(r.capacity), nil
		}
		return nil, fmt.Errorf("read state key: %w", err)
	}

	s, legacy, err := decodeState(payload, r.capacity)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", r.key).Msg("state document corrupt; starting fresh")
		return New(r.capacity), nil
	}

	if legacy {
		r.logger.Info().Str("key", r.key).Msg("upgrading legacy state document schema")
		if err := r.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("rewrite legacy state document: %w", err)
		}
	}

	return s, nil
}

// Save stores the document without expiry.
func (r *RedisStore) Save(ctx context.Context, s *State) error {
	payload, err := encodeState(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write state key: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ Store = (*RedisStore)(nil)
