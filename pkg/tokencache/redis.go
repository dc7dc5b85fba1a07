package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/kcadmin/pkg/auth"
	"github.com/redis/go-redis/v9"
)

// Redis stores tokens as JSON strings that expire with the token.
type Redis struct {
	client *redis.Client
	owned  bool
	now    func() time.Time
}

// RedisOptions converts a Config to go-redis options.
func RedisOptions(config Config) *redis.Options {
	return &redis.Options{
		Addr:     config.Address,
		Username: config.Username,
		Password: config.Password,
		DB:       config.DB,
	}
}

// NewRedis wraps an existing client. Close does not close it.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

// DialRedis connects to Redis and checks the connection.
func DialRedis(ctx context.Context, opts *redis.Options) (*Redis, error) {
	client := redis.NewClient(opts)

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &Redis{client: client, owned: true, now: time.Now}, nil
}

// Load returns the token stored under key.
func (r *Redis) Load(ctx context.Context, key string) (*auth.Token, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil //nolint:nilnil // a miss is not an error
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load token from redis: %w", err)
	}

	return decodeToken(data)
}

// Save stores token under key until both of its tokens have expired.
func (r *Redis) Save(ctx context.Context, key string, token *auth.Token) error {
	ttl := token.LastsUntil().Sub(r.now())
	if ttl <= 0 {
		err := r.client.Del(ctx, key).Err()
		if err != nil {
			return fmt.Errorf("failed to delete expired token from redis: %w", err)
		}

		return nil
	}

	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save token to redis: %w", err)
	}

	return nil
}

// Close closes the client if it was opened by DialRedis.
func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}

	return r.client.Close()
}
