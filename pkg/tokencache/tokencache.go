// Package tokencache provides auth.Persister backends so that tokens survive
// process restarts and can be shared between processes: in memory, Redis and
// a NATS JetStream key-value bucket.
package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/fivetwenty-io/kcadmin/pkg/auth"
)

// Static errors for err113 compliance.
var (
	ErrAddressRequired = constants.ErrCacheAddressRequired
	ErrUnsupportedType = constants.ErrUnknownCacheBackend
)

// Type represents the type of cache backend.
type Type string

const (
	// TypeMemory keeps tokens in the process.
	TypeMemory Type = constants.CacheBackendMemory

	// TypeRedis stores tokens in Redis.
	TypeRedis Type = constants.CacheBackendRedis

	// TypeNATS stores tokens in a NATS JetStream key-value bucket.
	TypeNATS Type = constants.CacheBackendNATS

	// TypeNone disables persistence.
	TypeNone Type = "none"
)

// Cache is a closable auth.Persister.
type Cache interface {
	auth.Persister
	Close() error
}

// Config configures a cache backend.
type Config struct {
	// Type is the cache backend type. Empty means TypeNone.
	Type Type `mapstructure:"type"`

	// Address is the Redis address (host:port) or the NATS server URL.
	Address string `mapstructure:"address"`

	// Username, Password and DB are used by Redis only.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Bucket is the NATS key-value bucket. Defaults to kcadmin_tokens.
	Bucket string `mapstructure:"bucket"`
}

// New creates a cache backend from configuration. A TypeNone config returns
// a nil Cache and no error.
func New(ctx context.Context, config Config) (Cache, error) {
	switch config.Type {
	case TypeNone, "":
		return nil, nil //nolint:nilnil // no cache configured is not an error
	case TypeMemory:
		return NewMemory(), nil
	case TypeRedis:
		if config.Address == "" {
			return nil, fmt.Errorf("%w for %s", ErrAddressRequired, config.Type)
		}

		cache, err := DialRedis(ctx, RedisOptions(config))
		if err != nil {
			return nil, err
		}

		return cache, nil
	case TypeNATS:
		if config.Address == "" {
			return nil, fmt.Errorf("%w for %s", ErrAddressRequired, config.Type)
		}

		cache, err := DialNATS(config.Address, config.Bucket)
		if err != nil {
			return nil, err
		}

		return cache, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, config.Type)
	}
}

func encodeToken(token *auth.Token) ([]byte, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}

	return data, nil
}

func decodeToken(data []byte) (*auth.Token, error) {
	var token auth.Token

	err := json.Unmarshal(data, &token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	err = token.Validate()
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// expired reports whether neither the access nor the refresh token can be
// used anymore.
func expired(token *auth.Token, now time.Time) bool {
	return !now.Before(token.LastsUntil())
}

// Chain implements a chain of caches (L1, L2, etc.).
type Chain struct {
	caches []auth.Persister
}

// NewChain creates a new cache chain. Nil entries are skipped.
func NewChain(caches ...auth.Persister) *Chain {
	chain := &Chain{}

	for _, cache := range caches {
		if cache != nil {
			chain.caches = append(chain.caches, cache)
		}
	}

	return chain
}

// Load returns the first token found, copying it into earlier caches.
func (c *Chain) Load(ctx context.Context, key string) (*auth.Token, error) {
	var errs []error

	for i, cache := range c.caches {
		token, err := cache.Load(ctx, key)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if token == nil {
			continue
		}

		for j := range i {
			_ = c.caches[j].Save(ctx, key, token)
		}

		return token, nil
	}

	return nil, errors.Join(errs...)
}

// Save stores the token in all caches.
func (c *Chain) Save(ctx context.Context, key string, token *auth.Token) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Save(ctx, key, token)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every cache in the chain that can be closed.
func (c *Chain) Close() error {
	var errs []error

	for _, cache := range c.caches {
		if closer, ok := cache.(interface{ Close() error }); ok {
			err := closer.Close()
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
