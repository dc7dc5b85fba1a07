package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
)

// Persister stores tokens outside the process so that several processes, or
// successive runs, can share them.
type Persister interface {
	// Load returns the stored token, or nil and no error when there is none.
	Load(ctx context.Context, key string) (*Token, error)
	Save(ctx context.Context, key string, token *Token) error
}

// CacheKey derives the persistence key of a connection. Credentials never
// appear in the key.
func CacheKey(tokenURL, clientID, subject string) string {
	sum := sha256.Sum256([]byte(tokenURL + "\n" + clientID + "\n" + subject))

	return constants.TokenCacheKeyPrefix + hex.EncodeToString(sum[:])[:constants.TokenCacheKeyHashLength]
}

// seed loads a persisted token into the cell once. Load failures only log.
func (c *OpenIDConnection) seed(ctx context.Context) {
	if c.persister == nil {
		return
	}

	c.seedOnce.Do(func() {
		token, err := c.persister.Load(ctx, c.cacheKey)
		if err != nil {
			c.logger.Warn("Failed to load persisted token", map[string]interface{}{
				"key":   c.cacheKey,
				"error": err.Error(),
			})

			return
		}

		if token == nil || token.Validate() != nil {
			return
		}

		c.store.Set(token)
		c.logger.Debug("Loaded persisted token", map[string]interface{}{
			"key":        c.cacheKey,
			"expires_at": token.ExpiresAt(),
		})
	})
}

// persist writes through after a fetch. A failure never fails the request.
func (c *OpenIDConnection) persist(ctx context.Context, token *Token) {
	if c.persister == nil {
		return
	}

	err := c.persister.Save(ctx, c.cacheKey, token)
	if err != nil {
		c.logger.Warn("Failed to persist token", map[string]interface{}{
			"key":   c.cacheKey,
			"error": err.Error(),
		})
	}
}
