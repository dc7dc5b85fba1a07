package tokencache

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/kcadmin/pkg/auth"
)

// Memory keeps tokens in process memory.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]*auth.Token
	now    func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		tokens: make(map[string]*auth.Token),
		now:    time.Now,
	}
}

// Load returns the token stored under key, dropping it once unusable.
func (m *Memory) Load(_ context.Context, key string) (*auth.Token, error) {
	m.mu.RLock()
	token, ok := m.tokens[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil //nolint:nilnil // a miss is not an error
	}

	if expired(token, m.now()) {
		m.mu.Lock()
		delete(m.tokens, key)
		m.mu.Unlock()

		return nil, nil //nolint:nilnil // a miss is not an error
	}

	return token, nil
}

// Save stores token under key.
func (m *Memory) Save(_ context.Context, key string, token *auth.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[key] = token

	return nil
}

// Len returns the number of stored tokens.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.tokens)
}

// Close implements Cache.
func (m *Memory) Close() error {
	return nil
}
