package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/fivetwenty-io/kcadmin/pkg/auth"
	"github.com/nats-io/nats.go"
)

// KeyValue is the part of nats.KeyValue used to store tokens.
type KeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
}

// NATS stores tokens in a JetStream key-value bucket. The bucket has no
// per-key expiry, so expired tokens are dropped when loaded.
type NATS struct {
	kv   KeyValue
	conn *nats.Conn
	now  func() time.Time
}

// NewNATS wraps an existing bucket.
func NewNATS(kv KeyValue) *NATS {
	return &NATS{kv: kv, now: time.Now}
}

// DialNATS connects to url and opens bucket, creating it if needed.
func DialNATS(url, bucket string) (*NATS, error) {
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "kcadmin OAuth2 tokens",
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open key-value bucket %s: %w", bucket, err)
	}

	return &NATS{kv: kv, conn: conn, now: time.Now}, nil
}

// Load returns the token stored under key.
func (n *NATS) Load(_ context.Context, key string) (*auth.Token, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, nil //nolint:nilnil // a miss is not an error
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load token from NATS: %w", err)
	}

	token, err := decodeToken(entry.Value())
	if err != nil {
		return nil, err
	}

	if expired(token, n.now()) {
		_ = n.kv.Delete(key)

		return nil, nil //nolint:nilnil // a miss is not an error
	}

	return token, nil
}

// Save stores token under key.
func (n *NATS) Save(_ context.Context, key string, token *auth.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	_, err = n.kv.Put(key, data)
	if err != nil {
		return fmt.Errorf("failed to save token to NATS: %w", err)
	}

	return nil
}

// Close closes the connection if it was opened by DialNATS.
func (n *NATS) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}

	return nil
}
