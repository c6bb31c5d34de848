package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/wpmcp/tokenbroker/models"
)

// ValkeyPendingStore keeps pending authorizations in Valkey (Redis-compatible)
// with native TTLs. It is an optional backend for deployments that already
// run a Valkey next to the broker; the in-memory store remains the default.
type ValkeyPendingStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyPendingStore connects to addr and returns the store. prefix
// namespaces the keys; it defaults to "wpmcp:".
func NewValkeyPendingStore(addr, prefix string) (*ValkeyPendingStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "wpmcp:"
	}
	return &ValkeyPendingStore{client: cli, prefix: prefix}, nil
}

// NewValkeyPendingStoreWithClient wraps an existing client.
func NewValkeyPendingStoreWithClient(client valkey.Client, prefix string) *ValkeyPendingStore {
	if prefix == "" {
		prefix = "wpmcp:"
	}
	return &ValkeyPendingStore{client: client, prefix: prefix}
}

func (s *ValkeyPendingStore) key(state string) string {
	return fmt.Sprintf("%spending:%s", s.prefix, state)
}

// Register stores the pending authorization under its state with the
// remaining lifetime as the key TTL.
func (s *ValkeyPendingStore) Register(ctx context.Context, pa models.PendingAuthorization) error {
	ttl := time.Until(pa.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("pending authorization already expired")
	}
	data, err := json.Marshal(pa)
	if err != nil {
		return fmt.Errorf("failed to marshal pending authorization: %w", err)
	}
	return s.client.Do(ctx, s.client.B().Set().Key(s.key(pa.State)).Value(string(data)).Ex(ttl).Build()).Error()
}

// Consume fetches and deletes the pending authorization for state. Valkey's
// TTL already hides expired entries; the expiry check here covers clock skew
// between the broker and the server.
func (s *ValkeyPendingStore) Consume(ctx context.Context, state string) (models.PendingAuthorization, bool, error) {
	key := s.key(state)

	res := s.client.Do(ctx, s.client.B().Getdel().Key(key).Build())
	if res.Error() != nil {
		if valkey.IsValkeyNil(res.Error()) {
			return models.PendingAuthorization{}, false, nil
		}
		return models.PendingAuthorization{}, false, res.Error()
	}

	val, err := res.ToString()
	if err != nil || val == "" {
		return models.PendingAuthorization{}, false, nil
	}

	var pa models.PendingAuthorization
	if err := json.Unmarshal([]byte(val), &pa); err != nil {
		return models.PendingAuthorization{}, false, fmt.Errorf("failed to unmarshal pending authorization: %w", err)
	}
	if pa.Expired(time.Now()) {
		return models.PendingAuthorization{}, false, nil
	}
	return pa, true, nil
}

// Close releases the underlying client.
func (s *ValkeyPendingStore) Close() {
	s.client.Close()
}
