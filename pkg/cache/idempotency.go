package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "idempotency:"

	// pendingTTL bounds how long a reservation outlives a crashed request
	pendingTTL = time.Minute
)

// ErrInProgress is returned by Reserve while another request holds the key
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// pendingRecord marks a reserved key that has no response yet
var pendingRecord = []byte(`{"status":0}`)

// KV is the subset of the Redis client used for idempotency records
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedResponse is a stored HTTP response replayed for a repeated Idempotency-Key
type CachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Pending reports whether the record is a reservation without a response
func (r CachedResponse) Pending() bool {
	return r.Status == 0
}

// Idempotency remembers responses by client-supplied key
type Idempotency struct {
	client KV
	ttl    time.Duration
}

// NewIdempotency creates an idempotency store; ttl 0 keeps records forever
func NewIdempotency(client KV, ttl time.Duration) *Idempotency {
	return &Idempotency{client: client, ttl: ttl}
}

// Reserve claims the key for the caller. It returns (nil, nil) when the
// caller owns the key and must Save or Release it, the stored response when
// the key already completed, and ErrInProgress while another request holds it.
func (i *Idempotency) Reserve(ctx context.Context, scope, key string) (*CachedResponse, error) {
	ok, err := i.client.SetNX(ctx, idempotencyKey(scope, key), pendingRecord, pendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	resp, err := i.Lookup(ctx, scope, key)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Pending() {
		return nil, ErrInProgress
	}
	return resp, nil
}

// Release drops a reservation so the key can be retried
func (i *Idempotency) Release(ctx context.Context, scope, key string) error {
	if err := i.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Lookup returns the stored response, or nil when the key is new
func (i *Idempotency) Lookup(ctx context.Context, scope, key string) (*CachedResponse, error) {
	raw, err := i.client.Get(ctx, idempotencyKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("corrupt idempotency record: %w", err)
	}
	return &resp, nil
}

// Save stores the response under the key
func (i *Idempotency) Save(ctx context.Context, scope, key string, resp CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	if err := i.client.Set(ctx, idempotencyKey(scope, key), raw, i.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write idempotency record: %w", err)
	}
	return nil
}

func idempotencyKey(scope, key string) string {
	return idempotencyPrefix + scope + ":" + key
}
