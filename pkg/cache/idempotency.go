package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker holds a reserved key until its response is saved
const pendingMarker = "pending"

// StoredResponse is a response kept for replay under an idempotency key
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// ResponseStore remembers responses of idempotent requests. A request first
// reserves its key, then either saves its response or releases the key.
type ResponseStore interface {
	// Load returns the stored response, or ok=false when the key is unknown,
	// expired or still reserved
	Load(ctx context.Context, key string) (resp *StoredResponse, ok bool, err error)
	// Reserve claims the key for one in-flight request. It reports false when
	// the key is already reserved or answered.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Save stores the response, replacing the reservation
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Release drops a reservation that has no response
	Release(ctx context.Context, key string) error
}

// releaseScript deletes the key only while it still holds the pending marker
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisResponseStore keeps responses in Redis as JSON under a key prefix
type RedisResponseStore struct {
	client *redis.Client
	prefix string
}

// NewRedisResponseStore creates a store writing keys as prefix:key
func NewRedisResponseStore(client *redis.Client, prefix string) *RedisResponseStore {
	return &RedisResponseStore{client: client, prefix: prefix}
}

// Load fetches a stored response
func (s *RedisResponseStore) Load(ctx context.Context, key string) (*StoredResponse, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load idempotent response: %w", err)
	}
	if string(raw) == pendingMarker {
		return nil, false, nil
	}

	var resp StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, true, nil
}

// Reserve sets the pending marker with SETNX
func (s *RedisResponseStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Save stores a response with expiry
func (s *RedisResponseStore) Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save idempotent response: %w", err)
	}
	return nil
}

// Release deletes the key if it still holds the pending marker
func (s *RedisResponseStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *RedisResponseStore) key(k string) string {
	return s.prefix + ":" + k
}

// MemoryResponseStore keeps responses in process memory. Used when Redis is disabled.
type MemoryResponseStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	resp      *StoredResponse // nil while reserved
	expiresAt time.Time
}

// NewMemoryResponseStore creates an empty in-process store
func NewMemoryResponseStore() *MemoryResponseStore {
	return &MemoryResponseStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Load fetches a stored response, dropping it if expired
func (s *MemoryResponseStore) Load(_ context.Context, key string) (*StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok || e.resp == nil {
		return nil, false, nil
	}
	resp := *e.resp
	return &resp, true, nil
}

// Reserve claims an unused or expired key
func (s *MemoryResponseStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Save stores a response with expiry
func (s *MemoryResponseStore) Save(_ context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{resp: &resp, expiresAt: s.now().Add(ttl)}
	return nil
}

// Release drops the key if it is still only reserved
func (s *MemoryResponseStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.resp == nil {
		delete(s.entries, key)
	}
	return nil
}

// live returns the unexpired entry for key. Callers hold mu.
func (s *MemoryResponseStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}
