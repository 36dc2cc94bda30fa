// db/redis.go
package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
)

const (
	defaultCacheTimeout = 2 * time.Second
	scanBatchSize       = 100
)

// CacheConfig configures the Redis backed CacheStore.
type CacheConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// CacheStats is a best-effort snapshot of the cache backend.
type CacheStats struct {
	Enabled          bool   `json:"enabled"`
	Connected        bool   `json:"connected"`
	Status           string `json:"status"`
	KeyCount         int64  `json:"key_count"`
	TotalKeys        int64  `json:"total_keys"`
	MemoryUsed       string `json:"memory_used"`
	ConnectedClients int64  `json:"connected_clients"`
}

// CacheStore is a fail-open key/value store on top of Redis. No method
// returns an error: backend failures are logged and reported as a miss or a
// no-op. The first failed connection attempt disables the store for the
// rest of the process lifetime.
type CacheStore struct {
	cfg      CacheConfig
	client   atomic.Pointer[redis.Client]
	disabled atomic.Bool

	mu       sync.Mutex
	dialDone chan struct{}
}

func NewCacheStore(cfg CacheConfig) *CacheStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCacheTimeout
	}
	return &CacheStore{cfg: cfg}
}

// Enabled reports the configuration flag.
func (s *CacheStore) Enabled() bool {
	return s.cfg.Enabled
}

// Connected reports whether a live client is held.
func (s *CacheStore) Connected() bool {
	return s.client.Load() != nil && !s.disabled.Load()
}

// Connect returns the shared client, dialing it on first use. A single
// dial runs detached from ctx under the configured timeout; callers stop
// waiting when their own context ends.
func (s *CacheStore) Connect(ctx context.Context) (*redis.Client, bool) {
	if !s.cfg.Enabled || s.disabled.Load() {
		return nil, false
	}
	if client := s.client.Load(); client != nil {
		return client, true
	}
	if ctx.Err() != nil {
		return nil, false
	}

	s.mu.Lock()
	done := s.dialDone
	if done == nil {
		done = make(chan struct{})
		s.dialDone = done
		go s.dial(done)
	}
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, false
	}
	client := s.client.Load()
	if client == nil || s.disabled.Load() {
		return nil, false
	}
	return client, true
}

// dial opens and pings the client. Failure latches the store disabled.
func (s *CacheStore) dial(done chan struct{}) {
	defer close(done)

	opts, err := redis.ParseURL(s.cfg.URL)
	if err != nil {
		s.disable(fmt.Errorf("invalid cache url: %w", err))
		return
	}
	opts.DialTimeout = s.cfg.Timeout
	opts.ReadTimeout = s.cfg.Timeout
	opts.WriteTimeout = s.cfg.Timeout
	opts.PoolTimeout = s.cfg.Timeout
	opts.ContextTimeoutEnabled = true
	opts.MaxRetries = -1

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		s.disable(err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled.Load() {
		// Closed while dialing.
		_ = client.Close()
		return
	}
	s.client.Store(client)
	logger.Info("Redis cache connected successfully", zap.String("addr", opts.Addr))
}

func (s *CacheStore) disable(err error) {
	if s.disabled.CompareAndSwap(false, true) {
		logger.Warn("Redis connection failed. Cache disabled.", zap.Error(err))
	}
}

// Close releases the client. The store stays disabled afterwards.
func (s *CacheStore) Close() {
	s.mu.Lock()
	s.disabled.Store(true)
	s.mu.Unlock()
	if client := s.client.Swap(nil); client != nil {
		if err := client.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func (s *CacheStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// Put stores value as JSON under key for ttl.
func (s *CacheStore) Put(ctx context.Context, key string, value any, ttl time.Duration) bool {
	client, ok := s.Connect(ctx)
	if !ok {
		return false
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache value", zap.String("key", key), zap.Error(err))
		return false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := client.Set(opCtx, key, payload, ttl).Err(); err != nil {
		logger.Warn("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	logger.Debug("Cache entry written", zap.String("key", key), zap.Duration("ttl", ttl))
	return true
}

// Get decodes the value stored under key into dest. Unknown fields are a
// decode failure. Any failure is a miss.
func (s *CacheStore) Get(ctx context.Context, key string, dest any) bool {
	client, ok := s.Connect(ctx)
	if !ok {
		return false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	payload, err := client.Get(opCtx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("Cache miss", zap.String("key", key))
		return false
	} else if err != nil {
		logger.Warn("Failed to read cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		logger.Warn("Failed to decode cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	logger.Debug("Cache hit", zap.String("key", key))
	return true
}

// Delete removes key. It reports false when nothing was removed.
func (s *CacheStore) Delete(ctx context.Context, key string) bool {
	client, ok := s.Connect(ctx)
	if !ok {
		return false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	deleted, err := client.Del(opCtx, key).Result()
	if err != nil {
		logger.Warn("Failed to delete cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	if deleted > 0 {
		logger.Debug("Cache entry deleted", zap.String("key", key))
	}
	return deleted > 0
}

// ClearNamespace deletes every key starting with prefix.
func (s *CacheStore) ClearNamespace(ctx context.Context, prefix string) bool {
	client, ok := s.Connect(ctx)
	if !ok {
		return false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := client.Scan(opCtx, cursor, matchPattern(prefix), scanBatchSize).Result()
		if err != nil {
			logger.Warn("Failed to scan cache namespace", zap.String("prefix", prefix), zap.Error(err))
			return false
		}
		if len(keys) > 0 {
			n, err := client.Del(opCtx, keys...).Result()
			if err != nil {
				logger.Warn("Failed to clear cache namespace", zap.String("prefix", prefix), zap.Error(err))
				return false
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	logger.Info("Cleared cache namespace", zap.String("prefix", prefix), zap.Int64("removed", removed))
	return true
}

// Stats never fails; an unreachable backend yields Connected=false.
func (s *CacheStore) Stats(ctx context.Context, prefix string) CacheStats {
	if !s.cfg.Enabled {
		return CacheStats{Enabled: false, Connected: false, Status: "disabled"}
	}
	client, ok := s.Connect(ctx)
	if !ok {
		return CacheStats{Enabled: true, Connected: false, Status: "unavailable"}
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	stats := CacheStats{Enabled: true, Connected: true, Status: "connected", MemoryUsed: "unknown"}

	count, err := s.countKeys(opCtx, client, prefix)
	if err != nil {
		logger.Warn("Failed to count cache keys", zap.String("prefix", prefix), zap.Error(err))
		stats.Connected = false
		stats.Status = "error: " + err.Error()
		return stats
	}
	stats.KeyCount = count

	if total, err := client.DBSize(opCtx).Result(); err == nil {
		stats.TotalKeys = total
	}
	if info, err := client.Info(opCtx).Result(); err == nil {
		fields := parseInfo(info)
		if v, ok := fields["used_memory_human"]; ok {
			stats.MemoryUsed = v
		}
		if v, ok := fields["connected_clients"]; ok {
			stats.ConnectedClients, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	return stats
}

func (s *CacheStore) countKeys(ctx context.Context, client *redis.Client, prefix string) (int64, error) {
	var (
		cursor uint64
		count  int64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, matchPattern(prefix), scanBatchSize).Result()
		if err != nil {
			return 0, err
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// matchPattern escapes glob metacharacters in prefix and appends "*".
func matchPattern(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('*')
	return b.String()
}

// parseInfo reads the "key:value" lines of an INFO reply.
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			fields[k] = v
		}
	}
	return fields
}
