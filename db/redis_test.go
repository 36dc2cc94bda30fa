package db

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*CacheStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewCacheStore(CacheConfig{Enabled: true, URL: "redis://" + mr.Addr() + "/0", Timeout: time.Second})
	t.Cleanup(store.Close)
	return store, mr
}

func TestCacheStore_Disabled(t *testing.T) {
	store := NewCacheStore(CacheConfig{Enabled: false, URL: "redis://127.0.0.1:1/0"})
	ctx := context.Background()

	client, ok := store.Connect(ctx)
	assert.Nil(t, client)
	assert.False(t, ok)
	assert.False(t, store.Put(ctx, "k", entry{Name: "a"}, time.Minute))

	var out entry
	assert.False(t, store.Get(ctx, "k", &out))
	assert.False(t, store.Delete(ctx, "k"))
	assert.False(t, store.ClearNamespace(ctx, "k"))
	assert.True(t, store.Allow(ctx, "ip", 1, time.Minute))

	stats := store.Stats(ctx, "k")
	assert.False(t, stats.Enabled)
	assert.False(t, stats.Connected)
	assert.Equal(t, "disabled", stats.Status)
}

func TestCacheStore_PutGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Put(ctx, "principal:alice", entry{Name: "alice", Count: 3}, 5*time.Minute))
	assert.True(t, mr.Exists("principal:alice"))
	assert.Equal(t, 5*time.Minute, mr.TTL("principal:alice"))

	var out entry
	require.True(t, store.Get(ctx, "principal:alice", &out))
	assert.Equal(t, entry{Name: "alice", Count: 3}, out)

	assert.True(t, store.Delete(ctx, "principal:alice"))
	assert.False(t, store.Delete(ctx, "principal:alice"))
	assert.False(t, store.Get(ctx, "principal:alice", &out))
}

func TestCacheStore_ReusesConnection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, ok := store.Connect(ctx)
	require.True(t, ok)
	second, ok := store.Connect(ctx)
	require.True(t, ok)
	assert.Same(t, first, second)
	assert.True(t, store.Connected())
}

func TestCacheStore_ConcurrentConnect(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put(ctx, "k", entry{Name: "x"}, time.Minute)
		}()
	}
	wg.Wait()

	var out entry
	assert.True(t, store.Get(ctx, "k", &out))

	first, ok := store.Connect(ctx)
	require.True(t, ok)
	clients := make(chan any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, _ := store.Connect(ctx)
			clients <- client
		}()
	}
	wg.Wait()
	close(clients)
	for c := range clients {
		assert.Same(t, first, c)
	}
}

func TestCacheStore_ExpiredEntryIsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Put(ctx, "k", entry{Name: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out entry
	assert.False(t, store.Get(ctx, "k", &out))
}

func TestCacheStore_CorruptEntryIsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	var out entry
	require.NoError(t, mr.Set("garbage", "{not json"))
	assert.False(t, store.Get(ctx, "garbage", &out))

	require.NoError(t, mr.Set("extra", `{"name":"a","count":1,"unexpected":true}`))
	assert.False(t, store.Get(ctx, "extra", &out))

	// Corrupt entries are left in place.
	assert.True(t, mr.Exists("garbage"))
}

func TestCacheStore_ClearNamespace(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		require.True(t, store.Put(ctx, "principal:"+name, entry{Name: name}, time.Minute))
	}
	require.NoError(t, mr.Set("session:alice", "keep"))

	assert.True(t, store.ClearNamespace(ctx, "principal:"))
	assert.False(t, mr.Exists("principal:alice"))
	assert.False(t, mr.Exists("principal:bob"))
	assert.False(t, mr.Exists("principal:carol"))
	assert.True(t, mr.Exists("session:alice"))

	// Clearing an empty namespace still succeeds.
	assert.True(t, store.ClearNamespace(ctx, "principal:"))
}

func TestCacheStore_Stats(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Put(ctx, "principal:alice", entry{Name: "alice"}, time.Minute))
	require.True(t, store.Put(ctx, "principal:bob", entry{Name: "bob"}, time.Minute))
	require.NoError(t, mr.Set("other", "1"))

	stats := store.Stats(ctx, "principal:")
	assert.True(t, stats.Enabled)
	assert.True(t, stats.Connected)
	assert.Equal(t, "connected", stats.Status)
	assert.Equal(t, int64(2), stats.KeyCount)
	assert.Equal(t, int64(3), stats.TotalKeys)
}

func TestCacheStore_UnreachableBackendDisablesStore(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	store := NewCacheStore(CacheConfig{Enabled: true, URL: "redis://" + addr + "/0", Timeout: 200 * time.Millisecond})
	ctx := context.Background()

	assert.False(t, store.Put(ctx, "k", entry{Name: "x"}, time.Minute))

	stats := store.Stats(ctx, "principal:")
	assert.True(t, stats.Enabled)
	assert.False(t, stats.Connected)
	assert.Equal(t, "unavailable", stats.Status)

	// The store stays disabled even once the backend is back.
	restarted := miniredis.NewMiniRedis()
	require.NoError(t, restarted.StartAddr(addr))
	t.Cleanup(restarted.Close)

	_, ok := store.Connect(ctx)
	assert.False(t, ok)
}

func TestCacheStore_CancelledCallerDoesNotDisable(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := store.Connect(ctx)
	assert.False(t, ok)

	_, ok = store.Connect(context.Background())
	assert.True(t, ok)
}

// silentListener accepts connections and never writes a byte back.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestCacheStore_SilentBackendLatchesDespiteShortCallerDeadline(t *testing.T) {
	store := NewCacheStore(CacheConfig{Enabled: true, URL: "redis://" + silentListener(t) + "/0", Timeout: 200 * time.Millisecond})
	t.Cleanup(store.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	var out entry
	assert.False(t, store.Get(ctx, "k", &out))
	assert.Less(t, time.Since(start), 150*time.Millisecond, "caller should stop at its own deadline")

	require.Eventually(t, func() bool {
		return store.Stats(context.Background(), "k").Status == "unavailable"
	}, 2*time.Second, 20*time.Millisecond)
	assert.False(t, store.Connected())

	start = time.Now()
	assert.False(t, store.Get(context.Background(), "k", &out))
	assert.False(t, store.Put(context.Background(), "k", entry{Name: "a"}, time.Minute))
	assert.Less(t, time.Since(start), 20*time.Millisecond, "latched store must not redial")
}

func TestCacheStore_InvalidURLDisables(t *testing.T) {
	store := NewCacheStore(CacheConfig{Enabled: true, URL: "::not a url"})
	_, ok := store.Connect(context.Background())
	assert.False(t, ok)
	assert.False(t, store.Connected())
}

func TestMatchPattern(t *testing.T) {
	assert.Equal(t, "principal:*", matchPattern("principal:"))
	assert.Equal(t, `a\*b\?\[c\]*`, matchPattern("a*b?[c]"))
}

func TestParseInfo(t *testing.T) {
	fields := parseInfo("# Memory\r\nused_memory_human:1.02M\r\n# Clients\r\nconnected_clients:3\r\n")
	assert.Equal(t, "1.02M", fields["used_memory_human"])
	assert.Equal(t, "3", fields["connected_clients"])
}
