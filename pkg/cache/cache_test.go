package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "points:abc"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "points:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "points:abc")
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "points:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "points:abc"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "points:abc"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	// ttl <= 0 never expires
	c.Set(ctx, "forever", []byte("v"), 0)
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("bad")
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("{not json"), 0644)

	_, hit, err := c.Get(ctx, "bad")
	if err != nil || hit {
		t.Errorf("corrupt entry: hit=%v err=%v, want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Clear should remove entries")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d subdirectories", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestHashRows(t *testing.T) {
	a := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}
	b := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}
	c := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 2}}
	if HashRows(a) != HashRows(b) {
		t.Error("equal rows should hash equally")
	}
	if HashRows(a) == HashRows(c) {
		t.Error("different rows should hash differently")
	}
	// Row boundaries matter.
	split := [][]float64{{1, 2}, {3}}
	joined := [][]float64{{1}, {2, 3}}
	if HashRows(split) == HashRows(joined) {
		t.Error("row boundaries should affect the hash")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	p1 := k.PointsKey("rows", PointsKeyOpts{Iterations: 1000, Seed: 1})
	p2 := k.PointsKey("rows", PointsKeyOpts{Iterations: 1000, Seed: 2})
	if p1 == p2 {
		t.Error("different seeds should produce different keys")
	}
	if !strings.HasPrefix(p1, "points:") {
		t.Errorf("PointsKey = %q, want points: prefix", p1)
	}

	a1 := k.ArtifactKey("pts", ArtifactKeyOpts{Format: "svg", Width: 500})
	a2 := k.ArtifactKey("pts", ArtifactKeyOpts{Format: "png", Width: 500})
	if a1 == a2 {
		t.Error("different formats should produce different keys")
	}
	if !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey = %q, want artifact: prefix", a1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "chaosgame:")
	inner := NewDefaultKeyer()
	opts := PointsKeyOpts{Iterations: 10}
	if got, want := scoped.PointsKey("h", opts), "chaosgame:"+inner.PointsKey("h", opts); got != want {
		t.Errorf("PointsKey = %q, want %q", got, want)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "chaosgame:artifact:") {
		t.Errorf("ArtifactKey = %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should unwrap to the original")
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return ErrCacheMiss
	})
	if err != ErrCacheMiss || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d, want immediate return", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retryable: err=%v calls=%d, want success on 3rd call", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 2, time.Millisecond, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 2 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Hour, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	_, err := NewRedisCache(ctx, RedisOptions{
		Addr:         "127.0.0.1:1",
		DialAttempts: 1,
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

// redisClient returns a client for CHAOSGAME_REDIS_ADDR or skips the test.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("CHAOSGAME_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHAOSGAME_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}
	return client
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	ns := "chaosgame-test:" + t.Name() + ":"
	c := NewRedisCacheFromClient(redisClient(t), ns)
	defer c.Close()
	defer c.Clear(ctx)

	if _, hit, err := c.Get(ctx, ns+"missing"); hit || err != nil {
		t.Fatalf("missing key: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, ns+"k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, ns+"k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}

	c.Set(ctx, ns+"k2", []byte("v"), 0)
	n, err := c.Clear(ctx)
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2", n, err)
	}
}

func TestRedisCacheClearNeedsNamespace(t *testing.T) {
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer c.Close()
	if _, err := c.Clear(context.Background()); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("Clear without namespace error = %v, want UNSUPPORTED", err)
	}
}
