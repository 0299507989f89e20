package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory cmdable for exercising key plumbing without a
// running server.
type fakeRedis struct {
	data        map[string]string
	counters    map[string]int64
	expireCalls map[string]int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data:        map[string]string{},
		counters:    map[string]int64{},
		expireCalls: map[string]int{},
	}
}

func (f *fakeRedis) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.data[key] = toString(value)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	value, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = toString(value)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *goredis.IntCmd {
	f.counters[key]++
	return goredis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, _ time.Duration) *goredis.BoolCmd {
	f.expireCalls[key]++
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func TestFixedWindowAllow(t *testing.T) {
	fake := newFakeRedis()
	client := &Client{store: fake}
	ctx := context.Background()

	for i, wantAllowed := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Minute)
		if err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		if allowed != wantAllowed {
			t.Fatalf("call %d: allowed = %v, want %v", i+1, allowed, wantAllowed)
		}
		if count != int64(i+1) {
			t.Fatalf("call %d: count = %d, want %d", i+1, count, i+1)
		}
	}

	// The window TTL is armed once, on the increment that creates the key.
	if calls := fake.expireCalls[client.RateLimitKey("login:1.2.3.4")]; calls != 1 {
		t.Fatalf("expire called %d times, want 1", calls)
	}
}

func TestSessionLifecycle(t *testing.T) {
	client := &Client{store: newFakeRedis()}
	ctx := context.Background()
	key := client.AccessSessionKey("jti-42")

	if err := client.Set(ctx, key, "user-7", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "user-7" {
		t.Fatalf("got %q, want %q", got, "user-7")
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, goredis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}

	cases := []struct {
		got  string
		want string
	}{
		{client.RateLimitKey("scope"), "el:rate_limit:scope"},
		{client.CounterKey("hits"), "el:counter:hits"},
		{client.AccessSessionKey("access-1"), "el:session:access:access-1"},
		{client.LockKey("overdue_sweep"), "el:lock:overdue_sweep"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("key = %q, want %q", tc.got, tc.want)
		}
	}
}

func TestCommandsFailWithoutStore(t *testing.T) {
	client := &Client{}
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Fatal("expected error from Set without a store")
	}
	if _, err := client.Get(ctx, "k"); err == nil {
		t.Fatal("expected error from Get without a store")
	}
	if _, err := client.Incr(ctx, "k"); err == nil {
		t.Fatal("expected error from Incr without a store")
	}
}
