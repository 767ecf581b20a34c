package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindow_LimitWithinWindow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(15, 60*time.Second)
	l.now = func() time.Time { return clock }

	for i := 0; i < 15; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow returned error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be admitted", i+1)
		}
		clock = clock.Add(time.Second)
	}

	ok, _ := l.Allow(ctx, "1.2.3.4")
	if ok {
		t.Error("16th request within the window should be rejected")
	}
}

func TestSlidingWindow_WindowRollsForward(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindow(15, 60*time.Second)
	l.now = func() time.Time { return clock }

	for i := 0; i < 15; i++ {
		if ok, _ := l.Allow(ctx, "1.2.3.4"); !ok {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("over-limit request should be rejected")
	}

	// First request after the oldest timestamps fall out of the window.
	clock = clock.Add(61 * time.Second)
	if ok, _ := l.Allow(ctx, "1.2.3.4"); !ok {
		t.Error("request after the window rolled forward should be admitted")
	}
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1, time.Minute)

	if ok, _ := l.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("first request for key A should be admitted")
	}
	if ok, _ := l.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("second request for key A should be rejected")
	}
	if ok, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Error("key B must not be affected by key A's history")
	}
}

type fakeRedis struct {
	counts  map[string]int64
	expires map[string]time.Duration
}

func (f *fakeRedis) Ping(context.Context) error { return nil }
func (f *fakeRedis) Incr(_ context.Context, key string) (int64, error) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeRedis) Expire(_ context.Context, key string, d time.Duration) error {
	if f.expires == nil {
		f.expires = map[string]time.Duration{}
	}
	f.expires[key] = d
	return nil
}
func (f *fakeRedis) Del(_ context.Context, keys ...string) error { return nil }
func (f *fakeRedis) Close() error                                { return nil }

func TestRedisWindow_Allow(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{}
	l := NewRedisWindow(fake, 2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "9.9.9.9")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "9.9.9.9"); ok {
		t.Error("request over the limit should be rejected")
	}
	if d := fake.expires["rate_limit:9.9.9.9"]; d != time.Minute {
		t.Errorf("expected TTL set on first increment, got %v", d)
	}
}
