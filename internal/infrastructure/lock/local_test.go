package lock

import (
	"context"
	"testing"
	"time"
)

func TestLocalTryLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocal()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	unlock, ok, err := l.TryLock(ctx, "publish:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "publish:1", time.Minute); ok {
		t.Fatalf("second TryLock should fail while held")
	}
	if _, ok, _ := l.TryLock(ctx, "publish:2", time.Minute); !ok {
		t.Fatalf("other keys must be independent")
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, ok, _ := l.TryLock(ctx, "publish:1", time.Minute); !ok {
		t.Fatalf("TryLock after unlock should succeed")
	}
}

func TestLocalLockExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocal()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	staleUnlock, _, _ := l.TryLock(ctx, "k", time.Second)
	now = now.Add(2 * time.Second)

	_, ok, _ := l.TryLock(ctx, "k", time.Minute)
	if !ok {
		t.Fatalf("expired lock should be reclaimable")
	}
	_ = staleUnlock(ctx)
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); ok {
		t.Fatalf("stale unlock must not release the new holder")
	}
}
