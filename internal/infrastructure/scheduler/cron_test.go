package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCronSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("@every 1s", time.UTC, nil)
	fired := make(chan time.Time, 1)

	if err := s.Start(context.Background(), func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatalf("job did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestCronSchedulerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("@every 1s", time.UTC, nil)
	var runs int32
	release := make(chan struct{})

	if err := s.Start(context.Background(), func(time.Time) {
		atomic.AddInt32(&runs, 1)
		<-release
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(3500 * time.Millisecond)
	got := atomic.LoadInt32(&runs)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got != 1 {
		t.Fatalf("runs = %d, want 1 while first run is blocked", got)
	}
}

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("not a cron", time.UTC, nil)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected invalid cron expression error")
	}
}
