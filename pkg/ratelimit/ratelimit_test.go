package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter_NoBlockWhenZeroInterval(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("limiter with zero interval should not block")
	}
}

func TestLimiter_FirstWaitImmediate(t *testing.T) {
	limiter := NewLimiter(time.Second, 0)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 20*time.Millisecond {
		t.Errorf("first wait should not block")
	}
}

func TestLimiter_Spacing(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0)
	ctx := context.Background()

	_ = limiter.Wait(ctx)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duration := time.Since(start)
	if duration < 80*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestLimiter_DoneSpacesFromCompletion(t *testing.T) {
	limiter := NewLimiter(60*time.Millisecond, 0)
	ctx := context.Background()

	_ = limiter.Wait(ctx)
	time.Sleep(100 * time.Millisecond) // slower than the interval
	limiter.Done()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited := time.Since(start); waited < 50*time.Millisecond {
		t.Errorf("expected a full gap after Done, waited %v", waited)
	}
}

func TestLimiter_DoneNoopWhenDisabled(t *testing.T) {
	limiter := NewLimiter(0, 0)
	limiter.Done()

	var nilLimiter *Limiter
	nilLimiter.Done()

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("disabled limiter should not block after Done")
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(time.Second, 0)
	_ = limiter.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestLimiter_Jitter(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0.5)
	ctx := context.Background()

	_ = limiter.Wait(ctx)

	start := time.Now()
	_ = limiter.Wait(ctx)
	duration := time.Since(start)

	// Jitter only stretches the gap: between 100ms and 150ms, plus scheduling slack.
	if duration < 80*time.Millisecond || duration > 300*time.Millisecond {
		t.Errorf("expected jittered wait between 100ms and 150ms, took %v", duration)
	}
}

func TestLimiter_ClampsJitter(t *testing.T) {
	if l := NewLimiter(time.Second, -1); l.jitter != 0 {
		t.Errorf("expected jitter clamped to 0, got %v", l.jitter)
	}
	if l := NewLimiter(time.Second, 3); l.jitter != 1 {
		t.Errorf("expected jitter clamped to 1, got %v", l.jitter)
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Errorf("Sleep returned early")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
