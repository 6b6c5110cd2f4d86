package repolock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	gitDir := t.TempDir()

	guard, err := Acquire(context.Background(), gitDir, 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	guard.Release()

	// released lock can be taken again
	guard, err = Acquire(context.Background(), gitDir, 0)
	if err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}
	guard.Release()
}

func TestAcquire_SecondInvocationTimesOut(t *testing.T) {
	gitDir := t.TempDir()

	first, err := Acquire(context.Background(), gitDir, 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	start := time.Now()
	_, err = Acquire(context.Background(), gitDir, 300*time.Millisecond)
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("gave up after %v, before the timeout", elapsed)
	}
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	gitDir := t.TempDir()

	first, err := Acquire(context.Background(), gitDir, 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		second, err := Acquire(context.Background(), gitDir, 5*time.Second)
		if second != nil {
			second.Release()
		}
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	first.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiting acquire failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second acquire never completed")
	}
}

func TestAcquire_CanceledContext(t *testing.T) {
	gitDir := t.TempDir()

	first, err := Acquire(context.Background(), gitDir, 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if _, err := Acquire(ctx, gitDir, 0); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	guard, err := Acquire(context.Background(), t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	guard.Release()
	guard.Release()

	var nilGuard *Guard
	nilGuard.Release()
}
