package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func unlock(t *testing.T, l *RunLock) {
	t.Helper()
	if err := l.Unlock(); err != nil {
		t.Errorf("Unlock failed: %v", err)
	}
}

func TestRunLock_TryLock(t *testing.T) {
	out := t.TempDir()
	lock := NewRunLock(out)

	ok, err := lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !ok || !lock.Held() {
		t.Fatal("Expected lock to be acquired")
	}
	defer unlock(t, lock)

	if _, err := os.Stat(lock.Path()); err != nil {
		t.Errorf("Lock file should exist: %v", err)
	}

	other := NewRunLock(out)
	ok, err = other.TryLock()
	if err != nil {
		t.Fatalf("Second TryLock failed: %v", err)
	}
	if ok || other.Held() {
		t.Error("Second lock should not be acquired while first is held")
	}
}

func TestRunLock_AcquireTimeout(t *testing.T) {
	out := t.TempDir()
	holder := NewRunLock(out)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock failed: ok=%v err=%v", ok, err)
	}
	defer unlock(t, holder)

	waiter := NewRunLock(out)
	err := waiter.Acquire(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Expected ErrLockTimeout, got %v", err)
	}
}

func TestRunLock_AcquireAfterRelease(t *testing.T) {
	out := t.TempDir()
	holder := NewRunLock(out)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock failed: ok=%v err=%v", ok, err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = holder.Unlock()
	}()

	waiter := NewRunLock(out)
	if err := waiter.Acquire(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	unlock(t, waiter)
}

func TestRunLock_AcquireCanceled(t *testing.T) {
	out := t.TempDir()
	holder := NewRunLock(out)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock failed: ok=%v err=%v", ok, err)
	}
	defer unlock(t, holder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunLock(out).Acquire(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunLock_UnlockWhenNotHeld(t *testing.T) {
	if err := NewRunLock(t.TempDir()).Unlock(); err != nil {
		t.Errorf("Unlock of unheld lock should be a no-op, got %v", err)
	}
}
