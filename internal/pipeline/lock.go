package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sha1n/docsnip/internal/domain"
)

// LockFilename is the name of the run lock inside the state directory
const LockFilename = "run.lock"

// ErrLockTimeout indicates another run kept the output root locked too long
var ErrLockTimeout = errors.New("timed out waiting for output lock")

// RunLock serializes writers to one output root across processes using
// flock(2). The kernel drops the lock if the holder dies.
type RunLock struct {
	path string
	file *os.File
}

// NewRunLock creates the lock for an output root.
func NewRunLock(outputRoot string) *RunLock {
	return &RunLock{path: filepath.Join(outputRoot, domain.StateDir, LockFilename)}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// Held returns true if this instance holds the lock.
func (l *RunLock) Held() bool {
	return l.file != nil
}

// TryLock takes the lock without waiting. It returns false if another
// process holds it.
func (l *RunLock) TryLock() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	l.release()
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock failed: %w", err)
}

// Acquire takes the lock, waiting up to timeout for another run to finish.
func (l *RunLock) Acquire(ctx context.Context, timeout time.Duration) error {
	ok, err := l.TryLock()
	if err != nil || ok {
		return err
	}

	slog.Info("Output root is locked by another run, waiting", "lock", l.path, "timeout", timeout)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	wait := 10 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrLockTimeout
		case <-time.After(wait):
			wait = min(wait*2, 500*time.Millisecond)
		}

		ok, err := l.TryLock()
		if err != nil || ok {
			return err
		}
	}
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *RunLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

func (l *RunLock) open() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}

func (l *RunLock) release() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
