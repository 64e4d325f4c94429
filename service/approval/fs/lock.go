package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const lockExt = ".lock"

var errLockHeld = errors.New("lock held by another writer")

// lock creates <id>.lock exclusively, waiting with backoff while another
// writer holds it. A lock older than staleLockAge is assumed to belong to a
// crashed writer and is removed.
func (s *Store) lock(ctx context.Context, id string) (func(), error) {
	lockPath := filepath.Join(s.dir, id+lockExt)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 100 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (bool, error) {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			return true, f.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return false, backoff.Permanent(err)
		}
		s.reclaimStale(lockPath)
		return false, errLockHeld
	}, backoff.WithBackOff(policy), backoff.WithMaxElapsedTime(s.lockWait))
	if err != nil {
		return nil, fmt.Errorf("failed to lock request %s: %w", id, err)
	}
	return func() {
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to release request lock", zap.String("path", lockPath), zap.Error(err))
		}
	}, nil
}

func (s *Store) reclaimStale(lockPath string) {
	info, err := os.Stat(lockPath)
	if err != nil || time.Since(info.ModTime()) < s.staleLockAge {
		return
	}
	if err = os.Remove(lockPath); err == nil {
		s.logger.Warn("reclaimed stale request lock", zap.String("path", lockPath), zap.Duration("age", time.Since(info.ModTime())))
	}
}
