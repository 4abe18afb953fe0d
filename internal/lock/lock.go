// Package lock provides per-key distributed mutual exclusion backed by Redis.
//
// A lock is acquired with a bounded wait and held under an expiring lease, so
// a crashed holder can never lock an account out permanently.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when the lock could not be acquired within the
// configured wait window. The caller decides whether to retry.
var ErrLockTimeout = errors.New("lock: acquisition timed out")

// Locker is the capability the transaction coordinator depends on. Any
// mutual-exclusion primitive with bounded wait and lease expiry satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

const (
	keyPrefix  = "ACLK:"
	retryDelay = 100 * time.Millisecond
)

// Manager implements Locker on top of redsync. One Manager is shared by all
// callers; it is safe for concurrent use.
type Manager struct {
	rs     *redsync.Redsync
	wait   time.Duration
	lease  time.Duration
	logger *zap.Logger
}

func NewManager(client goredisv9.UniversalClient, wait, lease time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		rs:     redsync.New(goredis.NewPool(client)),
		wait:   wait,
		lease:  lease,
		logger: logger,
	}
}

// Handle represents one held lock. Release is idempotent: releasing a handle
// twice, or after the lease has expired, is not an error.
type Handle struct {
	mutex *redsync.Mutex
}

// Acquire blocks up to the manager's wait window trying to take the lock for
// key. It fails with ErrLockTimeout when the lock is held by someone else for
// the whole window; any other failure is an infrastructure error.
func (m *Manager) Acquire(ctx context.Context, key string) (*Handle, error) {
	tries := int(m.wait / retryDelay)
	if tries < 1 {
		tries = 1
	}

	mutex := m.rs.NewMutex(keyPrefix+key,
		redsync.WithExpiry(m.lease),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			m.logger.Warn("lock acquisition timed out", zap.String("key", key))
			return nil, ErrLockTimeout
		}
		m.logger.Error("lock acquisition failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &Handle{mutex: mutex}, nil
}

// Release gives the lock back. A lock that already expired or was already
// released counts as released.
func (h *Handle) Release(ctx context.Context) error {
	// An ok=false result means the lease already lapsed, which still counts
	// as released.
	if _, err := h.mutex.UnlockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return nil
		}
		return err
	}
	return nil
}

// WithLock runs fn while holding the lock for key, releasing it on every exit
// path including panic. The release uses a fresh context so that a caller
// cancellation cannot leave the lock held for the full lease.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	handle, err := m.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if rerr := handle.Release(releaseCtx); rerr != nil {
			m.logger.Error("lock release failed", zap.String("key", key), zap.Error(rerr))
		}
	}()

	return fn(ctx)
}
