package flat

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// lockRetryInterval is the pause between lock attempts.
const lockRetryInterval = 200 * time.Millisecond

// acquireLock takes the exclusive file lock at path, retrying until timeout.
// The returned func releases it.
func acquireLock(path string, timeout time.Duration) (func(), error) {
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (lock: %s)", domain.ErrIndexLocked, path)
		}
		time.Sleep(lockRetryInterval)
	}
}
