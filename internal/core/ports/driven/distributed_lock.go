package driven

import (
	"context"
	"time"
)

// DistributedLock keeps periodic maintenance (cache expiry cleanup,
// task purging) from running on more than one instance at a time.
// Locks are advisory: they coordinate cooperating instances and
// protect nothing by force.
type DistributedLock interface {
	// Acquire takes the named lock for at most ttl.
	// Returns false when another holder has it. The lock frees itself
	// after ttl even if the holder dies without releasing.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release frees the named lock if this instance holds it.
	// Releasing a lock that is not held, or that expired and was taken
	// by someone else, is a no-op.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock further out.
	// Returns an error when this instance does not hold the lock.
	Extend(ctx context.Context, name string, ttl time.Duration) error
}
