// Package lock serialises work per key across ingestion requests.
package lock

import (
	"context"
	"fmt"
)

// Locker grants exclusive access to key until the returned release func runs.
// Acquire gives up with models.ErrLockTimeout when ctx is done first.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// UserKey is the lock key for one user's event stream.
func UserKey(userID int64) string {
	return fmt.Sprintf("lock:user:%d", userID)
}
