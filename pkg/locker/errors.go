package locker

import "errors"

var (
	ErrEmptyKey        = errors.New("locker: empty key")
	ErrLockNotAcquired = errors.New("locker: lock not acquired")
)
