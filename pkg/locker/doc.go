// Package locker provides keyed single-writer locks used to serialize
// transitions per entity and quorum checks per season.
//
// Two implementations share the same Lock(ctx, key) signature:
//
//   - MemoryLocker keeps one slot per key inside the process. It is the
//     default and is enough when a single process owns the state.
//   - RedisLocker holds the key in Redis with SET NX PX and a random token,
//     and releases it with a compare-and-delete script so that a lock which
//     already expired is never removed on behalf of another holder.
//
// # Usage
//
//	l := locker.NewMemory()
//	unlock, err := l.Lock(ctx, "match:42")
//	if err != nil {
//	    return err
//	}
//	defer unlock()
//
// Lock blocks until the key is free or ctx is done. The returned unlock
// function is idempotent.
package locker
