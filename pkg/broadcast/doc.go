// Package broadcast provides type-safe one-to-many message fan-out.
//
// Two implementations share the Broadcaster interface:
//
//   - MemoryBroadcaster delivers within the process.
//   - RedisBroadcaster publishes JSON through a Redis pub/sub channel so
//     collaborators in other processes can subscribe.
//
// Both drop messages for slow subscribers instead of blocking the sender.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[workflow.Envelope](64)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[workflow.Envelope]{Data: env})
//
//	for msg := range sub.Receive(ctx) {
//		handle(msg.Data)
//	}
//
// Subscribers are cleaned up when their context is cancelled, when they
// fall behind (memory only), or when the broadcaster is closed.
package broadcast
