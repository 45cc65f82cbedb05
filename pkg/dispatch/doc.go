// Package dispatch publishes workflow effects to the collaborators that
// execute them (notifications, standings, scheduling) and runs consumers on
// the other side.
//
// The engine only returns effects; callers pass them to Dispatcher.Dispatch
// after a transition commits:
//
//	res, err := matches.ApplyMatchEvent(ctx, id, match.ConfirmCompletion, actor, nil)
//	if err != nil {
//		return err
//	}
//	if err := dispatcher.Dispatch(ctx, res.Effects); err != nil {
//		log.Error("dispatch failed", logger.Error(err))
//	}
//
// Consume drives a Handler from a broadcaster subscription until its
// context ends.
package dispatch
