package listcache

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/pkg/errors"
)

// The mirror methods keep the list and the point cache a shadow of
// committed store state. Call them only after the store write returned nil.
// Cache failures never fail the request: an unavailable backend is logged
// and skipped, a consistency error is logged, counted and repaired by
// dropping the list so the next read hydrates it again.
//
// A write that finds the list cold waits on the hydration lock before
// giving up. A hydration holding the lock may be encoding a store snapshot
// taken before the write committed, so the write is applied to whatever
// that hydration leaves behind.

// Created pushes v onto the list, when the list is hydrated, then sets its
// point key. A cold list is left alone so it is never partially populated.
func (c *Collection[T]) Created(ctx context.Context, v T) {
	c.mirror(ctx, "push", v.GetID(), func(ctx context.Context, raced bool) error {
		if !raced {
			return c.Push(ctx, v)
		}
		// The snapshot may already hold v
		err := c.Replace(ctx, v)
		if errors.IsCacheConsistency(err) {
			return c.Push(ctx, v)
		}
		return err
	})

	if err := c.SetPoint(ctx, v); err != nil {
		c.skip("set_point", v.GetID(), err)
	}
}

// Updated replaces v in place in the list, then sets its point key
func (c *Collection[T]) Updated(ctx context.Context, v T) {
	c.mirror(ctx, "replace", v.GetID(), func(ctx context.Context, _ bool) error {
		return c.Replace(ctx, v)
	})

	if err := c.SetPoint(ctx, v); err != nil {
		c.skip("set_point", v.GetID(), err)
	}
}

// Deleted removes the record with id from the list, then deletes its point key
func (c *Collection[T]) Deleted(ctx context.Context, id string) {
	c.mirror(ctx, "remove", id, func(ctx context.Context, raced bool) error {
		err := c.Remove(ctx, id)
		if raced && errors.IsCacheConsistency(err) {
			// The snapshot was taken after the delete
			return nil
		}
		return err
	})

	if err := c.DeletePoint(ctx, id); err != nil {
		c.skip("delete_point", id, err)
	}
}

// mirror runs apply against a hydrated list. raced is true when the list
// became hydrated while the write waited on the hydration lock.
func (c *Collection[T]) mirror(ctx context.Context, op, id string, apply func(context.Context, bool) error) {
	hydrated, err := c.lists.Hydrated(ctx, c.name)
	if err != nil {
		c.skip(op, id, err)
		return
	}
	if hydrated {
		if err := apply(ctx, false); err != nil {
			c.handle(ctx, op, id, err)
		}
		return
	}

	release, err := c.locker.Acquire(ctx, LockName(c.name))
	if err != nil {
		c.skip(op, id, err)
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("failed to release hydration lock", zap.Error(err))
		}
	}()

	hydrated, err = c.lists.Hydrated(ctx, c.name)
	if err != nil {
		c.skip(op, id, err)
		return
	}
	if !hydrated {
		c.logger.Debug("list not hydrated, skipping",
			zap.String("operation", op),
			zap.String("id", id),
		)
		return
	}
	if err := apply(ctx, true); err != nil {
		c.handle(ctx, op, id, err)
	}
}

func (c *Collection[T]) handle(ctx context.Context, op, id string, err error) {
	if !errors.IsCacheConsistency(err) {
		c.skip(op, id, err)
		return
	}

	c.recorder.ConsistencyRepair(c.name)
	c.logger.Error("cache list diverged from store, dropping list",
		zap.String("operation", op),
		zap.String("id", id),
		zap.Error(err),
	)
	if err := c.lists.Drop(ctx, c.name); err != nil {
		c.skip("drop", id, err)
	}
}

func (c *Collection[T]) skip(op, id string, err error) {
	c.recorder.CacheError(c.name, op)
	c.logger.Warn("cache write skipped",
		zap.String("operation", op),
		zap.String("id", id),
		zap.Error(err),
	)
}
