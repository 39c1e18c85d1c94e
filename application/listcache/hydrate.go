package listcache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront-backend/pkg/errors"
)

// LockName returns the hydration lock name for a list
func LockName(list string) string {
	return "hydrate:" + list
}

// ensureHydrated populates the list from the store unless its hydration
// marker is already set. Concurrent misses in this process share one call;
// across processes the hydration lock admits one loader at a time.
func (c *Collection[T]) ensureHydrated(ctx context.Context) error {
	_, err, _ := c.group.Do(c.name, func() (interface{}, error) {
		return nil, c.hydrate(context.WithoutCancel(ctx))
	})
	return err
}

func (c *Collection[T]) hydrate(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "listcache.hydrate", trace.WithAttributes(
		attribute.String("list", c.name),
	))
	defer span.End()

	done, err := c.lists.Hydrated(ctx, c.name)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	release, err := c.locker.Acquire(ctx, LockName(c.name))
	if err != nil {
		span.SetStatus(codes.Error, "lock")
		return err
	}
	defer func() {
		if err := release(ctx); err != nil {
			c.logger.Warn("failed to release hydration lock", zap.Error(err))
		}
	}()

	// Another instance may have hydrated while we waited
	done, err = c.lists.Hydrated(ctx, c.name)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	start := time.Now()
	rows, err := c.load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load")
		return errors.Wrapf(err, "hydrate %s", c.name)
	}

	values := make([][]byte, 0, len(rows))
	for _, row := range rows {
		b, err := encode(row)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	if err := c.lists.Hydrate(ctx, c.name, values); err != nil {
		span.RecordError(err)
		return err
	}

	c.recorder.Hydrated(c.name, len(values), time.Since(start))
	span.SetAttributes(attribute.Int("rows", len(values)))
	c.logger.Info("list hydrated",
		zap.Int("rows", len(values)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
