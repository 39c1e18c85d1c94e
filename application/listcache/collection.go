// Package listcache serves collections from ordered cache lists that are
// lazily materialized from the Primary Store.
//
// A Collection binds one list to its DTO type, search field and store
// loader. Reads fetch a window of the list and hydrate it in full on the
// first miss; writes are mirrored into the list and the point cache after
// the store has committed.
package listcache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

// Page sources
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// Page is one window of a collection. MatchedCount is set only when a
// search term or predicate narrowed the list.
type Page[T dto.Record] struct {
	Values       []T
	TotalCount   int
	MatchedCount *int
	Source       string
}

// Loader reads every row of the collection from the Primary Store and
// projects it, in store-iteration order.
type Loader[T dto.Record] func(ctx context.Context) ([]T, error)

// Fetcher reads and projects one row. A missing row is a NOT_FOUND error.
type Fetcher[T dto.Record] func(ctx context.Context, id string) (T, error)

// Backend bundles the cache ports shared by every collection
type Backend struct {
	Lists    ports.ListCache
	Points   ports.PointCache
	Locker   ports.HydrationLocker
	Logger   *zap.Logger
	Recorder Recorder
}

// Options configures one collection
type Options[T dto.Record] struct {
	// List is the list key, e.g. "products"
	List string

	// Entity prefixes point keys: <entity>_<id>
	Entity string

	// Field is the designated search field. Nil disables term search.
	Field func(T) string

	Load  Loader[T]
	Fetch Fetcher[T]
}

// Collection is a typed view over one cache list and its point keys
type Collection[T dto.Record] struct {
	name     string
	entity   string
	field    func(T) string
	load     Loader[T]
	fetch    Fetcher[T]
	lists    ports.ListCache
	points   ports.PointCache
	locker   ports.HydrationLocker
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
	group    singleflight.Group
}

// New creates a collection
func New[T dto.Record](b Backend, opts Options[T]) *Collection[T] {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := b.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Collection[T]{
		name:     opts.List,
		entity:   opts.Entity,
		field:    opts.Field,
		load:     opts.Load,
		fetch:    opts.Fetch,
		lists:    b.Lists,
		points:   b.Points,
		locker:   b.Locker,
		logger:   logger.With(zap.String("list", opts.List)),
		recorder: recorder,
		tracer:   otel.Tracer("storefront-backend/listcache"),
	}
}

// Name returns the list key
func (c *Collection[T]) Name() string { return c.name }

// PointKey returns the point cache key for id
func (c *Collection[T]) PointKey(id string) string {
	return c.entity + "_" + id
}

// Window returns [skip, skip+limit) of the list. A non-empty search term is
// matched against the collection's search field before slicing; collections
// without a field reject it with a validation error.
func (c *Collection[T]) Window(ctx context.Context, w common.PageWindow, search string) (Page[T], error) {
	if search != "" {
		if c.field == nil {
			return Page[T]{}, errors.NewValidationError(fmt.Sprintf("%s list does not support search", c.entity)).
				WithCode("SEARCH_UNSUPPORTED")
		}
		return c.WindowWhere(ctx, w, FieldContains(c.field, search))
	}

	ctx, span := c.tracer.Start(ctx, "listcache.Window", trace.WithAttributes(
		attribute.String("list", c.name),
		attribute.Int("skip", w.Skip),
		attribute.Int("limit", w.Limit),
	))
	defer span.End()

	page, err := c.window(ctx, w)
	if err != nil {
		return c.degrade(ctx, "window", err, w, nil)
	}
	if len(page.Values) > 0 || page.TotalCount > 0 {
		c.recorder.CacheHit(c.name)
		return page, nil
	}

	c.recorder.CacheMiss(c.name)
	if err := c.ensureHydrated(ctx); err != nil {
		return c.degrade(ctx, "hydrate", err, w, nil)
	}

	page, err = c.window(ctx, w)
	if err != nil {
		return c.degrade(ctx, "window", err, w, nil)
	}
	return page, nil
}

// WindowWhere loads the entire list, keeps the values matching pred and
// slices the result. TotalCount is the unfiltered length.
func (c *Collection[T]) WindowWhere(ctx context.Context, w common.PageWindow, pred Predicate[T]) (Page[T], error) {
	ctx, span := c.tracer.Start(ctx, "listcache.WindowWhere", trace.WithAttributes(
		attribute.String("list", c.name),
		attribute.Int("skip", w.Skip),
		attribute.Int("limit", w.Limit),
	))
	defer span.End()

	all, err := c.all(ctx)
	if err != nil {
		return c.degrade(ctx, "all", err, w, pred)
	}
	return filterPage(all, w, pred, SourceCache), nil
}

// All returns the whole list in stored order, hydrating on a miss. When the
// cache is unavailable the store is read instead.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	ctx, span := c.tracer.Start(ctx, "listcache.All", trace.WithAttributes(
		attribute.String("list", c.name),
	))
	defer span.End()

	values, err := c.all(ctx)
	if err == nil {
		return values, nil
	}
	if !errors.IsCacheUnavailable(err) {
		return nil, err
	}

	c.recorder.CacheError(c.name, "all")
	c.logger.Warn("cache unavailable, reading from store", zap.Error(err))
	return c.load(ctx)
}

func (c *Collection[T]) all(ctx context.Context) ([]T, error) {
	raw, err := c.lists.All(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		c.recorder.CacheHit(c.name)
		return c.decodeAll(raw)
	}

	c.recorder.CacheMiss(c.name)
	if err := c.ensureHydrated(ctx); err != nil {
		return nil, err
	}

	raw, err = c.lists.All(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(raw)
}

func (c *Collection[T]) window(ctx context.Context, w common.PageWindow) (Page[T], error) {
	total, err := c.lists.Len(ctx, c.name)
	if err != nil {
		return Page[T]{}, err
	}
	page := Page[T]{Values: []T{}, TotalCount: int(total), Source: SourceCache}
	if total == 0 || w.Limit <= 0 || int64(w.Skip) >= total {
		return page, nil
	}

	raw, err := c.lists.Range(ctx, c.name, int64(w.Skip), int64(w.Skip+w.Limit-1))
	if err != nil {
		return Page[T]{}, err
	}
	page.Values, err = c.decodeAll(raw)
	if err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

// degrade answers a read from the Primary Store when the cache is
// unavailable. Other errors are returned unchanged.
func (c *Collection[T]) degrade(ctx context.Context, op string, err error, w common.PageWindow, pred Predicate[T]) (Page[T], error) {
	if !errors.IsCacheUnavailable(err) {
		return Page[T]{}, err
	}

	c.recorder.CacheError(c.name, op)
	c.logger.Warn("cache unavailable, reading from store",
		zap.String("operation", op),
		zap.Error(err),
	)

	rows, loadErr := c.load(ctx)
	if loadErr != nil {
		return Page[T]{}, loadErr
	}
	if pred == nil {
		return Page[T]{
			Values:     common.Slice(rows, w),
			TotalCount: len(rows),
			Source:     SourceStore,
		}, nil
	}
	return filterPage(rows, w, pred, SourceStore), nil
}

func filterPage[T dto.Record](all []T, w common.PageWindow, pred Predicate[T], source string) Page[T] {
	matched := make([]T, 0, len(all))
	for _, v := range all {
		if pred == nil || pred(v) {
			matched = append(matched, v)
		}
	}
	count := len(matched)
	return Page[T]{
		Values:       common.Slice(matched, w),
		TotalCount:   len(all),
		MatchedCount: &count,
		Source:       source,
	}
}

// Push appends a record to the list
func (c *Collection[T]) Push(ctx context.Context, v T) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return c.lists.Push(ctx, c.name, b, true)
}

// Replace overwrites the record with the same id in place
func (c *Collection[T]) Replace(ctx context.Context, v T) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return c.lists.ReplaceByID(ctx, c.name, v.GetID(), b)
}

// Remove deletes exactly one record with id from the list
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	return c.lists.RemoveByID(ctx, c.name, id)
}

// Hydrated reports whether the list was populated from the store
func (c *Collection[T]) Hydrated(ctx context.Context) (bool, error) {
	return c.lists.Hydrated(ctx, c.name)
}

// Drop discards the list so the next read hydrates it again
func (c *Collection[T]) Drop(ctx context.Context) error {
	return c.lists.Drop(ctx, c.name)
}

// GetPoint reads the point key for id
func (c *Collection[T]) GetPoint(ctx context.Context, id string) (T, bool, error) {
	var zero T
	raw, ok, err := c.points.Get(ctx, c.PointKey(id))
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := decode[T](raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// SetPoint writes the point key for the record
func (c *Collection[T]) SetPoint(ctx context.Context, v T) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return c.points.Set(ctx, c.PointKey(v.GetID()), b)
}

// DeletePoint removes the point key for id
func (c *Collection[T]) DeletePoint(ctx context.Context, id string) error {
	return c.points.Delete(ctx, c.PointKey(id))
}

// Get is a read-through single-entity read: point cache first, then the
// store, then a best-effort backfill of the point key.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	v, ok, err := c.GetPoint(ctx, id)
	switch {
	case err != nil:
		c.recorder.CacheError(c.name, "get_point")
		c.logger.Warn("point read failed", zap.String("id", id), zap.Error(err))
	case ok:
		c.recorder.CacheHit(c.entity)
		return v, nil
	default:
		c.recorder.CacheMiss(c.entity)
	}

	v, err = c.fetch(ctx, id)
	if err != nil {
		return v, err
	}
	if err := c.SetPoint(ctx, v); err != nil {
		c.logger.Warn("point backfill failed", zap.String("id", id), zap.Error(err))
	}
	return v, nil
}

func (c *Collection[T]) decodeAll(raw [][]byte) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, b := range raw {
		v, err := decode[T](b)
		if err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("corrupt entry in list '%s'", c.name)).WithCause(err)
		}
		out = append(out, v)
	}
	return out, nil
}

func encode[T dto.Record](v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", v.GetID(), err)
	}
	return b, nil
}

func decode[T dto.Record](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}
