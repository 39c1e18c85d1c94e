package listcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/infrastructure/cache/memory"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

// fakeStore is a brand table with a load counter. A stale store snapshots
// its rows before the delay and closes started once the snapshot is taken.
type fakeStore struct {
	mu      sync.Mutex
	rows    []dto.Brand
	loads   atomic.Int32
	delay   time.Duration
	failOn  error
	stale   bool
	started chan struct{}
	once    sync.Once
}

func (s *fakeStore) snapshot() []dto.Brand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.Brand(nil), s.rows...)
}

func (s *fakeStore) set(rows []dto.Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

func (s *fakeStore) load(ctx context.Context) ([]dto.Brand, error) {
	s.loads.Add(1)
	var snap []dto.Brand
	if s.stale {
		snap = s.snapshot()
	}
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.failOn != nil {
		return nil, s.failOn
	}
	if s.stale {
		return snap, nil
	}
	return s.snapshot(), nil
}

func (s *fakeStore) fetch(ctx context.Context, id string) (dto.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.ID == id {
			return b, nil
		}
	}
	return dto.Brand{}, errors.NewNotFoundError("brand")
}

// countingRecorder tallies recorder events
type countingRecorder struct {
	NopRecorder
	mu      sync.Mutex
	repairs int
	errs    int
}

func (r *countingRecorder) ConsistencyRepair(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repairs++
}

func (r *countingRecorder) CacheError(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs++
}

func brands(names ...string) []dto.Brand {
	out := make([]dto.Brand, len(names))
	for i, n := range names {
		out[i] = dto.Brand{ID: strings.ToLower(n), Name: n}
	}
	return out
}

func newBrandCollection(t *testing.T, store *fakeStore, backend ports.ListCache) (*Collection[dto.Brand], *memory.Cache, *countingRecorder) {
	t.Helper()

	mem := memory.NewCache(0)
	t.Cleanup(func() { _ = mem.Close() })

	lists := ports.ListCache(mem)
	if backend != nil {
		lists = backend
	}
	rec := &countingRecorder{}
	c := New(Backend{
		Lists:    lists,
		Points:   mem,
		Locker:   mem,
		Recorder: rec,
	}, Options[dto.Brand]{
		List:   "brands",
		Entity: "brand",
		Field:  func(b dto.Brand) string { return b.Name },
		Load:   store.load,
		Fetch:  store.fetch,
	})
	return c, mem, rec
}

func names(values []dto.Brand) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Name
	}
	return out
}

func TestCollection_BrandScenario(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B", "C")}
	c, _, _ := newBrandCollection(t, store, nil)

	page, err := c.Window(ctx, common.ComputeWindow(1), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(page.Values))
	assert.Equal(t, 3, page.TotalCount)
	assert.Nil(t, page.MatchedCount)
	assert.Equal(t, SourceCache, page.Source)

	require.NoError(t, c.Remove(ctx, "b"))
	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(all))

	require.NoError(t, c.Replace(ctx, dto.Brand{ID: "c", Name: "C'"}))
	all, err = c.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "C'", all[1].Name)
	assert.Equal(t, []string{"A", "C'"}, names(all))

	assert.Equal(t, int32(1), store.loads.Load())
}

func TestCollection_HydrateOnce(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B", "C", "D", "E", "F", "G", "H", "I", "J")}
	c, _, _ := newBrandCollection(t, store, nil)

	first, err := c.Window(ctx, common.ComputeWindow(1), "")
	require.NoError(t, err)
	assert.Len(t, first.Values, 8)
	assert.Equal(t, 10, first.TotalCount)

	second, err := c.Window(ctx, common.ComputeWindow(2), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"I", "J"}, names(second.Values))

	preview, err := c.Window(ctx, common.ComputeWindow(0.5), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(preview.Values))

	beyond, err := c.Window(ctx, common.ComputeWindow(1000), "")
	require.NoError(t, err)
	assert.Empty(t, beyond.Values)
	assert.Equal(t, 10, beyond.TotalCount)

	assert.Equal(t, int32(1), store.loads.Load())
}

func TestCollection_EmptyCollectionHydratesOnce(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	c, _, _ := newBrandCollection(t, store, nil)

	for i := 0; i < 3; i++ {
		page, err := c.Window(ctx, common.ComputeWindow(1), "")
		require.NoError(t, err)
		assert.Empty(t, page.Values)
		assert.Zero(t, page.TotalCount)
	}
	assert.Equal(t, int32(1), store.loads.Load())
}

func TestCollection_ConcurrentMissesLoadOnce(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B", "C"), delay: 20 * time.Millisecond}
	c, _, _ := newBrandCollection(t, store, nil)

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := c.Window(ctx, common.ComputeWindow(1), "")
			if err == nil {
				results[i] = page.TotalCount
			}
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 3, n)
	}
	assert.Equal(t, int32(1), store.loads.Load())

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "no duplicate pushes")
}

func TestCollection_SearchNarrows(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("Apple", "Samsung", "Pineapple", "Sony", "APEX")}
	c, _, _ := newBrandCollection(t, store, nil)

	tests := []struct {
		term string
		want []string
	}{
		{"app", []string{"Apple", "Pineapple"}},
		{"AP", []string{"Apple", "Pineapple", "APEX"}},
		{"s", []string{"Samsung", "Sony"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			page, err := c.Window(ctx, common.ComputeWindow(1), tt.term)
			require.NoError(t, err)
			require.NotNil(t, page.MatchedCount)
			assert.Equal(t, len(tt.want), *page.MatchedCount)
			assert.LessOrEqual(t, *page.MatchedCount, page.TotalCount)
			assert.Equal(t, 5, page.TotalCount)
			assert.Equal(t, tt.want, names(page.Values))
			for _, v := range page.Values {
				assert.Contains(t, strings.ToLower(v.Name), strings.ToLower(tt.term))
			}
		})
	}
}

func TestCollection_SearchWithoutField(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B")}
	mem := memory.NewCache(0)
	c := New(Backend{Lists: mem, Points: mem, Locker: mem}, Options[dto.Brand]{
		List:   "brands",
		Entity: "brand",
		Load:   store.load,
		Fetch:  store.fetch,
	})

	_, err := c.Window(ctx, common.ComputeWindow(1), "a")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, store.loads.Load())

	page, err := c.Window(ctx, common.ComputeWindow(1), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(page.Values))
}

func TestCollection_WindowWhereAppliesBeforeSlice(t *testing.T) {
	ctx := context.Background()
	var rows []dto.Brand
	for i := 0; i < 20; i++ {
		rows = append(rows, dto.Brand{ID: fmt.Sprintf("%02d", i), Name: fmt.Sprintf("b%02d", i), IsFeatured: i%2 == 0})
	}
	c, _, _ := newBrandCollection(t, &fakeStore{rows: rows}, nil)

	featured := func(b dto.Brand) bool { return b.IsFeatured }
	page, err := c.WindowWhere(ctx, common.ComputeWindow(2), featured)
	require.NoError(t, err)
	assert.Equal(t, 10, *page.MatchedCount)
	assert.Equal(t, 20, page.TotalCount)
	assert.Equal(t, []string{"b16", "b18"}, names(page.Values))
}

func TestCollection_DeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newBrandCollection(t, &fakeStore{}, nil)
	_, err := c.All(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Push(ctx, dto.Brand{ID: "x", Name: "Same"}))
	require.NoError(t, c.Push(ctx, dto.Brand{ID: "y", Name: "Same"}))
	require.NoError(t, c.Remove(ctx, "x"))

	all, err := c.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "y", all[0].ID)
}

func TestCollection_ReplaceMissingIsConsistencyError(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newBrandCollection(t, &fakeStore{rows: brands("A")}, nil)
	_, err := c.All(ctx)
	require.NoError(t, err)

	err = c.Replace(ctx, dto.Brand{ID: "ghost", Name: "Ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsCacheConsistency(err))
}

func TestCollection_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A")}
	c, mem, _ := newBrandCollection(t, store, nil)

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	raw, ok, err := mem.Get(ctx, "brand_a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"_id":"a","name":"A","logoUrl":"","isFeatured":false,"createdAt":"0001-01-01T00:00:00Z"}`, string(raw))

	// Served from the point key once the store row is gone
	store.set(nil)
	got, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	_, err = c.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestCollection_Mirror(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B")}
	c, mem, rec := newBrandCollection(t, store, nil)

	t.Run("create on a cold list only sets the point", func(t *testing.T) {
		c.Created(ctx, dto.Brand{ID: "n", Name: "New"})
		n, err := mem.Len(ctx, "brands")
		require.NoError(t, err)
		assert.Zero(t, n)

		_, ok, err := mem.Get(ctx, "brand_n")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	store.set(brands("A", "B", "N"))
	_, err := c.All(ctx)
	require.NoError(t, err)

	t.Run("create on a hydrated list appends", func(t *testing.T) {
		c.Created(ctx, dto.Brand{ID: "z", Name: "Z"})
		all, err := c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "N", "Z"}, names(all))
	})

	t.Run("update replaces in place and refreshes the point", func(t *testing.T) {
		c.Updated(ctx, dto.Brand{ID: "b", Name: "B2"})
		all, err := c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "B2", all[1].Name)

		p, ok, err := c.GetPoint(ctx, "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "B2", p.Name)
	})

	t.Run("delete removes entry and point", func(t *testing.T) {
		c.Deleted(ctx, "a")
		all, err := c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B2", "N", "Z"}, names(all))

		_, ok, err := c.GetPoint(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("drift drops the list and re-hydrates", func(t *testing.T) {
		loads := store.loads.Load()
		c.Updated(ctx, dto.Brand{ID: "ghost", Name: "Ghost"})
		assert.Equal(t, 1, rec.repairs)

		hydrated, err := c.Hydrated(ctx)
		require.NoError(t, err)
		assert.False(t, hydrated)

		_, err = c.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, loads+1, store.loads.Load())
	})
}

func TestCollection_MirrorDuringHydration(t *testing.T) {
	tests := []struct {
		name  string
		write func(ctx context.Context, c *Collection[dto.Brand], s *fakeStore)
		want  []string
	}{
		{
			name: "create committed after the snapshot",
			write: func(ctx context.Context, c *Collection[dto.Brand], s *fakeStore) {
				s.set(brands("A", "B", "C", "D"))
				c.Created(ctx, dto.Brand{ID: "d", Name: "D"})
			},
			want: []string{"A", "B", "C", "D"},
		},
		{
			name: "delete committed after the snapshot",
			write: func(ctx context.Context, c *Collection[dto.Brand], s *fakeStore) {
				s.set(brands("A", "B"))
				c.Deleted(ctx, "c")
			},
			want: []string{"A", "B"},
		},
		{
			name: "update committed after the snapshot",
			write: func(ctx context.Context, c *Collection[dto.Brand], s *fakeStore) {
				s.set([]dto.Brand{{ID: "a", Name: "A"}, {ID: "b", Name: "B2"}, {ID: "c", Name: "C"}})
				c.Updated(ctx, dto.Brand{ID: "b", Name: "B2"})
			},
			want: []string{"A", "B2", "C"},
		},
		{
			name: "create already in the snapshot",
			write: func(ctx context.Context, c *Collection[dto.Brand], s *fakeStore) {
				c.Created(ctx, dto.Brand{ID: "c", Name: "C"})
			},
			want: []string{"A", "B", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &fakeStore{
				rows:    brands("A", "B", "C"),
				delay:   100 * time.Millisecond,
				stale:   true,
				started: make(chan struct{}),
			}
			c, _, rec := newBrandCollection(t, store, nil)

			done := make(chan error, 1)
			go func() {
				_, err := c.All(ctx)
				done <- err
			}()
			<-store.started
			tt.write(ctx, c, store)
			require.NoError(t, <-done)

			all, err := c.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(all))
			assert.Equal(t, int32(1), store.loads.Load())
			assert.Zero(t, rec.repairs)
		})
	}
}

// downLists fails every list call
type downLists struct{ ports.ListCache }

func (downLists) fail(op string) error {
	return errors.NewCacheUnavailableError(op, fmt.Errorf("connection refused"))
}
func (d downLists) Len(context.Context, string) (int64, error) { return 0, d.fail("len") }
func (d downLists) All(context.Context, string) ([][]byte, error) {
	return nil, d.fail("all")
}
func (d downLists) Hydrated(context.Context, string) (bool, error) {
	return false, d.fail("hydrated")
}
func (d downLists) ReplaceByID(context.Context, string, string, []byte) error {
	return d.fail("replace")
}

func TestCollection_DegradesToStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: brands("A", "B", "C")}
	c, _, rec := newBrandCollection(t, store, downLists{})

	page, err := c.Window(ctx, common.PageWindow{Skip: 1, Limit: 8}, "")
	require.NoError(t, err)
	assert.Equal(t, SourceStore, page.Source)
	assert.Equal(t, []string{"B", "C"}, names(page.Values))
	assert.Equal(t, 3, page.TotalCount)

	searched, err := c.Window(ctx, common.ComputeWindow(1), "c")
	require.NoError(t, err)
	assert.Equal(t, SourceStore, searched.Source)
	assert.Equal(t, 1, *searched.MatchedCount)

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Writes are skipped, never fatal
	c.Updated(ctx, dto.Brand{ID: "a", Name: "A2"})
	assert.Positive(t, rec.errs)
}

func TestCollection_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.NewDatabaseError("query brands", fmt.Errorf("throttled"))
	c, _, _ := newBrandCollection(t, &fakeStore{failOn: boom}, nil)

	_, err := c.Window(ctx, common.ComputeWindow(1), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDatabase))

	hydrated, err := c.Hydrated(ctx)
	require.NoError(t, err)
	assert.False(t, hydrated)
}

func TestFieldContains(t *testing.T) {
	pred := FieldContains(func(s string) string { return s }, "NiKe")
	assert.True(t, pred("nike air"))
	assert.True(t, pred("Just NIKE"))
	assert.False(t, pred("adidas"))

	all := FieldContains(func(s string) string { return s }, "")
	assert.True(t, all("anything"))

	both := And(pred, FieldEquals(func(s string) string { return s }, "nike air"))
	assert.True(t, both("nike air"))
	assert.False(t, both("Just NIKE"))
}
