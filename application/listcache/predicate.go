package listcache

import (
	"strings"
	"time"
)

// Predicate selects records for a filtered window
type Predicate[T any] func(T) bool

// FieldContains matches records whose field contains term, ignoring case.
// An empty term matches everything.
func FieldContains[T any](field func(T) string, term string) Predicate[T] {
	needle := strings.ToLower(term)
	return func(v T) bool {
		return strings.Contains(strings.ToLower(field(v)), needle)
	}
}

// FieldEquals matches records whose field is exactly value
func FieldEquals[T any](field func(T) string, value string) Predicate[T] {
	return func(v T) bool {
		return field(v) == value
	}
}

// And combines predicates; a nil predicate is ignored
func And[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if p != nil && !p(v) {
				return false
			}
		}
		return true
	}
}

// Recorder receives cache layer measurements
type Recorder interface {
	CacheHit(list string)
	CacheMiss(list string)
	CacheError(list, operation string)
	Hydrated(list string, rows int, duration time.Duration)
	ConsistencyRepair(list string)
}

// NopRecorder discards all measurements
type NopRecorder struct{}

func (NopRecorder) CacheHit(string)                     {}
func (NopRecorder) CacheMiss(string)                    {}
func (NopRecorder) CacheError(string, string)           {}
func (NopRecorder) Hydrated(string, int, time.Duration) {}
func (NopRecorder) ConsistencyRepair(string)            {}
