package screen

import (
	"context"
	"reflect"
	"sync"
)

// Status is the display state of a data-backed screen.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Fetch loads the data for one key.
type Fetch[T any] func(ctx context.Context, key string) (T, error)

// Result carries a finished fetch back to the loader. Gen ties it to the
// Start call that produced it.
type Result[T any] struct {
	Gen   uint64
	Key   string
	Value T
	Err   error
}

// Loader is the loading -> success | empty | error state machine behind
// every screen that fetches on becoming visible. A result only lands if it
// belongs to the latest Start and the screen has not been stopped.
type Loader[T any] struct {
	fetch   Fetch[T]
	isEmpty func(T) bool

	mu      sync.Mutex
	status  Status
	value   T
	err     error
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
}

// NewLoader builds a loader. isEmpty decides the empty state; nil treats
// zero-length slices and maps, and nil values, as empty.
func NewLoader[T any](fetch Fetch[T], isEmpty func(T) bool) *Loader[T] {
	if isEmpty == nil {
		isEmpty = defaultEmpty[T]
	}
	return &Loader[T]{fetch: fetch, isEmpty: isEmpty}
}

func defaultEmpty[T any](v T) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Start enters loading for key, cancels any fetch still running and
// returns the fetch to run. The returned function blocks; run it off the
// UI thread and pass its result to Apply.
func (l *Loader[T]) Start(parent context.Context, key string) func() Result[T] {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.stopped = false
	l.status = StatusLoading
	l.err = nil
	var zero T
	l.value = zero
	fetch := l.fetch
	l.mu.Unlock()

	return func() Result[T] {
		defer cancel()
		v, err := fetch(ctx, key)
		return Result[T]{Gen: gen, Key: key, Value: v, Err: err}
	}
}

// Apply records a finished fetch. It reports false when the result was
// dropped as stale or because the loader was stopped.
func (l *Loader[T]) Apply(r Result[T]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || r.Gen != l.gen {
		return false
	}
	l.cancel = nil
	switch {
	case r.Err != nil:
		l.status = StatusError
		l.err = r.Err
	case l.isEmpty(r.Value):
		l.status = StatusEmpty
		l.value = r.Value
	default:
		l.status = StatusSuccess
		l.value = r.Value
	}
	return true
}

// Load runs a fetch synchronously, for callers without an event loop.
func (l *Loader[T]) Load(ctx context.Context, key string) Status {
	l.Apply(l.Start(ctx, key)())
	return l.Status()
}

// Stop cancels any running fetch and drops its result when it arrives.
// Called when the screen is unmounted.
func (l *Loader[T]) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.stopped = true
}

func (l *Loader[T]) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Loader[T]) Value() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
