package resolver

import (
	"context"
	"sync"

	"github.com/SolomonYakubu/dop-marketplace-sub000/telemetry"
)

// flight tracks one outstanding resolution so concurrent callers for the
// same reference share a single network round trip.
type flight[T any] struct {
	key    string
	result T
	err    error
	done   chan struct{}
	mu     sync.RWMutex
	once   sync.Once
}

func newFlight[T any](key string) *flight[T] {
	return &flight[T]{
		key:  key,
		done: make(chan struct{}),
	}
}

// settle records the outcome exactly once; a late duplicate settle (a slow
// losing fetch, a cancelled leader) is a silent no-op.
func (f *flight[T]) settle(result T, err error) {
	f.once.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.result = result
		f.err = err
		close(f.done)
	})
}

func (f *flight[T]) wait() <-chan struct{} {
	return f.done
}

func (f *flight[T]) outcome() (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.result, f.err
}

// executeShared runs op under the in-flight registry: the first caller for
// key becomes the leader and executes, every concurrent caller for the same
// key awaits the leader's outcome. The registry entry is removed
// unconditionally once the operation settles, success or failure.
func executeShared[T any](
	ctx context.Context,
	registry *sync.Map,
	key string,
	op func(context.Context) (T, error),
) (T, error) {
	existing, loaded := registry.LoadOrStore(key, newFlight[T](key))
	fl := existing.(*flight[T])

	if loaded {
		telemetry.MetricCoalescedWaiterTotal.Inc()
		select {
		case <-fl.wait():
			return fl.outcome()
		case <-ctx.Done():
			return *new(T), ctx.Err()
		}
	}

	defer registry.Delete(key)

	result, err := op(ctx)
	fl.settle(result, err)

	return result, err
}
