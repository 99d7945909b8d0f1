package pool

import "sync"

// Resettable is implemented by pooled values that need zeroing before
// reuse; Put calls it automatically.
type Resettable interface {
	Reset()
}

// Pool is a typed wrapper around sync.Pool. Values returned from Get
// are guaranteed to be the constructor's type, so callers never touch
// interface{} assertions.
type Pool[T any] struct {
	pool sync.Pool
	new  func() T
}

func NewLitePool[T any](newFn func() T) *Pool[T] {
	if newFn == nil {
		panic("litepool: constructor must not be nil")
	}
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
		new: newFn,
	}
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // constructor fixes the element type
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}
