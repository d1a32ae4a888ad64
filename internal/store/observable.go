// Package store holds the in-memory collection stores. Each store owns one
// slice of entities, persists every mutation through the local storage
// layer and notifies subscribers so derived views and the sync bridge can
// react to changes.
package store

import "sync"

// observable is the version counter and subscriber set embedded by every
// collection store. Versions increase monotonically on each mutation;
// subscribers run synchronously on the mutating goroutine, after the
// store's own lock is released.
type observable struct {
	obsMu   sync.Mutex
	version uint64
	nextSub int
	subs    map[int]func()
}

// Version returns the current mutation counter. Two equal versions mean
// the store content has not changed in between.
func (o *observable) Version() uint64 {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	return o.version
}

// Subscribe registers fn to run after every mutation. The returned
// function removes the subscription; calling it more than once is safe.
func (o *observable) Subscribe(fn func()) func() {
	o.obsMu.Lock()
	if o.subs == nil {
		o.subs = make(map[int]func())
	}
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.obsMu.Unlock()

	return func() {
		o.obsMu.Lock()
		delete(o.subs, id)
		o.obsMu.Unlock()
	}
}

// changed bumps the version and invokes the subscribers.
func (o *observable) changed() {
	o.obsMu.Lock()
	o.version++
	fns := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
