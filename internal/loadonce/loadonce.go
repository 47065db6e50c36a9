// Package loadonce provides a load-once cache with an explicit state machine.
//
// A Loader starts in NotLoaded. The first Get starts a single load and moves to
// Loading; every caller arriving while the load runs waits on the same result.
// Success moves to Loaded and the value is served from memory thereafter.
// Failure moves to Failed and is reported to every waiter; the next Get starts
// a fresh load, nothing is retried automatically.
package loadonce

import (
	"context"
	"fmt"
	"sync"
)

// State of a Loader.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event drives a state transition.
type Event int

const (
	EventStart Event = iota
	EventSucceed
	EventFail
)

// Transition is the only place state changes are decided. It reports false for
// events that are not valid in the current state.
func Transition(s State, e Event) (State, bool) {
	switch {
	case e == EventStart && (s == NotLoaded || s == Failed):
		return Loading, true
	case e == EventSucceed && s == Loading:
		return Loaded, true
	case e == EventFail && s == Loading:
		return Failed, true
	}
	return s, false
}

// Func produces the cached value.
type Func[T any] func(ctx context.Context) (T, error)

// Loader caches the result of a single successful Func call.
type Loader[T any] struct {
	load Func[T]

	mu       sync.Mutex
	state    State
	value    T
	inflight *attempt[T] // current or most recent load
}

// attempt is one load; its fields are written once before done is closed.
type attempt[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// New creates a Loader in the NotLoaded state.
func New[T any](load Func[T]) *Loader[T] {
	return &Loader[T]{load: load}
}

// Get returns the cached value, starting or joining a load when needed. The load
// itself is detached from ctx and always runs to completion; ctx only bounds how
// long this caller waits.
func (l *Loader[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	if l.state == Loaded {
		v := l.value
		l.mu.Unlock()
		return v, nil
	}
	if next, ok := Transition(l.state, EventStart); ok {
		l.state = next
		l.inflight = &attempt[T]{done: make(chan struct{})}
		go l.run(context.WithoutCancel(ctx), l.inflight)
	}
	a := l.inflight
	l.mu.Unlock()

	select {
	case <-a.done:
		return a.value, a.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (l *Loader[T]) run(ctx context.Context, a *attempt[T]) {
	a.value, a.err = l.load(ctx)

	l.mu.Lock()
	if a.err != nil {
		l.state, _ = Transition(l.state, EventFail)
	} else {
		l.state, _ = Transition(l.state, EventSucceed)
		l.value = a.value
	}
	l.mu.Unlock()

	close(a.done)
}

// Peek returns the value without loading. ok is false unless the state is Loaded.
func (l *Loader[T]) Peek() (v T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Loaded {
		return v, false
	}
	return l.value, true
}

// State reports the current state.
func (l *Loader[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error of the last failed load, if the Loader is in Failed.
func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Failed || l.inflight == nil {
		return nil
	}
	return l.inflight.err
}
