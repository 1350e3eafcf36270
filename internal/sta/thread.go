// Package sta runs units of work on a single locked OS thread.
//
// Shell and GDI objects belong to the thread that created them, and OLE
// drag-and-drop requires a single-threaded apartment. A Thread owns one such
// thread for its whole lifetime; callers on any goroutine submit closures and
// wait for them through a one-shot completion channel.
package sta

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/justyntemme/deskshell/internal/debug"
)

// ErrClosed is returned when work is submitted after Close.
var ErrClosed = errors.New("sta: thread closed")

// InitFunc prepares the locked thread (for example by entering a COM
// apartment). The returned cleanup runs on the same thread when it exits.
type InitFunc func() (cleanup func(), err error)

type job struct {
	fn   func()
	done chan struct{}
}

// Thread executes submitted work serially on one locked OS thread.
type Thread struct {
	name string
	jobs chan job
	quit chan struct{}
	exit chan struct{}
	once sync.Once
}

// Start locks a fresh OS thread, runs init on it and begins serving work.
// If init fails the thread is released and the error returned.
func Start(name string, init InitFunc) (*Thread, error) {
	t := &Thread{
		name: name,
		jobs: make(chan job),
		quit: make(chan struct{}),
		exit: make(chan struct{}),
	}

	ready := make(chan error, 1)
	go t.run(init, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	debug.Log(debug.STA, "%s: thread started", name)
	return t, nil
}

func (t *Thread) run(init InitFunc, ready chan<- error) {
	runtime.LockOSThread()
	defer close(t.exit)

	var cleanup func()
	if init != nil {
		c, err := init()
		if err != nil {
			// Leave the thread locked so the runtime discards it.
			ready <- err
			return
		}
		cleanup = c
	}
	ready <- nil

	defer runtime.UnlockOSThread()
	if cleanup != nil {
		defer cleanup()
	}

	for {
		select {
		case <-t.quit:
			debug.Log(debug.STA, "%s: thread stopping", t.name)
			return
		case j := <-t.jobs:
			j.fn()
			close(j.done)
		}
	}
}

// Do runs fn on the thread and waits for it to finish.
//
// A context cancelled before fn is picked up aborts the submission. Once fn is
// running it always runs to completion; a context cancelled in the meantime
// only stops the caller from waiting.
func (t *Thread) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.quit:
		return ErrClosed
	case t.jobs <- j:
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		debug.Log(debug.STA, "%s: caller stopped waiting: %v", t.name, ctx.Err())
		return ctx.Err()
	}
}

// Close stops the thread after the running job, if any, completes.
func (t *Thread) Close() {
	t.once.Do(func() {
		close(t.quit)
		<-t.exit
	})
}

// Call runs fn on t and hands its result back to the caller.
func Call[T any](ctx context.Context, t *Thread, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	// Buffered so the job never blocks when the caller has given up waiting.
	out := make(chan result, 1)

	if err := t.Do(ctx, func() {
		v, err := fn()
		out <- result{v, err}
	}); err != nil {
		var zero T
		return zero, err
	}
	r := <-out
	return r.val, r.err
}
