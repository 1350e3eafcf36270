package shell

import "github.com/justyntemme/deskshell/internal/debug"

// releaser is a stack of release actions for native resources. Each action is
// pushed the moment its resource is acquired and runs at most once, either
// early through its handle or when the stack unwinds.
type releaser struct {
	entries []*release
}

type release struct {
	name string
	fn   func()
	done bool
}

// add schedules fn to release the named resource.
func (r *releaser) add(name string, fn func()) *release {
	e := &release{name: name, fn: fn}
	r.entries = append(r.entries, e)
	return e
}

// now releases the resource immediately. Later calls and the final unwind
// skip it.
func (e *release) now() {
	if e.done {
		return
	}
	e.done = true
	debug.Log(debug.SHELL, "release %s", e.name)
	e.fn()
}

// unwind releases everything still held, most recent first.
func (r *releaser) unwind() {
	for i := len(r.entries) - 1; i >= 0; i-- {
		r.entries[i].now()
	}
	r.entries = nil
}
