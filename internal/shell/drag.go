package shell

import (
	"context"
	"path/filepath"

	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/sta"
)

// Outcome reports how a drag session ended.
type Outcome struct {
	State  DragState  // Dropped or Cancelled
	Effect DropEffect // effect performed by the target, EffectNone if cancelled
}

// DragController starts native drag sessions for file selections.
type DragController struct {
	thread  *sta.Thread
	backend DragBackend
	allowed DropEffect

	// NewSource builds the drop source for each session. It defaults to
	// NewFileDropSource.
	NewSource func() DropSource
}

// NewDragController returns a controller that runs backend calls on thread
// and offers copy and move to drop targets.
func NewDragController(thread *sta.Thread, backend DragBackend) *DragController {
	return &DragController{
		thread:    thread,
		backend:   backend,
		allowed:   EffectCopy | EffectMove,
		NewSource: func() DropSource { return NewFileDropSource() },
	}
}

// SetAllowedEffects restricts the effects offered to drop targets. An empty
// set restores copy|move.
func (c *DragController) SetAllowedEffects(e DropEffect) {
	if e == EffectNone {
		e = EffectCopy | EffectMove
	}
	c.allowed = e
}

// StartDrag drags paths and blocks until the user drops or cancels. Both are
// successful outcomes.
func (c *DragController) StartDrag(ctx context.Context, paths []string) error {
	_, err := c.Drag(ctx, paths)
	return err
}

// Drag is StartDrag that also reports the outcome.
func (c *DragController) Drag(ctx context.Context, paths []string) (Outcome, error) {
	if !c.backend.Supported() {
		return Outcome{}, ErrPlatformUnsupported
	}
	parent, err := CommonParent(paths)
	if err != nil {
		return Outcome{}, err
	}

	debug.Log(debug.DRAG, "starting drag of %d item(s) from %q", len(paths), parent)
	out, err := sta.Call(ctx, c.thread, func() (Outcome, error) {
		return c.session(parent, paths)
	})
	if err != nil {
		debug.Log(debug.DRAG, "drag failed: %v", err)
		return Outcome{}, err
	}
	debug.Log(debug.DRAG, "drag %s with effect %s", out.State, out.Effect)
	return out, nil
}

// CommonParent returns the directory shared by every path. Parents are
// compared byte for byte after filepath.Dir.
func CommonParent(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ErrEmptySelection
	}
	parent := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		if dir := filepath.Dir(p); dir != parent {
			return "", opError(ErrCrossDirectory, "", p, nil)
		}
	}
	return parent, nil
}

// session runs on the apartment thread.
func (c *DragController) session(parent string, paths []string) (Outcome, error) {
	b := c.backend
	var held releaser
	defer held.unwind()

	if err := b.InitOLE(); err != nil {
		return Outcome{}, opError(ErrShellQuery, "OleInitialize", "", err)
	}
	held.add("ole", b.UninitOLE)

	folder, err := b.ParseName(parent)
	if err != nil {
		return Outcome{}, opError(ErrShellQuery, "SHParseDisplayName", parent, err)
	}
	held.add("folder id", func() { b.FreeID(folder) })

	children := make([]ShellID, 0, len(paths))
	for _, p := range paths {
		id, err := b.ParseName(p)
		if err != nil {
			return Outcome{}, opError(ErrShellQuery, "SHParseDisplayName", p, err)
		}
		held.add("item id", func() { b.FreeID(id) })
		children = append(children, b.LastID(id))
	}

	obj, err := b.CreateDataObject(folder, children)
	if err != nil {
		return Outcome{}, opError(ErrDataObject, "SHCreateDataObject", parent, err)
	}
	held.add("data object", func() { b.ReleaseDataObject(obj) })

	state, effect, err := b.DoDragDrop(obj, c.NewSource(), c.allowed)
	if err != nil {
		return Outcome{}, opError(ErrDataObject, "DoDragDrop", parent, err)
	}
	if state == Cancelled {
		effect = EffectNone
	}
	return Outcome{State: state, Effect: effect}, nil
}

// FileDropSource is the drop source used for file drags. Escape cancels,
// releasing the left button drops, anything else keeps dragging. Once the
// session has ended it keeps reporting the same final state.
type FileDropSource struct {
	state   DragState
	queries int
}

// NewFileDropSource returns a drop source in the Dragging state.
func NewFileDropSource() *FileDropSource {
	return &FileDropSource{state: Dragging}
}

// QueryContinueDrag implements DropSource.
func (s *FileDropSource) QueryContinueDrag(escapePressed bool, keys KeyState) DragState {
	s.queries++
	if s.state != Dragging {
		return s.state
	}
	switch {
	case escapePressed:
		s.state = Cancelled
	case keys&KeyLButton == 0:
		s.state = Dropped
	}
	if s.state != Dragging {
		debug.Log(debug.DRAG, "drop source: %s after %d queries (keys=%#x)", s.state, s.queries, uint32(keys))
	}
	return s.state
}

// GiveFeedback implements DropSource.
func (s *FileDropSource) GiveFeedback(effect DropEffect) Feedback {
	return UseDefaultCursors
}

// State returns the latest decision.
func (s *FileDropSource) State() DragState {
	return s.state
}
