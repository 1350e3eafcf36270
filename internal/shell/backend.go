// Package shell integrates with the native desktop shell: it rasterizes the
// system icon of a file into a PNG data URI and starts OS drag-and-drop
// sessions for file selections.
//
// Both features are split into a portable pipeline (validation, resource
// discipline, pixel conversion, encoding, the drop source state machine) and a
// platform backend that performs the raw native calls. The Windows backend
// lives in the *_windows.go files; every other platform gets a backend that
// reports itself unsupported.
package shell

import (
	"fmt"
	"strings"
)

// Opaque native handles. Their meaning is defined by the backend that
// produced them.
type (
	IconHandle uintptr
	DC         uintptr
	Surface    uintptr
	ShellID    uintptr
	DataObject uintptr
)

// IconBackend performs the native calls behind icon resolution. Every method
// is invoked on the apartment thread.
type IconBackend interface {
	// Supported reports whether the platform has a shell icon API. When it
	// returns false no other method is called.
	Supported() bool

	CreateDC() (DC, error)
	DeleteDC(DC)

	// LoadIcon asks the shell for the large icon of path.
	LoadIcon(path string) (IconHandle, error)
	DestroyIcon(IconHandle)

	// CreateSurface allocates a size×size, 32 bits per pixel, top-down
	// surface compatible with dc.
	CreateSurface(dc DC, size int) (Surface, error)
	DeleteSurface(Surface)

	// DrawIcon draws icon into the surface scaled to size×size, keeping
	// its alpha channel.
	DrawIcon(dc DC, s Surface, icon IconHandle, size int) error

	// ReadPixels returns a copy of the surface as top-down BGRA rows,
	// size*size*4 bytes long.
	ReadPixels(dc DC, s Surface, size int) ([]byte, error)
}

// DropEffect is a set of drag-and-drop outcomes negotiated with the target.
type DropEffect uint32

const (
	EffectNone DropEffect = 0
	EffectCopy DropEffect = 1
	EffectMove DropEffect = 2
	EffectLink DropEffect = 4
)

func (e DropEffect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectCopy:
		return "copy"
	case EffectMove:
		return "move"
	case EffectLink:
		return "link"
	case EffectCopy | EffectMove:
		return "copy|move"
	}
	return "mixed"
}

// ParseDropEffects combines effect names such as "copy" and "move" into one
// set. Unknown names are an error.
func ParseDropEffects(names []string) (DropEffect, error) {
	var e DropEffect
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "copy":
			e |= EffectCopy
		case "move":
			e |= EffectMove
		case "link":
			e |= EffectLink
		case "", "none":
		default:
			return EffectNone, fmt.Errorf("unknown drop effect %q", n)
		}
	}
	return e, nil
}

// KeyState mirrors the modifier and mouse button flags the OS passes to a
// drop source while dragging.
type KeyState uint32

const (
	KeyLButton KeyState = 0x01
	KeyRButton KeyState = 0x02
	KeyShift   KeyState = 0x04
	KeyControl KeyState = 0x08
	KeyMButton KeyState = 0x10
	KeyAlt     KeyState = 0x20
)

// DragState is the drop source's decision for one query of the drag loop.
type DragState int

const (
	Dragging DragState = iota
	Dropped
	Cancelled
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Feedback is the drop source's answer to a cursor feedback query.
type Feedback int

const (
	UseDefaultCursors Feedback = iota
	CustomCursors
)

// DropSource is consulted by the OS while a drag is in progress. It is called
// on the apartment thread from inside the blocking drag loop.
type DropSource interface {
	// QueryContinueDrag decides whether the drag continues, drops or is
	// cancelled given the escape key and the current key state.
	QueryContinueDrag(escapePressed bool, keys KeyState) DragState
	// GiveFeedback picks the cursor feedback for the current effect.
	GiveFeedback(effect DropEffect) Feedback
}

// DragBackend performs the native calls behind a drag session. Every method
// is invoked on the apartment thread.
type DragBackend interface {
	// Supported reports whether the platform can start native drags. When
	// it returns false no other method is called.
	Supported() bool

	// InitOLE prepares the drag-and-drop machinery for one session.
	InitOLE() error
	UninitOLE()

	// ParseName resolves an absolute path to a shell identifier.
	ParseName(path string) (ShellID, error)
	FreeID(ShellID)
	// LastID returns the trailing component of id relative to its parent
	// folder. The result points into id and must not be freed.
	LastID(id ShellID) ShellID

	// CreateDataObject builds a data object for children rooted at folder.
	CreateDataObject(folder ShellID, children []ShellID) (DataObject, error)
	ReleaseDataObject(DataObject)

	// DoDragDrop runs the blocking native drag loop and reports how it
	// ended and which effect the target performed.
	DoDragDrop(obj DataObject, src DropSource, allowed DropEffect) (DragState, DropEffect, error)
}
