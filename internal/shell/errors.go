package shell

import (
	"errors"
	"fmt"
)

// Error kinds reported by the icon resolver and drag controller. Every error
// returned by this package matches exactly one of them under errors.Is.
var (
	ErrShellQuery          = errors.New("shell query failed")
	ErrSurfaceAllocation   = errors.New("surface allocation failed")
	ErrEncode              = errors.New("image encoding failed")
	ErrDataObject          = errors.New("data object construction failed")
	ErrEmptySelection      = errors.New("no paths to drag")
	ErrCrossDirectory      = errors.New("dragged paths must share one parent directory")
	ErrPlatformUnsupported = errors.New("native shell integration is not supported on this platform")
)

// Error describes a failed native operation.
type Error struct {
	Kind error  // one of the Err* kinds above
	Op   string // native call or step, e.g. "SHGetFileInfoW"
	Path string // path being processed, if any
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(kind error, op, path string, err error) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
