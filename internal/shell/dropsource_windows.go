//go:build windows

package shell

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IDropSource vtable. Callbacks are created once; Windows limits how many
// Go callbacks a process may create.
type dropSourceVtbl struct {
	iUnknownVtbl
	QueryContinueDrag uintptr
	GiveFeedback      uintptr
}

var dropSourceVtblInstance = &dropSourceVtbl{
	iUnknownVtbl: iUnknownVtbl{
		QueryInterface: windows.NewCallback(dropSourceQueryInterface),
		AddRef:         windows.NewCallback(dropSourceAddRef),
		Release:        windows.NewCallback(dropSourceRelease),
	},
	QueryContinueDrag: windows.NewCallback(dropSourceQueryContinueDrag),
	GiveFeedback:      windows.NewCallback(dropSourceGiveFeedback),
}

// comDropSource is the COM object handed to DoDragDrop. The vtable pointer
// must stay the first field. Its memory is owned by Go; the caller keeps it
// alive for the duration of the drag.
type comDropSource struct {
	vtbl *dropSourceVtbl
	refs int32
	src  DropSource
}

func newCOMDropSource(src DropSource) *comDropSource {
	return &comDropSource{vtbl: dropSourceVtblInstance, refs: 1, src: src}
}

func toDropSource(this uintptr) *comDropSource {
	return (*comDropSource)(unsafe.Pointer(this))
}

func dropSourceQueryInterface(this, riid, ppv uintptr) uintptr {
	iid := (*windows.GUID)(unsafe.Pointer(riid))
	out := (*uintptr)(unsafe.Pointer(ppv))
	if *iid == iidIUnknown || *iid == iidIDropSource {
		*out = this
		dropSourceAddRef(this)
		return sOK
	}
	*out = 0
	return eNoInterface
}

func dropSourceAddRef(this uintptr) uintptr {
	return uintptr(atomic.AddInt32(&toDropSource(this).refs, 1))
}

func dropSourceRelease(this uintptr) uintptr {
	return uintptr(atomic.AddInt32(&toDropSource(this).refs, -1))
}

// BOOL and DWORD arrive in 64-bit registers with undefined upper halves.
func dropSourceQueryContinueDrag(this, escapePressed, keyState uintptr) uintptr {
	ds := toDropSource(this)
	switch ds.src.QueryContinueDrag(uint32(escapePressed) != 0, KeyState(uint32(keyState))) {
	case Cancelled:
		return dragdropSCancel
	case Dropped:
		return dragdropSDrop
	}
	return sOK
}

func dropSourceGiveFeedback(this, effect uintptr) uintptr {
	ds := toDropSource(this)
	if ds.src.GiveFeedback(DropEffect(uint32(effect))) == UseDefaultCursors {
		return dragdropSUseDefaultCursors
	}
	return sOK
}
