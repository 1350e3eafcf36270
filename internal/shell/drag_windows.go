//go:build windows

package shell

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/justyntemme/deskshell/internal/debug"
)

type dragBackend struct{}

func (dragBackend) Supported() bool { return true }

func (dragBackend) InitOLE() error {
	r1, _, _ := procOleInitialize.Call(0)
	return hresult("OleInitialize", r1)
}

func (dragBackend) UninitOLE() {
	procOleUninitialize.Call()
}

func (dragBackend) ParseName(path string) (ShellID, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var pidl uintptr
	r1, _, _ := procSHParseDisplayName.Call(
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(unsafe.Pointer(&pidl)),
		0,
		0,
	)
	if err := hresult("SHParseDisplayName", r1); err != nil {
		return 0, err
	}
	if pidl == 0 {
		return 0, fmt.Errorf("SHParseDisplayName returned no identifier")
	}
	debug.Log(debug.SHELL, "acquire pidl 0x%x for %q", pidl, path)
	return ShellID(pidl), nil
}

func (dragBackend) FreeID(id ShellID) {
	procILFree.Call(uintptr(id))
}

func (dragBackend) LastID(id ShellID) ShellID {
	last, _, _ := procILFindLastID.Call(uintptr(id))
	return ShellID(last)
}

func (dragBackend) CreateDataObject(folder ShellID, children []ShellID) (DataObject, error) {
	if len(children) == 0 {
		return 0, fmt.Errorf("no child identifiers")
	}
	apidl := make([]uintptr, len(children))
	for i, c := range children {
		apidl[i] = uintptr(c)
	}
	var obj uintptr
	r1, _, _ := procSHCreateDataObject.Call(
		uintptr(folder),
		uintptr(len(apidl)),
		uintptr(unsafe.Pointer(&apidl[0])),
		0,
		uintptr(unsafe.Pointer(&iidIDataObject)),
		uintptr(unsafe.Pointer(&obj)),
	)
	runtime.KeepAlive(apidl)
	if err := hresult("SHCreateDataObject", r1); err != nil {
		return 0, err
	}
	if obj == 0 {
		return 0, fmt.Errorf("SHCreateDataObject returned no object")
	}
	return DataObject(obj), nil
}

func (dragBackend) ReleaseDataObject(obj DataObject) {
	comRelease(uintptr(obj))
}

func (dragBackend) DoDragDrop(obj DataObject, src DropSource, allowed DropEffect) (DragState, DropEffect, error) {
	ds := newCOMDropSource(src)
	var effect uint32
	r1, _, _ := procDoDragDrop.Call(
		uintptr(obj),
		uintptr(unsafe.Pointer(ds)),
		uintptr(allowed),
		uintptr(unsafe.Pointer(&effect)),
	)
	runtime.KeepAlive(ds)

	switch uint32(r1) {
	case dragdropSDrop:
		return Dropped, DropEffect(effect), nil
	case dragdropSCancel:
		return Cancelled, EffectNone, nil
	}
	if err := hresult("DoDragDrop", r1); err != nil {
		return Cancelled, EffectNone, err
	}
	// Any other success code is treated as a drop.
	return Dropped, DropEffect(effect), nil
}
