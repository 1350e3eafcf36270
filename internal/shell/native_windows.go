//go:build windows

package shell

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/justyntemme/deskshell/internal/debug"
)

// Windows API
var (
	shell32 = windows.NewLazySystemDLL("shell32.dll")
	user32  = windows.NewLazySystemDLL("user32.dll")
	gdi32   = windows.NewLazySystemDLL("gdi32.dll")
	ole32   = windows.NewLazySystemDLL("ole32.dll")

	procSHGetFileInfoW     = shell32.NewProc("SHGetFileInfoW")
	procSHParseDisplayName = shell32.NewProc("SHParseDisplayName")
	procSHCreateDataObject = shell32.NewProc("SHCreateDataObject")
	procILFindLastID       = shell32.NewProc("ILFindLastID")
	procILFree             = shell32.NewProc("ILFree")
	procDrawIconEx         = user32.NewProc("DrawIconEx")
	procDestroyIcon        = user32.NewProc("DestroyIcon")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetDIBits          = gdi32.NewProc("GetDIBits")
	procGdiFlush           = gdi32.NewProc("GdiFlush")
	procOleInitialize      = ole32.NewProc("OleInitialize")
	procOleUninitialize    = ole32.NewProc("OleUninitialize")
	procDoDragDrop         = ole32.NewProc("DoDragDrop")
)

// HRESULT values
const (
	sOK                        = 0x00000000
	sFalse                     = 0x00000001
	eNoInterface               = 0x80004002
	dragdropSDrop              = 0x00040100
	dragdropSCancel            = 0x00040101
	dragdropSUseDefaultCursors = 0x00040102
)

var (
	iidIUnknown    = windows.GUID{Data1: 0x00000000, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46}}
	iidIDataObject = windows.GUID{Data1: 0x0000010E, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46}}
	iidIDropSource = windows.GUID{Data1: 0x00000121, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0, 0, 0, 0, 0, 0, 0x46}}
)

// hresult extracts the 32-bit HRESULT from a proc return value and turns
// failures into errors.
func hresult(op string, r1 uintptr) error {
	hr := uint32(r1)
	if int32(hr) >= 0 {
		return nil
	}
	return fmt.Errorf("%s: HRESULT 0x%08X", op, hr)
}

// lastErr picks the error reported by a failed proc call.
func lastErr(op string, err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno == 0 {
		return fmt.Errorf("%s failed", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// InitApartment enters a single-threaded COM apartment on the calling
// thread. Use it as the init function of the apartment thread.
func InitApartment() (func(), error) {
	err := windows.CoInitializeEx(0, windows.COINIT_APARTMENTTHREADED)
	if err != nil {
		if errno, ok := err.(syscall.Errno); !ok || errno != sFalse {
			return nil, fmt.Errorf("CoInitializeEx: %w", err)
		}
	}
	debug.Log(debug.SHELL, "entered STA")
	return windows.CoUninitialize, nil
}

// NativeIconBackend returns the shell32/GDI icon backend.
func NativeIconBackend() IconBackend { return iconBackend{} }

// NativeDragBackend returns the OLE drag-and-drop backend.
func NativeDragBackend() DragBackend { return dragBackend{} }

// iUnknownVtbl is the head of every COM vtable.
type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

// comRelease calls IUnknown::Release on a COM object pointer.
func comRelease(obj uintptr) {
	if obj == 0 {
		return
	}
	vtbl := *(**iUnknownVtbl)(unsafe.Pointer(obj))
	syscall.SyscallN(vtbl.Release, obj)
}
