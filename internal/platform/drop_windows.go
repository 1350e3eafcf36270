//go:build windows

package platform

// External drops arrive as WM_DROPFILES: DragAcceptFiles marks the window as
// a target and a comctl32 subclass intercepts the message before Gio sees it.

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/justyntemme/deskshell/internal/debug"
)

const wmDropFiles = 0x0233

// Subclass ID for our handler
const dropSubclassID = 1

var (
	shell32  = windows.NewLazySystemDLL("shell32.dll")
	comctl32 = windows.NewLazySystemDLL("comctl32.dll")

	procDragAcceptFiles   = shell32.NewProc("DragAcceptFiles")
	procDragQueryFileW    = shell32.NewProc("DragQueryFileW")
	procDragFinish        = shell32.NewProc("DragFinish")
	procSetWindowSubclass = comctl32.NewProc("SetWindowSubclass")
	procDefSubclassProc   = comctl32.NewProc("DefSubclassProc")
)

var (
	subclassOnce     sync.Once
	subclassCallback uintptr // Created once; callbacks are a limited resource
)

// dropSubclassProc handles WM_DROPFILES messages
// SUBCLASSPROC(HWND, UINT, WPARAM, LPARAM, UINT_PTR uIdSubclass, DWORD_PTR dwRefData)
func dropSubclassProc(hwnd, msg, wParam, lParam, idSubclass, refData uintptr) uintptr {
	if uint32(msg) == wmDropFiles {
		debug.Log(debug.APP, "[DnD] WM_DROPFILES hdrop=0x%x", wParam)
		deliver(dropFiles(wParam))
		return 0
	}

	// Call next handler in subclass chain
	ret, _, _ := procDefSubclassProc.Call(hwnd, msg, wParam, lParam)
	return ret
}

// dropFiles extracts the paths from an HDROP and releases it
func dropFiles(hDrop uintptr) []string {
	defer procDragFinish.Call(hDrop)

	count, _, _ := procDragQueryFileW.Call(hDrop, 0xFFFFFFFF, 0, 0)
	paths := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		size, _, _ := procDragQueryFileW.Call(hDrop, i, 0, 0)
		if size == 0 {
			continue
		}
		buf := make([]uint16, size+1)
		procDragQueryFileW.Call(hDrop, i, uintptr(unsafe.Pointer(&buf[0])), size+1)
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths
}

// SetupExternalDrop configures the window to accept external file drops
func SetupExternalDrop(hwnd uintptr) {
	if hwnd == 0 {
		debug.Log(debug.APP, "[DnD] SetupExternalDrop: hwnd is 0, skipping")
		return
	}

	procDragAcceptFiles.Call(hwnd, 1)

	subclassOnce.Do(func() {
		subclassCallback = windows.NewCallback(dropSubclassProc)
	})
	ret, _, err := procSetWindowSubclass.Call(hwnd, subclassCallback, dropSubclassID, 0)
	if ret == 0 {
		debug.Log(debug.APP, "[DnD] SetWindowSubclass failed: %v", err)
		return
	}
	debug.Log(debug.APP, "[DnD] window 0x%x accepts dropped files", hwnd)
}
