//go:build windows

package shell

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/justyntemme/deskshell/internal/debug"
)

const (
	shgfiIcon      = 0x000000100
	shgfiLargeIcon = 0x000000000

	biRGB        = 0
	dibRGBColors = 0
	diNormal     = 0x0003
)

// SHFILEINFOW
type shFileInfo struct {
	hIcon         windows.Handle
	iIcon         int32
	dwAttributes  uint32
	szDisplayName [windows.MAX_PATH]uint16
	szTypeName    [80]uint16
}

// BITMAPINFOHEADER
type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// BITMAPINFO with room for the (unused) color table entry.
type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// topDownInfo describes a size×size 32bpp surface. A negative height makes
// row 0 the visual top, matching image.RGBA.
func topDownInfo(size int) bitmapInfo {
	var bi bitmapInfo
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.Width = int32(size)
	bi.Header.Height = -int32(size)
	bi.Header.Planes = 1
	bi.Header.BitCount = 32
	bi.Header.Compression = biRGB
	bi.Header.SizeImage = uint32(size * size * 4)
	return bi
}

type iconBackend struct{}

func (iconBackend) Supported() bool { return true }

func (iconBackend) CreateDC() (DC, error) {
	hdc, _, err := procCreateCompatibleDC.Call(0)
	if hdc == 0 {
		return 0, lastErr("CreateCompatibleDC", err)
	}
	debug.Log(debug.SHELL, "acquire dc 0x%x", hdc)
	return DC(hdc), nil
}

func (iconBackend) DeleteDC(dc DC) {
	procDeleteDC.Call(uintptr(dc))
}

func (iconBackend) LoadIcon(path string) (IconHandle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var info shFileInfo
	ret, _, err := procSHGetFileInfoW.Call(
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
		shgfiIcon|shgfiLargeIcon,
	)
	if ret == 0 {
		return 0, lastErr("SHGetFileInfoW", err)
	}
	if info.hIcon == 0 {
		return 0, errors.New("no icon for path")
	}
	debug.Log(debug.SHELL, "acquire icon 0x%x for %q", info.hIcon, path)
	return IconHandle(info.hIcon), nil
}

func (iconBackend) DestroyIcon(h IconHandle) {
	procDestroyIcon.Call(uintptr(h))
}

func (iconBackend) CreateSurface(dc DC, size int) (Surface, error) {
	bi := topDownInfo(size)
	var bits unsafe.Pointer
	hbm, _, err := procCreateDIBSection.Call(
		uintptr(dc),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if hbm == 0 || bits == nil {
		if hbm != 0 {
			procDeleteObject.Call(hbm)
		}
		return 0, lastErr("CreateDIBSection", err)
	}
	debug.Log(debug.SHELL, "acquire surface 0x%x (%dx%d)", hbm, size, size)
	return Surface(hbm), nil
}

func (iconBackend) DeleteSurface(s Surface) {
	procDeleteObject.Call(uintptr(s))
}

func (iconBackend) DrawIcon(dc DC, s Surface, icon IconHandle, size int) error {
	old, _, err := procSelectObject.Call(uintptr(dc), uintptr(s))
	if old == 0 {
		return lastErr("SelectObject", err)
	}
	// The surface must be deselected again before it can be read or deleted.
	defer procSelectObject.Call(uintptr(dc), old)

	ok, _, err := procDrawIconEx.Call(
		uintptr(dc), 0, 0,
		uintptr(icon),
		uintptr(size), uintptr(size),
		0, 0,
		diNormal,
	)
	if ok == 0 {
		return lastErr("DrawIconEx", err)
	}
	procGdiFlush.Call()
	return nil
}

func (iconBackend) ReadPixels(dc DC, s Surface, size int) ([]byte, error) {
	bi := topDownInfo(size)
	buf := make([]byte, size*size*4)
	lines, _, err := procGetDIBits.Call(
		uintptr(dc),
		uintptr(s),
		0,
		uintptr(size),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if lines == 0 {
		return nil, lastErr("GetDIBits", err)
	}
	return buf, nil
}
