//go:build !windows

package shell

// InitApartment is a no-op where there is no COM apartment to enter.
func InitApartment() (func(), error) {
	return func() {}, nil
}

// NativeIconBackend returns a backend that reports no shell icon support.
func NativeIconBackend() IconBackend { return unsupportedIcons{} }

// NativeDragBackend returns a backend that reports no native drag support.
func NativeDragBackend() DragBackend { return unsupportedDrags{} }

type unsupportedIcons struct{}

func (unsupportedIcons) Supported() bool { return false }
func (unsupportedIcons) CreateDC() (DC, error) { return 0, ErrPlatformUnsupported }
func (unsupportedIcons) DeleteDC(DC) {}
func (unsupportedIcons) LoadIcon(string) (IconHandle, error) { return 0, ErrPlatformUnsupported }
func (unsupportedIcons) DestroyIcon(IconHandle) {}
func (unsupportedIcons) CreateSurface(DC, int) (Surface, error) { return 0, ErrPlatformUnsupported }
func (unsupportedIcons) DeleteSurface(Surface) {}
func (unsupportedIcons) DrawIcon(DC, Surface, IconHandle, int) error { return ErrPlatformUnsupported }
func (unsupportedIcons) ReadPixels(DC, Surface, int) ([]byte, error) {
	return nil, ErrPlatformUnsupported
}

type unsupportedDrags struct{}

func (unsupportedDrags) Supported() bool { return false }
func (unsupportedDrags) InitOLE() error { return ErrPlatformUnsupported }
func (unsupportedDrags) UninitOLE() {}
func (unsupportedDrags) ParseName(string) (ShellID, error) { return 0, ErrPlatformUnsupported }
func (unsupportedDrags) FreeID(ShellID) {}
func (unsupportedDrags) LastID(ShellID) ShellID { return 0 }
func (unsupportedDrags) CreateDataObject(ShellID, []ShellID) (DataObject, error) {
	return 0, ErrPlatformUnsupported
}
func (unsupportedDrags) ReleaseDataObject(DataObject) {}
func (unsupportedDrags) DoDragDrop(DataObject, DropSource, DropEffect) (DragState, DropEffect, error) {
	return Cancelled, EffectNone, ErrPlatformUnsupported
}
