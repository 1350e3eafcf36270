package shell

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/sta"
)

// Icon sizes in pixels.
const (
	MinIconSize     = 16
	MaxIconSize     = 256
	DefaultIconSize = 64
)

const dataURIPrefix = "data:image/png;base64,"

// ClampIconSize maps a requested size onto [MinIconSize, MaxIconSize]. A nil
// request yields DefaultIconSize.
func ClampIconSize(size *uint) int {
	if size == nil {
		return DefaultIconSize
	}
	switch s := *size; {
	case s < MinIconSize:
		return MinIconSize
	case s > MaxIconSize:
		return MaxIconSize
	default:
		return int(s)
	}
}

// IconResolver turns filesystem paths into rasterized system icons.
// Resolvers hold no per-call state; concurrent calls are safe and are
// serialized on the apartment thread.
type IconResolver struct {
	thread  *sta.Thread
	backend IconBackend
}

// NewIconResolver returns a resolver that runs backend calls on thread.
func NewIconResolver(thread *sta.Thread, backend IconBackend) *IconResolver {
	return &IconResolver{thread: thread, backend: backend}
}

// ResolveIcon returns the system icon of path as a PNG data URI of exactly
// size×size pixels (see ClampIconSize).
func (r *IconResolver) ResolveIcon(ctx context.Context, path string, size *uint) (string, error) {
	img, err := r.ResolveImage(ctx, path, size)
	if err != nil {
		return "", err
	}
	uri, err := EncodeDataURI(img)
	if err != nil {
		return "", err
	}
	debug.Log(debug.ICON, "resolved %q at %dpx (%d bytes)", path, img.Bounds().Dx(), len(uri))
	return uri, nil
}

// ResolveImage is ResolveIcon without the final encoding step.
func (r *IconResolver) ResolveImage(ctx context.Context, path string, size *uint) (*image.RGBA, error) {
	if !r.backend.Supported() {
		return nil, ErrPlatformUnsupported
	}
	px := ClampIconSize(size)
	return sta.Call(ctx, r.thread, func() (*image.RGBA, error) {
		return r.render(path, px)
	})
}

// render runs on the apartment thread. The icon handle is released as soon as
// it has been drawn so that resources go back in the order icon, surface,
// device context.
func (r *IconResolver) render(path string, size int) (*image.RGBA, error) {
	b := r.backend
	var held releaser
	defer held.unwind()

	dc, err := b.CreateDC()
	if err != nil {
		return nil, opError(ErrSurfaceAllocation, "CreateCompatibleDC", "", err)
	}
	held.add("device context", func() { b.DeleteDC(dc) })

	icon, err := b.LoadIcon(path)
	if err != nil {
		return nil, opError(ErrShellQuery, "SHGetFileInfo", path, err)
	}
	iconRelease := held.add("icon handle", func() { b.DestroyIcon(icon) })

	surface, err := b.CreateSurface(dc, size)
	if err != nil {
		return nil, opError(ErrSurfaceAllocation, "CreateDIBSection", path, err)
	}
	held.add("surface", func() { b.DeleteSurface(surface) })

	err = b.DrawIcon(dc, surface, icon, size)
	iconRelease.now()
	if err != nil {
		return nil, opError(ErrSurfaceAllocation, "DrawIconEx", path, err)
	}

	bgra, err := b.ReadPixels(dc, surface, size)
	if err != nil {
		return nil, opError(ErrSurfaceAllocation, "GetDIBits", path, err)
	}
	if len(bgra) != size*size*4 {
		return nil, opError(ErrSurfaceAllocation, "GetDIBits", path,
			fmt.Errorf("got %d bytes, want %d", len(bgra), size*size*4))
	}
	return bgraToRGBA(bgra, size), nil
}

// bgraToRGBA copies top-down BGRA rows into an RGBA image, swapping the red
// and blue channels. GDI draws with premultiplied alpha, which is also what
// image.RGBA stores, so channels are only clamped to alpha, never rescaled.
// Surfaces whose alpha is zero everywhere come from icons without an alpha
// channel; drawn pixels in them are made opaque.
func bgraToRGBA(bgra []byte, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	pix := img.Pix

	hasAlpha := false
	for i := 3; i < len(bgra); i += 4 {
		if bgra[i] != 0 {
			hasAlpha = true
			break
		}
	}

	for i := 0; i < len(bgra); i += 4 {
		b, g, r, a := bgra[i], bgra[i+1], bgra[i+2], bgra[i+3]
		if !hasAlpha && (r|g|b) != 0 {
			a = 0xff
		}
		pix[i+0] = min(r, a)
		pix[i+1] = min(g, a)
		pix[i+2] = min(b, a)
		pix[i+3] = a
	}
	return img
}

// EncodeDataURI encodes img as a base64 PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", opError(ErrEncode, "png.Encode", "", err)
	}
	var sb strings.Builder
	sb.Grow(len(dataURIPrefix) + base64.StdEncoding.EncodedLen(buf.Len()))
	sb.WriteString(dataURIPrefix)
	sb.WriteString(base64.StdEncoding.EncodeToString(buf.Bytes()))
	return sb.String(), nil
}

// DecodeDataURI reverses EncodeDataURI.
func DecodeDataURI(uri string) (image.Image, error) {
	payload, ok := strings.CutPrefix(uri, dataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("not a PNG data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}
