package ui

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"gioui.org/op/paint"
	"golang.org/x/image/draw"

	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/shell"
)

// IconSource renders the system icon of a path.
type IconSource interface {
	ResolveImage(ctx context.Context, path string, size *uint) (*image.RGBA, error)
}

// IconLoader resolves the icons of the current listing in the background and
// keeps them scaled to the display size. It only holds icons for the listing
// on screen; Reset drops them when the box changes.
type IconLoader struct {
	mu     sync.RWMutex
	icons  map[string]loadedIcon
	failed map[string]bool

	source    IconSource
	resolvePx uint
	timeout   time.Duration
	onLoaded  func()

	// disabled is set once the source reports the platform cannot render icons
	disabled bool

	pendingMu sync.Mutex
	pending   map[string]bool
	loadChan  chan iconRequest
	stopChan  chan struct{}
}

type loadedIcon struct {
	op paint.ImageOp
	px int
}

type iconRequest struct {
	path string
	px   int
}

// NewIconLoader starts a loader that resolves icons at resolvePx and scales
// them to whatever display size they are requested at. onLoaded runs on the
// loader goroutine after each icon becomes available.
func NewIconLoader(source IconSource, resolvePx uint, onLoaded func()) *IconLoader {
	l := &IconLoader{
		icons:     make(map[string]loadedIcon),
		failed:    make(map[string]bool),
		source:    source,
		resolvePx: resolvePx,
		timeout:   5 * time.Second,
		onLoaded:  onLoaded,
		pending:   make(map[string]bool),
		loadChan:  make(chan iconRequest, 256),
		stopChan:  make(chan struct{}),
	}
	go l.backgroundLoader()
	return l
}

// Get returns the icon of path if it has been loaded at px.
func (l *IconLoader) Get(path string, px int) (paint.ImageOp, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	icon, ok := l.icons[path]
	if !ok || icon.px != px {
		return paint.ImageOp{}, false
	}
	return icon.op, true
}

// RequestLoad queues path for loading at px. Paths that failed, are loaded,
// or are already queued are ignored.
func (l *IconLoader) RequestLoad(path string, px int) {
	l.mu.RLock()
	icon, ok := l.icons[path]
	skip := l.disabled || l.failed[path] || (ok && icon.px == px)
	l.mu.RUnlock()
	if skip {
		return
	}

	l.pendingMu.Lock()
	if l.pending[path] {
		l.pendingMu.Unlock()
		return
	}
	l.pending[path] = true
	l.pendingMu.Unlock()

	select {
	case l.loadChan <- iconRequest{path: path, px: px}:
	default:
		// Queue full; the next frame asks again
		l.pendingMu.Lock()
		delete(l.pending, path)
		l.pendingMu.Unlock()
	}
}

// Reset forgets every icon and failure.
func (l *IconLoader) Reset() {
	l.mu.Lock()
	l.icons = make(map[string]loadedIcon)
	l.failed = make(map[string]bool)
	l.mu.Unlock()

	l.pendingMu.Lock()
	l.pending = make(map[string]bool)
	l.pendingMu.Unlock()

	debug.Log(debug.UI, "IconLoader: reset")
}

// Stop shuts down the background loader.
func (l *IconLoader) Stop() {
	close(l.stopChan)
}

func (l *IconLoader) backgroundLoader() {
	for {
		select {
		case <-l.stopChan:
			return
		case req := <-l.loadChan:
			l.load(req)
		}
	}
}

func (l *IconLoader) load(req iconRequest) {
	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, req.path)
		l.pendingMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	size := l.resolvePx
	img, err := l.source.ResolveImage(ctx, req.path, &size)
	if err != nil {
		debug.Log(debug.UI, "IconLoader: %s: %v", req.path, err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// The apartment thread was busy (a drag holds it); ask again later
			return
		}
		l.mu.Lock()
		if errors.Is(err, shell.ErrPlatformUnsupported) {
			l.disabled = true
		} else {
			l.failed[req.path] = true
		}
		l.mu.Unlock()
		return
	}

	op := paint.NewImageOp(scaleIcon(img, req.px))
	l.mu.Lock()
	l.icons[req.path] = loadedIcon{op: op, px: req.px}
	l.mu.Unlock()

	if l.onLoaded != nil {
		l.onLoaded()
	}
}

// scaleIcon returns src scaled to px×px. Icons already at px are returned
// unchanged.
func scaleIcon(src *image.RGBA, px int) *image.RGBA {
	b := src.Bounds()
	if px <= 0 || (b.Dx() == px && b.Dy() == px) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, px, px))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
