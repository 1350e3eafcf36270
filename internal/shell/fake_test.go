package shell

import (
	"errors"
	"image"
	"sync"
	"testing"

	"golang.org/x/image/draw"

	"github.com/justyntemme/deskshell/internal/sta"
)

func newTestThread(t *testing.T) *sta.Thread {
	t.Helper()
	th, err := sta.Start("test", nil)
	if err != nil {
		t.Fatalf("sta.Start: %v", err)
	}
	t.Cleanup(th.Close)
	return th
}

// ledger counts acquisitions and releases per resource kind.
type ledger struct {
	mu       sync.Mutex
	acquired map[string]int
	released map[string]int
	order    []string
}

func newLedger() ledger {
	return ledger{acquired: map[string]int{}, released: map[string]int{}}
}

func (l *ledger) acquire(kind string) {
	l.mu.Lock()
	l.acquired[kind]++
	l.mu.Unlock()
}

func (l *ledger) release(kind string) {
	l.mu.Lock()
	l.released[kind]++
	l.order = append(l.order, kind)
	l.mu.Unlock()
}

func (l *ledger) totalAcquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.acquired {
		n += c
	}
	return n
}

// balanced fails the test if any resource kind was not released exactly as
// many times as it was acquired.
func (l *ledger) balanced(t *testing.T) {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	for kind, n := range l.acquired {
		if l.released[kind] != n {
			t.Errorf("%s: acquired %d, released %d", kind, n, l.released[kind])
		}
	}
	for kind, n := range l.released {
		if l.acquired[kind] == 0 {
			t.Errorf("%s: released %d times but never acquired", kind, n)
		}
	}
}

var errInjected = errors.New("injected failure")

// fakeIcons renders a fixed source image as every file's icon.
type fakeIcons struct {
	ledger
	unsupported bool
	src         *image.RGBA

	failDC, failLoad, failSurface, failDraw, failRead bool

	mu       sync.Mutex
	next     uintptr
	surfaces map[Surface]*image.RGBA
}

func newFakeIcons(src *image.RGBA) *fakeIcons {
	return &fakeIcons{ledger: newLedger(), src: src, surfaces: map[Surface]*image.RGBA{}}
}

func (f *fakeIcons) id() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next
}

func (f *fakeIcons) Supported() bool { return !f.unsupported }

func (f *fakeIcons) CreateDC() (DC, error) {
	if f.failDC {
		return 0, errInjected
	}
	f.acquire("dc")
	return DC(f.id()), nil
}

func (f *fakeIcons) DeleteDC(DC) { f.release("dc") }

func (f *fakeIcons) LoadIcon(path string) (IconHandle, error) {
	if f.failLoad {
		return 0, errInjected
	}
	f.acquire("icon")
	return IconHandle(f.id()), nil
}

func (f *fakeIcons) DestroyIcon(IconHandle) { f.release("icon") }

func (f *fakeIcons) CreateSurface(dc DC, size int) (Surface, error) {
	if f.failSurface {
		return 0, errInjected
	}
	f.acquire("surface")
	s := Surface(f.id())
	f.mu.Lock()
	f.surfaces[s] = image.NewRGBA(image.Rect(0, 0, size, size))
	f.mu.Unlock()
	return s, nil
}

func (f *fakeIcons) DeleteSurface(s Surface) {
	f.mu.Lock()
	delete(f.surfaces, s)
	f.mu.Unlock()
	f.release("surface")
}

func (f *fakeIcons) DrawIcon(dc DC, s Surface, icon IconHandle, size int) error {
	if f.failDraw {
		return errInjected
	}
	f.mu.Lock()
	dst := f.surfaces[s]
	f.mu.Unlock()
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), f.src, f.src.Bounds(), draw.Src, nil)
	return nil
}

func (f *fakeIcons) ReadPixels(dc DC, s Surface, size int) ([]byte, error) {
	if f.failRead {
		return nil, errInjected
	}
	f.mu.Lock()
	img := f.surfaces[s]
	f.mu.Unlock()
	out := make([]byte, len(img.Pix))
	for i := 0; i < len(img.Pix); i += 4 {
		out[i+0] = img.Pix[i+2]
		out[i+1] = img.Pix[i+1]
		out[i+2] = img.Pix[i+0]
		out[i+3] = img.Pix[i+3]
	}
	return out, nil
}

// query is one scripted call of the drag loop.
type query struct {
	escape bool
	keys   KeyState
}

// fakeDrags simulates the shell namespace and a drag loop driven by script.
type fakeDrags struct {
	ledger
	unsupported bool
	failInit    bool
	failParse   map[string]bool
	failData    bool
	failLoop    bool
	script      []query
	effect      DropEffect

	next     ShellID
	names    map[ShellID]string
	folder   ShellID
	children []ShellID
	allowed  DropEffect
	queries  int
	feedback []Feedback
}

func newFakeDrags(script ...query) *fakeDrags {
	return &fakeDrags{
		ledger:    newLedger(),
		failParse: map[string]bool{},
		script:    script,
		effect:    EffectCopy,
		names:     map[ShellID]string{},
	}
}

const childBit ShellID = 1 << 20

func (f *fakeDrags) Supported() bool { return !f.unsupported }

func (f *fakeDrags) InitOLE() error {
	if f.failInit {
		return errInjected
	}
	f.acquire("ole")
	return nil
}

func (f *fakeDrags) UninitOLE() { f.release("ole") }

func (f *fakeDrags) ParseName(path string) (ShellID, error) {
	if f.failParse[path] {
		return 0, errInjected
	}
	f.acquire("id")
	f.next++
	f.names[f.next] = path
	return f.next, nil
}

func (f *fakeDrags) FreeID(ShellID) { f.release("id") }

func (f *fakeDrags) LastID(id ShellID) ShellID { return id | childBit }

func (f *fakeDrags) CreateDataObject(folder ShellID, children []ShellID) (DataObject, error) {
	if f.failData {
		return 0, errInjected
	}
	f.acquire("data object")
	f.folder = folder
	f.children = append([]ShellID(nil), children...)
	return DataObject(99), nil
}

func (f *fakeDrags) ReleaseDataObject(DataObject) { f.release("data object") }

func (f *fakeDrags) DoDragDrop(obj DataObject, src DropSource, allowed DropEffect) (DragState, DropEffect, error) {
	f.allowed = allowed
	if f.failLoop {
		return Cancelled, EffectNone, errInjected
	}
	for _, q := range f.script {
		f.queries++
		state := src.QueryContinueDrag(q.escape, q.keys)
		f.feedback = append(f.feedback, src.GiveFeedback(allowed))
		switch state {
		case Dropped:
			return Dropped, f.effect, nil
		case Cancelled:
			return Cancelled, EffectNone, nil
		}
	}
	return Cancelled, EffectNone, errors.New("drag script exhausted")
}
