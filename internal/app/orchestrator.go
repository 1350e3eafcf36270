// Package app runs the file box window: one folder listed with its system
// icons, dragged out through the shell and refilled by external drops.
package app

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"

	"github.com/justyntemme/deskshell/internal/config"
	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/fs"
	"github.com/justyntemme/deskshell/internal/platform"
	"github.com/justyntemme/deskshell/internal/shell"
	"github.com/justyntemme/deskshell/internal/sta"
	"github.com/justyntemme/deskshell/internal/store"
	"github.com/justyntemme/deskshell/internal/ui"
)

// Dragger runs a native drag session for files
type Dragger interface {
	Drag(ctx context.Context, paths []string) (shell.Outcome, error)
}

type Orchestrator struct {
	window     *app.Window
	invalidate func()
	cfg        config.Config
	cfgErr     error

	fs      *fs.System
	store   *store.DB
	watcher *BoxWatcher
	thread  *sta.Thread
	icons   *ui.IconLoader
	drags   Dragger
	ui      *ui.Renderer
	open    func(path string) error
	out     *outbox

	// mu guards state and the fields below; the event loop and the worker
	// responses both touch them
	mu           sync.Mutex
	state        ui.State
	showDotfiles bool
	gen          int64
	boxOpened    bool
	boxes        []store.Box
}

// NewOrchestrator builds the window and its workers from the loaded config.
// Shell services are attached in Run once the apartment thread is up.
func NewOrchestrator(cfg *config.Manager) *Orchestrator {
	c := cfg.Get()
	w := new(app.Window)
	o := &Orchestrator{
		window:       w,
		invalidate:   w.Invalidate,
		cfg:          c,
		cfgErr:       cfg.ParseError(),
		fs:           fs.NewSystem(),
		store:        store.NewDB(),
		open:         platformOpen,
		out:          newOutbox(),
		showDotfiles: c.Box.ShowDotfiles,
	}
	o.state.ShowDotfiles = o.showDotfiles
	if o.cfgErr != nil {
		o.state.Notice = "Config error: " + o.cfgErr.Error() + " (using defaults)"
	}
	return o
}

// startShell enters the apartment thread and wires the icon loader and drag
// controller to it. Without it the window still lists files with plain glyphs.
func (o *Orchestrator) startShell() {
	thread, err := sta.Start("shell", shell.InitApartment)
	if err != nil {
		log.Printf("Shell integration unavailable: %v", err)
		o.ui = ui.NewRenderer(config.NewHotkeyMatcher(o.cfg.Box.Hotkeys), nil, o.cfg.Box.IconSize)
		return
	}
	o.thread = thread

	resolver := shell.NewIconResolver(thread, shell.NativeIconBackend())
	o.icons = ui.NewIconLoader(resolver, o.cfg.Shell.DefaultIconSize, o.invalidate)

	drags := shell.NewDragController(thread, shell.NativeDragBackend())
	if effects, err := shell.ParseDropEffects(o.cfg.Shell.AllowedEffects); err != nil {
		log.Printf("Config: %v, offering copy and move", err)
	} else {
		drags.SetAllowedEffects(effects)
	}
	o.drags = drags

	o.ui = ui.NewRenderer(config.NewHotkeyMatcher(o.cfg.Box.Hotkeys), o.icons, o.cfg.Box.IconSize)
}

func (o *Orchestrator) Run(startPath string) error {
	debug.Log(debug.APP, "Starting deskshell box (debug categories: %v)", debug.ListEnabled())

	o.startShell()
	defer func() {
		if o.icons != nil {
			o.icons.Stop()
		}
		if o.thread != nil {
			o.thread.Close()
		}
	}()

	if err := o.store.Open(store.DefaultPath()); err != nil {
		log.Printf("Failed to open DB: %v", err)
	}
	defer o.store.Close()

	watcher, err := NewBoxWatcher(o.cfg.Box.WatchDebounce())
	if err != nil {
		log.Printf("Directory watching unavailable: %v", err)
	} else {
		o.watcher = watcher
		defer watcher.Close()
	}

	stop := make(chan struct{})
	defer close(stop)
	go o.out.run(stop)
	go o.fs.Start()
	go o.store.Start()
	go o.processEvents()

	platform.SetDropHandler(o.handleExternalDrop)
	defer platform.SetDropHandler(nil)

	// The last box comes from the settings response unless one was given
	o.sendStore(store.Request{Op: store.FetchBoxes})
	o.sendStore(store.Request{Op: store.FetchSettings})
	if startPath != "" {
		o.mu.Lock()
		o.openBox(startPath)
		o.mu.Unlock()
	}

	o.window.Option(app.Title("deskshell"), app.Size(unit.Dp(420), unit.Dp(560)))

	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			o.mu.Lock()
			evt := o.ui.Layout(gtx, &o.state)
			o.handleUIEvent(evt)
			o.mu.Unlock()
			e.Frame(gtx.Ops)
		default:
			o.handlePlatformEvent(e)
		}
	}
}

// handleUIEvent applies a user action. Called with mu held.
func (o *Orchestrator) handleUIEvent(evt ui.UIEvent) {
	switch evt.Action {
	case ui.ActionSelect:
		o.state.Selection.Click(evt.Index, evt.Toggle, evt.Extend)
		o.invalidate()
	case ui.ActionSelectAll:
		o.state.Selection.SelectAll(len(o.state.Entries))
		o.invalidate()
	case ui.ActionClearSelection:
		o.state.Selection.Clear()
		o.invalidate()
	case ui.ActionOpen:
		o.openEntry(evt.Index, evt.Path)
	case ui.ActionDragOut:
		paths := o.state.Selection.ForDrag(evt.Index, o.state.Entries)
		o.startDrag(paths)
		o.invalidate()
	case ui.ActionRefresh:
		o.requestDir()
	case ui.ActionToggleDotfiles:
		o.showDotfiles = !o.showDotfiles
		o.state.ShowDotfiles = o.showDotfiles
		val := "false"
		if o.showDotfiles {
			val = "true"
		}
		o.sendStore(store.Request{Op: store.SaveSetting, Key: store.KeyShowDotfiles, Value: val})
		o.requestDir()
	case ui.ActionNextBox:
		if next := nextBox(o.boxes, o.state.BoxPath); next != "" {
			o.openBox(next)
		}
	}
}

// openEntry opens folders as the box and everything else with the system
// handler.
func (o *Orchestrator) openEntry(index int, path string) {
	if index >= 0 && index < len(o.state.Entries) && o.state.Entries[index].Path == path && o.state.Entries[index].IsDir {
		o.openBox(path)
		return
	}
	if err := o.open(path); err != nil {
		log.Printf("Error opening file: %v", err)
		o.state.Err = "Could not open " + filepath.Base(path) + ": " + err.Error()
		o.invalidate()
	}
}

// startDrag hands paths to the shell drag loop off the UI goroutine. The
// listing refreshes through the watcher when the target moves files out.
func (o *Orchestrator) startDrag(paths []string) {
	if o.drags == nil || len(paths) == 0 {
		return
	}
	go func() {
		out, err := o.drags.Drag(context.Background(), paths)
		if err != nil {
			log.Printf("Drag failed: %v", err)
			o.mu.Lock()
			o.state.Err = "Drag failed: " + err.Error()
			o.mu.Unlock()
			o.invalidate()
			return
		}
		debug.Log(debug.APP, "drag of %d item(s) %s (%s)", len(paths), out.State, out.Effect)
	}()
}

// openBox makes path the box. Called with mu held.
func (o *Orchestrator) openBox(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	o.boxOpened = true
	o.state.BoxPath = path
	o.state.BoxName = filepath.Base(path)
	o.state.Entries = nil
	o.state.TotalSize = 0
	o.state.Selection.Clear()
	o.state.Err = ""
	if o.icons != nil {
		o.icons.Reset()
	}

	if o.watcher != nil {
		if err := o.watcher.Watch(path); err != nil {
			log.Printf("Cannot watch %s: %v", path, err)
		}
	}
	platform.SetCurrentDropTarget(path)

	o.sendStore(store.Request{Op: store.AddBox, Name: o.state.BoxName, Path: path})
	o.sendStore(store.Request{Op: store.SaveSetting, Key: store.KeyLastBox, Value: path})
	o.requestDir()
}

// requestDir asks for a fresh listing of the box. Called with mu held.
func (o *Orchestrator) requestDir() {
	if o.state.BoxPath == "" {
		return
	}
	o.gen++
	o.state.Loading = true
	o.sendFS(fs.Request{Op: fs.FetchDir, Path: o.state.BoxPath, ShowDotfiles: o.showDotfiles, Gen: o.gen})
	o.invalidate()
}

// sendFS and sendStore queue a worker request; safe to call with mu held.
func (o *Orchestrator) sendFS(req fs.Request) {
	o.out.post(func() { o.fs.RequestChan <- req })
}

func (o *Orchestrator) sendStore(req store.Request) {
	o.out.post(func() { o.store.RequestChan <- req })
}

// nextBox returns the stored box after current that still exists, wrapping
// around, or "" when there is none.
func nextBox(boxes []store.Box, current string) string {
	start := 0
	for i, b := range boxes {
		if b.Path == current {
			start = i + 1
			break
		}
	}
	for n := 0; n < len(boxes); n++ {
		b := boxes[(start+n)%len(boxes)]
		if b.Path == current {
			continue
		}
		if info, err := os.Stat(b.Path); err == nil && info.IsDir() {
			return b.Path
		}
	}
	return ""
}

// handleExternalDrop moves files dropped from other applications into the
// box. It runs on the window thread.
func (o *Orchestrator) handleExternalDrop(paths []string, targetDir string) {
	if targetDir == "" {
		debug.Log(debug.APP, "[DnD] drop of %d file(s) with no box open", len(paths))
		return
	}
	debug.Log(debug.APP, "[DnD] moving %d file(s) into %s", len(paths), targetDir)
	o.sendFS(fs.Request{Op: fs.MoveInto, Path: targetDir, Paths: paths})
}

func (o *Orchestrator) processEvents() {
	var notify <-chan string
	if o.watcher != nil {
		notify = o.watcher.Notify()
	}
	for {
		select {
		case resp := <-o.fs.ResponseChan:
			o.handleFSResponse(resp)
		case resp := <-o.store.ResponseChan:
			o.handleStoreResponse(resp)
		case dir := <-notify:
			o.mu.Lock()
			if dir == o.state.BoxPath {
				o.requestDir()
			}
			o.mu.Unlock()
		}
	}
}

func (o *Orchestrator) handleFSResponse(resp fs.Response) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch resp.Op {
	case fs.FetchDir:
		if resp.Gen != o.gen || resp.Path != o.state.BoxPath {
			debug.Log(debug.APP, "dropping stale listing gen=%d (current %d)", resp.Gen, o.gen)
			return
		}
		o.state.Loading = false
		if resp.Err != nil {
			log.Printf("FS Error: %v", resp.Err)
			o.state.Err = resp.Err.Error()
			o.state.SetEntries(nil)
			break
		}
		o.state.Err = ""
		o.state.SetEntries(resp.Entries)

	case fs.MoveInto:
		if resp.Err != nil {
			log.Printf("Move Error: %v", resp.Err)
			o.state.Err = "Move failed: " + resp.Err.Error()
		}
		debug.Log(debug.APP, "moved %d item(s) into %s", len(resp.Moved), resp.Path)
		if resp.Path == o.state.BoxPath {
			o.requestDir()
		}
	}
	o.invalidate()
}

func (o *Orchestrator) handleStoreResponse(resp store.Response) {
	if resp.Err != nil {
		log.Printf("Store Error: %v", resp.Err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch resp.Op {
	case store.FetchSettings:
		if val, ok := resp.Settings[store.KeyShowDotfiles]; ok {
			show := val == "true"
			if show != o.showDotfiles {
				o.showDotfiles = show
				o.state.ShowDotfiles = show
				o.requestDir()
			}
		}
		if !o.boxOpened {
			o.openBox(o.initialBox(resp.Settings[store.KeyLastBox]))
		}
	case store.AddBox:
		if resp.Added != nil {
			debug.Log(debug.APP, "box %s is %s", resp.Added.ID, resp.Added.Path)
		}
		o.boxes = resp.Boxes
	case store.FetchBoxes:
		o.boxes = resp.Boxes
	}
	o.invalidate()
}

// initialBox picks the folder to show when none was given: the last box if
// it still exists, then the configured default, then the home directory.
func (o *Orchestrator) initialBox(last string) string {
	for _, candidate := range []string{last, o.cfg.Box.DefaultFolder} {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	wd, _ := os.Getwd()
	return wd
}

// Main runs the box window on startPath, or the last box when empty, and
// never returns.
func Main(cfg *config.Manager, startPath string) {
	go func() {
		o := NewOrchestrator(cfg)
		if err := o.Run(startPath); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
