package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/justyntemme/deskshell/internal/api"
	"github.com/justyntemme/deskshell/internal/app"
	"github.com/justyntemme/deskshell/internal/bridge"
	"github.com/justyntemme/deskshell/internal/config"
	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/shell"
	"github.com/justyntemme/deskshell/internal/sta"
	"github.com/justyntemme/deskshell/internal/store"
)

var errUsage = errors.New("usage: deskshell [--debug[=CATEGORIES]] <icon|drag|serve|box|config> [args]")

// run parses the global flags, loads the config and dispatches to the
// subcommand.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	global := pflag.NewFlagSet("deskshell", pflag.ContinueOnError)
	global.SetInterspersed(false)
	debugCats := global.String("debug", "", "debug log categories (ALL, NONE or ICON,DRAG,...); needs a -tags debug build")
	global.Lookup("debug").NoOptDefVal = "ALL"
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	cfgMgr := config.NewManager()
	if err := cfgMgr.Load(); err != nil {
		// Load keeps the defaults; the window shows the parse error
		debug.Log(debug.APP, "config load: %v", err)
	}
	cfg := cfgMgr.Get()
	debug.ParseCategories(cfg.Debug.Categories)
	debug.ParseCategories(*debugCats)
	if msg := debugNotice(*debugCats); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "icon":
		return runIcon(cfg, cmdArgs, stdout)
	case "drag":
		return runDrag(cfg, cmdArgs, stdout)
	case "serve":
		return runServe(cfg, cmdArgs, stdin, stdout)
	case "box":
		return runBox(cfgMgr, cmdArgs, stdout, *debugCats != "")
	case "config":
		return runConfig(cfgMgr, cmdArgs, stdout)
	}
	return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
}

// debugNotice explains why --debug prints nothing in a release build.
func debugNotice(cats string) string {
	if debug.Enabled || cats == "" {
		return ""
	}
	return "deskshell: debug logging is compiled out; rebuild with -tags debug"
}

// shellServices enters the apartment thread used by every native call
type shellServices struct {
	thread *sta.Thread
	icons  *shell.IconResolver
	drags  *shell.DragController
}

func startShell(cfg config.Config) (*shellServices, error) {
	thread, err := sta.Start("shell", shell.InitApartment)
	if err != nil {
		return nil, err
	}
	s := &shellServices{
		thread: thread,
		icons:  shell.NewIconResolver(thread, shell.NativeIconBackend()),
		drags:  shell.NewDragController(thread, shell.NativeDragBackend()),
	}
	effects, err := shell.ParseDropEffects(cfg.Shell.AllowedEffects)
	if err != nil {
		thread.Close()
		return nil, fmt.Errorf("config shell.allowedEffects: %w", err)
	}
	s.drags.SetAllowedEffects(effects)
	return s, nil
}

func (s *shellServices) Close() {
	s.thread.Close()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runIcon(cfg config.Config, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("icon", pflag.ContinueOnError)
	size := flags.UintP("size", "s", cfg.Shell.DefaultIconSize, "icon edge in pixels (16-256)")
	out := flags.StringP("out", "o", "", "write a PNG file instead of printing a data URI")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: deskshell icon PATH [--size N] [--out FILE]")
	}
	path := flags.Arg(0)

	svc, err := startShell(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if *out == "" {
		uri, err := svc.icons.ResolveIcon(ctx, path, size)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, uri)
		return err
	}

	img, err := svc.icons.ResolveImage(ctx, path, size)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runDrag(cfg config.Config, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("drag", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("usage: deskshell drag PATH...")
	}

	svc, err := startShell(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signalContext()
	defer cancel()

	out, err := svc.drags.Drag(ctx, flags.Args())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s (%s)\n", out.State, out.Effect)
	return err
}

func runServe(cfg config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	baseURL := flags.String("api", cfg.API.BaseURL, "base URL of the REST service")
	if err := flags.Parse(args); err != nil {
		return err
	}

	svc, err := startShell(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signalContext()
	defer cancel()

	srv := &bridge.Server{Dispatcher: &bridge.Dispatcher{
		Icons: svc.icons,
		Drags: svc.drags,
		API:   api.New(api.Config{BaseURL: *baseURL, Timeout: cfg.API.Timeout()}),
	}}
	debug.Log(debug.BRIDGE, "serving on stdin/stdout, api %s", *baseURL)
	err = srv.Serve(ctx, stdin, stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runBox(cfgMgr *config.Manager, args []string, stdout io.Writer, debugging bool) error {
	flags := pflag.NewFlagSet("box", pflag.ContinueOnError)
	remember := flags.Bool("remember", false, "make DIR the default folder")
	list := flags.BoolP("list", "l", false, "list the stored boxes and exit")
	forget := flags.String("forget", "", "remove the stored box for this folder and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 1 {
		return errors.New("usage: deskshell box [DIR] [--remember] | --list | --forget DIR")
	}
	switch {
	case *list:
		return listBoxes(stdout)
	case *forget != "":
		return forgetBox(*forget, stdout)
	}
	dir := flags.Arg(0)
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a folder", dir)
		}
		if *remember {
			cfgMgr.SetDefaultFolder(dir)
		}
	}

	manageConsole(debugging)
	app.Main(cfgMgr, dir)
	return nil
}

// storeRequest runs one request against the box database and returns the
// worker's reply.
func storeRequest(req store.Request) (store.Response, error) {
	db := store.NewDB()
	if err := db.Open(store.DefaultPath()); err != nil {
		return store.Response{}, err
	}
	defer db.Close()
	go db.Start()
	defer close(db.RequestChan)

	db.RequestChan <- req
	resp := <-db.ResponseChan
	return resp, resp.Err
}

func listBoxes(stdout io.Writer) error {
	resp, err := storeRequest(store.Request{Op: store.FetchBoxes})
	if err != nil {
		return err
	}
	if len(resp.Boxes) == 0 {
		_, err := fmt.Fprintln(stdout, "No boxes yet")
		return err
	}
	for _, b := range resp.Boxes {
		if _, err := fmt.Fprintf(stdout, "%s\t%s\t(added %s)\n", b.Name, b.Path, humanize.Time(b.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

func forgetBox(dir string, stdout io.Writer) error {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	resp, err := storeRequest(store.Request{Op: store.FetchBoxes})
	if err != nil {
		return err
	}
	for _, b := range resp.Boxes {
		if b.Path != dir {
			continue
		}
		if _, err := storeRequest(store.Request{Op: store.RemoveBox, ID: b.ID}); err != nil {
			return err
		}
		_, err := fmt.Fprintf(stdout, "Forgot %s\n", b.Path)
		return err
	}
	return fmt.Errorf("no stored box for %s", dir)
}

func runConfig(cfgMgr *config.Manager, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: deskshell config <generate|path>")
	}
	switch args[0] {
	case "generate":
		backup, err := config.GenerateConfig()
		if err != nil {
			return err
		}
		if backup != "" {
			fmt.Fprintf(stdout, "Backed up previous config to %s\n", backup)
		}
		_, err = fmt.Fprintf(stdout, "Wrote default config to %s\n", config.ConfigPath())
		return err
	case "path":
		_, err := fmt.Fprintln(stdout, cfgMgr.Path())
		return err
	}
	return fmt.Errorf("unknown config command %q", args[0])
}
