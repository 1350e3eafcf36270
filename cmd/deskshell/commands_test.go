package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/store"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestRunUsage(t *testing.T) {
	withHome(t)

	if err := run(nil, nil, io.Discard); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if err := run([]string{"frobnicate"}, nil, io.Discard); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected unknown command, got %v", err)
	}
	if err := run([]string{"icon"}, nil, io.Discard); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected icon usage, got %v", err)
	}
	if err := run([]string{"drag"}, nil, io.Discard); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected drag usage, got %v", err)
	}
	if err := run([]string{"box", filepath.Join(t.TempDir(), "missing")}, nil, io.Discard); err == nil {
		t.Error("expected error for a missing box folder")
	}
}

func TestRunConfig(t *testing.T) {
	home := withHome(t)

	var out bytes.Buffer
	if err := run([]string{"--debug=NONE", "config", "path"}, nil, &out); err != nil {
		t.Fatalf("config path: %v", err)
	}
	want := filepath.Join(home, ".config", "deskshell", "config.json")
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("expected %s, got %q", want, out.String())
	}

	// Load already wrote the defaults, so generate backs them up
	out.Reset()
	if err := run([]string{"config", "generate"}, nil, &out); err != nil {
		t.Fatalf("config generate: %v", err)
	}
	if !strings.Contains(out.String(), "Backed up") {
		t.Errorf("expected a backup, got %q", out.String())
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("config not written: %v", err)
	}

	if err := run([]string{"config", "nope"}, nil, io.Discard); err == nil {
		t.Error("expected error for unknown config command")
	}
}

func TestRunServe(t *testing.T) {
	withHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"friends":[]}`)
	}))
	defer srv.Close()

	in := strings.NewReader(strings.Join([]string{
		`{"id":1,"cmd":"get_user_friends","args":{"idCard":"42","token":"t"}}`,
		`{"id":2,"cmd":"greet","args":{}}`,
	}, "\n"))
	var out bytes.Buffer
	if err := run([]string{"serve", "--api", srv.URL}, in, &out); err != nil {
		t.Fatalf("serve: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, `{"id":1,"result":"{\"friends\":[]}"}`) {
		t.Errorf("missing route response in %q", got)
	}
	if !strings.Contains(got, `"id":2,"error":"unknown command: greet"`) {
		t.Errorf("missing unknown command error in %q", got)
	}
}

func TestDebugNotice(t *testing.T) {
	if got := debugNotice(""); got != "" {
		t.Errorf("no flag should stay quiet, got %q", got)
	}
	got := debugNotice("ALL")
	if debug.Enabled && got != "" {
		t.Errorf("debug build should stay quiet, got %q", got)
	}
	if !debug.Enabled && !strings.Contains(got, "-tags debug") {
		t.Errorf("release build should name the build tag, got %q", got)
	}
}

func TestRunBoxListAndForget(t *testing.T) {
	withHome(t)

	var out bytes.Buffer
	if err := run([]string{"box", "--list"}, nil, &out); err != nil {
		t.Fatalf("box --list: %v", err)
	}
	if !strings.Contains(out.String(), "No boxes yet") {
		t.Errorf("expected empty list, got %q", out.String())
	}

	dir := t.TempDir()
	if _, err := storeRequest(store.Request{Op: store.AddBox, Path: dir}); err != nil {
		t.Fatalf("add box: %v", err)
	}

	out.Reset()
	if err := run([]string{"box", "-l"}, nil, &out); err != nil {
		t.Fatalf("box -l: %v", err)
	}
	if !strings.Contains(out.String(), dir) || !strings.Contains(out.String(), filepath.Base(dir)) {
		t.Errorf("expected %s listed, got %q", dir, out.String())
	}

	out.Reset()
	if err := run([]string{"box", "--forget", dir}, nil, &out); err != nil {
		t.Fatalf("box --forget: %v", err)
	}
	if !strings.Contains(out.String(), "Forgot "+dir) {
		t.Errorf("unexpected output %q", out.String())
	}

	resp, err := storeRequest(store.Request{Op: store.FetchBoxes})
	if err != nil || len(resp.Boxes) != 0 {
		t.Errorf("expected no boxes left, got %+v, %v", resp.Boxes, err)
	}
	if err := run([]string{"box", "--forget", dir}, nil, io.Discard); err == nil {
		t.Error("expected error forgetting an unknown box")
	}
}
