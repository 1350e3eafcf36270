package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/justyntemme/deskshell/internal/api"
	"github.com/justyntemme/deskshell/internal/shell"
)

type stubIcons struct {
	mu    sync.Mutex
	path  string
	size  *uint
	block chan struct{}
}

func (s *stubIcons) ResolveIcon(ctx context.Context, path string, size *uint) (string, error) {
	if s.block != nil && path == "slow" {
		<-s.block
	}
	s.mu.Lock()
	s.path, s.size = path, size
	s.mu.Unlock()
	if path == "/missing" {
		return "", shell.ErrShellQuery
	}
	return "data:image/png;base64,AAAA", nil
}

type stubDrags struct {
	paths []string
}

func (s *stubDrags) StartDrag(ctx context.Context, paths []string) error {
	s.paths = paths
	if len(paths) == 0 {
		return shell.ErrEmptySelection
	}
	return nil
}

type stubAPI struct {
	name string
	args api.Args
}

func (s *stubAPI) Call(ctx context.Context, name string, args api.Args) (string, error) {
	s.name, s.args = name, args
	return `{"code":0}`, nil
}

func TestInvokeIcon(t *testing.T) {
	icons := &stubIcons{}
	d := &Dispatcher{Icons: icons}

	for _, cmd := range []string{"resolve_icon", "get_system_icon"} {
		got, err := d.Invoke(context.Background(), cmd, json.RawMessage(`{"path":"C:\\a.txt","size":32}`))
		if err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
		if got != "data:image/png;base64,AAAA" {
			t.Errorf("%s: unexpected result %v", cmd, got)
		}
		if icons.path != `C:\a.txt` || icons.size == nil || *icons.size != 32 {
			t.Errorf("%s: unexpected call %q %v", cmd, icons.path, icons.size)
		}
	}

	if _, err := d.Invoke(context.Background(), "resolve_icon", json.RawMessage(`{"path":"x"}`)); err != nil {
		t.Fatal(err)
	}
	if icons.size != nil {
		t.Error("absent size should reach the resolver as nil")
	}

	if _, err := d.Invoke(context.Background(), "resolve_icon", nil); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestInvokeDrag(t *testing.T) {
	drags := &stubDrags{}
	d := &Dispatcher{Drags: drags}

	got, err := d.Invoke(context.Background(), "start_file_drag", json.RawMessage(`{"paths":["/a/x","/a/y"]}`))
	if err != nil || got != nil {
		t.Fatalf("expected nil result, got %v, %v", got, err)
	}
	if len(drags.paths) != 2 {
		t.Errorf("expected 2 paths, got %v", drags.paths)
	}

	_, err = d.Invoke(context.Background(), "start_drag", json.RawMessage(`{"paths":[]}`))
	if !errors.Is(err, shell.ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestInvokeRoutes(t *testing.T) {
	caller := &stubAPI{}
	d := &Dispatcher{API: caller}

	got, err := d.Invoke(context.Background(), "get_user_friends", json.RawMessage(`{"idCard":"1","token":"t"}`))
	if err != nil || got != `{"code":0}` {
		t.Fatalf("unexpected %v, %v", got, err)
	}
	if caller.name != "get_user_friends" || string(caller.args["idCard"]) != `"1"` {
		t.Errorf("unexpected forward %s %v", caller.name, caller.args)
	}

	for _, cmd := range []string{"greet", "resolve_icon"} {
		if _, err := d.Invoke(context.Background(), cmd, nil); !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("%s: expected ErrUnknownCommand, got %v", cmd, err)
		}
	}
}

func readResponses(t *testing.T, r io.Reader, n int) map[string]map[string]json.RawMessage {
	t.Helper()
	out := map[string]map[string]json.RawMessage{}
	sc := bufio.NewScanner(r)
	for i := 0; i < n && sc.Scan(); i++ {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad response line %s: %v", sc.Text(), err)
		}
		out[string(m["id"])] = m
	}
	return out
}

func TestServe(t *testing.T) {
	srv := &Server{Dispatcher: &Dispatcher{Icons: &stubIcons{}, Drags: &stubDrags{}}}
	in := strings.Join([]string{
		`{"id":1,"cmd":"get_system_icon","args":{"path":"/a"}}`,
		`{"id":2,"cmd":"get_system_icon","args":{"path":"/missing"}}`,
		``,
		`{"id":"three","cmd":"start_file_drag","args":{"paths":["/a/b"]}}`,
		`not json`,
		`{"id":4,"cmd":"nope"}`,
	}, "\n")

	var out strings.Builder
	if err := srv.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resps := readResponses(t, strings.NewReader(out.String()), 5)
	if len(resps) != 5 {
		t.Fatalf("expected 5 responses, got %d:\n%s", len(resps), out.String())
	}
	if string(resps["1"]["result"]) != `"data:image/png;base64,AAAA"` {
		t.Errorf("id 1: %s", resps["1"]["result"])
	}
	if _, ok := resps["1"]["error"]; ok {
		t.Error("id 1: success must not carry an error")
	}
	if !strings.Contains(string(resps["2"]["error"]), "shell query") {
		t.Errorf("id 2: expected shell query error, got %s", resps["2"]["error"])
	}
	if _, ok := resps["2"]["result"]; ok {
		t.Error("id 2: failure must not carry a result")
	}
	if r, ok := resps[`"three"`]["result"]; !ok || string(r) != "null" {
		t.Errorf("id three: expected null result, got %s", r)
	}
	if !strings.Contains(string(resps["null"]["error"]), "malformed") {
		t.Errorf("expected malformed request error, got %s", resps["null"]["error"])
	}
	if !strings.Contains(string(resps["4"]["error"]), "unknown command") {
		t.Errorf("id 4: %s", resps["4"]["error"])
	}
}

func TestServeAnswersOutOfOrder(t *testing.T) {
	icons := &stubIcons{block: make(chan struct{})}
	srv := &Server{Dispatcher: &Dispatcher{Icons: icons}}

	pr, pw := io.Pipe()
	outR, outW := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(context.Background(), pr, outW)
		outW.Close()
	}()

	io.WriteString(pw, `{"id":1,"cmd":"resolve_icon","args":{"path":"slow"}}`+"\n")
	io.WriteString(pw, `{"id":2,"cmd":"resolve_icon","args":{"path":"fast"}}`+"\n")

	sc := bufio.NewScanner(outR)
	if !sc.Scan() || !strings.Contains(sc.Text(), `"id":2`) {
		t.Fatalf("expected the fast request first, got %q", sc.Text())
	}
	close(icons.block)
	if !sc.Scan() || !strings.Contains(sc.Text(), `"id":1`) {
		t.Fatalf("expected the slow request second, got %q", sc.Text())
	}
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after EOF")
	}
}
