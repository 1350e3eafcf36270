package platform

import (
	"reflect"
	"testing"
)

func resetDrop(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetDropHandler(nil)
		SetCurrentDropTarget("")
		dropMu.Lock()
		pendingDrop = nil
		dropMu.Unlock()
	})
}

func TestDeliverQueuesUntilHandler(t *testing.T) {
	resetDrop(t)
	SetCurrentDropTarget("/box")

	deliver([]string{"/a"})
	deliver([]string{"/b", "/c"})

	var got []string
	var gotTarget string
	SetDropHandler(func(paths []string, target string) {
		got = append(got, paths...)
		gotTarget = target
	})

	if want := []string{"/a", "/b", "/c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected pending %v, got %v", want, got)
	}
	if gotTarget != "/box" {
		t.Errorf("expected target /box, got %q", gotTarget)
	}

	got = nil
	deliver([]string{"/d"})
	if !reflect.DeepEqual(got, []string{"/d"}) {
		t.Errorf("expected direct delivery, got %v", got)
	}
}

func TestDeliverIgnoresEmpty(t *testing.T) {
	resetDrop(t)
	called := false
	SetDropHandler(func([]string, string) { called = true })
	deliver(nil)
	if called {
		t.Error("handler called for an empty drop")
	}
}

func TestCurrentDropTarget(t *testing.T) {
	resetDrop(t)
	SetCurrentDropTarget("/srv/box")
	if got := CurrentDropTarget(); got != "/srv/box" {
		t.Errorf("expected /srv/box, got %q", got)
	}
}
