package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func expectNotify(t *testing.T, bw *BoxWatcher, want string) {
	t.Helper()
	select {
	case got := <-bw.Notify():
		if got != want {
			t.Errorf("expected notification for %s, got %s", want, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no notification for %s", want)
	}
}

func expectQuiet(t *testing.T, bw *BoxWatcher, d time.Duration) {
	t.Helper()
	select {
	case got := <-bw.Notify():
		t.Errorf("unexpected notification for %s", got)
	case <-time.After(d):
	}
}

func TestBoxWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	bw, err := NewBoxWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewBoxWatcher: %v", err)
	}
	defer bw.Close()

	if err := bw.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// A burst of changes yields a single notification
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "f"+string(rune('a'+i)))
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	expectNotify(t, bw, dir)
	expectQuiet(t, bw, 200*time.Millisecond)
}

func TestBoxWatcherSwitchesFolders(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	bw, err := NewBoxWatcher(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewBoxWatcher: %v", err)
	}
	defer bw.Close()

	if err := bw.Watch(first); err != nil {
		t.Fatal(err)
	}
	if err := bw.Watch(second); err != nil {
		t.Fatal(err)
	}
	if bw.Path() != second {
		t.Errorf("expected %s watched, got %s", second, bw.Path())
	}

	os.WriteFile(filepath.Join(first, "ignored"), []byte("x"), 0644)
	expectQuiet(t, bw, 200*time.Millisecond)

	os.WriteFile(filepath.Join(second, "seen"), []byte("x"), 0644)
	expectNotify(t, bw, second)
}

func TestBoxWatcherMissingFolder(t *testing.T) {
	bw, err := NewBoxWatcher(0)
	if err != nil {
		t.Fatalf("NewBoxWatcher: %v", err)
	}
	defer bw.Close()

	if err := bw.Watch(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("expected error watching a missing folder")
	}
	if bw.Path() != "" {
		t.Errorf("expected nothing watched, got %s", bw.Path())
	}
}
