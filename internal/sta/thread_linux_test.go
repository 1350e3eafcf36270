//go:build linux

package sta

import (
	"context"
	"testing"

	"golang.org/x/sys/unix"
)

func TestWorkRunsOnOneOSThread(t *testing.T) {
	var initTid int
	th, err := Start("test", func() (func(), error) {
		initTid = unix.Gettid()
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer th.Close()

	for i := 0; i < 10; i++ {
		tid, err := Call(context.Background(), th, func() (int, error) { return unix.Gettid(), nil })
		if err != nil {
			t.Fatalf("Call: %v", err)
		}
		if tid != initTid {
			t.Fatalf("job %d ran on thread %d, want %d", i, tid, initTid)
		}
	}
}
