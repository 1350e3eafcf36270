//go:build !windows

package shell

import (
	"context"
	"errors"
	"testing"
)

func TestNativeBackendsUnsupported(t *testing.T) {
	th := newTestThread(t)

	r := NewIconResolver(th, NativeIconBackend())
	if _, err := r.ResolveIcon(context.Background(), "/etc/hosts", nil); !errors.Is(err, ErrPlatformUnsupported) {
		t.Errorf("ResolveIcon: expected ErrPlatformUnsupported, got %v", err)
	}

	c := NewDragController(th, NativeDragBackend())
	if err := c.StartDrag(context.Background(), []string{"/etc/hosts"}); !errors.Is(err, ErrPlatformUnsupported) {
		t.Errorf("StartDrag: expected ErrPlatformUnsupported, got %v", err)
	}
}
