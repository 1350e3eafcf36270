// Package bridge exposes the shell integration and the REST pass-through as
// named commands taking JSON arguments.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justyntemme/deskshell/internal/api"
	"github.com/justyntemme/deskshell/internal/debug"
)

var ErrUnknownCommand = errors.New("unknown command")

// IconService renders the system icon of a file as a data URI.
type IconService interface {
	ResolveIcon(ctx context.Context, path string, size *uint) (string, error)
}

// DragService runs a drag-and-drop session for files.
type DragService interface {
	StartDrag(ctx context.Context, paths []string) error
}

// RouteCaller forwards a command to the REST service.
type RouteCaller interface {
	Call(ctx context.Context, name string, args api.Args) (string, error)
}

// Command names and the names older frontends use for them.
const (
	CmdResolveIcon = "resolve_icon"
	CmdStartDrag   = "start_drag"
)

var aliases = map[string]string{
	"get_system_icon": CmdResolveIcon,
	"start_file_drag": CmdStartDrag,
}

type iconArgs struct {
	Path string `json:"path"`
	Size *uint  `json:"size"`
}

type dragArgs struct {
	Paths []string `json:"paths"`
}

// Dispatcher routes commands to their handlers. A nil service makes its
// commands unknown.
type Dispatcher struct {
	Icons IconService
	Drags DragService
	API   RouteCaller
}

// Invoke runs cmd with args. Results are JSON-encodable; StartDrag yields nil.
func (d *Dispatcher) Invoke(ctx context.Context, cmd string, args json.RawMessage) (any, error) {
	if canonical, ok := aliases[cmd]; ok {
		cmd = canonical
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	debug.Log(debug.BRIDGE, "invoke %s", cmd)

	switch {
	case cmd == CmdResolveIcon && d.Icons != nil:
		var a iconArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		if a.Path == "" {
			return nil, fmt.Errorf("%s: missing path", cmd)
		}
		return d.Icons.ResolveIcon(ctx, a.Path, a.Size)

	case cmd == CmdStartDrag && d.Drags != nil:
		var a dragArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		return nil, d.Drags.StartDrag(ctx, a.Paths)
	}

	if d.API != nil {
		if _, ok := api.Lookup(cmd); ok {
			var a api.Args
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("%s: %w", cmd, err)
			}
			return d.API.Call(ctx, cmd, a)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}
