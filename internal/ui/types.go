package ui

import (
	"time"

	"github.com/justyntemme/deskshell/internal/fs"
)

type UIAction int

const (
	ActionNone UIAction = iota
	ActionSelect
	ActionSelectAll
	ActionClearSelection
	ActionOpen    // Path
	ActionDragOut // Index of the row the drag started on
	ActionRefresh
	ActionToggleDotfiles
	ActionNextBox
)

func (a UIAction) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionSelectAll:
		return "select-all"
	case ActionClearSelection:
		return "clear-selection"
	case ActionOpen:
		return "open"
	case ActionDragOut:
		return "drag-out"
	case ActionRefresh:
		return "refresh"
	case ActionToggleDotfiles:
		return "toggle-dotfiles"
	case ActionNextBox:
		return "next-box"
	}
	return "none"
}

type UIEvent struct {
	Action UIAction
	Path   string
	Index  int
	Toggle bool // ctrl/cmd held on click
	Extend bool // shift held on click
}

// UIEntry is one row of the box listing
type UIEntry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time

	Touch ClickAndDraggable
}

// State is everything the renderer draws for one frame
type State struct {
	BoxName      string
	BoxPath      string
	Entries      []UIEntry
	Selection    Selection
	TotalSize    int64
	ShowDotfiles bool
	Loading      bool
	Err          string // Listing or move failure, shown above the list
	Notice       string // Config parse error, shown as a banner
}

// SetEntries replaces the listing, keeping the selection of paths that are
// still present.
func (s *State) SetEntries(entries []fs.Entry) {
	selected := s.Selection.Paths(s.Entries)

	s.Entries = make([]UIEntry, len(entries))
	for i, e := range entries {
		s.Entries[i] = UIEntry{
			Name:    e.Name,
			Path:    e.Path,
			IsDir:   e.IsDir,
			Size:    e.Size,
			ModTime: e.ModTime,
		}
	}
	s.TotalSize = fs.TotalSize(entries)
	s.Selection.Reselect(s.Entries, selected)
}
