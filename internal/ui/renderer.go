package ui

import (
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/justyntemme/deskshell/internal/config"
	"github.com/justyntemme/deskshell/internal/debug"
)

type Renderer struct {
	Theme    *material.Theme
	IconSize unit.Dp

	hotkeys   *config.HotkeyMatcher
	icons     *IconLoader
	listState layout.List
	bgClick   widget.Clickable
	focused   bool

	refreshBtn widget.Clickable
	dotfileBtn widget.Clickable
}

// NewRenderer creates a renderer drawing icons from icons at iconSize dp.
// icons may be nil, in which case every entry gets the fallback glyph.
func NewRenderer(hotkeys *config.HotkeyMatcher, icons *IconLoader, iconSize int) *Renderer {
	r := &Renderer{
		Theme:    material.NewTheme(),
		IconSize: unit.Dp(iconSize),
		hotkeys:  hotkeys,
		icons:    icons,
	}
	r.listState.Axis = layout.Vertical
	return r
}

// Layout draws the box and returns the user action of this frame, if any.
func (r *Renderer) Layout(gtx layout.Context, state *State) UIEvent {
	defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, colWhite)

	keyTag := &r.listState
	event.Op(gtx.Ops, keyTag)
	if !r.focused {
		gtx.Execute(key.FocusCmd{Tag: keyTag})
		r.focused = true
	}

	eventOut := r.processGlobalInput(gtx, state, keyTag)

	layout.Stack{}.Layout(gtx,
		// Clicking empty space clears the selection
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			if r.bgClick.Clicked(gtx) {
				eventOut = UIEvent{Action: ActionClearSelection}
				gtx.Execute(key.FocusCmd{Tag: keyTag})
			}
			return r.bgClick.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Dimensions{Size: gtx.Constraints.Min}
			})
		}),

		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min = gtx.Constraints.Max
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutHeader(gtx, state, &eventOut)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutBanner(gtx, state.Notice, colErrorBannerBg, colErrorBannerText)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutBanner(gtx, state.Err, colWhite, colDanger)
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return r.layoutEntries(gtx, state, keyTag, &eventOut)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return r.layoutStatus(gtx, state)
				}),
			)
		}),
	)

	if eventOut.Action != ActionNone {
		debug.Log(debug.UI_EVENT, "%s index=%d path=%q", eventOut.Action, eventOut.Index, eventOut.Path)
	}
	return eventOut
}

// processGlobalInput handles the configured hotkeys
func (r *Renderer) processGlobalInput(gtx layout.Context, state *State, keyTag event.Tag) UIEvent {
	if r.hotkeys == nil {
		return UIEvent{}
	}
	filters := r.hotkeys.Filters(keyTag)
	if len(filters) == 0 {
		return UIEvent{}
	}

	var eventOut UIEvent
	for {
		e, ok := gtx.Event(filters...)
		if !ok {
			break
		}
		k, ok := e.(key.Event)
		if !ok || k.State != key.Press {
			continue
		}
		debug.Log(debug.UI_EVENT, "Key pressed: name=%q mods=0x%x", k.Name, k.Modifiers)

		switch {
		case r.hotkeys.SelectAll.Matches(k):
			eventOut = UIEvent{Action: ActionSelectAll}
		case r.hotkeys.ClearSelection.Matches(k):
			eventOut = UIEvent{Action: ActionClearSelection}
		case r.hotkeys.Refresh.Matches(k):
			eventOut = UIEvent{Action: ActionRefresh}
		case r.hotkeys.ToggleHidden.Matches(k):
			eventOut = UIEvent{Action: ActionToggleDotfiles}
		case r.hotkeys.NextBox.Matches(k):
			eventOut = UIEvent{Action: ActionNextBox}
		case r.hotkeys.Open.Matches(k):
			// Open acts on the first selected entry
			if idx := state.Selection.Indices(); len(idx) > 0 && idx[0] < len(state.Entries) {
				eventOut = UIEvent{Action: ActionOpen, Index: idx[0], Path: state.Entries[idx[0]].Path}
			}
		}
	}
	return eventOut
}
