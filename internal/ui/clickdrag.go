package ui

import (
	"image"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
)

// ClickAndDraggable handles both click and drag gestures on the same area.
// gesture.Drag only activates after a small movement threshold, so clicks are
// processed first and a drag is reported once the pointer has moved while
// pressed. The drag itself is then handed to the system drag loop, which owns
// the pointer until the drop.
type ClickAndDraggable struct {
	click gesture.Click
	drag  gesture.Drag

	clickPos f32.Point
	dragPos  f32.Point

	// pid tracks the pointer ID for coordinating click vs drag
	pid pointer.ID
	// dragStarted indicates the drag threshold was exceeded
	dragStarted bool
	// reported is set once the current drag has been returned from Layout
	reported bool
}

// Dragging reports whether a drag is in progress.
func (c *ClickAndDraggable) Dragging() bool {
	return c.drag.Dragging()
}

// Hovered reports whether a pointer is inside the area.
func (c *ClickAndDraggable) Hovered() bool {
	return c.click.Hovered()
}

// ClickEvent represents a click event with position and modifier information
type ClickEvent struct {
	Position  image.Point
	Modifiers key.Modifiers
	NumClicks int
}

// Layout renders w and handles click and drag interactions. It returns any
// click that occurred and whether a drag started this frame. A drag start is
// reported once per press.
func (c *ClickAndDraggable) Layout(gtx layout.Context, w layout.Widget) (layout.Dimensions, *ClickEvent, bool) {
	if !gtx.Enabled() {
		return w(gtx), nil, false
	}

	var clickEvent *ClickEvent
	dragStart := false

	// Events are delivered based on the previous frame's hit area
	for {
		e, ok := c.click.Update(gtx.Source)
		if !ok {
			break
		}
		switch e.Kind {
		case gesture.KindClick:
			if !c.dragStarted {
				clickEvent = &ClickEvent{
					Position:  e.Position,
					Modifiers: e.Modifiers,
					NumClicks: e.NumClicks,
				}
			}
		case gesture.KindCancel:
			c.dragStarted = false
		}
	}

	for {
		e, ok := c.drag.Update(gtx.Metric, gtx.Source, gesture.Both)
		if !ok {
			break
		}
		switch e.Kind {
		case pointer.Press:
			c.clickPos = e.Position
			c.dragPos = f32.Point{}
			c.pid = e.PointerID
			c.dragStarted = false
			c.reported = false
		case pointer.Drag:
			if e.PointerID == c.pid {
				c.dragStarted = true
				c.dragPos = e.Position.Sub(c.clickPos)
				if !c.reported {
					c.reported = true
					dragStart = true
				}
			}
		case pointer.Release, pointer.Cancel:
			c.dragStarted = false
		}
	}

	dims := w(gtx)

	// Hit area for next frame's events
	defer clip.Rect{Max: dims.Size}.Push(gtx.Ops).Pop()
	pointer.CursorPointer.Add(gtx.Ops)
	c.click.Add(gtx.Ops)
	c.drag.Add(gtx.Ops)
	event.Op(gtx.Ops, c)

	return dims, clickEvent, dragStart
}
