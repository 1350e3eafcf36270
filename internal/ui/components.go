package ui

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/dustin/go-humanize"
)

// StatusText summarizes the listing: item count and total size, and the
// selection when there is one.
func StatusText(state *State) string {
	n := len(state.Entries)
	noun := "items"
	if n == 1 {
		noun = "item"
	}
	s := fmt.Sprintf("%s %s, %s", humanize.Comma(int64(n)), noun, humanize.Bytes(uint64(state.TotalSize)))

	if sel := state.Selection.Len(); sel > 0 {
		var size int64
		for _, i := range state.Selection.Indices() {
			if i < n && !state.Entries[i].IsDir {
				size += state.Entries[i].Size
			}
		}
		s += fmt.Sprintf(" (%s selected, %s)", humanize.Comma(int64(sel)), humanize.Bytes(uint64(size)))
	}
	return s
}

// flatButton is a borderless text button used in the header
func (r *Renderer) flatButton(gtx layout.Context, clk *widget.Clickable, label string) layout.Dimensions {
	btn := material.Button(r.Theme, clk, label)
	btn.Inset = layout.UniformInset(unit.Dp(6))
	btn.Background, btn.Color = color.NRGBA{}, colAccent
	return btn.Layout(gtx)
}

// layoutBanner draws msg across the window, or nothing when msg is empty
func (r *Renderer) layoutBanner(gtx layout.Context, msg string, bg, fg color.NRGBA) layout.Dimensions {
	if msg == "" {
		return layout.Dimensions{}
	}
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, bg, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(r.Theme, msg)
				lbl.Color = fg
				return lbl.Layout(gtx)
			})
		}),
	)
}

// drawFallbackIcon draws a folder or page outline of size px
func drawFallbackIcon(gtx layout.Context, px int, isDir bool) {
	s := float32(px)
	ops := gtx.Ops
	border := max(1, px/24)

	if isDir {
		tab := image.Rect(int(s*0.12), int(s*0.18), int(s*0.45), int(s*0.30))
		body := image.Rect(int(s*0.12), int(s*0.28), int(s*0.88), int(s*0.82))
		paint.FillShape(ops, colAccent, clip.Rect(tab).Op())
		paint.FillShape(ops, colAccent, clip.Rect(body).Op())
		inner := body.Inset(border)
		paint.FillShape(ops, colSelected, clip.Rect(inner).Op())
		return
	}

	page := image.Rect(int(s*0.22), int(s*0.10), int(s*0.78), int(s*0.90))
	paint.FillShape(ops, colLightGray, clip.Rect(page).Op())
	paint.FillShape(ops, colWhite, clip.Rect(page.Inset(border)).Op())
	for i := 0; i < 3; i++ {
		y := int(s*0.35) + i*int(s*0.15)
		line := image.Rect(int(s*0.32), y, int(s*0.68), y+border)
		paint.FillShape(ops, colLightGray, clip.Rect(line).Op())
	}
}
