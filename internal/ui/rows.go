package ui

import (
	"image"

	"gioui.org/font"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/dustin/go-humanize"
)

func (r *Renderer) layoutEntries(gtx layout.Context, state *State, keyTag event.Tag, eventOut *UIEvent) layout.Dimensions {
	if len(state.Entries) == 0 {
		msg := "This box is empty"
		if state.Loading {
			msg = "Loading..."
		}
		return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body1(r.Theme, msg)
			lbl.Color = colGray
			return lbl.Layout(gtx)
		})
	}

	return r.listState.Layout(gtx, len(state.Entries), func(gtx layout.Context, i int) layout.Dimensions {
		item := &state.Entries[i]
		dims, click, dragStart := item.Touch.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return r.renderRow(gtx, item, state.Selection.Has(i))
		})

		if click != nil {
			if click.NumClicks >= 2 {
				*eventOut = UIEvent{Action: ActionOpen, Index: i, Path: item.Path}
			} else {
				*eventOut = UIEvent{
					Action: ActionSelect,
					Index:  i,
					Path:   item.Path,
					Toggle: click.Modifiers.Contain(key.ModShortcut),
					Extend: click.Modifiers.Contain(key.ModShift),
				}
			}
			gtx.Execute(key.FocusCmd{Tag: keyTag})
		}
		if dragStart {
			*eventOut = UIEvent{Action: ActionDragOut, Index: i, Path: item.Path}
		}
		return dims
	})
}

func (r *Renderer) renderRow(gtx layout.Context, item *UIEntry, selected bool) layout.Dimensions {
	gtx.Constraints.Min.X = gtx.Constraints.Max.X
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			switch {
			case selected:
				paint.FillShape(gtx.Ops, colSelected, clip.Rect{Max: gtx.Constraints.Min}.Op())
			case item.Touch.Hovered():
				paint.FillShape(gtx.Ops, colHover, clip.Rect{Max: gtx.Constraints.Min}.Op())
			}
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{
				Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(8), Right: unit.Dp(12),
			}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return r.layoutIcon(gtx, item)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
					layout.Flexed(0.6, func(gtx layout.Context) layout.Dimensions {
						lbl := material.Body1(r.Theme, item.Name)
						lbl.MaxLines = 1
						if item.IsDir {
							lbl.Color = colDirBlue
							lbl.Font.Weight = font.Bold
						}
						return lbl.Layout(gtx)
					}),
					layout.Flexed(0.25, func(gtx layout.Context) layout.Dimensions {
						lbl := material.Body2(r.Theme, humanize.Time(item.ModTime))
						lbl.Color = colGray
						lbl.MaxLines = 1
						return lbl.Layout(gtx)
					}),
					layout.Flexed(0.15, func(gtx layout.Context) layout.Dimensions {
						size := ""
						if !item.IsDir {
							size = humanize.Bytes(uint64(item.Size))
						}
						lbl := material.Body2(r.Theme, size)
						lbl.Color = colGray
						lbl.Alignment = text.End
						lbl.MaxLines = 1
						return lbl.Layout(gtx)
					}),
				)
			})
		}),
	)
}

// layoutIcon draws the system icon of item, queueing it for loading and
// showing a plain glyph until it arrives or when it cannot be resolved.
func (r *Renderer) layoutIcon(gtx layout.Context, item *UIEntry) layout.Dimensions {
	px := gtx.Dp(r.IconSize)
	size := image.Pt(px, px)

	if r.icons != nil {
		if op, ok := r.icons.Get(item.Path, px); ok {
			gtx.Constraints = layout.Exact(size)
			widget.Image{
				Src:      op,
				Fit:      widget.Contain,
				Position: layout.Center,
				Scale:    1 / gtx.Metric.PxPerDp,
			}.Layout(gtx)
			return layout.Dimensions{Size: size}
		}
		r.icons.RequestLoad(item.Path, px)
	}

	drawFallbackIcon(gtx, px, item.IsDir)
	return layout.Dimensions{Size: size}
}

func (r *Renderer) layoutHeader(gtx layout.Context, state *State, eventOut *UIEvent) layout.Dimensions {
	if r.refreshBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionRefresh}
	}
	if r.dotfileBtn.Clicked(gtx) {
		*eventOut = UIEvent{Action: ActionToggleDotfiles}
	}

	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colHeader, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
							layout.Rigid(func(gtx layout.Context) layout.Dimensions {
								lbl := material.H6(r.Theme, state.BoxName)
								lbl.MaxLines = 1
								return lbl.Layout(gtx)
							}),
							layout.Rigid(func(gtx layout.Context) layout.Dimensions {
								lbl := material.Caption(r.Theme, state.BoxPath)
								lbl.Color = colGray
								lbl.MaxLines = 1
								return lbl.Layout(gtx)
							}),
						)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						label := "Show hidden"
						if state.ShowDotfiles {
							label = "Hide hidden"
						}
						return r.flatButton(gtx, &r.dotfileBtn, label)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return r.flatButton(gtx, &r.refreshBtn, "Refresh")
					}),
				)
			})
		}),
	)
}

func (r *Renderer) layoutStatus(gtx layout.Context, state *State) layout.Dimensions {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			paint.FillShape(gtx.Ops, colHeader, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(10), Right: unit.Dp(10)}.Layout(gtx,
				func(gtx layout.Context) layout.Dimensions {
					lbl := material.Caption(r.Theme, StatusText(state))
					lbl.Color = colGray
					return lbl.Layout(gtx)
				})
		}),
	)
}
