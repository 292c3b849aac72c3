package render

import (
	"fmt"

	"github.com/planfold/plotd/internal/model"
)

const (
	seriesHeight   = 360
	seriesPadding  = 48
	seriesBarGap   = 10
	seriesAxisTick = 12
)

// seriesScene renders burndown data as a line over an ideal guide, and
// velocity data as vertical bars. Both share the same axis scaffolding.
func seriesScene(kind model.DiagramKind, p *model.SeriesPayload, width float64) *Scene {
	s := &Scene{Width: width, Height: seriesHeight}

	if len(p.Points) == 0 {
		s.add(Text{X: width / 2, Y: seriesHeight / 2, Value: "No data points", Anchor: "middle", Fill: "#7f8c8d"})
		return s
	}

	var max float64
	for _, pt := range p.Points {
		if pt.Value > max {
			max = pt.Value
		}
		if pt.Ideal > max {
			max = pt.Ideal
		}
	}
	if max == 0 {
		max = 1
	}

	plotW := width - 2*seriesPadding
	plotH := float64(seriesHeight - 2*seriesPadding)
	n := len(p.Points)

	xAt := func(i int) float64 {
		if n == 1 {
			return seriesPadding + plotW/2
		}
		return seriesPadding + plotW*float64(i)/float64(n-1)
	}
	yAt := func(v float64) float64 {
		return seriesPadding + plotH*(1-v/max)
	}

	// Axes.
	s.add(
		Line{X1: seriesPadding, Y1: seriesPadding, X2: seriesPadding, Y2: seriesHeight - seriesPadding, Stroke: "#2c3e50", Width: 1},
		Line{X1: seriesPadding, Y1: seriesHeight - seriesPadding, X2: width - seriesPadding, Y2: seriesHeight - seriesPadding, Stroke: "#2c3e50", Width: 1},
		Text{X: seriesPadding - 6, Y: yAt(max) + 4, Value: fmt.Sprintf("%g", max), Size: 10, Anchor: "end", Fill: "#7f8c8d"},
		Text{X: seriesPadding - 6, Y: yAt(0) + 4, Value: "0", Size: 10, Anchor: "end", Fill: "#7f8c8d"},
	)

	if kind == model.KindVelocity {
		barW := plotW/float64(n) - seriesBarGap
		if barW < 2 {
			barW = 2
		}
		for i, pt := range p.Points {
			x := seriesPadding + plotW*float64(i)/float64(n) + seriesBarGap/2
			s.add(
				Rect{X: x, Y: yAt(pt.Value), W: barW, H: yAt(0) - yAt(pt.Value), Fill: "#2980b9"},
				Text{X: x + barW/2, Y: seriesHeight - seriesPadding + seriesAxisTick, Value: pt.Label, Size: 9, Anchor: "middle", Fill: "#7f8c8d"},
			)
		}
		return s
	}

	// Burndown: ideal guide first, then the actual line on top.
	for i := 1; i < n; i++ {
		prev, cur := p.Points[i-1], p.Points[i]
		if prev.Ideal != 0 || cur.Ideal != 0 {
			s.add(Line{X1: xAt(i - 1), Y1: yAt(prev.Ideal), X2: xAt(i), Y2: yAt(cur.Ideal), Stroke: "#bdc3c7", Width: 1})
		}
	}
	for i := 1; i < n; i++ {
		prev, cur := p.Points[i-1], p.Points[i]
		s.add(Line{X1: xAt(i - 1), Y1: yAt(prev.Value), X2: xAt(i), Y2: yAt(cur.Value), Stroke: "#c0392b", Width: 2})
	}
	for i, pt := range p.Points {
		s.add(Circle{CX: xAt(i), CY: yAt(pt.Value), R: 3, Fill: "#c0392b"})
	}

	return s
}
