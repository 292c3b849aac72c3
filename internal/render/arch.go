package render

import "github.com/planfold/plotd/internal/model"

const (
	archLayerHeight  = 110
	archLayerGap     = 30
	archPadding      = 24
	archCompWidth    = 150
	archCompHeight   = 48
	archCompGap      = 16
	archTitleInset   = 24
	archCompTopInset = 42
)

// archScene stacks layers vertically as cards, grouping each layer's
// components inside it, then draws validated connections between
// component boxes. No physics.
func archScene(p *model.ArchPayload, width float64) *Scene {
	height := archPadding + float64(len(p.Layers))*(archLayerHeight+archLayerGap)
	s := &Scene{Width: width, Height: height}

	// Component center positions, for connection lines.
	type point struct{ x, y float64 }
	centers := make(map[string]point)

	y := float64(archPadding)
	for _, layer := range p.Layers {
		s.add(
			Rect{X: archPadding, Y: y, W: width - 2*archPadding, H: archLayerHeight, Radius: 6, Fill: "#ecf0f1", Stroke: "#bdc3c7"},
			Text{X: archPadding + 12, Y: y + archTitleInset, Value: layer.Name, Size: 14, Bold: true},
		)

		x := archPadding + 16.0
		for _, comp := range layer.Components {
			cy := y + archCompTopInset
			s.add(
				Rect{X: x, Y: cy, W: archCompWidth, H: archCompHeight, Radius: 4, Fill: "#ffffff", Stroke: "#95a5a6"},
				Text{X: x + archCompWidth/2, Y: cy + archCompHeight/2 + 4, Value: comp, Anchor: "middle", Size: 11},
			)
			centers[comp] = point{x: x + archCompWidth/2, y: cy + archCompHeight/2}
			x += archCompWidth + archCompGap
		}

		y += archLayerHeight + archLayerGap
	}

	for _, c := range p.Connections {
		from, to := centers[c.From], centers[c.To]
		s.add(Line{X1: from.x, Y1: from.y, X2: to.x, Y2: to.y, Arrow: true, Stroke: "#7f8c8d"})
	}

	return s
}
