package render

import (
	"strings"

	"github.com/planfold/plotd/internal/model"
)

const (
	umlBoxWidth   = 200
	umlLineHeight = 16
	umlHeaderPad  = 26
	umlBoxGap     = 40
	umlColumns    = 4
	umlPadding    = 24
)

// umlScene lays class boxes on a fixed grid, one box per class with
// attribute and method compartments, and draws inheritance lines to
// parents that exist in the payload.
func umlScene(p *model.UMLPayload, width float64) *Scene {
	cols := umlColumns
	if len(p.Classes) < cols {
		cols = len(p.Classes)
	}
	if cols == 0 {
		cols = 1
	}

	type box struct {
		x, y, h float64
	}
	boxes := make(map[string]box, len(p.Classes))

	// First pass: measure rows so tall boxes don't overlap the next row.
	rowHeights := make([]float64, (len(p.Classes)+cols-1)/cols)
	for i, c := range p.Classes {
		h := classBoxHeight(c)
		row := i / cols
		if h > rowHeights[row] {
			rowHeights[row] = h
		}
	}

	s := &Scene{Width: width}

	y := float64(umlPadding)
	for i, c := range p.Classes {
		row, col := i/cols, i%cols
		if col == 0 && row > 0 {
			y += rowHeights[row-1] + umlBoxGap
		}
		x := umlPadding + float64(col)*(umlBoxWidth+umlBoxGap)
		h := classBoxHeight(c)
		boxes[c.Name] = box{x: x, y: y, h: h}

		s.add(
			Rect{X: x, Y: y, W: umlBoxWidth, H: h, Fill: "#fdfefe", Stroke: "#2c3e50"},
			Text{X: x + umlBoxWidth/2, Y: y + 17, Value: c.Name, Anchor: "middle", Bold: true, Size: 12},
			Line{X1: x, Y1: y + umlHeaderPad, X2: x + umlBoxWidth, Y2: y + umlHeaderPad, Stroke: "#2c3e50", Width: 1},
		)

		ty := y + umlHeaderPad + umlLineHeight - 3
		for _, a := range c.Attributes {
			s.add(Text{X: x + 8, Y: ty, Value: memberLabel(a.Visibility, a.Name, a.Type), Size: 10})
			ty += umlLineHeight
		}
		if len(c.Attributes) > 0 && len(c.Methods) > 0 {
			sep := ty - umlLineHeight + 6
			s.add(Line{X1: x, Y1: sep, X2: x + umlBoxWidth, Y2: sep, Stroke: "#95a5a6", Width: 0.5})
		}
		for _, m := range c.Methods {
			label := memberLabel(m.Visibility, m.Name+"("+strings.Join(m.Parameters, ", ")+")", "")
			s.add(Text{X: x + 8, Y: ty, Value: label, Size: 10})
			ty += umlLineHeight
		}
	}

	// Inheritance edges to parents present in the diagram. Unknown parents
	// are skipped silently — external base classes are common.
	for _, c := range p.Classes {
		child := boxes[c.Name]
		for _, parent := range c.Parents {
			pb, ok := boxes[parent]
			if !ok {
				continue
			}
			s.add(Line{
				X1: child.x + umlBoxWidth/2, Y1: child.y,
				X2: pb.x + umlBoxWidth/2, Y2: pb.y + pb.h,
				Arrow: true, Stroke: "#2c3e50",
			})
		}
	}

	total := float64(umlPadding)
	for _, h := range rowHeights {
		total += h + umlBoxGap
	}
	s.Height = total + umlPadding
	return s
}

func classBoxHeight(c model.UMLClass) float64 {
	lines := len(c.Attributes) + len(c.Methods)
	if lines == 0 {
		lines = 1
	}
	return umlHeaderPad + float64(lines)*umlLineHeight + 10
}

func memberLabel(visibility, name, typ string) string {
	if visibility == "" {
		visibility = "+"
	}
	if typ != "" {
		return visibility + " " + name + ": " + typ
	}
	return visibility + " " + name
}
