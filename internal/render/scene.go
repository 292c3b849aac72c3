// Package render turns validated diagram payloads into drawable scenes and
// serializes them to SVG. Workflow and dependency graphs are laid out by a
// force-directed simulation; roadmap, architecture, UML, and series
// diagrams use fixed layouts.
package render

// Scene is a resolution-independent drawing: a viewport plus an ordered
// list of shapes. It is the common product of every layout strategy and
// the common input of the SVG writer and the raster exporter.
type Scene struct {
	Width  float64
	Height float64
	Shapes []Shape
}

// Shape is a drawable primitive. The concrete types below are the full
// set; consumers dispatch on type.
type Shape interface {
	shape()
}

// Rect is an axis-aligned rectangle, optionally rounded.
type Rect struct {
	X, Y, W, H float64
	Radius     float64
	Fill       string
	Stroke     string
}

// Line is a straight segment, optionally with an arrowhead at the end.
type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         string
	Width          float64
	Arrow          bool
}

// Circle is a filled circle.
type Circle struct {
	CX, CY, R float64
	Fill      string
	Stroke    string
}

// Text is a single text run anchored at (X, Y).
type Text struct {
	X, Y   float64
	Value  string
	Size   float64
	Fill   string
	Anchor string // "start", "middle", "end"
	Bold   bool
}

func (Rect) shape()   {}
func (Line) shape()   {}
func (Circle) shape() {}
func (Text) shape()   {}

// add appends shapes to the scene.
func (s *Scene) add(shapes ...Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// Palette used by the layout strategies. Node colors key off the node or
// status type; unknown types get the default.
var typeColors = map[string]string{
	"epic":        "#8e44ad",
	"story":       "#2980b9",
	"task":        "#16a085",
	"bug":         "#c0392b",
	"open":        "#2980b9",
	"in_progress": "#f39c12",
	"blocked":     "#c0392b",
	"done":        "#27ae60",
	"closed":      "#7f8c8d",
}

const defaultNodeColor = "#34495e"

func colorFor(nodeType string) string {
	if c, ok := typeColors[nodeType]; ok {
		return c
	}
	return defaultNodeColor
}
