package render

import (
	"fmt"
	"strings"
)

// SVG serializes the scene to standalone SVG markup. The viewBox matches
// the scene dimensions so exporters can recover intrinsic size from the
// markup alone.
func (s *Scene) SVG() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		s.Width, s.Height, s.Width, s.Height)
	b.WriteByte('\n')

	arrows := false
	for _, sh := range s.Shapes {
		if l, ok := sh.(Line); ok && l.Arrow {
			arrows = true
			break
		}
	}
	if arrows {
		b.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#7f8c8d"/></marker></defs>` + "\n")
	}

	for _, sh := range s.Shapes {
		writeShape(&b, sh)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func writeShape(b *strings.Builder, sh Shape) {
	switch v := sh.(type) {
	case Rect:
		fmt.Fprintf(b, `<rect x="%g" y="%g" width="%g" height="%g"`, v.X, v.Y, v.W, v.H)
		if v.Radius > 0 {
			fmt.Fprintf(b, ` rx="%g"`, v.Radius)
		}
		fmt.Fprintf(b, ` fill="%s"`, attr(v.Fill, "none"))
		if v.Stroke != "" {
			fmt.Fprintf(b, ` stroke="%s"`, v.Stroke)
		}
		b.WriteString("/>\n")
	case Line:
		width := v.Width
		if width == 0 {
			width = 1.5
		}
		fmt.Fprintf(b, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke="%s" stroke-width="%g"`,
			v.X1, v.Y1, v.X2, v.Y2, attr(v.Stroke, "#7f8c8d"), width)
		if v.Arrow {
			b.WriteString(` marker-end="url(#arrow)"`)
		}
		b.WriteString("/>\n")
	case Circle:
		fmt.Fprintf(b, `<circle cx="%g" cy="%g" r="%g" fill="%s"`, v.CX, v.CY, v.R, attr(v.Fill, defaultNodeColor))
		if v.Stroke != "" {
			fmt.Fprintf(b, ` stroke="%s"`, v.Stroke)
		}
		b.WriteString("/>\n")
	case Text:
		size := v.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(b, `<text x="%g" y="%g" font-size="%g" font-family="sans-serif" fill="%s"`,
			v.X, v.Y, size, attr(v.Fill, "#2c3e50"))
		if v.Anchor != "" {
			fmt.Fprintf(b, ` text-anchor="%s"`, v.Anchor)
		}
		if v.Bold {
			b.WriteString(` font-weight="bold"`)
		}
		fmt.Fprintf(b, ">%s</text>\n", escapeText(v.Value))
	}
}

func attr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
