package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"regexp"
	"strconv"

	"github.com/planfold/plotd/internal/render"
)

// Fallback canvas dimensions when the markup carries no usable size.
const (
	fallbackWidth  = 800.0
	fallbackHeight = 600.0
)

var (
	viewBoxRe = regexp.MustCompile(`viewBox="([\d.eE+-]+)[ ,]+([\d.eE+-]+)[ ,]+([\d.eE+-]+)[ ,]+([\d.eE+-]+)"`)
	widthRe   = regexp.MustCompile(`<svg[^>]*\swidth="([\d.]+)(?:px)?"`)
	heightRe  = regexp.MustCompile(`<svg[^>]*\sheight="([\d.]+)(?:px)?"`)
)

// intrinsicSize recovers the diagram's intrinsic dimensions from vector
// markup: viewBox first, then explicit width/height attributes, then the
// documented 800x600 fallback.
func intrinsicSize(markup []byte) (w, h float64) {
	if m := viewBoxRe.FindSubmatch(markup); m != nil {
		vw, err1 := strconv.ParseFloat(string(m[3]), 64)
		vh, err2 := strconv.ParseFloat(string(m[4]), 64)
		if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
			return vw, vh
		}
	}

	wm := widthRe.FindSubmatch(markup)
	hm := heightRe.FindSubmatch(markup)
	if wm != nil && hm != nil {
		vw, err1 := strconv.ParseFloat(string(wm[1]), 64)
		vh, err2 := strconv.ParseFloat(string(hm[1]), 64)
		if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
			return vw, vh
		}
	}

	return fallbackWidth, fallbackHeight
}

// rasterize draws the scene's geometry onto an RGBA canvas of the given
// intrinsic size scaled by quality, over a white background (so viewers
// don't get a transparent backdrop), and encodes the result as PNG.
// Text runs are not rasterized; raster export carries the geometry.
func rasterize(scene *render.Scene, width, height, quality float64) ([]byte, error) {
	pxW := int(math.Ceil(width * quality))
	pxH := int(math.Ceil(height * quality))
	if pxW <= 0 || pxH <= 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", pxW, pxH)
	}

	// Scene coordinates map onto the intrinsic size; scale accordingly.
	sx := width / scene.Width * quality
	sy := height / scene.Height * quality

	img := image.NewRGBA(image.Rect(0, 0, pxW, pxH))
	fillRect(img, 0, 0, pxW, pxH, color.White)

	for _, sh := range scene.Shapes {
		switch v := sh.(type) {
		case render.Rect:
			if v.Fill == "" || v.Fill == "none" {
				continue // unfilled rects render as outlines in SVG; skip in raster
			}
			c := parseColor(v.Fill, color.RGBA{52, 73, 94, 255})
			fillRect(img, int(v.X*sx), int(v.Y*sy), int((v.X+v.W)*sx), int((v.Y+v.H)*sy), c)
		case render.Circle:
			c := parseColor(v.Fill, color.RGBA{52, 73, 94, 255})
			fillCircle(img, v.CX*sx, v.CY*sy, v.R*math.Min(sx, sy), c)
		case render.Line:
			c := parseColor(v.Stroke, color.RGBA{127, 140, 141, 255})
			w := v.Width
			if w == 0 {
				w = 1.5
			}
			drawLine(img, v.X1*sx, v.Y1*sy, v.X2*sx, v.Y2*sy, w*math.Min(sx, sy), c)
		case render.Text:
			// skipped; see above
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	b := img.Bounds()
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, c)
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.Color) {
	x0, x1 := int(cx-r), int(cx+r)+1
	y0, y1 := int(cy-r), int(cy+r)+1
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}
}

// drawLine stamps a filled disc along the segment; crude but dependency-free.
func drawLine(img *image.RGBA, x1, y1, x2, y2, width float64, c color.Color) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	steps := int(length) + 1
	r := math.Max(width/2, 0.5)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		fillCircle(img, x1+dx*t, y1+dy*t, r, c)
	}
}

// parseColor handles the #rrggbb hex colors the scene palette uses.
func parseColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		if s == "none" || s == "" {
			return fallback
		}
		return fallback
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}
