// Package export serializes rendered diagrams to downloadable files:
// vector markup passthrough, raster PNG re-render, or pretty-printed
// structured data. Every export resolves to a Result record instead of an
// error return, so callers present a uniform success/failure notification
// regardless of path.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
)

// DefaultQuality is the raster scale factor applied on PNG export.
const DefaultQuality = 2.0

// Result records the outcome of one export operation. Err is set (and
// Success false) on failure; the operation itself never panics or returns
// a bare error.
type Result struct {
	Success  bool
	Filename string
	Data     []byte
	Err      error
}

func failure(filename string, err error) Result {
	return Result{Filename: filename, Err: err}
}

// Exporter encodes scenes and payloads into downloadable formats.
type Exporter struct {
	// Quality scales raster output; zero means DefaultQuality.
	Quality float64

	// now is swappable for tests.
	now func() time.Time
}

// NewExporter returns an exporter with default settings.
func NewExporter() *Exporter {
	return &Exporter{Quality: DefaultQuality, now: time.Now}
}

func (e *Exporter) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// SVG exports vector markup directly. When the diagram was client-rendered
// the caller passes the serialized scene; when the backend already
// returned raw markup it is passed through untouched.
func (e *Exporter) SVG(markup []byte, projectName string, kind model.DiagramKind) Result {
	filename := Filename(projectName, kind, model.FormatSVG, e.clock())
	if len(bytes.TrimSpace(markup)) == 0 {
		return failure(filename, fmt.Errorf("no markup to export"))
	}
	return Result{Success: true, Filename: filename, Data: markup}
}

// PNG re-renders the scene onto an off-screen raster with a white
// background and encodes it as PNG. Intrinsic dimensions are recovered
// from the markup's viewBox (or width/height attributes); when absent the
// documented 800x600 fallback applies. The scene geometry is what gets
// drawn — markup is consulted for dimensions only.
func (e *Exporter) PNG(scene *render.Scene, markup []byte, projectName string, kind model.DiagramKind) Result {
	filename := Filename(projectName, kind, model.FormatPNG, e.clock())
	if scene == nil {
		return failure(filename, fmt.Errorf("no scene to rasterize"))
	}

	w, h := intrinsicSize(markup)
	quality := e.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}

	data, err := rasterize(scene, w, h, quality)
	if err != nil {
		return failure(filename, fmt.Errorf("rasterize: %w", err))
	}
	return Result{Success: true, Filename: filename, Data: data}
}

// JSON exports the normalized in-memory structure pretty-printed.
func (e *Exporter) JSON(data json.RawMessage, projectName string, kind model.DiagramKind) Result {
	filename := Filename(projectName, kind, model.FormatJSON, e.clock())
	if len(bytes.TrimSpace(data)) == 0 {
		return failure(filename, fmt.Errorf("no data to export"))
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return failure(filename, fmt.Errorf("pretty-print: %w", err))
	}
	buf.WriteByte('\n')
	return Result{Success: true, Filename: filename, Data: buf.Bytes()}
}

// WriteFile saves a successful result into dir, returning the full path.
func WriteFile(dir string, r Result) (string, error) {
	if !r.Success {
		return "", fmt.Errorf("cannot write failed export: %w", r.Err)
	}
	path := filepath.Join(dir, r.Filename)
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
