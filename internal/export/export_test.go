package export

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
)

// fixedExporter returns an exporter with a frozen clock.
func fixedExporter() *Exporter {
	e := NewExporter()
	e.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return e
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Project! #1", "my-project-1"},
		{"  --hello--  ", "hello"},
		{"ALL CAPS", "all-caps"},
		{"!!!", ""},
		{"", ""},
		{"a&b&&c", "a-b-c"},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitize_CapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abc "
	}
	got := Sanitize(long)
	if len(got) > maxNameLen {
		t.Errorf("sanitized name length %d exceeds cap %d", len(got), maxNameLen)
	}
	if got[len(got)-1] == '-' {
		t.Errorf("capped name ends in hyphen: %q", got)
	}
}

func TestFilename_MatchesDocumentedPattern(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := Filename("My Project! #1", model.KindWorkflow, model.FormatSVG, now)

	pattern := `^[a-z0-9-]+-workflow-diagram-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}\.svg$`
	if !regexp.MustCompile(pattern).MatchString(got) {
		t.Errorf("filename %q does not match %s", got, pattern)
	}
	if got != "my-project-1-workflow-diagram-2026-03-14T09-26-53.svg" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestFilename_NoProject(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := Filename("", model.KindRoadmap, model.FormatJSON, now)
	if got != "roadmap-diagram-2026-03-14T09-26-53.json" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestExportSVG_Passthrough(t *testing.T) {
	markup := []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	r := fixedExporter().SVG(markup, "proj", model.KindDependency)
	if !r.Success {
		t.Fatalf("export failed: %v", r.Err)
	}
	if !bytes.Equal(r.Data, markup) {
		t.Error("SVG export must pass markup through unchanged")
	}
}

func TestExportSVG_EmptyFails(t *testing.T) {
	r := fixedExporter().SVG(nil, "proj", model.KindDependency)
	if r.Success || r.Err == nil {
		t.Error("empty markup must fail with a result error, not succeed")
	}
}

func TestExportJSON_PrettyPrinted(t *testing.T) {
	r := fixedExporter().JSON(json.RawMessage(`{"nodes":[{"id":"A"}]}`), "", model.KindDependency)
	if !r.Success {
		t.Fatalf("export failed: %v", r.Err)
	}
	if !bytes.Contains(r.Data, []byte("\n  \"nodes\"")) {
		t.Errorf("output not indented: %s", r.Data)
	}
}

func TestExportPNG_NoViewBoxFallsBack(t *testing.T) {
	scene := &render.Scene{Width: 100, Height: 100}
	scene.Shapes = append(scene.Shapes, render.Circle{CX: 50, CY: 50, R: 20, Fill: "#c0392b"})

	// Markup with no viewBox and no width/height: documented fallback applies.
	r := fixedExporter().PNG(scene, []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), "", model.KindWorkflow)
	if !r.Success {
		t.Fatalf("export failed: %v", r.Err)
	}
	if len(r.Data) == 0 {
		t.Fatal("expected non-empty PNG blob")
	}

	img, err := png.Decode(bytes.NewReader(r.Data))
	if err != nil {
		t.Fatalf("decoding produced PNG: %v", err)
	}
	b := img.Bounds()
	// 800x600 fallback at 2x quality.
	if b.Dx() != 1600 || b.Dy() != 1200 {
		t.Errorf("got %dx%d raster, want 1600x1200", b.Dx(), b.Dy())
	}

	// White background fill, not transparent.
	r0, g0, b0, a0 := img.At(0, 0).RGBA()
	if r0 != 0xffff || g0 != 0xffff || b0 != 0xffff || a0 != 0xffff {
		t.Errorf("corner pixel not opaque white: %v", img.At(0, 0))
	}
}

func TestExportPNG_ViewBoxDimensions(t *testing.T) {
	scene := &render.Scene{Width: 320, Height: 240}
	markup := scene.SVG()

	r := fixedExporter().PNG(scene, markup, "", model.KindWorkflow)
	if !r.Success {
		t.Fatalf("export failed: %v", r.Err)
	}
	img, err := png.Decode(bytes.NewReader(r.Data))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 480 {
		t.Errorf("got %dx%d, want 640x480 (viewBox at 2x)", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestIntrinsicSize_WidthHeightAttrs(t *testing.T) {
	w, h := intrinsicSize([]byte(`<svg width="300" height="150"><rect/></svg>`))
	if w != 300 || h != 150 {
		t.Errorf("got %gx%g, want 300x150", w, h)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := fixedExporter().SVG([]byte("<svg/>"), "p", model.KindUML)

	path, err := WriteFile(dir, r)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("written outside dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("file contents wrong: %q, %v", data, err)
	}
}

func TestWriteFile_RefusesFailedResult(t *testing.T) {
	if _, err := WriteFile(t.TempDir(), fixedExporter().SVG(nil, "", model.KindUML)); err == nil {
		t.Error("expected error writing failed export")
	}
}
