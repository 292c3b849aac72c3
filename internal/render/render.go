package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/planfold/plotd/internal/model"
)

// Default viewport for rendered diagrams.
const (
	DefaultWidth  = 1000.0
	DefaultHeight = 700.0
)

// Options tune a render run.
type Options struct {
	Width  float64
	Height float64

	// Seed fixes the force simulation's initial placement. Zero means
	// positions vary run to run, matching the browser behavior.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// RenderError wraps a failure inside a layout or drawing routine. Callers
// treat it as a non-fatal per-diagram state rather than letting it
// propagate: the surrounding view stays alive.
type RenderError struct {
	Kind model.DiagramKind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s diagram: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Render validates the normalized payload for the given kind, lays it out,
// and returns the drawable scene plus the validation report. Panics inside
// layout code are recovered and converted to a *RenderError so a drawing
// bug never takes down the caller.
func Render(kind model.DiagramKind, data json.RawMessage, opts Options) (scene *Scene, report *model.Report, err error) {
	opts = opts.withDefaults()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in renderer",
				"kind", kind,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()))
			scene, report = nil, nil
			err = &RenderError{Kind: kind, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch kind {
	case model.KindWorkflow, model.KindDependency:
		p, rep, verr := model.ValidateGraph(kind, data)
		if verr != nil {
			return nil, nil, verr
		}
		ForceLayout(p, opts.Width, opts.Height, opts.Seed)
		return graphScene(p, opts.Width, opts.Height), rep, nil

	case model.KindRoadmap:
		p, rep, verr := model.ValidateRoadmap(data)
		if verr != nil {
			return nil, nil, verr
		}
		return roadmapScene(p, opts.Width), rep, nil

	case model.KindArchitecture:
		p, rep, verr := model.ValidateArch(data)
		if verr != nil {
			return nil, nil, verr
		}
		return archScene(p, opts.Width), rep, nil

	case model.KindUML:
		p, rep, verr := model.ValidateUML(data)
		if verr != nil {
			return nil, nil, verr
		}
		return umlScene(p, opts.Width), rep, nil

	case model.KindBurndown, model.KindVelocity:
		p, rep, verr := model.ValidateSeries(kind, data)
		if verr != nil {
			return nil, nil, verr
		}
		return seriesScene(kind, p, opts.Width), rep, nil

	default:
		return nil, nil, fmt.Errorf("unknown diagram kind %q", kind)
	}
}
