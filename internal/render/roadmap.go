package render

import (
	"time"

	"github.com/planfold/plotd/internal/model"
)

const (
	roadmapRowHeight  = 44
	roadmapBarHeight  = 28
	roadmapLabelWidth = 140
	roadmapTopMargin  = 40
	roadmapPadding    = 20
)

// roadmapScene renders each sprint as a horizontal bar on a time scale
// derived from the min start / max end across all sprints. No physics.
// The payload is assumed validated: every sprint's dates parse and
// end >= start.
func roadmapScene(p *model.RoadmapPayload, width float64) *Scene {
	height := roadmapTopMargin + float64(len(p.Sprints))*roadmapRowHeight + roadmapPadding
	s := &Scene{Width: width, Height: height}

	if len(p.Sprints) == 0 {
		s.add(Text{X: width / 2, Y: height / 2, Value: "No sprints to display", Anchor: "middle", Fill: "#7f8c8d"})
		return s
	}

	var minStart, maxEnd time.Time
	for i, sp := range p.Sprints {
		start, end, _ := sp.Dates()
		if i == 0 || start.Before(minStart) {
			minStart = start
		}
		if i == 0 || end.After(maxEnd) {
			maxEnd = end
		}
	}

	span := maxEnd.Sub(minStart)
	if span <= 0 {
		span = 24 * time.Hour
	}
	trackWidth := width - roadmapLabelWidth - 2*roadmapPadding
	scale := func(t time.Time) float64 {
		return roadmapLabelWidth + roadmapPadding + trackWidth*float64(t.Sub(minStart))/float64(span)
	}

	// Axis labels at the scale extremes.
	s.add(
		Text{X: scale(minStart), Y: roadmapTopMargin - 14, Value: minStart.Format("2006-01-02"), Size: 10, Fill: "#7f8c8d"},
		Text{X: scale(maxEnd), Y: roadmapTopMargin - 14, Value: maxEnd.Format("2006-01-02"), Size: 10, Fill: "#7f8c8d", Anchor: "end"},
	)

	for i, sp := range p.Sprints {
		start, end, _ := sp.Dates()
		y := roadmapTopMargin + float64(i)*roadmapRowHeight

		x1, x2 := scale(start), scale(end)
		if x2-x1 < 2 {
			x2 = x1 + 2 // zero-length sprints still get a visible sliver
		}

		fill := sp.Color
		if fill == "" {
			fill = "#2980b9"
		}

		s.add(
			Text{X: roadmapPadding, Y: y + roadmapBarHeight/2 + 4, Value: sp.Name, Size: 12},
			Rect{X: x1, Y: y, W: x2 - x1, H: roadmapBarHeight, Radius: 4, Fill: fill},
		)
	}

	return s
}
