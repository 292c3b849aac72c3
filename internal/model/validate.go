package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Report collects what the validator filtered out of a payload. Validation
// is deliberately lenient: per-element failures drop the element and record
// the reason here, so partial data stays visible instead of failing the
// whole diagram.
type Report struct {
	Kind    DiagramKind
	Dropped []DroppedElement
}

// DroppedElement records a single element excluded during validation.
type DroppedElement struct {
	Collection string `json:"collection"`   // "links", "sprints", ...
	ID         string `json:"id,omitempty"` // element identifier when one exists
	Reason     string `json:"reason"`
}

func (r *Report) drop(collection, id, reason string) {
	r.Dropped = append(r.Dropped, DroppedElement{Collection: collection, ID: id, Reason: reason})
}

// Log emits one slog warning per dropped element plus a summary count, so
// the number of exclusions is observable without inspecting the report.
func (r *Report) Log() {
	for _, d := range r.Dropped {
		slog.Warn("diagram element dropped",
			"kind", r.Kind,
			"collection", d.Collection,
			"id", d.ID,
			"reason", d.Reason)
	}
	if len(r.Dropped) > 0 {
		slog.Warn("diagram validation dropped elements", "kind", r.Kind, "count", len(r.Dropped))
	}
}

// MissingCollectionError is fatal: a required collection is absent or not
// array-typed (e.g. "nodes" for a graph diagram).
type MissingCollectionError struct {
	Kind       DiagramKind
	Collection string
}

func (e *MissingCollectionError) Error() string {
	return fmt.Sprintf("%s diagram payload is missing required collection %q", e.Kind, e.Collection)
}

// ValidateGraph checks a workflow/dependency payload. A missing nodes
// collection is fatal; a missing links collection defaults to empty with a
// logged warning. Links referencing unknown node IDs are dropped.
func ValidateGraph(kind DiagramKind, data json.RawMessage) (*GraphPayload, *Report, error) {
	report := &Report{Kind: kind}

	var raw struct {
		Nodes *[]GraphNode `json:"nodes"`
		Links *[]GraphLink `json:"links"`
		Edges *[]GraphLink `json:"edges"` // older backends name the collection "edges"
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &MalformedPayloadError{Err: err}
	}
	if raw.Nodes == nil {
		return nil, nil, &MissingCollectionError{Kind: kind, Collection: "nodes"}
	}

	links := raw.Links
	if links == nil {
		links = raw.Edges
	}
	if links == nil {
		slog.Warn("diagram payload missing optional collection, defaulting to empty",
			"kind", kind, "collection", "links")
		links = &[]GraphLink{}
	}

	p := &GraphPayload{
		Nodes: make([]GraphNode, 0, len(*raw.Nodes)),
		Links: make([]GraphLink, 0, len(*links)),
	}

	ids := make(map[string]bool, len(*raw.Nodes))
	for _, n := range *raw.Nodes {
		if n.ID == "" {
			report.drop("nodes", "", "node has no id")
			continue
		}
		if ids[n.ID] {
			report.drop("nodes", n.ID, "duplicate node id")
			continue
		}
		ids[n.ID] = true
		p.Nodes = append(p.Nodes, n)
	}

	for _, l := range *links {
		switch {
		case !ids[l.Source]:
			report.drop("links", l.Source+"->"+l.Target, "source references missing node")
		case !ids[l.Target]:
			report.drop("links", l.Source+"->"+l.Target, "target references missing node")
		default:
			p.Links = append(p.Links, l)
		}
	}

	return p, report, nil
}

// ValidateRoadmap checks a roadmap payload. Sprints with unparseable dates
// or end < start are filtered out, never fatal. A missing sprints
// collection is fatal.
func ValidateRoadmap(data json.RawMessage) (*RoadmapPayload, *Report, error) {
	report := &Report{Kind: KindRoadmap}

	var raw struct {
		Sprints *[]Sprint `json:"sprints"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &MalformedPayloadError{Err: err}
	}
	if raw.Sprints == nil {
		return nil, nil, &MissingCollectionError{Kind: KindRoadmap, Collection: "sprints"}
	}

	p := &RoadmapPayload{Sprints: make([]Sprint, 0, len(*raw.Sprints))}
	for _, s := range *raw.Sprints {
		start, end, err := s.Dates()
		if err != nil {
			report.drop("sprints", s.ID, err.Error())
			continue
		}
		if end.Before(start) {
			report.drop("sprints", s.ID, "end date before start date")
			continue
		}
		p.Sprints = append(p.Sprints, s)
	}

	return p, report, nil
}

// Dates parses the sprint's start and end dates. Both "2006-01-02" and
// RFC 3339 timestamps are accepted.
func (s Sprint) Dates() (start, end time.Time, err error) {
	start, err = parseDate(s.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	end, err = parseDate(s.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}
	return start, end, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// ValidateArch checks an architecture payload. A missing layers collection
// is fatal; missing connections default to empty with a logged warning.
// Connections referencing unknown components are dropped.
func ValidateArch(data json.RawMessage) (*ArchPayload, *Report, error) {
	report := &Report{Kind: KindArchitecture}

	var raw struct {
		Layers      *[]Layer      `json:"layers"`
		Connections *[]Connection `json:"connections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &MalformedPayloadError{Err: err}
	}
	if raw.Layers == nil {
		return nil, nil, &MissingCollectionError{Kind: KindArchitecture, Collection: "layers"}
	}
	conns := raw.Connections
	if conns == nil {
		slog.Warn("diagram payload missing optional collection, defaulting to empty",
			"kind", KindArchitecture, "collection", "connections")
		conns = &[]Connection{}
	}

	p := &ArchPayload{Layers: make([]Layer, 0, len(*raw.Layers))}
	components := make(map[string]bool)
	for _, l := range *raw.Layers {
		if l.Name == "" {
			report.drop("layers", "", "layer has no name")
			continue
		}
		for _, c := range l.Components {
			components[c] = true
		}
		p.Layers = append(p.Layers, l)
	}

	p.Connections = make([]Connection, 0, len(*conns))
	for _, c := range *conns {
		switch {
		case !components[c.From]:
			report.drop("connections", c.From+"->"+c.To, "from references missing component")
		case !components[c.To]:
			report.drop("connections", c.From+"->"+c.To, "to references missing component")
		default:
			p.Connections = append(p.Connections, c)
		}
	}

	return p, report, nil
}

// ValidateUML checks a UML payload. A missing classes collection is fatal;
// unnamed classes are dropped.
func ValidateUML(data json.RawMessage) (*UMLPayload, *Report, error) {
	report := &Report{Kind: KindUML}

	var raw struct {
		Classes *[]UMLClass `json:"classes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &MalformedPayloadError{Err: err}
	}
	if raw.Classes == nil {
		return nil, nil, &MissingCollectionError{Kind: KindUML, Collection: "classes"}
	}

	p := &UMLPayload{Classes: make([]UMLClass, 0, len(*raw.Classes))}
	for _, c := range *raw.Classes {
		if c.Name == "" {
			report.drop("classes", "", "class has no name")
			continue
		}
		p.Classes = append(p.Classes, c)
	}

	return p, report, nil
}

// ValidateSeries checks a burndown/velocity payload. A missing points
// collection is fatal; unlabeled points are dropped.
func ValidateSeries(kind DiagramKind, data json.RawMessage) (*SeriesPayload, *Report, error) {
	report := &Report{Kind: kind}

	var raw struct {
		Points *[]SeriesPoint `json:"points"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &MalformedPayloadError{Err: err}
	}
	if raw.Points == nil {
		return nil, nil, &MissingCollectionError{Kind: kind, Collection: "points"}
	}

	p := &SeriesPayload{Points: make([]SeriesPoint, 0, len(*raw.Points))}
	for _, pt := range *raw.Points {
		if pt.Label == "" {
			report.drop("points", "", "point has no label")
			continue
		}
		p.Points = append(p.Points, pt)
	}

	return p, report, nil
}
