package model

// GraphNode is a single node in a workflow or dependency diagram.
// X/Y are assigned by the layout simulation; they are zero until the
// renderer has placed the node. Pinned nodes keep their coordinates
// through simulation ticks.
type GraphNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Type   string  `json:"type,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Count  int     `json:"count,omitempty"`
	Pinned bool    `json:"pinned,omitempty"`
}

// GraphLink is a directed edge between two graph nodes. Source and Target
// must reference existing node IDs; links that don't are dropped by the
// validator rather than failing the diagram.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
	Label  string `json:"label,omitempty"`
}

// GraphPayload is the structured data for workflow and dependency diagrams.
type GraphPayload struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Sprint is a single bar on a roadmap timeline. Dates are ISO 8601 strings
// on the wire; the validator parses them and drops entries whose end date
// precedes the start date.
type Sprint struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Color     string `json:"color,omitempty"`
}

// RoadmapPayload is the structured data for roadmap diagrams.
type RoadmapPayload struct {
	Sprints []Sprint `json:"sprints"`
}

// Layer is one horizontal band of an architecture diagram, holding the
// components grouped inside it.
type Layer struct {
	Name       string   `json:"name"`
	Components []string `json:"components"`
}

// Connection links two components across architecture layers.
type Connection struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// ArchPayload is the structured data for architecture diagrams.
type ArchPayload struct {
	Layers      []Layer      `json:"layers"`
	Connections []Connection `json:"connections"`
}

// UMLAttribute is a single attribute of a UML class.
type UMLAttribute struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Visibility string `json:"visibility,omitempty"` // "+", "-", "#"
}

// UMLMethod is a single method of a UML class.
type UMLMethod struct {
	Name       string   `json:"name"`
	Visibility string   `json:"visibility,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
}

// UMLClass is one class box in a UML diagram.
type UMLClass struct {
	Name       string         `json:"name"`
	Module     string         `json:"module,omitempty"` // file path or package
	Attributes []UMLAttribute `json:"attributes,omitempty"`
	Methods    []UMLMethod    `json:"methods,omitempty"`
	Parents    []string       `json:"parents,omitempty"`
}

// UMLPayload is the structured data for UML diagrams.
type UMLPayload struct {
	Classes []UMLClass `json:"classes"`
}

// SeriesPoint is a single data point of a burndown or velocity chart.
type SeriesPoint struct {
	Label string  `json:"label"` // date or sprint name
	Value float64 `json:"value"`
	Ideal float64 `json:"ideal,omitempty"`
}

// SeriesPayload is the structured data for burndown and velocity diagrams.
type SeriesPayload struct {
	Points []SeriesPoint `json:"points"`
}
