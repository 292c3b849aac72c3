package model

import (
	"encoding/json"
	"time"
)

// DiagramKind selects the backend generation logic and the client-side
// rendering strategy for a diagram.
type DiagramKind string

const (
	KindWorkflow     DiagramKind = "workflow"
	KindDependency   DiagramKind = "dependency"
	KindRoadmap      DiagramKind = "roadmap"
	KindUML          DiagramKind = "uml"
	KindArchitecture DiagramKind = "architecture"
	KindBurndown     DiagramKind = "burndown"
	KindVelocity     DiagramKind = "velocity"
)

// String returns the string representation of the kind.
func (k DiagramKind) String() string {
	return string(k)
}

// IsValid checks whether the kind is a known value.
func (k DiagramKind) IsValid() bool {
	switch k {
	case KindWorkflow, KindDependency, KindRoadmap, KindUML,
		KindArchitecture, KindBurndown, KindVelocity:
		return true
	}
	return false
}

// UsesForceLayout reports whether the kind is rendered with the
// force-directed graph layout (as opposed to a fixed layout).
func (k DiagramKind) UsesForceLayout() bool {
	return k == KindWorkflow || k == KindDependency
}

// Format is the requested output format for a diagram.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid checks whether the format is a known value.
func (f Format) IsValid() bool {
	switch f {
	case FormatSVG, FormatPNG, FormatPDF, FormatJSON:
		return true
	}
	return false
}

// Extension returns the file extension used for exported files.
func (f Format) Extension() string {
	return string(f)
}

// DiagramRequest describes a single diagram generation or export request.
// Requests are immutable; a new one is built per call and discarded after
// the response is handled.
type DiagramRequest struct {
	Kind   DiagramKind `json:"diagram_type"`
	Target string      `json:"target"` // project or sprint identifier
	Format Format      `json:"format"`

	// Parameters is a free-form filter bag (sprint, statuses, priorities,
	// assignee, search text). The backend interprets the keys; this side
	// only forwards them.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// DiagramResponse is the backend's reply to a generation request, after
// normalization. Data is always structured JSON here: the wire-level
// string-encoded variant is resolved by NormalizeData before a response
// is constructed.
type DiagramResponse struct {
	Kind   DiagramKind     `json:"diagram_type"`
	Format Format          `json:"format"`
	Cached bool            `json:"cached"`
	Data   json.RawMessage `json:"data"`
}

// Integration is a GitHub repository integration record for a project.
type Integration struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Repository string     `json:"repository"` // owner/name
	Branch     string     `json:"branch,omitempty"`
	Active     bool       `json:"active"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Commit is a single synced commit from a GitHub integration.
type Commit struct {
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncResult is the response of the sync-commits endpoint.
type SyncResult struct {
	Commits      []Commit   `json:"commits"`
	TotalCommits int        `json:"total_commits"`
	SyncedCount  int        `json:"synced_count"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
}
