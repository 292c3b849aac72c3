package events

import (
	"context"

	"github.com/planfold/plotd/internal/model"
)

// Event topic constants
const (
	TopicRenderCompleted = "diagrams.render.completed"
	TopicRenderFailed    = "diagrams.render.failed"
	TopicExportCompleted = "diagrams.export.completed"
	TopicExportFailed    = "diagrams.export.failed"
	TopicGitHubSynced    = "diagrams.github.synced"
	TopicGitHubRefreshed = "diagrams.github.refreshed"
)

// Event types

type RenderCompleted struct {
	RequestID string            `json:"request_id"`
	Kind      model.DiagramKind `json:"diagram_type"`
	Target    string            `json:"target"`
	Cached    bool              `json:"cached"`
	Dropped   int               `json:"dropped,omitempty"` // elements discarded during validation
}

type RenderFailed struct {
	RequestID string            `json:"request_id"`
	Kind      model.DiagramKind `json:"diagram_type"`
	Target    string            `json:"target"`
	Code      model.ErrorCode   `json:"code,omitempty"`
	Error     string            `json:"error"`
}

type ExportCompleted struct {
	RequestID string            `json:"request_id"`
	Kind      model.DiagramKind `json:"diagram_type"`
	Format    model.Format      `json:"format"`
	Filename  string            `json:"filename"`
	Bytes     int               `json:"bytes"`
}

type ExportFailed struct {
	RequestID string            `json:"request_id"`
	Kind      model.DiagramKind `json:"diagram_type"`
	Format    model.Format      `json:"format"`
	Error     string            `json:"error"`
}

type GitHubSynced struct {
	ProjectID  string `json:"project_id"`
	Repository string `json:"repository,omitempty"`
	Synced     int    `json:"synced_count"`
	Total      int    `json:"total_commits"`
}

type GitHubRefreshed struct {
	ProjectID  string `json:"project_id"`
	Repository string `json:"repository,omitempty"`
	Active     bool   `json:"active"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
