// Package client provides a transport-agnostic interface for the diagram
// backend and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/planfold/plotd/internal/model"
)

// DiagramClient is the interface the CLI and server use to talk to the
// project-management backend. Implemented by HTTPClient.
type DiagramClient interface {
	// Diagrams. Generate targets the interactive-quality endpoint; Export
	// targets the download-quality endpoint. Neither retries automatically;
	// backend errors surface verbatim to the caller.
	GenerateDiagram(ctx context.Context, req *model.DiagramRequest) (*model.DiagramResponse, error)
	ExportDiagram(ctx context.Context, req *model.DiagramRequest) (*ExportPayload, error)

	// GitHub integrations.
	ListIntegrations(ctx context.Context) ([]*model.Integration, error)
	GetIntegration(ctx context.Context, projectID string) (*model.Integration, error)
	CreateIntegration(ctx context.Context, req *CreateIntegrationRequest) (*model.Integration, error)
	UpdateIntegration(ctx context.Context, id string, req *UpdateIntegrationRequest) (*model.Integration, error)
	DeleteIntegration(ctx context.Context, id string) error
	SyncCommits(ctx context.Context, projectID string) (*model.SyncResult, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// ExportPayload is the result of an export call. For vector and text
// formats the backend may reply with a raw (non-JSON-wrapped) body; Raw is
// true in that case and Data holds the body verbatim. Otherwise Data is
// the normalized structured payload.
type ExportPayload struct {
	Format model.Format
	Cached bool
	Raw    bool
	Data   []byte
}

// CreateIntegrationRequest holds parameters for creating a GitHub
// integration record.
type CreateIntegrationRequest struct {
	ProjectID  string `json:"project_id"`
	Repository string `json:"repository"`
	Branch     string `json:"branch,omitempty"`
	Token      string `json:"token,omitempty"`
}

// UpdateIntegrationRequest holds optional parameters for updating an
// integration. Nil pointer fields mean "don't change".
type UpdateIntegrationRequest struct {
	Repository *string `json:"repository,omitempty"`
	Branch     *string `json:"branch,omitempty"`
	Active     *bool   `json:"active,omitempty"`
	Token      *string `json:"token,omitempty"`
}
