// Package server exposes the diagram pipeline over HTTP: generation and
// export endpoints, the GitHub integration cache, and an SSE event stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/events"
	"github.com/planfold/plotd/internal/export"
	"github.com/planfold/plotd/internal/github"
	"github.com/planfold/plotd/internal/render"
)

// DiagramServer wires the backend client, the renderer and exporter, the
// GitHub integration cache, and the event publisher behind the HTTP API.
type DiagramServer struct {
	backend   client.DiagramClient
	exporter  *export.Exporter
	cache     *github.Cache
	publisher events.Publisher
	sseHub    *sseHub

	// uploader, when set, mirrors successful exports to S3.
	uploader *export.S3Destination

	renderOpts render.Options
}

// NewDiagramServer returns a server backed by the given client and publisher.
func NewDiagramServer(backend client.DiagramClient, p events.Publisher) *DiagramServer {
	fetcher, _ := backend.(github.Fetcher)
	var cache *github.Cache
	if fetcher != nil {
		cache = github.NewCache(fetcher)
	}
	return &DiagramServer{
		backend:   backend,
		exporter:  export.NewExporter(),
		cache:     cache,
		publisher: p,
		sseHub:    newSSEHub(),
	}
}

// SetUploader enables mirroring of successful exports to an S3 destination.
func (s *DiagramServer) SetUploader(u *export.S3Destination) { s.uploader = u }

// Cache exposes the integration cache (nil when the backend cannot fetch
// integrations).
func (s *DiagramServer) Cache() *github.Cache { return s.cache }

// publishAndBroadcast emits an event to NATS and fans it out to connected
// SSE clients. Both paths are best-effort; failures are logged but do not
// block the caller.
func (s *DiagramServer) publishAndBroadcast(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// broadcastEvent fans an event out to connected SSE clients, tagging the
// stream envelope with the pipeline request id when the event carries one.
func (s *DiagramServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	var meta struct {
		RequestID string `json:"request_id"`
	}
	_ = json.Unmarshal(payload, &meta)
	s.sseHub.broadcast(topic, meta.RequestID, payload)
}
