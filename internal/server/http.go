package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/events"
	"github.com/planfold/plotd/internal/export"
	"github.com/planfold/plotd/internal/idgen"
	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *DiagramServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/diagrams/generate", s.handleGenerateDiagram)
	mux.HandleFunc("POST /v1/diagrams/export", s.handleExportDiagram)
	mux.HandleFunc("GET /v1/projects/{id}/integration", s.handleGetIntegration)
	mux.HandleFunc("POST /v1/projects/{id}/integration/refresh", s.handleRefreshIntegration)
	mux.HandleFunc("POST /v1/projects/{id}/integration/sync", s.handleSyncCommits)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *DiagramServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generateResponse is the JSON shape of a successful generation.
type generateResponse struct {
	RequestID string                 `json:"request_id"`
	Kind      model.DiagramKind      `json:"diagram_type"`
	Format    model.Format           `json:"format"`
	Cached    bool                   `json:"cached"`
	Data      json.RawMessage        `json:"data,omitempty"`
	Dropped   []model.DroppedElement `json:"dropped,omitempty"`
}

// handleGenerateDiagram handles POST /v1/diagrams/generate. The interactive
// endpoint serves json (normalized payload plus validation report) and svg
// (locally rendered markup); raster formats go through export.
func (s *DiagramServer) handleGenerateDiagram(w http.ResponseWriter, r *http.Request) {
	var req model.DiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Kind.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown diagram_type %q", req.Kind))
		return
	}
	if req.Format != model.FormatJSON && req.Format != model.FormatSVG {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("format %q not supported for generation; use the export endpoint", req.Format))
		return
	}

	requestID, err := idgen.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generating request id: "+err.Error())
		return
	}

	ctx := r.Context()
	// Always fetch structured json from the backend; for vector formats it
	// would reply with raw markup, which has no place in the local render
	// path. SVG output is produced here from the json payload.
	upstream := req
	upstream.Format = model.FormatJSON
	resp, err := s.backend.GenerateDiagram(ctx, &upstream)
	if err != nil {
		s.publishAndBroadcast(ctx, events.TopicRenderFailed, renderFailedEvent(requestID, &req, err))
		writeUpstreamError(w, err)
		return
	}

	scene, report, err := render.Render(req.Kind, resp.Data, s.renderOpts)
	if err != nil {
		s.publishAndBroadcast(ctx, events.TopicRenderFailed, renderFailedEvent(requestID, &req, err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	report.Log()

	s.publishAndBroadcast(ctx, events.TopicRenderCompleted, events.RenderCompleted{
		RequestID: requestID,
		Kind:      req.Kind,
		Target:    req.Target,
		Cached:    resp.Cached,
		Dropped:   len(report.Dropped),
	})

	if req.Format == model.FormatSVG {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("X-Request-Id", requestID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(scene.SVG())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		RequestID: requestID,
		Kind:      req.Kind,
		Format:    req.Format,
		Cached:    resp.Cached,
		Data:      resp.Data,
		Dropped:   report.Dropped,
	})
}

// exportRequest extends the diagram request with the project name used to
// build the download filename.
type exportRequest struct {
	model.DiagramRequest
	ProjectName string `json:"project_name,omitempty"`
}

// handleExportDiagram handles POST /v1/diagrams/export. The response body is
// the exported file itself with a Content-Disposition attachment header.
func (s *DiagramServer) handleExportDiagram(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Kind.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown diagram_type %q", req.Kind))
		return
	}
	if !req.Format.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", req.Format))
		return
	}

	requestID, err := idgen.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generating request id: "+err.Error())
		return
	}

	ctx := r.Context()

	// PDF is produced by the backend; pass the bytes through.
	if req.Format == model.FormatPDF {
		payload, err := s.backend.ExportDiagram(ctx, &req.DiagramRequest)
		if err != nil {
			s.publishAndBroadcast(ctx, events.TopicExportFailed, exportFailedEvent(requestID, &req, err))
			writeUpstreamError(w, err)
			return
		}
		filename := export.Filename(req.ProjectName, req.Kind, model.FormatPDF, time.Now())
		s.publishAndBroadcast(ctx, events.TopicExportCompleted, events.ExportCompleted{
			RequestID: requestID,
			Kind:      req.Kind,
			Format:    req.Format,
			Filename:  filename,
			Bytes:     len(payload.Data),
		})
		writeAttachment(w, requestID, filename, "application/pdf", payload.Data)
		return
	}

	// Fetch json regardless of the export format; svg and png are both
	// produced from the locally rendered scene.
	genReq := req.DiagramRequest
	genReq.Format = model.FormatJSON
	resp, err := s.backend.GenerateDiagram(ctx, &genReq)
	if err != nil {
		s.publishAndBroadcast(ctx, events.TopicExportFailed, exportFailedEvent(requestID, &req, err))
		writeUpstreamError(w, err)
		return
	}

	scene, report, err := render.Render(req.Kind, resp.Data, s.renderOpts)
	if err != nil {
		s.publishAndBroadcast(ctx, events.TopicExportFailed, exportFailedEvent(requestID, &req, err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	report.Log()

	var result export.Result
	switch req.Format {
	case model.FormatSVG:
		result = s.exporter.SVG(scene.SVG(), req.ProjectName, req.Kind)
	case model.FormatPNG:
		result = s.exporter.PNG(scene, scene.SVG(), req.ProjectName, req.Kind)
	default:
		result = s.exporter.JSON(resp.Data, req.ProjectName, req.Kind)
	}

	if !result.Success {
		s.publishAndBroadcast(ctx, events.TopicExportFailed, exportFailedEvent(requestID, &req, result.Err))
		writeError(w, http.StatusInternalServerError, result.Err.Error())
		return
	}

	if s.uploader != nil {
		if err := s.uploader.Upload(ctx, result, req.Format); err != nil {
			// Upload is a mirror, not the primary delivery path.
			slog.Warn("export upload failed", "request_id", requestID, "filename", result.Filename, "error", err)
		}
	}

	s.publishAndBroadcast(ctx, events.TopicExportCompleted, events.ExportCompleted{
		RequestID: requestID,
		Kind:      req.Kind,
		Format:    req.Format,
		Filename:  result.Filename,
		Bytes:     len(result.Data),
	})
	writeAttachment(w, requestID, result.Filename, contentTypeFor(req.Format), result.Data)
}

// integrationResponse pairs an integration record (possibly null) with the
// cache lifecycle state it was served from.
type integrationResponse struct {
	Integration *model.Integration `json:"integration"`
	State       string             `json:"state"`
}

// handleGetIntegration handles GET /v1/projects/{id}/integration.
func (s *DiagramServer) handleGetIntegration(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "integration cache unavailable")
		return
	}
	projectID := r.PathValue("id")

	integ, err := s.cache.GetStatus(r.Context(), projectID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, integrationResponse{
		Integration: integ,
		State:       string(s.cache.StateFor(projectID)),
	})
}

// handleRefreshIntegration handles POST /v1/projects/{id}/integration/refresh.
func (s *DiagramServer) handleRefreshIntegration(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "integration cache unavailable")
		return
	}
	projectID := r.PathValue("id")

	integ, err := s.cache.ForceRefresh(r.Context(), projectID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	evt := events.GitHubRefreshed{ProjectID: projectID}
	if integ != nil {
		evt.Repository = integ.Repository
		evt.Active = integ.Active
	}
	s.publishAndBroadcast(r.Context(), events.TopicGitHubRefreshed, evt)

	writeJSON(w, http.StatusOK, integrationResponse{
		Integration: integ,
		State:       string(s.cache.StateFor(projectID)),
	})
}

// handleSyncCommits handles POST /v1/projects/{id}/integration/sync. The
// cached status is invalidated so the next read reflects the new sync time.
func (s *DiagramServer) handleSyncCommits(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")

	result, err := s.backend.SyncCommits(r.Context(), projectID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if s.cache != nil {
		s.cache.Clear(projectID)
	}

	s.publishAndBroadcast(r.Context(), events.TopicGitHubSynced, events.GitHubSynced{
		ProjectID: projectID,
		Synced:    result.SyncedCount,
		Total:     result.TotalCommits,
	})
	writeJSON(w, http.StatusOK, result)
}

// --- helpers ---

func renderFailedEvent(requestID string, req *model.DiagramRequest, err error) events.RenderFailed {
	evt := events.RenderFailed{
		RequestID: requestID,
		Kind:      req.Kind,
		Target:    req.Target,
		Error:     err.Error(),
	}
	var be *model.BackendError
	if errors.As(err, &be) {
		evt.Code = be.Code
	}
	return evt
}

func exportFailedEvent(requestID string, req *exportRequest, err error) events.ExportFailed {
	return events.ExportFailed{
		RequestID: requestID,
		Kind:      req.Kind,
		Format:    req.Format,
		Error:     err.Error(),
	}
}

// writeUpstreamError maps backend/client failures onto this API's responses.
// Machine-readable backend codes are forwarded so callers can pick the
// right remediation; transport errors keep their status when they carry one.
func writeUpstreamError(w http.ResponseWriter, err error) {
	var be *model.BackendError
	if errors.As(err, &be) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": be.Message,
			"code":  string(be.Code),
		})
		return
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeAttachment(w http.ResponseWriter, requestID, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Request-Id", requestID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentTypeFor(format model.Format) string {
	switch format {
	case model.FormatSVG:
		return "image/svg+xml"
	case model.FormatPNG:
		return "image/png"
	case model.FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
