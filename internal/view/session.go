// Package view holds per-view diagram state: the latest loaded diagram,
// its validation report, and the sequencing that keeps a stale response
// from overwriting a newer one when requests race.
package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/planfold/plotd/internal/client"
	"github.com/planfold/plotd/internal/model"
	"github.com/planfold/plotd/internal/render"
)

// Status is the view-visible lifecycle of the current diagram load.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// DiagramState is a snapshot of the session's current diagram.
type DiagramState struct {
	Status   Status
	Response *model.DiagramResponse
	Scene    *render.Scene
	Report   *model.Report
	Err      error
}

// Session owns one view's diagram state. Every Load is tagged with a
// monotonic sequence number; a response that completes after a newer
// request has been dispatched is discarded, so arrival order can never
// roll the view back to stale data.
type Session struct {
	client     client.DiagramClient
	renderOpts render.Options

	mu      sync.Mutex
	seq     uint64 // latest dispatched request
	applied uint64 // request whose result is currently shown
	state   DiagramState
}

// NewSession creates a session backed by the given client.
func NewSession(c client.DiagramClient, opts render.Options) *Session {
	return &Session{
		client:     c,
		renderOpts: opts,
		state:      DiagramState{Status: StatusIdle},
	}
}

// Load dispatches a diagram request and, when the response is still
// current, renders and applies it. The returned state is the session
// state after this load settled (which may reflect a newer request's
// outcome if this one was superseded).
func (s *Session) Load(ctx context.Context, req *model.DiagramRequest) DiagramState {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state.Status = StatusLoading
	s.mu.Unlock()

	resp, err := s.client.GenerateDiagram(ctx, req)

	var scene *render.Scene
	var report *model.Report
	if err == nil && req.Format == model.FormatJSON {
		scene, report, err = render.Render(req.Kind, resp.Data, s.renderOpts)
		if report != nil {
			report.Log()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.seq {
		// A newer request was dispatched while this one was in flight.
		slog.Debug("discarding stale diagram response", "seq", seq, "latest", s.seq)
		return s.state
	}
	s.applied = seq

	if err != nil {
		s.state = DiagramState{Status: StatusError, Err: err}
		return s.state
	}
	s.state = DiagramState{Status: StatusReady, Response: resp, Scene: scene, Report: report}
	return s.state
}

// State returns a snapshot of the current diagram state.
func (s *Session) State() DiagramState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
