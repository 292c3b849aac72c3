package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/planfold/plotd/internal/events"
	"github.com/planfold/plotd/internal/model"
)

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil) // all topics
	defer hub.unsubscribe(client)

	hub.broadcast("diagrams.render.completed", "rq-1", []byte(`{"request_id":"rq-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "diagrams.render.completed" {
			t.Fatalf("expected topic=%q, got %q", "diagrams.render.completed", evt.Topic)
		}
		if string(evt.Payload) != `{"request_id":"rq-1"}` {
			t.Fatalf("expected payload=%q, got %q", `{"request_id":"rq-1"}`, string(evt.Payload))
		}
		if evt.Seq != 1 {
			t.Fatalf("expected seq=1, got %d", evt.Seq)
		}
		if evt.RequestID != "rq-1" {
			t.Fatalf("expected request id rq-1, got %q", evt.RequestID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()

	// Client only wants render events.
	client := hub.subscribe([]string{"diagrams.render.*"})
	defer hub.unsubscribe(client)

	hub.broadcast("diagrams.export.completed", "", []byte(`{"filename":"x"}`))
	hub.broadcast("diagrams.render.completed", "rq-1", []byte(`{"request_id":"rq-1"}`))

	select {
	case evt := <-client.ch:
		if evt.Topic != "diagrams.render.completed" {
			t.Fatalf("expected topic=%q, got %q", "diagrams.render.completed", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	// Ensure no more events (export.completed should have been filtered).
	select {
	case evt := <-client.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
		// Good - no extra events.
	}
}

func TestSSEHub_MultipleTopicFilters(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe([]string{"diagrams.render.*", "diagrams.export.*"})
	defer hub.unsubscribe(client)

	hub.broadcast("diagrams.render.completed", "", []byte(`{}`))
	hub.broadcast("diagrams.export.completed", "", []byte(`{}`))
	hub.broadcast("diagrams.github.synced", "", []byte(`{}`)) // should be filtered

	received := 0
	timeout := time.After(time.Second)
	for received < 2 {
		select {
		case <-client.ch:
			received++
		case <-timeout:
			t.Fatalf("expected 2 events, got %d", received)
		}
	}

	select {
	case <-client.ch:
		t.Fatal("unexpected third event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()

	client := hub.subscribe(nil)
	hub.unsubscribe(client)

	hub.broadcast("diagrams.render.completed", "", []byte(`{}`))

	select {
	case <-client.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_ReplaySince(t *testing.T) {
	hub := newSSEHub()

	// Broadcast 5 events.
	for i := range 5 {
		hub.broadcast("diagrams.render.completed", "", []byte(`{"n":`+string(rune('0'+i))+`}`))
	}

	// Events after seq 2 should be 3, 4, 5.
	evts := hub.replaySince(2)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].Seq != 3 || evts[1].Seq != 4 || evts[2].Seq != 5 {
		t.Fatalf("expected seqs [3,4,5], got [%d,%d,%d]", evts[0].Seq, evts[1].Seq, evts[2].Seq)
	}
}

func TestSSEHub_ReplaySince_Empty(t *testing.T) {
	hub := newSSEHub()
	evts := hub.replaySince(0)
	if len(evts) != 0 {
		t.Fatalf("expected 0 events, got %d", len(evts))
	}
}

func TestSSEHub_ReplaySince_AllNew(t *testing.T) {
	hub := newSSEHub()
	hub.broadcast("diagrams.render.completed", "", []byte(`{}`))
	hub.broadcast("diagrams.render.failed", "", []byte(`{}`))

	evts := hub.replaySince(0)
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
}

func TestSSEHub_ReplaySince_CaughtUp(t *testing.T) {
	hub := newSSEHub()
	hub.broadcast("diagrams.render.completed", "", []byte(`{}`))

	if evts := hub.replaySince(1); len(evts) != 0 {
		t.Fatalf("caught-up client should replay nothing, got %d events", len(evts))
	}
}

func TestSSEHub_ReplayLogEviction(t *testing.T) {
	hub := newSSEHub()

	// Exceed the retention limit to force eviction of the oldest events.
	for range sseReplayLimit + 100 {
		hub.broadcast("diagrams.render.completed", "", []byte(`{}`))
	}

	evts := hub.replaySince(0)
	if len(evts) != sseReplayLimit {
		t.Fatalf("expected %d events, got %d", sseReplayLimit, len(evts))
	}
	// 100 were evicted, so the oldest retained seq is 101.
	if evts[0].Seq != 101 {
		t.Fatalf("expected oldest seq=101, got %d", evts[0].Seq)
	}
}

func TestTopicFilter(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"diagrams.render.completed", "diagrams.render.completed", true},
		{"diagrams.render.completed", "diagrams.render.failed", false},
		{"diagrams.render.*", "diagrams.render.completed", true},
		{"diagrams.render.*", "diagrams.render.failed", true},
		{"diagrams.render.*", "diagrams.export.completed", false},
		{"diagrams.>", "diagrams.render.completed", true},
		{"diagrams.>", "diagrams.github.synced", true},
		{"diagrams.>", "other.topic", false},
		{"*.*.*", "diagrams.render.completed", true},
		{"*.*.*", "diagrams.render", false},
	} {
		t.Run(tc.pattern+"_"+tc.topic, func(t *testing.T) {
			f := newTopicFilter([]string{tc.pattern})
			if got := f.admits(tc.topic); got != tc.want {
				t.Fatalf("filter %q admits(%q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
			}
		})
	}
}

func TestTopicFilter_EmptyAdmitsAll(t *testing.T) {
	var f topicFilter
	if !f.admits("diagrams.render.completed") || !f.admits("anything") {
		t.Fatal("empty filter must admit every topic")
	}
}

// TestHandleEventStream_SSE tests the full HTTP SSE endpoint.
func TestHandleEventStream_SSE(t *testing.T) {
	srv, _, handler := newTestServer()

	// Start the SSE request in a goroutine.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Give the handler time to register the subscription.
	time.Sleep(50 * time.Millisecond)

	// Broadcast an event.
	srv.sseHub.broadcast("diagrams.render.completed", "rq-sse1", []byte(`{"request_id":"rq-sse1"}`))

	// Give it time to be written.
	time.Sleep(50 * time.Millisecond)

	// Cancel the context to end the stream.
	cancel()
	<-done

	// Check response headers.
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected Content-Type=text/event-stream, got %q", ct)
	}

	// Parse the SSE output.
	body := rec.Body.String()
	if !strings.Contains(body, "event:diagrams.render.completed") {
		t.Fatalf("expected event:diagrams.render.completed in body, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"request_id":"rq-sse1"}`) {
		t.Fatalf("expected data with rq-sse1 in body, got:\n%s", body)
	}
	if !strings.Contains(body, "id:") {
		t.Fatalf("expected id: field in body, got:\n%s", body)
	}
	if !strings.Contains(body, ":request-id rq-sse1") {
		t.Fatalf("expected request-id comment in body, got:\n%s", body)
	}
}

// TestHandleEventStream_TopicFilter tests the ?topics= query param.
func TestHandleEventStream_TopicFilter(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream?topics=diagrams.export.*", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)

	// Broadcast a render event (should be filtered) and an export event (should pass).
	srv.sseHub.broadcast("diagrams.render.completed", "rq-1", []byte(`{"request_id":"rq-1"}`))
	srv.sseHub.broadcast("diagrams.export.completed", "rq-2", []byte(`{"filename":"x.svg"}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, "diagrams.render.completed") {
		t.Fatalf("expected render event to be filtered out, got:\n%s", body)
	}
	if !strings.Contains(body, "diagrams.export.completed") {
		t.Fatalf("expected export event in body, got:\n%s", body)
	}
}

// TestHandleEventStream_LastEventID tests reconnection with Last-Event-ID.
func TestHandleEventStream_LastEventID(t *testing.T) {
	srv, _, handler := newTestServer()

	// Pre-broadcast 3 events before connecting.
	srv.sseHub.broadcast("diagrams.render.completed", "", []byte(`{"n":1}`))
	srv.sseHub.broadcast("diagrams.render.failed", "", []byte(`{"n":2}`))
	srv.sseHub.broadcast("diagrams.export.completed", "", []byte(`{"n":3}`))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req.Header.Set("Last-Event-ID", "1") // Should replay events 2 and 3.
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	// Should contain events 2 and 3 but not event 1.
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("expected event 1 to be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) {
		t.Fatalf("expected event 2 in body, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected event 3 in body, got:\n%s", body)
	}
}

// TestHandleEventStream_PublishAndBroadcast tests that publishAndBroadcast
// fans out to SSE clients with the request id attached.
func TestHandleEventStream_PublishAndBroadcast(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)

	// Use publishAndBroadcast (which the HTTP handlers use) to emit an event.
	srv.publishAndBroadcast(context.Background(), events.TopicRenderCompleted,
		events.RenderCompleted{RequestID: "rq-sse-pb", Kind: model.KindWorkflow})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event:diagrams.render.completed") {
		t.Fatalf("expected SSE event from publishAndBroadcast, got:\n%s", body)
	}
	if !strings.Contains(body, ":request-id rq-sse-pb") {
		t.Fatalf("expected request id extracted from the typed event, got:\n%s", body)
	}
}

// TestHandleEventStream_MultipleClients verifies fan-out to multiple clients.
func TestHandleEventStream_MultipleClients(t *testing.T) {
	srv, _, handler := newTestServer()

	startClient := func() (*httptest.ResponseRecorder, context.CancelFunc, <-chan struct{}) {
		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest("GET", "/v1/events/stream", nil)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		done := make(chan struct{})
		go func() {
			defer close(done)
			handler.ServeHTTP(rec, req)
		}()
		return rec, cancel, done
	}

	rec1, cancel1, done1 := startClient()
	defer cancel1()
	rec2, cancel2, done2 := startClient()
	defer cancel2()

	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast("diagrams.render.completed", "rq-multi", []byte(`{"request_id":"rq-multi"}`))

	time.Sleep(50 * time.Millisecond)
	cancel1()
	cancel2()
	<-done1
	<-done2

	for i, rec := range []*httptest.ResponseRecorder{rec1, rec2} {
		body := rec.Body.String()
		if !strings.Contains(body, "diagrams.render.completed") {
			t.Fatalf("client %d: expected render event, got:\n%s", i+1, body)
		}
	}
}

// TestSSEEventFormat verifies the exact SSE wire format.
func TestSSEEventFormat(t *testing.T) {
	srv, _, handler := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/v1/events/stream", nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	time.Sleep(50 * time.Millisecond)
	srv.sseHub.broadcast("diagrams.render.completed", "rq-fmt", []byte(`{"request_id":"rq-fmt"}`))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	// Parse SSE events from body.
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	var id, event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "id:") {
			id = strings.TrimPrefix(line, "id:")
		} else if strings.HasPrefix(line, "event:") {
			event = strings.TrimPrefix(line, "event:")
		} else if strings.HasPrefix(line, "data:") {
			data = strings.TrimPrefix(line, "data:")
		}
	}

	if id == "" {
		t.Fatal("expected non-empty id field")
	}
	if event != "diagrams.render.completed" {
		t.Fatalf("expected event=diagrams.render.completed, got %q", event)
	}
	if !json.Valid([]byte(data)) {
		t.Fatalf("expected valid JSON data, got %q", data)
	}
	if data != `{"request_id":"rq-fmt"}` {
		t.Fatalf("expected data=%q, got %q", `{"request_id":"rq-fmt"}`, data)
	}
}
