package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseReplayLimit caps how many delivered events are retained for
	// Last-Event-ID reconnection.
	sseReplayLimit = 1000

	// sseKeepaliveInterval is how often keepalive comments are sent to
	// prevent connection timeouts.
	sseKeepaliveInterval = 15 * time.Second
)

// streamEvent is one delivered pipeline event. Seq orders events for
// replay; RequestID names the pipeline run the event belongs to, when it
// has one.
type streamEvent struct {
	Seq       uint64
	Topic     string
	RequestID string
	Payload   []byte // JSON-encoded event
}

// topicFilter holds pre-split topic patterns for a subscriber. An empty
// filter admits every topic.
type topicFilter [][]string

func newTopicFilter(patterns []string) topicFilter {
	var f topicFilter
	for _, p := range patterns {
		f = append(f, strings.Split(p, "."))
	}
	return f
}

func (f topicFilter) admits(topic string) bool {
	if len(f) == 0 {
		return true
	}
	segs := strings.Split(topic, ".")
	for _, pat := range f {
		if matchSegments(pat, segs) {
			return true
		}
	}
	return false
}

// matchSegments matches dot-split topic segments against a pattern:
// "*" matches exactly one segment, ">" matches one or more remaining
// segments (NATS-style), so "diagrams.render.*" admits
// "diagrams.render.completed" and "diagrams.>" admits every diagram topic.
func matchSegments(pattern, topic []string) bool {
	for i, p := range pattern {
		if p == ">" {
			return i < len(topic)
		}
		if i >= len(topic) {
			return false
		}
		if p != "*" && p != topic[i] {
			return false
		}
	}
	return len(pattern) == len(topic)
}

// sseClient is one connected stream consumer.
type sseClient struct {
	filter topicFilter
	ch     chan streamEvent
}

// sseHub fans pipeline events out to connected SSE consumers and keeps a
// bounded replay log so reconnecting clients can resume from the last
// sequence number they saw.
type sseHub struct {
	mu      sync.Mutex
	seq     uint64
	clients map[*sseClient]struct{}

	// Replay log, oldest first. Sequence numbers are contiguous, so any
	// retained event sits at offset Seq - log[0].Seq.
	log []streamEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast assigns the event a sequence number, retains it for replay,
// and delivers it to every subscriber whose filter admits the topic. Slow
// subscribers lose events rather than block delivery.
func (h *sseHub) broadcast(topic, requestID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt := streamEvent{Seq: h.seq, Topic: topic, RequestID: requestID, Payload: payload}

	h.log = append(h.log, evt)
	if len(h.log) > sseReplayLimit {
		h.log = h.log[len(h.log)-sseReplayLimit:]
	}

	for c := range h.clients {
		if !c.filter.admits(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

// subscribe registers a new consumer. Call unsubscribe when done.
func (h *sseHub) subscribe(patterns []string) *sseClient {
	c := &sseClient{
		filter: newTopicFilter(patterns),
		ch:     make(chan streamEvent, 64),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// replaySince returns retained events with Seq > last, oldest first. An
// empty result means the client is already caught up or the events it
// missed have been evicted.
func (h *sseHub) replaySince(last uint64) []streamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.log) == 0 {
		return nil
	}
	first := h.log[0].Seq
	var idx int
	if last >= first {
		idx = int(last - first + 1)
	}
	if idx >= len(h.log) {
		return nil
	}
	out := make([]streamEvent, len(h.log)-idx)
	copy(out, h.log[idx:])
	return out
}

// handleEventStream handles GET /v1/events/stream (SSE endpoint).
func (s *DiagramServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Optional comma-separated topic patterns, e.g. ?topics=diagrams.render.*
	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	client := s.sseHub.subscribe(topics)
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Replay anything the client missed since its Last-Event-ID.
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, evt := range s.sseHub.replaySince(lastID) {
				if client.filter.admits(evt.Topic) {
					writeSSEEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event. The request id rides along as a
// comment line, which EventSource consumers ignore but log scrapers can
// correlate with server-side pipeline runs.
func writeSSEEvent(w http.ResponseWriter, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.Seq)
	if evt.RequestID != "" {
		fmt.Fprintf(w, ":request-id %s\n", evt.RequestID)
	}
	fmt.Fprintf(w, "event:%s\n", evt.Topic)
	fmt.Fprintf(w, "data:%s\n\n", evt.Payload)
}
