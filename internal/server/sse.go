package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// eventLogSize bounds how far back a reconnecting client can resume.
	eventLogSize = 1000

	keepaliveEvery = 15 * time.Second

	// subscriberBuffer is how many events a slow client may lag behind
	// before it starts missing them.
	subscriberBuffer = 64
)

// streamEvent is one workspace event as sent on the stream.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// eventLog numbers events and remembers the most recent eventLogSize of them.
type eventLog struct {
	mu     sync.Mutex
	lastID uint64
	buf    []streamEvent
	head   int // index of the oldest entry once buf is full
}

func (l *eventLog) append(topic string, data []byte) streamEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	ev := streamEvent{ID: l.lastID, Topic: topic, Data: data}
	if len(l.buf) < eventLogSize {
		l.buf = append(l.buf, ev)
	} else {
		l.buf[l.head] = ev
		l.head = (l.head + 1) % eventLogSize
	}
	return ev
}

// since returns the remembered events numbered after id, oldest first.
func (l *eventLog) since(id uint64) []streamEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []streamEvent
	for i := range l.buf {
		ev := l.buf[(l.head+i)%len(l.buf)]
		if ev.ID > id {
			out = append(out, ev)
		}
	}
	return out
}

// streamSub is one connected stream client.
type streamSub struct {
	patterns []string // empty means every topic
	ch       chan streamEvent
}

func (s *streamSub) wants(topic string) bool {
	if len(s.patterns) == 0 {
		return true
	}
	for _, p := range s.patterns {
		if topicMatches(p, topic) {
			return true
		}
	}
	return false
}

// eventHub fans workspace events out to stream clients.
type eventHub struct {
	log eventLog

	mu   sync.RWMutex
	subs map[*streamSub]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[*streamSub]struct{})}
}

// broadcast records the event and offers it to every interested client.
// Clients whose buffer is full miss it; broadcast never blocks.
func (h *eventHub) broadcast(topic string, data []byte) {
	ev := h.log.append(topic, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (h *eventHub) subscribe(patterns []string) *streamSub {
	sub := &streamSub{patterns: patterns, ch: make(chan streamEvent, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *eventHub) unsubscribe(sub *streamSub) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// topicMatches reports whether a dot-separated topic matches pattern, where
// "*" stands for one segment and a trailing ">" for one or more.
func topicMatches(pattern, topic string) bool {
	for {
		p, pRest, pMore := strings.Cut(pattern, ".")
		t, tRest, tMore := strings.Cut(topic, ".")
		switch {
		case p == ">":
			return t != ""
		case p != "*" && p != t:
			return false
		case !pMore || !tMore:
			return pMore == tMore
		}
		pattern, topic = pRest, tRest
	}
}

// parsePatterns reads the comma-separated ?topics= filter.
func parsePatterns(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeStreamEvent(w io.Writer, ev streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", ev.ID, ev.Topic, ev.Data)
}

// handleEventStream serves GET /v1/events/stream as server-sent events.
// ?topics= narrows the stream; Last-Event-ID resumes after a reconnect.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := s.hub.subscribe(parsePatterns(r.URL.Query().Get("topics")))
	defer s.hub.unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribing first means nothing falls between the replay and the live
	// stream; the live side skips anything already replayed.
	var replayedTo uint64
	if last, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, ev := range s.hub.log.since(last) {
			if sub.wants(ev.Topic) {
				writeStreamEvent(w, ev)
				replayedTo = ev.ID
			}
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveEvery)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-sub.ch:
			if ev.ID <= replayedTo {
				continue
			}
			writeStreamEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}
