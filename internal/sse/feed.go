// Package sse streams stored-crate notices to HTTP clients. The most recent
// notices are retained, so a client that connects late or reconnects with
// Last-Event-ID is sent what it missed before the live stream.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// EventCrateInserted is the SSE event name of every notice.
const EventCrateInserted = "crate.inserted"

// DefaultBacklog is the number of notices retained when NewFeed is given a
// non-positive size.
const DefaultBacklog = 64

// clientBuffer bounds how far a client may lag before it is disconnected.
const clientBuffer = 16

// CrateInserted describes a crate the ingestion API stored.
type CrateInserted struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notice is a CrateInserted with its position in the feed. Seq starts at 1
// and is the SSE event id.
type Notice struct {
	Seq   uint64
	Crate CrateInserted
}

// Feed retains recent notices and fans new ones out to subscribers.
type Feed struct {
	mu      sync.Mutex
	seq     uint64
	limit   int
	backlog []Notice
	clients map[chan Notice]struct{}
	closed  bool
}

// NewFeed returns a feed retaining the last backlog notices.
func NewFeed(backlog int) *Feed {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Feed{
		limit:   backlog,
		backlog: make([]Notice, 0, backlog),
		clients: make(map[chan Notice]struct{}),
	}
}

// PublishInserted appends a notice and delivers it to every subscriber. A
// subscriber whose buffer is full is disconnected rather than stalling the
// publisher; it can resume from its last event id.
func (f *Feed) PublishInserted(c CrateInserted) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.seq++
	n := Notice{Seq: f.seq, Crate: c}
	if len(f.backlog) == f.limit {
		copy(f.backlog, f.backlog[1:])
		f.backlog = f.backlog[:f.limit-1]
	}
	f.backlog = append(f.backlog, n)

	for ch := range f.clients {
		select {
		case ch <- n:
		default:
			delete(f.clients, ch)
			close(ch)
		}
	}
}

// Subscribe returns the retained notices after seq and a channel carrying
// every later one. An after beyond the newest notice comes from an earlier
// process and is treated as 0. The channel is closed by cancel, by Close,
// or when the subscriber falls behind.
func (f *Feed) Subscribe(after uint64) ([]Notice, <-chan Notice, func()) {
	ch := make(chan Notice, clientBuffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return nil, ch, func() {}
	}
	if after > f.seq {
		after = 0
	}
	var missed []Notice
	for _, n := range f.backlog {
		if n.Seq > after {
			missed = append(missed, n)
		}
	}
	f.clients[ch] = struct{}{}

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.clients[ch]; ok {
			delete(f.clients, ch)
			close(ch)
		}
	}
	return missed, ch, cancel
}

// Close disconnects every subscriber. Later publishes are dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.clients {
		close(ch)
	}
	clear(f.clients)
}

// ServeHTTP streams notices as server-sent events (GET /api/events),
// starting after the request's Last-Event-ID.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	after, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	missed, live, cancel := f.Subscribe(after)
	defer cancel()

	for _, n := range missed {
		if err := writeNotice(w, n); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-live:
			if !ok {
				return
			}
			if err := writeNotice(w, n); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeNotice(w http.ResponseWriter, n Notice) error {
	data, err := json.Marshal(n.Crate)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", n.Seq, EventCrateInserted, data)
	return err
}
