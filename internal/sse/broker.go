// Package sse streams note and editing-session events to browsers as
// Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/starford/quire/internal/session"
)

// Event is one message on the stream. Path and Session are routing keys
// for subscriber filters and are not part of the payload.
type Event struct {
	Type    string `json:"type"`
	Path    string `json:"-"`
	Session string `json:"-"`
	Data    any    `json:"data"`
}

// Event types emitted by the broker itself.
const (
	TypeNoteCreated  = "note.created"
	TypeNoteUpdated  = "note.updated"
	TypeNoteDeleted  = "note.deleted"
	TypeTasksUpdated = "tasks.updated"
)

// Filter narrows a subscription. Empty fields match everything.
type Filter struct {
	Path    string
	Session string
}

func (f Filter) match(ev Event) bool {
	if f.Path != "" && f.Path != ev.Path {
		return false
	}
	return f.Session == "" || f.Session == ev.Session
}

// Option configures a Broker.
type Option func(*Broker)

// WithKeepAlive sets the interval of comment pings that keep idle
// connections open through proxies. Zero disables them.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) { b.keepAlive = d }
}

// WithRetry sets the reconnect delay advertised to clients.
func WithRetry(d time.Duration) Option {
	return func(b *Broker) { b.retry = d }
}

type subscription struct {
	ch     chan []byte
	filter Filter
}

type noteEventReq struct {
	kind string
	path string
}

var pingMsg = []byte(": ping\n\n")

// Broker fans events out to SSE clients.
//
// A single loop goroutine owns the client set, the event sequence and the
// tasks.updated throttle. Public methods talk to it through channels.
type Broker struct {
	tasksMin  time.Duration
	keepAlive time.Duration
	retry     time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan noteEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits tasks.updated at most once per
// throttle interval.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		tasksMin:      throttle,
		keepAlive:     30 * time.Second,
		retry:         3 * time.Second,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan noteEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// frame renders an event in wire format.
func frame(id uint64, ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(id, 10))
	buf.WriteString("\nevent: ")
	buf.WriteString(ev.Type)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]Filter)
	var (
		seq       uint64
		lastTasks time.Time
	)

	// A full client buffer drops the message rather than stall the loop.
	send := func(ch chan []byte, msg []byte) {
		select {
		case ch <- msg:
		default:
		}
	}

	broadcast := func(ev Event) {
		seq++
		msg, err := frame(seq, ev)
		if err != nil {
			return
		}
		for ch, f := range clients {
			if f.match(ev) {
				send(ch, msg)
			}
		}
	}

	var tick <-chan time.Time
	if b.keepAlive > 0 {
		ticker := time.NewTicker(b.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.filter

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)

		case req := <-b.noteEventCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeNoteCreated, Path: req.path, Data: data})
			case "updated":
				broadcast(Event{Type: TypeNoteUpdated, Path: req.path, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeNoteDeleted, Path: req.path, Data: data})
			}

			now := time.Now()
			if now.Sub(lastTasks) >= b.tasksMin {
				lastTasks = now
				broadcast(Event{Type: TypeTasksUpdated, Path: req.path, Data: data})
			}

		case <-tick:
			for ch := range clients {
				send(ch, pingMsg)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client and returns its message channel. The channel
// is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(f Filter) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, filter: f}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to every matching client.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note change and a throttled tasks.updated
// event. kind is "created", "updated" or "deleted"; any other kind only
// counts towards tasks.updated.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- noteEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events). The optional
// path and session query parameters narrow the stream.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	filter := Filter{Path: q.Get("path"), Session: q.Get("session")}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if b.retry > 0 {
		_, _ = fmt.Fprintf(w, "retry: %d\n\n", b.retry.Milliseconds())
	}
	flusher.Flush()

	ch := b.Subscribe(filter)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Notify forwards a session event. Buffer changes also count towards the
// throttled tasks.updated event.
func (b *Broker) Notify(ev session.Event) {
	b.Publish(Event{Type: ev.Type, Path: ev.Path, Session: ev.SessionID, Data: ev})
	switch ev.Type {
	case session.EventChanged, session.EventReloaded:
		b.PublishNoteEvent("session", ev.Path)
	}
}

var _ session.Notifier = (*Broker)(nil)
