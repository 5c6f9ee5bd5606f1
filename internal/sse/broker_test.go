package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/quire/internal/session"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe(Filter{})
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "note.created", Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishNoteEvent_TasksThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	// First event should trigger tasks.updated.
	b.PublishNoteEvent("created", "a.md")
	// Second event immediately should NOT trigger another tasks.updated.
	b.PublishNoteEvent("updated", "b.md")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	tasksCount := 0
	noteCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: tasks.updated") {
				tasksCount++
			} else {
				noteCount++
			}
		default:
			break loop
		}
	}

	if noteCount != 2 {
		t.Errorf("note events = %d, want 2", noteCount)
	}
	if tasksCount != 1 {
		t.Errorf("tasks events = %d, want 1 (throttled)", tasksCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "note.updated", Data: map[string]string{"path": "x.md"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("handler output missing retry hint: %q", body)
	}
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe(Filter{})
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "note.updated", Data: map[string]string{"path": "x.md"}})
	b.PublishNoteEvent("updated", "x.md")
}

func TestNotify_SessionEvents(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	b.Notify(session.Event{Type: session.EventOpened, SessionID: "s1", Path: "a.md"})
	b.Notify(session.Event{Type: session.EventChanged, SessionID: "s1", Path: "a.md"})
	b.Notify(session.Event{Type: session.EventChanged, SessionID: "s1", Path: "a.md"})

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 4 {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
		case <-timeout:
			t.Fatalf("timeout, got %d messages: %q", len(got), got)
		}
	}
	time.Sleep(50 * time.Millisecond)
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra message %q", msg)
	default:
	}

	counts := map[string]int{}
	for _, m := range got {
		for _, typ := range []string{"session.opened", "session.changed", "tasks.updated"} {
			if strings.Contains(m, "\nevent: "+typ+"\n") {
				counts[typ]++
			}
		}
		if strings.Contains(m, "\nevent: session.") && !strings.Contains(m, `"session_id":"s1"`) {
			t.Errorf("session payload missing id: %q", m)
		}
	}
	if counts["session.opened"] != 1 || counts["session.changed"] != 2 || counts["tasks.updated"] != 1 {
		t.Errorf("counts = %v, messages = %q", counts, got)
	}
}

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})

	if got := recv(t, ch); got != "id: 1\nevent: a\ndata: 1\n\n" {
		t.Errorf("first frame = %q", got)
	}
	if got := recv(t, ch); got != "id: 2\nevent: b\ndata: 2\n\n" {
		t.Errorf("second frame = %q", got)
	}
}

func TestFilter(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	byPath := b.Subscribe(Filter{Path: "a.md"})
	defer b.Unsubscribe(byPath)
	bySession := b.Subscribe(Filter{Session: "s2"})
	defer b.Unsubscribe(bySession)

	b.Notify(session.Event{Type: session.EventOpened, SessionID: "s1", Path: "a.md"})
	b.Notify(session.Event{Type: session.EventOpened, SessionID: "s2", Path: "b.md"})
	b.PublishNoteEvent("deleted", "b.md")

	if got := recv(t, byPath); !strings.Contains(got, `"session_id":"s1"`) {
		t.Errorf("path subscriber got %q", got)
	}
	if got := recv(t, bySession); !strings.Contains(got, `"session_id":"s2"`) {
		t.Errorf("session subscriber got %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	select {
	case msg := <-byPath:
		t.Errorf("path subscriber got unrelated %q", msg)
	case msg := <-bySession:
		t.Errorf("session subscriber got note event %q", msg)
	default:
	}
}

func TestKeepAlivePing(t *testing.T) {
	b := NewBroker(time.Hour, WithKeepAlive(20*time.Millisecond))
	defer b.Close()
	ch := b.Subscribe(Filter{})
	defer b.Unsubscribe(ch)

	if got := recv(t, ch); got != ": ping\n\n" {
		t.Errorf("ping = %q", got)
	}
}

func TestSSEHandler_QueryFilter(t *testing.T) {
	b := NewBroker(time.Hour, WithRetry(0))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events?path=keep.md", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	b.PublishNoteEvent("updated", "other.md")
	b.PublishNoteEvent("updated", "keep.md")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if strings.Contains(body, "other.md") || !strings.Contains(body, `"path":"keep.md"`) {
		t.Errorf("filtered body = %q", body)
	}
	if strings.HasPrefix(body, "retry:") {
		t.Errorf("retry hint written with retry disabled: %q", body)
	}
}
