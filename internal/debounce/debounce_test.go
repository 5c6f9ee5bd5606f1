package debounce

import (
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_BurstFiresOnceWithLatest(t *testing.T) {
	var rec recorder
	d := New(30*time.Millisecond, rec.record)
	defer d.Stop()

	for _, s := range []string{"a", "ab", "abc"} {
		d.Call(s)
	}
	eventually(t, time.Second, 5*time.Millisecond, func() bool {
		return len(rec.snapshot()) == 1
	}, "debounced call never fired")

	time.Sleep(60 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != "abc" {
		t.Errorf("calls = %v, want [abc]", calls)
	}
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	var rec recorder
	d := New(20*time.Millisecond, rec.record)
	defer d.Stop()

	d.Call("one")
	eventually(t, time.Second, 5*time.Millisecond, func() bool { return len(rec.snapshot()) == 1 }, "first burst not fired")
	d.Call("two")
	eventually(t, time.Second, 5*time.Millisecond, func() bool { return len(rec.snapshot()) == 2 }, "second burst not fired")

	calls := rec.snapshot()
	if calls[0] != "one" || calls[1] != "two" {
		t.Errorf("calls = %v", calls)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var rec recorder
	d := New(time.Hour, rec.record)
	defer d.Stop()

	if d.Flush() {
		t.Error("flush with nothing pending should report false")
	}
	d.Call("x")
	if !d.Pending() {
		t.Fatal("expected pending call")
	}
	if !d.Flush() {
		t.Fatal("flush should run the pending call")
	}
	if calls := rec.snapshot(); len(calls) != 1 || calls[0] != "x" {
		t.Errorf("calls = %v", calls)
	}
	if d.Pending() {
		t.Error("nothing should be pending after flush")
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	var rec recorder
	d := New(20*time.Millisecond, rec.record)
	d.Call("lost")
	d.Stop()
	d.Call("ignored")

	time.Sleep(60 * time.Millisecond)
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
	if d.Flush() {
		t.Error("flush after stop should have nothing to run")
	}
}

func TestNew_DefaultWait(t *testing.T) {
	d := New(0, func(string) {})
	if d.wait != DefaultWait {
		t.Errorf("wait = %v, want %v", d.wait, DefaultWait)
	}
}

func TestDebouncer_CancelKeepsUsable(t *testing.T) {
	var rec recorder
	d := New(20*time.Millisecond, rec.record)
	defer d.Stop()

	d.Call("dropped")
	if !d.Cancel() {
		t.Fatal("Cancel should report the pending call")
	}
	if d.Cancel() {
		t.Error("second Cancel should find nothing pending")
	}
	d.Call("kept")
	eventually(t, time.Second, 5*time.Millisecond, func() bool {
		return len(rec.snapshot()) == 1
	}, "call after Cancel never fired")
	time.Sleep(40 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 || got[0] != "kept" {
		t.Errorf("calls = %q, want [kept]", got)
	}
}
