package editor

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Listener kinds reported in UnexpectedError.
const (
	ListenerKeyDown       = "key-down"
	ListenerMouseDown     = "mouse-down"
	ListenerContentChange = "content-change"
)

// UnexpectedError describes a listener that panicked. The panic is
// contained: remaining listeners still run.
type UnexpectedError struct {
	Listener string
	Value    any
	Stack    []byte
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("editor: %s listener panicked: %v", e.Listener, e.Value)
}

// OnUnexpectedError registers fn to be told about contained listener
// panics.
func (m *Model) OnUnexpectedError(fn func(*UnexpectedError)) Disposable {
	return m.unexpected.add(fn)
}

// guard runs one listener call, turning a panic into a logged
// UnexpectedError.
func (m *Model) guard(listener string, call func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e := &UnexpectedError{Listener: listener, Value: r, Stack: debug.Stack()}
		m.logger().Error("editor listener panicked",
			slog.String("listener", listener),
			slog.String("error", fmt.Sprint(r)),
			slog.String("stack", string(e.Stack)))
		m.reportUnexpected(e)
	}()
	call()
}

func (m *Model) reportUnexpected(e *UnexpectedError) {
	for _, fn := range m.unexpected.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger().Error("unexpected-error listener panicked", slog.String("error", fmt.Sprint(r)))
				}
			}()
			fn(e)
		}()
	}
}

func (m *Model) logger() *slog.Logger {
	if m.opt.Logger != nil {
		return m.opt.Logger
	}
	return slog.Default()
}
