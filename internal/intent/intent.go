// Package intent reinterprets raw key and pointer events on a plain-text
// buffer as Markdown list and task-list edits.
//
// A Dispatcher evaluates an ordered chain of named rules. The first rule that
// matches produces one edit; the dispatcher suppresses the host's default
// handling and applies the edit with a single ExecuteEdits call. When no rule
// matches the event is left alone.
package intent

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"unicode/utf8"

	"github.com/starford/quire/internal/editor"
)

// Source tags edits applied by the dispatcher.
const Source = "intent"

// Rule names reported by HandleKey and HandleMouse.
const (
	RuleAutoBracketDash      = "auto-bracket-dash"
	RuleAutoBracketDashSpace = "auto-bracket-dash-space"
	RuleEmptyItemRemoval     = "empty-item-removal"
	RuleTaskContinuation     = "task-continuation"
	RuleListContinuation     = "list-continuation"
	RuleCheckboxToggle       = "checkbox-toggle"
)

// Host is what the dispatcher reads and mutates.
type Host interface {
	editor.TextModel
	editor.CursorState
	editor.Mutator
}

// keyContext is the caret and its line at the moment a key is pressed.
type keyContext struct {
	ev      *editor.KeyEvent
	line    int
	column  int
	content string
	before  string // runes of content before the caret
	after   string
}

func (c keyContext) atEnd() bool {
	return c.column > utf8.RuneCountInString(c.content)
}

func (c keyContext) wholeLine() editor.Range {
	return editor.NewRange(
		editor.Position{LineNumber: c.line, Column: 1},
		editor.Position{LineNumber: c.line, Column: utf8.RuneCountInString(c.content) + 1},
	)
}

func (c keyContext) caret() editor.Range {
	p := editor.Position{LineNumber: c.line, Column: c.column}
	return editor.NewRange(p, p)
}

type keyRule struct {
	name  string
	apply func(c keyContext) (editor.EditOperation, bool)
}

type mouseRule struct {
	name  string
	apply func(ev *editor.MouseEvent) (editor.EditOperation, bool)
}

// Dispatcher runs the rule chains against one host.
type Dispatcher struct {
	host      Host
	logger    *slog.Logger
	tolerance int

	keyRules   []keyRule
	mouseRules []mouseRule
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for rule tracing and recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithCheckboxTolerance sets how many columns a click may miss the checkbox
// state character by and still toggle it. Negative values are ignored.
func WithCheckboxTolerance(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.tolerance = n
		}
	}
}

// New creates a Dispatcher for host.
func New(host Host, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:      host,
		logger:    slog.Default(),
		tolerance: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.keyRules = []keyRule{
		{RuleAutoBracketDash, autoBracketDash},
		{RuleAutoBracketDashSpace, autoBracketDashSpace},
		{RuleEmptyItemRemoval, emptyItemRemoval},
		{RuleTaskContinuation, taskContinuation},
		{RuleListContinuation, listContinuation},
	}
	d.mouseRules = []mouseRule{
		{RuleCheckboxToggle, d.checkboxToggle},
	}
	return d
}

// Attach subscribes the dispatcher to src's key and pointer events.
func (d *Dispatcher) Attach(src editor.EventSource) editor.Disposable {
	return editor.Disposables{
		src.OnKeyDown(func(ev *editor.KeyEvent) { d.HandleKey(ev) }),
		src.OnMouseDown(func(ev *editor.MouseEvent) { d.HandleMouse(ev) }),
	}
}

// HandleKey runs the keyboard rules and returns the name of the rule that
// was applied, or "" when the event was left to the host.
func (d *Dispatcher) HandleKey(ev *editor.KeyEvent) (applied string) {
	if ev == nil || ev.DefaultPrevented() {
		return ""
	}
	defer d.recoverPanic("key", &applied)

	p := d.host.Position()
	content := d.host.LineContent(p.LineNumber)
	cut := byteOffset(content, p.Column-1)
	c := keyContext{
		ev:      ev,
		line:    p.LineNumber,
		column:  p.Column,
		content: content,
		before:  content[:cut],
		after:   content[cut:],
	}

	for _, r := range d.keyRules {
		op, ok := r.apply(c)
		if !ok {
			continue
		}
		ev.PreventDefault()
		d.host.ExecuteEdits(Source, []editor.EditOperation{op})
		d.logger.Debug("edit intent applied",
			slog.String("rule", r.name),
			slog.Int("line", c.line),
			slog.Int("column", c.column))
		return r.name
	}
	return ""
}

// HandleMouse runs the pointer rules and returns the name of the rule that
// was applied, or "".
func (d *Dispatcher) HandleMouse(ev *editor.MouseEvent) (applied string) {
	if ev == nil || ev.DefaultPrevented() {
		return ""
	}
	defer d.recoverPanic("mouse", &applied)

	for _, r := range d.mouseRules {
		op, ok := r.apply(ev)
		if !ok {
			continue
		}
		ev.PreventDefault()
		d.host.ExecuteEdits(Source, []editor.EditOperation{op})
		d.logger.Debug("edit intent applied",
			slog.String("rule", r.name),
			slog.String("target", ev.Target.Type.String()))
		return r.name
	}
	return ""
}

func (d *Dispatcher) recoverPanic(kind string, applied *string) {
	if r := recover(); r != nil {
		*applied = ""
		d.logger.Error("edit intent handler panicked",
			slog.String("event", kind),
			slog.String("error", fmt.Sprint(r)),
			slog.String("stack", string(debug.Stack())))
	}
}

// byteOffset returns the byte offset of the n-th rune of s, clamped to len(s).
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
