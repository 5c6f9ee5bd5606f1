package session

// Event types published for sessions.
const (
	EventOpened    = "session.opened"
	EventChanged   = "session.changed"
	EventPersisted = "session.persisted"
	EventReloaded  = "session.reloaded"
	EventClosed    = "session.closed"
	// EventError reports a contained failure inside an editor listener.
	EventError = "session.error"
)

// Event reports a session lifecycle step or buffer change.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Path      string         `json:"path"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notifier receives session events. Notify must not call back into the
// session that produced the event.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }
