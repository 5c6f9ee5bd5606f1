package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/convert"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/noteservice"
	"github.com/starford/quire/internal/session"
	"github.com/starford/quire/internal/workspace"
)

// Mouse buttons accepted by the clicks endpoint.
const (
	ButtonPrimary   = "primary"
	ButtonMiddle    = "middle"
	ButtonSecondary = "secondary"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"inbox/today.md" validate:"required"`
	Content string `json:"content" example:"# Today\n- [ ] write"`
}

func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
	)
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Today\n- [x] write"`
}

// MoveNoteRequest renames a note.
type MoveNoteRequest struct {
	From string `json:"from" example:"inbox/today.md" validate:"required"`
	To   string `json:"to" example:"archive/today.md" validate:"required"`
}

func (r *MoveNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required),
	)
}

// ToggleTaskRequest flips the task on a 1-based line of a note.
type ToggleTaskRequest struct {
	Path string `json:"path" validate:"required"`
	Line int    `json:"line" example:"3" validate:"required"`
}

func (r *ToggleTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Line, validation.Required, validation.Min(1)),
	)
}

// AddTaskRequest appends an unchecked task to a note.
type AddTaskRequest struct {
	Path string `json:"path" validate:"required"`
	Text string `json:"text" example:"buy milk" validate:"required"`
}

func (r *AddTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Text, validation.Required),
	)
}

// ToggleTaskResponse reports the task state after a toggle.
type ToggleTaskResponse struct {
	Line    int  `json:"line"`
	Checked bool `json:"checked"`
}

// AddTaskResponse reports where a task was added.
type AddTaskResponse struct {
	Line int `json:"line"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"inbox/today.md" validate:"required"`
	Title   string `json:"title" example:"Today" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// OpenSessionRequest opens an editing session on a note.
type OpenSessionRequest struct {
	Path string `json:"path" validate:"required"`
}

func (r *OpenSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
	)
}

// KeyRequest is one key press. Key is "Enter", "Backspace", "Delete",
// "Tab" or a single character.
type KeyRequest struct {
	Key   string `json:"key" example:"Enter" validate:"required"`
	Shift bool   `json:"shift,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
}

func (r *KeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Key, validation.Required),
	)
}

// ClickRequest is a pointer press at a 0-based position.
type ClickRequest struct {
	Position workspace.Position `json:"position"`
	Button   string             `json:"button,omitempty" example:"primary"`
}

func (r *ClickRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Position, validation.By(validPosition)),
		validation.Field(&r.Button, validation.In(ButtonPrimary, ButtonMiddle, ButtonSecondary)),
	)
}

// SelectionsRequest replaces the selections of a session.
type SelectionsRequest struct {
	Selections []workspace.Selection `json:"selections" validate:"required"`
}

func (r *SelectionsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Selections, validation.Required, validation.Each(validation.By(validSelection))),
	)
}

// EOLRequest switches the line terminator of a session.
type EOLRequest struct {
	EOL workspace.EndOfLine `json:"eol" swaggertype:"string" example:"crlf"`
}

func (r *EOLRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EOL,
			validation.Required.Error("must be lf or crlf"),
			validation.In(workspace.EndOfLineLF, workspace.EndOfLineCRLF).Error("must be lf or crlf")),
	)
}

// CreateSnapshotRequest stores a manual snapshot of a note.
type CreateSnapshotRequest struct {
	Path        string `json:"path" validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *CreateSnapshotRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Title, validation.Length(0, 200)),
	)
}

var errNegativePosition = errors.New("line and character must be non-negative")

func validPosition(v any) error {
	p, _ := v.(workspace.Position)
	if p.Line < 0 || p.Character < 0 {
		return errNegativePosition
	}
	return nil
}

func validSelection(v any) error {
	s, _ := v.(workspace.Selection)
	if err := validPosition(s.Anchor); err != nil {
		return err
	}
	return validPosition(s.Active)
}

// Task is a task with a 0-based line, as seen by session clients.
type Task struct {
	Line    int    `json:"line"`
	Indent  string `json:"indent,omitempty"`
	Marker  string `json:"marker"`
	Checked bool   `json:"checked"`
	Text    string `json:"text"`
}

// SessionState is the state of an editing session in workspace
// coordinates: lines and characters are 0-based.
type SessionState struct {
	ID                 string                `json:"id"`
	Path               string                `json:"path"`
	Language           string                `json:"language"`
	Text               string                `json:"text"`
	Version            uint64                `json:"version"`
	EOL                workspace.EndOfLine   `json:"eol" swaggertype:"string" example:"lf"`
	Position           workspace.Position    `json:"position"`
	Selections         []workspace.Selection `json:"selections"`
	CompletedLines     []int                 `json:"completed_lines"`
	Tasks              []Task                `json:"tasks"`
	Summary            models.TaskSummary    `json:"summary"`
	Placeholder        string                `json:"placeholder,omitempty"`
	PlaceholderVisible bool                  `json:"placeholder_visible"`
	Theme              string                `json:"theme"`
	Dirty              bool                  `json:"dirty"`
	CanUndo            bool                  `json:"can_undo"`
	CanRedo            bool                  `json:"can_redo"`
}

// SessionSummary is a session in a list response.
type SessionSummary struct {
	ID      string             `json:"id"`
	Path    string             `json:"path"`
	Version uint64             `json:"version"`
	Dirty   bool               `json:"dirty"`
	Summary models.TaskSummary `json:"summary"`
}

// InputResponse is returned by the keys, clicks and edits endpoints.
// Rule names the intent rule that handled the input, if any.
type InputResponse struct {
	Rule    string       `json:"rule,omitempty"`
	Applied bool         `json:"applied"`
	State   SessionState `json:"state"`
}

// CompareResponse lists lines present in only one of two snapshots.
type CompareResponse = models.SnapshotDiff

func toSessionState(st session.State) SessionState {
	tasks := make([]Task, len(st.Tasks))
	for i, t := range st.Tasks {
		tasks[i] = Task{Line: convert.LineTo(t.Line), Indent: t.Indent, Marker: t.Marker, Checked: t.Checked, Text: t.Text}
	}
	completed := convert.LinesTo(st.CompletedLines)
	if completed == nil {
		completed = []int{}
	}
	eol, _ := convert.EndOfLineTo(st.EOL)
	sels := convert.SelectionsTo(st.Selections)
	if sels == nil {
		sels = []workspace.Selection{}
	}
	return SessionState{
		ID:                 st.ID,
		Path:               st.Path,
		Language:           st.Language,
		Text:               st.Text,
		Version:            st.Version,
		EOL:                eol,
		Position:           convert.PositionTo(st.Position),
		Selections:         sels,
		CompletedLines:     completed,
		Tasks:              tasks,
		Summary:            st.Summary,
		Placeholder:        st.Placeholder,
		PlaceholderVisible: st.PlaceholderVisible,
		Theme:              st.Theme,
		Dirty:              st.Dirty,
		CanUndo:            st.CanUndo,
		CanRedo:            st.CanRedo,
	}
}

func toSessionSummary(st session.State) SessionSummary {
	return SessionSummary{ID: st.ID, Path: st.Path, Version: st.Version, Dirty: st.Dirty, Summary: st.Summary}
}
