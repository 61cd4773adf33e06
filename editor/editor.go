// Package editor binds a history container to a document kind and exposes
// the JSON-level edits a client sends.
package editor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/history"
	"github.com/alimasry/resume-editor/textedit"
)

// Edit errors, wrapped with the offending path.
var (
	ErrUnknownField = document.ErrUnknownField
	ErrNotText      = document.ErrNotText
)

// Status is what a client needs to render the editor toolbar.
type Status struct {
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
	Dirty     bool `json:"dirty"`     // transient edits not yet checkpointed
	Unsaved   bool `json:"unsaved"`   // present differs from the last saved content
	UndoCount int  `json:"undoCount"` // checkpoints available
	RedoCount int  `json:"redoCount"`
}

// Buffer is an open document of any kind.
type Buffer interface {
	Kind() document.Kind
	// Set commits a field edit. An empty path replaces the document.
	Set(path string, value json.RawMessage) error
	// Update applies a field edit without a checkpoint.
	Update(path string, value json.RawMessage) error
	// Edit applies a text delta to a string field without a checkpoint.
	Edit(path string, delta textedit.Delta) error
	// Remove commits the removal of a list item.
	Remove(path string) error
	Commit() bool
	Undo() bool
	Redo() bool
	// Restore commits raw as the whole document, keeping history.
	Restore(raw json.RawMessage) error
	// Load replaces the document with raw and drops history.
	Load(raw json.RawMessage) error
	// MarkSaved records the present value as the last saved content.
	MarkSaved()
	Content() (json.RawMessage, error)
	Title() string
	Validate() error
	ATSIssues() []string
	Status() Status
}

// Options tune a Buffer.
type Options struct {
	HistoryLimit int
}

// Editor is a Buffer over documents of type T.
type Editor[T document.Content[T]] struct {
	hist  *history.Container[T]
	saved T
	blank func() T
}

var (
	_ Buffer = (*Editor[document.Resume])(nil)
	_ Buffer = (*Editor[document.CoverLetter])(nil)
)

// New creates an editor whose present value is initial. blank supplies
// the defaults missing fields are filled from when loading.
func New[T document.Content[T]](initial T, blank func() T, opts Options) *Editor[T] {
	return &Editor[T]{
		hist:  history.New(initial.Clone(), history.WithLimit[T](opts.HistoryLimit)),
		saved: initial.Clone(),
		blank: blank,
	}
}

// Open decodes stored content of kind k into a new Buffer. Empty content
// opens the blank default.
func Open(k document.Kind, raw json.RawMessage, now time.Time, opts Options) (Buffer, error) {
	switch k {
	case document.KindResume:
		return open(raw, document.NewResume, opts)
	case document.KindCoverLetter:
		return open(raw, func() document.CoverLetter { return document.NewCoverLetter(now) }, opts)
	}
	return nil, fmt.Errorf("%w: %q", document.ErrUnknownKind, k)
}

func open[T document.Content[T]](raw json.RawMessage, blank func() T, opts Options) (*Editor[T], error) {
	initial := blank()
	if len(raw) > 0 {
		var err error
		if initial, err = document.DecodeOnto(initial, raw); err != nil {
			return nil, err
		}
	}
	return New(initial, blank, opts), nil
}

func (e *Editor[T]) present() T { return e.hist.Present() }

// Present returns a copy of the current document.
func (e *Editor[T]) Present() T { return e.hist.Present().Clone() }

func (e *Editor[T]) Kind() document.Kind { return e.present().Kind() }

// apply returns the present value with one field edit applied. A
// whole-document value is decoded onto the blank so absent fields keep
// their defaults.
func (e *Editor[T]) apply(path string, value json.RawMessage) (T, error) {
	if path == "" {
		return e.decode(value)
	}
	return document.SetField(e.present(), path, value)
}

func (e *Editor[T]) Set(path string, value json.RawMessage) error {
	next, err := e.apply(path, value)
	if err != nil {
		return err
	}
	e.hist.Set(next)
	return nil
}

func (e *Editor[T]) Update(path string, value json.RawMessage) error {
	next, err := e.apply(path, value)
	if err != nil {
		return err
	}
	e.hist.UpdatePresent(next)
	return nil
}

func (e *Editor[T]) Edit(path string, delta textedit.Delta) error {
	if delta.IsNoop() {
		return nil
	}
	next, err := document.EditText(e.present(), path, delta)
	if err != nil {
		return err
	}
	e.hist.UpdatePresent(next)
	return nil
}

func (e *Editor[T]) Remove(path string) error {
	next, err := document.RemoveField(e.present(), path)
	if err != nil {
		return err
	}
	e.hist.Set(next)
	return nil
}

func (e *Editor[T]) Commit() bool { return e.hist.Commit() }
func (e *Editor[T]) Undo() bool   { return e.hist.Undo() }
func (e *Editor[T]) Redo() bool   { return e.hist.Redo() }

func (e *Editor[T]) decode(raw json.RawMessage) (T, error) {
	return document.DecodeOnto(e.blank(), raw)
}

func (e *Editor[T]) Restore(raw json.RawMessage) error {
	next, err := e.decode(raw)
	if err != nil {
		return err
	}
	e.hist.Set(next)
	return nil
}

func (e *Editor[T]) Load(raw json.RawMessage) error {
	next, err := e.decode(raw)
	if err != nil {
		return err
	}
	e.hist.Reset(next)
	e.saved = next.Clone()
	return nil
}

func (e *Editor[T]) MarkSaved() {
	e.saved = e.present().Clone()
}

func (e *Editor[T]) Content() (json.RawMessage, error) {
	return json.Marshal(e.present())
}

func (e *Editor[T]) Title() string       { return e.present().DisplayTitle() }
func (e *Editor[T]) Validate() error     { return e.present().Validate() }
func (e *Editor[T]) ATSIssues() []string { return e.present().ATSIssues() }

func (e *Editor[T]) Status() Status {
	return Status{
		CanUndo:   e.hist.CanUndo(),
		CanRedo:   e.hist.CanRedo(),
		Dirty:     e.hist.Dirty(),
		Unsaved:   !history.StructuralEqual(e.present(), e.saved),
		UndoCount: e.hist.UndoCount(),
		RedoCount: e.hist.RedoCount(),
	}
}
