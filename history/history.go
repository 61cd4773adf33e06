// Package history provides a linear undo/redo container over an arbitrary
// document value.
//
// A Container holds a present value, a past stack of checkpoints and a
// future stack of undone values. Committed edits go through Set and become
// undoable steps. Transient edits (every keystroke of a text field) go
// through UpdatePresent and only change the present value; the next Set or
// Commit turns them into a single step.
//
//	h := history.New(doc)
//	h.Set(next)           // checkpoint
//	h.UpdatePresent(tmp)  // typing, no checkpoint
//	h.Commit()            // checkpoint the typed value
//	h.Undo()
//	h.Redo()
//
// A new Set after Undo discards the redo branch. Undo and Redo at the
// history boundaries are no-ops.
//
// A Container is not safe for concurrent use. The owner serialises calls.
package history

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// State is a snapshot of a container: past oldest first, future nearest
// undo first.
type State[T any] struct {
	Past    []T
	Present T
	Future  []T
}

// Container tracks the history of a single document value.
type Container[T any] struct {
	past    []T
	present T
	future  []T

	// checkpoint is the value present held at the last commit point.
	// It differs from present only while transient updates are pending.
	checkpoint T
	dirty      bool

	equal func(a, b T) bool
	limit int
}

// Option configures a Container.
type Option[T any] func(*Container[T])

// WithEqual sets the comparison used to detect redundant commits.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(c *Container[T]) {
		if eq != nil {
			c.equal = eq
		}
	}
}

// WithLimit caps the number of checkpoints kept in past. Oldest entries are
// dropped first. Zero or negative means unlimited.
func WithLimit[T any](n int) Option[T] {
	return func(c *Container[T]) {
		c.limit = n
	}
}

// StructuralEqual compares two values field by field. Nil and empty
// slices or maps compare equal.
func StructuralEqual[T any](a, b T) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

// New creates a container whose present value is initial and whose past
// and future are empty.
func New[T any](initial T, opts ...Option[T]) *Container[T] {
	c := &Container[T]{
		present:    initial,
		checkpoint: initial,
		equal:      StructuralEqual[T],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Present returns the current value.
func (c *Container[T]) Present() T {
	return c.present
}

// Set commits v as the new present value. The previous checkpoint moves to
// past and the redo branch is discarded.
//
// Set is a no-op when v equals the present value and no transient updates
// are pending. When v equals the last checkpoint, pending transient updates
// are discarded without creating a history entry. UpdatePresent(v) followed
// by Set(v) commits v as one step.
func (c *Container[T]) Set(v T) {
	if c.equal(v, c.checkpoint) {
		c.present = v
		c.dirty = false
		return
	}
	c.past = append(c.past, c.checkpoint)
	c.present = v
	c.checkpoint = v
	c.dirty = false
	c.future = nil
	c.trim()
}

// UpdatePresent replaces the present value without touching past or
// future. The change is not individually undoable.
func (c *Container[T]) UpdatePresent(v T) {
	c.present = v
	c.dirty = !c.equal(v, c.checkpoint)
}

// Commit checkpoints pending transient updates. It reports whether a
// history entry was created.
func (c *Container[T]) Commit() bool {
	if !c.dirty {
		return false
	}
	c.Set(c.present)
	return true
}

// Dirty reports whether present holds transient updates that have not been
// committed.
func (c *Container[T]) Dirty() bool {
	return c.dirty
}

// Undo moves present onto the front of future and restores the most
// recent checkpoint. It reports false and does nothing when past is empty.
func (c *Container[T]) Undo() bool {
	if len(c.past) == 0 {
		return false
	}
	previous := c.past[len(c.past)-1]
	c.past = c.past[:len(c.past)-1]
	c.future = append([]T{c.present}, c.future...)
	c.present = previous
	c.checkpoint = previous
	c.dirty = false
	return true
}

// Redo moves present onto the end of past and restores the nearest undone
// value. It reports false and does nothing when future is empty.
func (c *Container[T]) Redo() bool {
	if len(c.future) == 0 {
		return false
	}
	next := c.future[0]
	c.future = c.future[1:]
	c.past = append(c.past, c.present)
	c.present = next
	c.checkpoint = next
	c.dirty = false
	c.trim()
	return true
}

// CanUndo reports whether past is non-empty.
func (c *Container[T]) CanUndo() bool {
	return len(c.past) > 0
}

// CanRedo reports whether future is non-empty.
func (c *Container[T]) CanRedo() bool {
	return len(c.future) > 0
}

// UndoCount returns the number of checkpoints in past.
func (c *Container[T]) UndoCount() int {
	return len(c.past)
}

// RedoCount returns the number of values in future.
func (c *Container[T]) RedoCount() int {
	return len(c.future)
}

// Past returns a copy of past, oldest first.
func (c *Container[T]) Past() []T {
	return append([]T(nil), c.past...)
}

// Future returns a copy of future, nearest undo first.
func (c *Container[T]) Future() []T {
	return append([]T(nil), c.future...)
}

// State returns a snapshot of the whole container.
func (c *Container[T]) State() State[T] {
	return State[T]{
		Past:    c.Past(),
		Present: c.present,
		Future:  c.Future(),
	}
}

// Reset replaces present with v and clears both stacks.
func (c *Container[T]) Reset(v T) {
	c.past = nil
	c.future = nil
	c.present = v
	c.checkpoint = v
	c.dirty = false
}

// Limit returns the configured past cap, zero when unlimited.
func (c *Container[T]) Limit() int {
	return c.limit
}

func (c *Container[T]) trim() {
	if c.limit <= 0 || len(c.past) <= c.limit {
		return
	}
	excess := len(c.past) - c.limit
	c.past = append([]T(nil), c.past[excess:]...)
}
