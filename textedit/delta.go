// Package textedit describes keystroke-sized edits to a single text field.
package textedit

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrLengthMismatch is returned when a delta does not fit the text it is
// applied to.
var ErrLengthMismatch = errors.New("delta does not match text length")

// Step is one instruction of a delta. Exactly one field should be set.
// Lengths count runes, not bytes.
type Step struct {
	Retain int    `json:"retain,omitempty"` // keep N runes
	Insert string `json:"insert,omitempty"` // insert text at the cursor
	Delete int    `json:"delete,omitempty"` // drop N runes at the cursor
}

func (s Step) IsRetain() bool { return s.Retain > 0 && s.Insert == "" && s.Delete == 0 }
func (s Step) IsInsert() bool { return s.Insert != "" }
func (s Step) IsDelete() bool { return s.Delete > 0 && s.Insert == "" }

// Delta is a sequence of steps walked left to right with a cursor through
// the original text.
type Delta struct {
	Steps []Step `json:"steps"`
}

// BaseLen returns the rune length of the text the delta expects.
func (d Delta) BaseLen() int {
	n := 0
	for _, s := range d.Steps {
		switch {
		case s.IsRetain():
			n += s.Retain
		case s.IsDelete():
			n += s.Delete
		}
	}
	return n
}

// TargetLen returns the rune length of the text after the delta.
func (d Delta) TargetLen() int {
	n := 0
	for _, s := range d.Steps {
		switch {
		case s.IsRetain():
			n += s.Retain
		case s.IsInsert():
			n += utf8.RuneCountInString(s.Insert)
		}
	}
	return n
}

// IsNoop reports whether the delta leaves the text unchanged.
func (d Delta) IsNoop() bool {
	for _, s := range d.Steps {
		if s.IsInsert() || s.IsDelete() {
			return false
		}
	}
	return true
}

// Apply runs the delta over text.
func (d Delta) Apply(text string) (string, error) {
	runes := []rune(text)
	if len(runes) != d.BaseLen() {
		return "", fmt.Errorf("%w: text has %d runes, delta expects %d", ErrLengthMismatch, len(runes), d.BaseLen())
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, s := range d.Steps {
		switch {
		case s.IsRetain():
			b.WriteString(string(runes[pos : pos+s.Retain]))
			pos += s.Retain
		case s.IsInsert():
			b.WriteString(s.Insert)
		case s.IsDelete():
			pos += s.Delete
		}
	}
	return b.String(), nil
}

// NewInsert builds a delta inserting text at pos in a field of textLen runes.
func NewInsert(pos int, text string, textLen int) Delta {
	return NewReplace(pos, 0, text, textLen)
}

// NewDelete builds a delta removing count runes at pos in a field of
// textLen runes.
func NewDelete(pos, count, textLen int) Delta {
	return NewReplace(pos, count, "", textLen)
}

// NewReplace builds a delta that replaces count runes at pos with text, the
// shape of typing over a selection.
func NewReplace(pos, count int, text string, textLen int) Delta {
	var steps []Step
	if pos > 0 {
		steps = append(steps, Step{Retain: pos})
	}
	if text != "" {
		steps = append(steps, Step{Insert: text})
	}
	if count > 0 {
		steps = append(steps, Step{Delete: count})
	}
	if remaining := textLen - pos - count; remaining > 0 {
		steps = append(steps, Step{Retain: remaining})
	}
	return Delta{Steps: steps}
}
