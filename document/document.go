// Package document defines the editable document states: resumes and
// cover letters, their blank defaults, validation and field-path edits.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind identifies a document type.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover_letter"
)

// ErrUnknownKind is returned for a kind that is neither a resume nor a
// cover letter.
var ErrUnknownKind = errors.New("unknown document kind")

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindResume, KindCoverLetter:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Content is the set of operations every document state supports.
type Content[T any] interface {
	Kind() Kind
	Clone() T
	Validate() error
	ATSIssues() []string
	DisplayTitle() string
}

// Style holds the visual settings shared by both document kinds.
type Style struct {
	FontFamily       string  `json:"fontFamily" validate:"max=50"`
	FontSize         float64 `json:"fontSize" validate:"gte=6,lte=24"`
	HeaderFontColor  string  `json:"headerFontColor" validate:"omitempty,hexcolor"`
	ContentFontColor string  `json:"contentFontColor" validate:"omitempty,hexcolor"`
	LineSpacing      float64 `json:"lineSpacing" validate:"gte=1,lte=3"`
	Margins          float64 `json:"margins" validate:"gte=0,lte=32"`
	PaperSize        string  `json:"paperSize" validate:"oneof=a4 letter"`
	HeaderAlignment  string  `json:"headerAlignment" validate:"oneof=left center right"`
}

// DefaultStyle returns the editor's initial style.
func DefaultStyle() Style {
	return Style{
		FontFamily:       "font-sans",
		FontSize:         11,
		HeaderFontColor:  "#1e293b",
		ContentFontColor: "#334155",
		LineSpacing:      1.5,
		Margins:          8,
		PaperSize:        "a4",
		HeaderAlignment:  "left",
	}
}

// Blank returns the blank default document of kind k encoded as JSON.
func Blank(k Kind, now time.Time) (json.RawMessage, error) {
	switch k {
	case KindResume:
		return json.Marshal(NewResume())
	case KindCoverLetter:
		return json.Marshal(NewCoverLetter(now))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// TitleOf decodes raw as a document of kind k and returns its display title.
func TitleOf(k Kind, raw json.RawMessage) (string, error) {
	switch k {
	case KindResume:
		r, err := Decode[Resume](raw)
		if err != nil {
			return "", err
		}
		return r.DisplayTitle(), nil
	case KindCoverLetter:
		c, err := Decode[CoverLetter](raw)
		if err != nil {
			return "", err
		}
		return c.DisplayTitle(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// ValidateRaw decodes raw as a document of kind k and validates it.
func ValidateRaw(k Kind, raw json.RawMessage) error {
	switch k {
	case KindResume:
		r, err := Decode[Resume](raw)
		if err != nil {
			return err
		}
		return r.Validate()
	case KindCoverLetter:
		c, err := Decode[CoverLetter](raw)
		if err != nil {
			return err
		}
		return c.Validate()
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, k)
}
