package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/alimasry/resume-editor/textedit"
)

// Field path errors.
var (
	ErrInvalidPath  = errors.New("invalid field path")
	ErrUnknownField = errors.New("unknown field")
	ErrNotText      = errors.New("field is not text")
	ErrNotListItem  = errors.New("field is not a list item")
	ErrInvalidValue = errors.New("invalid field value")
)

// appendIndex is the last path segment that appends to a list.
const appendIndex = "-1"

// Decode strictly decodes raw into a zero T. Unknown fields are rejected.
func Decode[T any](raw []byte) (T, error) {
	var zero T
	return DecodeOnto(zero, raw)
}

// DecodeOnto strictly decodes raw over base, so fields absent from raw keep
// the values they have in base.
func DecodeOnto[T any](base T, raw []byte) (T, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&base); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return base, nil
}

// SetField returns a copy of doc with the field at path set to the JSON
// value raw. Paths use dots between keys and list indexes, for example
// "personalInfo.firstName" or "workExperience.0.title". A final index of
// -1 appends to a list. An empty path replaces the whole document with raw
// decoded onto the zero T.
func SetField[T any](doc T, path string, raw json.RawMessage) (T, error) {
	var zero T
	if !json.Valid(raw) {
		return zero, fmt.Errorf("%w: not JSON", ErrInvalidValue)
	}
	if path == "" {
		return Decode[T](raw)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	data, err = checkPath(data, path)
	if err != nil {
		return zero, err
	}
	out, err := sjson.SetRawBytes(data, path, raw)
	if err != nil {
		return zero, fmt.Errorf("set %s: %w", path, err)
	}
	return Decode[T](out)
}

// RemoveField returns a copy of doc without the list item at path.
func RemoveField[T any](doc T, path string) (T, error) {
	var zero T
	segs, err := splitPath(path)
	if err != nil {
		return zero, err
	}
	if _, err := strconv.Atoi(segs[len(segs)-1]); err != nil || len(segs) < 2 {
		return zero, fmt.Errorf("%w: %s", ErrNotListItem, path)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	if !gjson.GetBytes(data, path).Exists() {
		return zero, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	out, err := sjson.DeleteBytes(data, path)
	if err != nil {
		return zero, fmt.Errorf("remove %s: %w", path, err)
	}
	return Decode[T](out)
}

// EditText returns a copy of doc with delta applied to the text field at
// path.
func EditText[T any](doc T, path string, delta textedit.Delta) (T, error) {
	var zero T
	if _, err := splitPath(path); err != nil {
		return zero, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	field := gjson.GetBytes(data, path)
	if !field.Exists() {
		return zero, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	if field.Type != gjson.String {
		return zero, fmt.Errorf("%w: %s", ErrNotText, path)
	}
	text, err := delta.Apply(field.Str)
	if err != nil {
		return zero, fmt.Errorf("edit %s: %w", path, err)
	}
	out, err := sjson.SetBytes(data, path, text)
	if err != nil {
		return zero, fmt.Errorf("edit %s: %w", path, err)
	}
	return Decode[T](out)
}

// checkPath accepts paths naming an existing field, or appending to an
// existing list. A null list is replaced by an empty one before appending.
func checkPath(data []byte, path string) ([]byte, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if gjson.GetBytes(data, path).Exists() {
		return data, nil
	}
	if segs[len(segs)-1] == appendIndex && len(segs) > 1 {
		parent := strings.Join(segs[:len(segs)-1], ".")
		switch list := gjson.GetBytes(data, parent); {
		case list.IsArray():
			return data, nil
		case list.Exists() && list.Type == gjson.Null:
			return sjson.SetRawBytes(data, parent, []byte("[]"))
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
}

// splitPath rejects the gjson query syntax (wildcards, modifiers, escapes)
// so a path always names exactly one field.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		for _, r := range s {
			ok := r == '_' || r == '-' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
		}
	}
	return segs, nil
}
