package editor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/textedit"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func openResume(t *testing.T, raw string) *Editor[document.Resume] {
	t.Helper()
	buf, err := Open(document.KindResume, json.RawMessage(raw), fixedNow, Options{})
	require.NoError(t, err)
	e, ok := buf.(*Editor[document.Resume])
	require.True(t, ok)
	return e
}

func openLetter(t *testing.T) *Editor[document.CoverLetter] {
	t.Helper()
	buf, err := Open(document.KindCoverLetter, nil, fixedNow, Options{})
	require.NoError(t, err)
	e, ok := buf.(*Editor[document.CoverLetter])
	require.True(t, ok)
	return e
}

func TestOpen(t *testing.T) {
	e := openResume(t, "")
	assert.Equal(t, document.NewResume(), e.Present())
	assert.Equal(t, document.KindResume, e.Kind())
	assert.Equal(t, Status{}, e.Status())

	// Stored content missing newer fields keeps the defaults.
	e = openResume(t, `{"title":"Mine"}`)
	assert.Equal(t, "Mine", e.Present().Title)
	assert.Equal(t, document.DefaultSectionOrder, e.Present().SectionOrder)

	_, err := Open(document.KindResume, json.RawMessage(`{"bogus":true}`), fixedNow, Options{})
	assert.ErrorIs(t, err, document.ErrInvalidValue)

	_, err = Open("memo", nil, fixedNow, Options{})
	assert.ErrorIs(t, err, document.ErrUnknownKind)

	l := openLetter(t)
	assert.Equal(t, "2026-03-14", l.Present().Date)
}

func TestSetUndoRedo(t *testing.T) {
	e := openResume(t, "")

	require.NoError(t, e.Set("personalInfo.firstName", json.RawMessage(`"Ada"`)))
	require.NoError(t, e.Set("personalInfo.lastName", json.RawMessage(`"Lovelace"`)))
	assert.Equal(t, "Ada Lovelace", e.Title())

	st := e.Status()
	assert.True(t, st.CanUndo)
	assert.False(t, st.CanRedo)
	assert.Equal(t, 2, st.UndoCount)
	assert.True(t, st.Unsaved)

	require.True(t, e.Undo())
	assert.Equal(t, "Ada", e.Title())
	require.True(t, e.Undo())
	assert.Equal(t, "Untitled resume", e.Title())
	assert.False(t, e.Undo())

	require.True(t, e.Redo())
	assert.Equal(t, "Ada", e.Present().PersonalInfo.FirstName)
	assert.Equal(t, 1, e.Status().RedoCount)
}

func TestSetWholeDocumentKeepsDefaults(t *testing.T) {
	e := openResume(t, "")
	require.NoError(t, e.Set("personalInfo.firstName", json.RawMessage(`"Ada"`)))

	require.NoError(t, e.Set("", json.RawMessage(`{"title":"Mine"}`)))
	got := e.Present()
	assert.Equal(t, "Mine", got.Title)
	assert.Empty(t, got.PersonalInfo.FirstName)
	assert.Equal(t, document.DefaultSectionOrder, got.SectionOrder)
	assert.Equal(t, document.NewResume().Style, got.Style)
	assert.NotNil(t, got.WorkExperience)
	assert.NoError(t, e.Validate())

	// Same result as restoring the same payload.
	restored := openResume(t, "")
	require.NoError(t, restored.Restore(json.RawMessage(`{"title":"Mine"}`)))
	assert.Equal(t, restored.Present(), got)

	require.True(t, e.Undo())
	assert.Equal(t, "Ada", e.Present().PersonalInfo.FirstName)

	l := openLetter(t)
	require.NoError(t, l.Update("", json.RawMessage(`{"company":"Acme"}`)))
	assert.Equal(t, "Acme", l.Present().Company)
	assert.Equal(t, "2026-03-14", l.Present().Date)
	assert.True(t, l.Status().Dirty)

	assert.ErrorIs(t, e.Set("", json.RawMessage(`{"nope":1}`)), document.ErrInvalidValue)
}

func TestSetSameValueIsNoop(t *testing.T) {
	e := openResume(t, "")
	require.NoError(t, e.Set("title", json.RawMessage(`""`)))
	assert.False(t, e.Status().CanUndo)
}

func TestFailedEditLeavesHistory(t *testing.T) {
	e := openResume(t, "")
	require.NoError(t, e.Set("title", json.RawMessage(`"A"`)))

	err := e.Set("personalInfo.nickname", json.RawMessage(`"x"`))
	assert.ErrorIs(t, err, document.ErrUnknownField)
	assert.Equal(t, 1, e.Status().UndoCount)
	assert.Equal(t, "A", e.Present().Title)
}

func TestTransientEditsAndCommit(t *testing.T) {
	l := openLetter(t)

	require.NoError(t, l.Edit("body", textedit.NewInsert(0, "Hi", 0)))
	require.NoError(t, l.Edit("body", textedit.NewInsert(2, " team", 2)))
	assert.Equal(t, "Hi team", l.Present().Body)

	st := l.Status()
	assert.True(t, st.Dirty)
	assert.False(t, st.CanUndo)

	require.True(t, l.Commit())
	assert.False(t, l.Status().Dirty)
	assert.False(t, l.Commit())

	require.True(t, l.Undo())
	assert.Empty(t, l.Present().Body)
}

func TestUpdateThenSetKeepsCheckpoint(t *testing.T) {
	l := openLetter(t)

	require.NoError(t, l.Update("company", json.RawMessage(`"Ac"`)))
	require.NoError(t, l.Set("company", json.RawMessage(`"Acme"`)))

	require.True(t, l.Undo())
	assert.Empty(t, l.Present().Company)
	assert.False(t, l.Undo())
}

func TestEditNoopDelta(t *testing.T) {
	l := openLetter(t)
	require.NoError(t, l.Edit("nonexistent", textedit.Delta{}))
	assert.False(t, l.Status().Dirty)
}

func TestRemove(t *testing.T) {
	e := openResume(t, `{"skills":[{"id":"1","name":"Go"},{"id":"2","name":"SQL"}]}`)

	require.NoError(t, e.Remove("skills.0"))
	require.Len(t, e.Present().Skills, 1)
	assert.Equal(t, "SQL", e.Present().Skills[0].Name)

	require.True(t, e.Undo())
	assert.Len(t, e.Present().Skills, 2)
}

func TestRestoreAndLoad(t *testing.T) {
	e := openResume(t, "")
	require.NoError(t, e.Set("title", json.RawMessage(`"First"`)))

	require.NoError(t, e.Restore(json.RawMessage(`{"title":"Old"}`)))
	assert.Equal(t, "Old", e.Present().Title)
	assert.Equal(t, document.DefaultSectionOrder, e.Present().SectionOrder)
	require.True(t, e.Undo())
	assert.Equal(t, "First", e.Present().Title)

	require.NoError(t, e.Load(json.RawMessage(`{"title":"Fresh"}`)))
	st := e.Status()
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)
	assert.False(t, st.Unsaved)

	assert.ErrorIs(t, e.Restore(json.RawMessage(`[]`)), document.ErrInvalidValue)
}

func TestMarkSaved(t *testing.T) {
	e := openResume(t, "")
	require.NoError(t, e.Set("summary", json.RawMessage(`"Hello"`)))
	assert.True(t, e.Status().Unsaved)

	e.MarkSaved()
	assert.False(t, e.Status().Unsaved)

	require.True(t, e.Undo())
	assert.True(t, e.Status().Unsaved)
}

func TestPresentIsACopy(t *testing.T) {
	e := openResume(t, `{"skills":[{"id":"1","name":"Go"}]}`)
	p := e.Present()
	p.Skills[0].Name = "changed"
	assert.Equal(t, "Go", e.Present().Skills[0].Name)
}

func TestContent(t *testing.T) {
	l := openLetter(t)
	require.NoError(t, l.Set("company", json.RawMessage(`"Acme"`)))

	raw, err := l.Content()
	require.NoError(t, err)

	got, err := document.Decode[document.CoverLetter](raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
	assert.NoError(t, l.Validate())
	assert.Equal(t, []string{"Cover letter seems too short."}, l.ATSIssues())
}

func TestHistoryLimit(t *testing.T) {
	buf, err := Open(document.KindResume, nil, fixedNow, Options{HistoryLimit: 2})
	require.NoError(t, err)
	for _, title := range []string{`"a"`, `"b"`, `"c"`, `"d"`} {
		require.NoError(t, buf.Set("title", json.RawMessage(title)))
	}
	assert.Equal(t, 2, buf.Status().UndoCount)
}
