package document

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimasry/resume-editor/textedit"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("resume")
	require.NoError(t, err)
	assert.Equal(t, KindResume, k)

	k, err = ParseKind("cover_letter")
	require.NoError(t, err)
	assert.Equal(t, KindCoverLetter, k)

	_, err = ParseKind("memo")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBlankDefaultsAreValid(t *testing.T) {
	require.NoError(t, NewResume().Validate())
	require.NoError(t, NewCoverLetter(fixedNow).Validate())

	cl := NewCoverLetter(fixedNow)
	assert.Equal(t, "2026-03-14", cl.Date)
	assert.Equal(t, "neutral", cl.Tone)
	assert.Equal(t, "Dear Hiring Manager", cl.HiringManagerName)

	r := NewResume()
	assert.Equal(t, DefaultSectionOrder, r.SectionOrder)
	assert.True(t, r.Visibility.WorkExperience.ShowDates)
}

func TestBlankRoundTrip(t *testing.T) {
	raw, err := Blank(KindResume, fixedNow)
	require.NoError(t, err)
	r, err := Decode[Resume](raw)
	require.NoError(t, err)
	assert.Equal(t, NewResume(), r)

	_, err = Blank("memo", fixedNow)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestResumeCloneDoesNotAlias(t *testing.T) {
	r := NewResume()
	r.Skills = append(r.Skills, Skill{ID: "1", Name: "Go"})
	c := r.Clone()
	c.Skills[0].Name = "Rust"
	c.SectionOrder[0] = "skills"
	assert.Equal(t, "Go", r.Skills[0].Name)
	assert.Equal(t, SectionSummary, r.SectionOrder[0])
}

func TestValidate(t *testing.T) {
	r := NewResume()
	r.Style.PaperSize = "legal"
	r.PersonalInfo.Email = "not-an-email"
	r.Title = strings.Repeat("x", 201)

	err := r.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "oneof", fields["Style.PaperSize"])
	assert.Equal(t, "email", fields["PersonalInfo.Email"])
	assert.Equal(t, "max", fields["Title"])
}

func TestValidateCoverLetterRanges(t *testing.T) {
	cl := NewCoverLetter(fixedNow)
	cl.Style.FontSize = 20
	cl.Tone = "sarcastic"
	cl.Date = "14/03/2026"

	err := cl.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, err.Error(), "Style.FontSize: lte=14")
}

func TestValidateRaw(t *testing.T) {
	raw, err := Blank(KindCoverLetter, fixedNow)
	require.NoError(t, err)
	assert.NoError(t, ValidateRaw(KindCoverLetter, raw))

	assert.ErrorIs(t, ValidateRaw(KindResume, json.RawMessage(`{"nope":1}`)), ErrInvalidValue)
}

func TestTitleOf(t *testing.T) {
	title, err := TitleOf(KindResume, json.RawMessage(`{"personalInfo":{"firstName":"Ada","lastName":"Lovelace"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", title)

	title, err = TitleOf(KindCoverLetter, json.RawMessage(`{"title":"","company":"Acme"}`))
	require.NoError(t, err)
	assert.Equal(t, "Cover letter for Acme", title)
}

func TestATSIssues(t *testing.T) {
	cl := NewCoverLetter(fixedNow)
	assert.Equal(t, []string{"Cover letter seems too short."}, cl.ATSIssues())

	cl.Body = strings.Repeat("word ", 40)
	assert.Empty(t, cl.ATSIssues())

	cl.Body = strings.Repeat("word ", 700)
	cl.Style.FontFamily = "font-creative"
	assert.Len(t, cl.ATSIssues(), 2)

	r := NewResume()
	assert.Len(t, r.ATSIssues(), 1)
	r.PersonalInfo.Email = "ada@example.com"
	assert.Empty(t, r.ATSIssues())
	r.TemplateID = "creative"
	assert.Len(t, r.ATSIssues(), 1)
}

func TestSetField(t *testing.T) {
	r := NewResume()

	got, err := SetField(r, "personalInfo.firstName", json.RawMessage(`"Ada"`))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.PersonalInfo.FirstName)
	assert.Empty(t, r.PersonalInfo.FirstName, "input must not change")

	got, err = SetField(got, "workExperience.-1", json.RawMessage(`{"id":"w1","title":"Engineer"}`))
	require.NoError(t, err)
	require.Len(t, got.WorkExperience, 1)
	assert.Equal(t, "Engineer", got.WorkExperience[0].Title)

	got, err = SetField(got, "workExperience.0.company", json.RawMessage(`"Analytical Engines"`))
	require.NoError(t, err)
	assert.Equal(t, "Analytical Engines", got.WorkExperience[0].Company)

	got, err = SetField(got, "style.fontSize", json.RawMessage(`12.5`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, got.Style.FontSize)
}

func TestSetFieldAppendToNullList(t *testing.T) {
	var r Resume
	got, err := SetField(r, "skills.-1", json.RawMessage(`{"id":"s1","name":"Go"}`))
	require.NoError(t, err)
	assert.Equal(t, []Skill{{ID: "s1", Name: "Go"}}, got.Skills)
}

func TestSetFieldErrors(t *testing.T) {
	r := NewResume()
	tests := []struct {
		name string
		path string
		raw  string
		err  error
	}{
		{"unknown field", "personalInfo.nickname", `"x"`, ErrUnknownField},
		{"index out of range", "workExperience.3.title", `"x"`, ErrUnknownField},
		{"wildcard", "skills.#", `"x"`, ErrInvalidPath},
		{"empty segment", "style..fontSize", `1`, ErrInvalidPath},
		{"wrong type", "style.fontSize", `"big"`, ErrInvalidValue},
		{"not json", "title", `nope`, ErrInvalidValue},
		{"unknown nested field", "style", `{"glow":true}`, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SetField(r, tt.path, json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestSetFieldWholeDocument(t *testing.T) {
	got, err := SetField(NewCoverLetter(fixedNow), "", json.RawMessage(`{"title":"Replaced","tone":"formal"}`))
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Title)
	assert.Equal(t, "formal", got.Tone)
	assert.Empty(t, got.Company)
}

func TestRemoveField(t *testing.T) {
	r := NewResume()
	r.Links = []Link{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	got, err := RemoveField(r, "links.1")
	require.NoError(t, err)
	assert.Equal(t, []Link{{ID: "a"}, {ID: "c"}}, got.Links)
	assert.Len(t, r.Links, 3)

	_, err = RemoveField(r, "links.9")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = RemoveField(r, "title")
	assert.ErrorIs(t, err, ErrNotListItem)
}

func TestEditText(t *testing.T) {
	cl := NewCoverLetter(fixedNow)
	cl.Body = "Hello"

	got, err := EditText(cl, "body", textedit.NewInsert(5, " there", 5))
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got.Body)

	_, err = EditText(cl, "style.fontSize", textedit.NewInsert(0, "1", 0))
	assert.ErrorIs(t, err, ErrNotText)

	_, err = EditText(cl, "signature", textedit.NewInsert(0, "x", 0))
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = EditText(cl, "body", textedit.NewInsert(0, "x", 99))
	assert.ErrorIs(t, err, textedit.ErrLengthMismatch)
}
