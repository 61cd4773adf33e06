package document

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaDisplayName(t *testing.T) {
	tests := []struct {
		name string
		p    Persona
		want string
	}{
		{"full name", Persona{FirstName: "Ada", LastName: "Lovelace", JobSector: "Engineering"}, "Ada Lovelace"},
		{"first name only", Persona{FirstName: "Ada", JobSector: "Engineering"}, "Engineering"},
		{"blank default", NewPersona(), "New Persona"},
		{"nothing set", Persona{}, "Unnamed Profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.DisplayName())
		})
	}
}

func TestPersonaValidate(t *testing.T) {
	require.NoError(t, NewPersona().Validate())

	p := NewPersona()
	p.Email = "ada-at-example"
	p.Phone = strings.Repeat("1", 21)
	r := NewResume()
	r.Style.PaperSize = "legal"
	p.Resume = &r

	err := p.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "email", fields["Email"])
	assert.Equal(t, "max", fields["Phone"])
	assert.Equal(t, "oneof", fields["Resume.Style.PaperSize"])
}

func TestApplyPersona(t *testing.T) {
	base := NewPersona()
	base.FirstName = "Ada"

	got, err := ApplyPersona(base, json.RawMessage(`{"lastName":"Lovelace","city":"London"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName, "absent fields keep their value")
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, "London", got.City)
	assert.Nil(t, got.Resume)

	// A partial resume starts from the blank resume.
	got, err = ApplyPersona(got, json.RawMessage(`{"resume":{"summary":"Analyst"}}`))
	require.NoError(t, err)
	require.NotNil(t, got.Resume)
	assert.Equal(t, "Analyst", got.Resume.Summary)
	assert.Equal(t, DefaultSectionOrder, got.Resume.SectionOrder)
	require.NoError(t, got.Validate())

	// Later updates merge into the existing resume without touching the input.
	next, err := ApplyPersona(got, json.RawMessage(`{"resume":{"title":"Main"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Analyst", next.Resume.Summary)
	assert.Equal(t, "Main", next.Resume.Title)
	assert.Empty(t, got.Resume.Title)

	_, err = ApplyPersona(base, json.RawMessage(`{"nickname":"Countess"}`))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPersonaIsNotAnEditableKind(t *testing.T) {
	_, err := ParseKind(string(KindPersona))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Blank(KindPersona, fixedNow)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
