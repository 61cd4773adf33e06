package document

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// KindPersona marks persona records in the store. Personas are edited over
// REST only and are never opened in an editing session.
const KindPersona Kind = "persona"

// Persona is one job-seeking profile: the contact details and resume data a
// user keeps for a role or industry. Cover letters refer to one by ID.
type Persona struct {
	FirstName string  `json:"firstName" validate:"max=120"`
	LastName  string  `json:"lastName" validate:"max=120"`
	JobSector string  `json:"jobSector" validate:"max=100"`
	Email     string  `json:"email" validate:"omitempty,max=100,email"`
	Phone     string  `json:"phone" validate:"max=20"`
	Address   string  `json:"address" validate:"max=255"`
	City      string  `json:"city" validate:"max=100"`
	Country   string  `json:"country" validate:"max=100"`
	Summary   string  `json:"summary" validate:"max=5000"`
	Resume    *Resume `json:"resume,omitempty" validate:"omitempty"`
}

// NewPersona returns the persona created when no fields are given.
func NewPersona() Persona {
	return Persona{JobSector: "New Persona"}
}

func (p Persona) Kind() Kind { return KindPersona }

func (p Persona) Clone() Persona {
	if p.Resume != nil {
		r := p.Resume.Clone()
		p.Resume = &r
	}
	return p
}

func (p Persona) Validate() error {
	return validateStruct(p)
}

// DisplayName is the full name when both parts are set, else the job sector.
func (p Persona) DisplayName() string {
	first, last := strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	if s := strings.TrimSpace(p.JobSector); s != "" {
		return s
	}
	return "Unnamed Profile"
}

// ApplyPersona strictly decodes raw over base. Fields absent from raw keep
// their values in base, and a resume given to a persona without one starts
// from the blank resume.
func ApplyPersona(base Persona, raw json.RawMessage) (Persona, error) {
	base = base.Clone()
	if base.Resume == nil && gjson.GetBytes(raw, "resume").IsObject() {
		r := NewResume()
		base.Resume = &r
	}
	return DecodeOnto(base, raw)
}
