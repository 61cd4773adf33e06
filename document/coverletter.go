package document

import (
	"strings"
	"time"
)

type ContactVisibility struct {
	Name    bool `json:"name"`
	Email   bool `json:"email"`
	Phone   bool `json:"phone"`
	Address bool `json:"address"`
}

type Contact struct {
	Name       string            `json:"name" validate:"max=200"`
	Email      string            `json:"email" validate:"omitempty,max=200,email"`
	Phone      string            `json:"phone" validate:"max=50"`
	Address    string            `json:"address" validate:"max=500"`
	Visibility ContactVisibility `json:"visibility"`
}

type LetterVisibility struct {
	Company       bool `json:"company"`
	JobTitle      bool `json:"jobTitle"`
	Date          bool `json:"date"`
	HiringManager bool `json:"hiringManager"`
}

// LetterStyle narrows Style to the ranges the letter templates support.
type LetterStyle struct {
	FontFamily       string  `json:"fontFamily" validate:"oneof=font-sans font-serif font-mono font-roboto font-creative"`
	FontSize         float64 `json:"fontSize" validate:"gte=9,lte=14"`
	HeaderFontColor  string  `json:"headerFontColor" validate:"omitempty,hexcolor"`
	ContentFontColor string  `json:"contentFontColor" validate:"omitempty,hexcolor"`
	LineSpacing      float64 `json:"lineSpacing" validate:"gte=1,lte=2"`
	Margins          float64 `json:"margins" validate:"gte=4,lte=16"`
	PaperSize        string  `json:"paperSize" validate:"oneof=a4 letter"`
	HeaderAlignment  string  `json:"headerAlignment" validate:"oneof=left center right"`
}

// CoverLetter is the full field set of a cover letter being edited.
type CoverLetter struct {
	Title             string           `json:"title" validate:"max=200"`
	TemplateID        string           `json:"templateId" validate:"max=50"`
	JobTitle          string           `json:"jobTitle" validate:"max=200"`
	Company           string           `json:"company" validate:"max=200"`
	JobDescription    string           `json:"jobDescription" validate:"max=5000"`
	Date              string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	HiringManagerName string           `json:"hiringManagerName" validate:"max=200"`
	Contact           Contact          `json:"contact"`
	Visibility        LetterVisibility `json:"visibility"`
	Tone              string           `json:"tone" validate:"oneof=formal neutral friendly"`
	Length            string           `json:"length" validate:"oneof=short medium long"`
	Body              string           `json:"body" validate:"max=10000"`
	Style             LetterStyle      `json:"style"`
	PersonaID         string           `json:"personaId"`
	ATSFriendly       bool             `json:"isATSFriendlyMode"`
}

// NewCoverLetter returns the blank cover letter dated now.
func NewCoverLetter(now time.Time) CoverLetter {
	s := DefaultStyle()
	return CoverLetter{
		Title:             "New Cover Letter",
		TemplateID:        "modern",
		Date:              now.Format(time.DateOnly),
		HiringManagerName: "Dear Hiring Manager",
		Contact: Contact{
			Visibility: ContactVisibility{Name: true, Email: true, Phone: true, Address: true},
		},
		Visibility: LetterVisibility{Company: true, JobTitle: true, Date: true, HiringManager: true},
		Tone:       "neutral",
		Length:     "medium",
		Style: LetterStyle{
			FontFamily:       s.FontFamily,
			FontSize:         s.FontSize,
			HeaderFontColor:  s.HeaderFontColor,
			ContentFontColor: s.ContentFontColor,
			LineSpacing:      s.LineSpacing,
			Margins:          s.Margins,
			PaperSize:        s.PaperSize,
			HeaderAlignment:  s.HeaderAlignment,
		},
	}
}

func (c CoverLetter) Kind() Kind { return KindCoverLetter }

// Clone returns a copy of c. CoverLetter holds no reference types.
func (c CoverLetter) Clone() CoverLetter { return c }

func (c CoverLetter) Validate() error {
	return validateStruct(c)
}

func (c CoverLetter) DisplayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	if c.Company != "" {
		return "Cover letter for " + c.Company
	}
	return "Untitled cover letter"
}
