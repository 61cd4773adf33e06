package document

import (
	"slices"
	"strings"
)

// Section names used in SectionOrder.
const (
	SectionSummary        = "summary"
	SectionWorkExperience = "workExperience"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionCertifications = "certifications"
	SectionLinks          = "links"
	SectionOthers         = "others"
)

// DefaultSectionOrder is the order sections render in a new resume.
var DefaultSectionOrder = []string{
	SectionSummary,
	SectionWorkExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionLinks,
	SectionOthers,
}

type PersonalInfo struct {
	FirstName string `json:"firstName" validate:"max=200"`
	LastName  string `json:"lastName" validate:"max=200"`
	Email     string `json:"email" validate:"omitempty,max=200,email"`
	Phone     string `json:"phone" validate:"max=50"`
	Address   string `json:"address" validate:"max=500"`
	City      string `json:"city" validate:"max=200"`
	Country   string `json:"country" validate:"max=200"`
	LinkedIn  string `json:"linkedIn" validate:"max=500"`
	Website   string `json:"website" validate:"max=500"`
}

type WorkExperience struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"max=200"`
	Company     string `json:"company" validate:"max=200"`
	Location    string `json:"location" validate:"max=200"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"max=10000"`
}

type Education struct {
	ID           string `json:"id"`
	School       string `json:"school" validate:"max=200"`
	Degree       string `json:"degree" validate:"max=200"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"max=200"`
	Location     string `json:"location" validate:"max=200"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Current      bool   `json:"current"`
	Description  string `json:"description" validate:"max=5000"`
}

type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"max=200"`
	Level string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced expert"`
}

type Certification struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"max=200"`
	Authority     string `json:"authority" validate:"max=200"`
	LicenseNumber string `json:"licenseNumber" validate:"max=200"`
	CertLink      string `json:"certLink" validate:"max=500"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Description   string `json:"description" validate:"max=5000"`
}

type Link struct {
	ID      string `json:"id"`
	Service string `json:"service" validate:"max=200"`
	LinkURL string `json:"linkUrl" validate:"max=500"`
}

type OtherSection struct {
	ID      string `json:"id"`
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=10000"`
}

// SectionVisibility toggles optional parts of a list section.
type SectionVisibility struct {
	Visible         bool `json:"visible"`
	ShowLocation    bool `json:"showLocation"`
	ShowDates       bool `json:"showDates"`
	ShowDescription bool `json:"showDescription"`
}

type CertificationVisibility struct {
	Visible           bool `json:"visible"`
	ShowLicenseNumber bool `json:"showLicenseNumber"`
	ShowLink          bool `json:"showLink"`
	ShowDates         bool `json:"showDates"`
	ShowDescription   bool `json:"showDescription"`
}

type PersonalInfoVisibility struct {
	Email    bool `json:"email"`
	Phone    bool `json:"phone"`
	Address  bool `json:"address"`
	City     bool `json:"city"`
	Country  bool `json:"country"`
	LinkedIn bool `json:"linkedIn"`
	Website  bool `json:"website"`
}

type ResumeVisibility struct {
	PersonalInfo   PersonalInfoVisibility  `json:"personalInfo"`
	Summary        bool                    `json:"summary"`
	WorkExperience SectionVisibility       `json:"workExperience"`
	Education      SectionVisibility       `json:"education"`
	Skills         bool                    `json:"skills"`
	Certifications CertificationVisibility `json:"certifications"`
	Links          bool                    `json:"links"`
	Others         bool                    `json:"others"`
}

// Resume is the full field set of a resume being edited.
type Resume struct {
	Title          string           `json:"title" validate:"max=200"`
	TemplateID     string           `json:"templateId" validate:"max=100"`
	PersonalInfo   PersonalInfo     `json:"personalInfo"`
	Summary        string           `json:"summary" validate:"max=10000"`
	WorkExperience []WorkExperience `json:"workExperience" validate:"dive"`
	Education      []Education      `json:"education" validate:"dive"`
	Skills         []Skill          `json:"skills" validate:"dive"`
	Certifications []Certification  `json:"certifications" validate:"dive"`
	Links          []Link           `json:"links" validate:"dive"`
	Others         []OtherSection   `json:"others" validate:"dive"`
	SectionOrder   []string         `json:"sectionOrder" validate:"dive,oneof=summary workExperience education skills certifications links others"`
	Style          Style            `json:"style"`
	Visibility     ResumeVisibility `json:"visibility"`
}

// NewResume returns the blank resume a new editor session starts from.
func NewResume() Resume {
	all := SectionVisibility{Visible: true, ShowLocation: true, ShowDates: true, ShowDescription: true}
	return Resume{
		TemplateID:     "modern",
		WorkExperience: []WorkExperience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Certifications: []Certification{},
		Links:          []Link{},
		Others:         []OtherSection{},
		SectionOrder:   slices.Clone(DefaultSectionOrder),
		Style:          DefaultStyle(),
		Visibility: ResumeVisibility{
			PersonalInfo: PersonalInfoVisibility{
				Email: true, Phone: true, Address: true, City: true,
				Country: true, LinkedIn: true, Website: true,
			},
			Summary:        true,
			WorkExperience: all,
			Education:      all,
			Skills:         true,
			Certifications: CertificationVisibility{
				Visible: true, ShowLicenseNumber: true, ShowLink: true,
				ShowDates: true, ShowDescription: true,
			},
			Links:  true,
			Others: true,
		},
	}
}

func (r Resume) Kind() Kind { return KindResume }

// Clone returns a copy that shares no slices with r.
func (r Resume) Clone() Resume {
	c := r
	c.WorkExperience = slices.Clone(r.WorkExperience)
	c.Education = slices.Clone(r.Education)
	c.Skills = slices.Clone(r.Skills)
	c.Certifications = slices.Clone(r.Certifications)
	c.Links = slices.Clone(r.Links)
	c.Others = slices.Clone(r.Others)
	c.SectionOrder = slices.Clone(r.SectionOrder)
	return c
}

func (r Resume) Validate() error {
	return validateStruct(r)
}

// DisplayTitle falls back to the owner's name when the resume is untitled.
func (r Resume) DisplayTitle() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	if n := strings.TrimSpace(r.PersonalInfo.FirstName + " " + r.PersonalInfo.LastName); n != "" {
		return n
	}
	return "Untitled resume"
}
