package document

import "unicode/utf8"

const (
	minLetterBody = 100
	maxLetterBody = 3000
)

func styleIssues(fontFamily, templateID string) []string {
	var issues []string
	if fontFamily == "font-creative" {
		issues = append(issues, "Creative fonts may not be parsed correctly by older ATS. Use a sans-serif or serif font.")
	}
	if templateID == "creative" {
		issues = append(issues, "Creative templates with complex layouts can confuse some ATS parsers.")
	}
	return issues
}

// ATSIssues lists formatting choices that applicant tracking systems tend
// to mis-parse. An empty result means the resume passed.
func (r Resume) ATSIssues() []string {
	issues := styleIssues(r.Style.FontFamily, r.TemplateID)
	if r.PersonalInfo.Email == "" || !r.Visibility.PersonalInfo.Email {
		issues = append(issues, "No visible contact email.")
	}
	return issues
}

// ATSIssues lists formatting choices that applicant tracking systems tend
// to mis-parse, plus body length problems.
func (c CoverLetter) ATSIssues() []string {
	issues := styleIssues(c.Style.FontFamily, c.TemplateID)
	switch n := utf8.RuneCountInString(c.Body); {
	case n < minLetterBody:
		issues = append(issues, "Cover letter seems too short.")
	case n > maxLetterBody:
		issues = append(issues, "Cover letter is quite long. Make sure it fits on one page.")
	}
	return issues
}
