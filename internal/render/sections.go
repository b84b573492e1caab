package render

import (
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-render/pkg/models"
)

// RenderedSection is one markup fragment and the zone it was rendered for
type RenderedSection struct {
	Kind    models.SectionKind
	Sidebar bool
	HTML    template.HTML
	Err     error
}

var sectionTitles = map[models.SectionKind]string{
	models.SectionSummary:        "Professional Summary",
	models.SectionExperience:     "Professional Experience",
	models.SectionEducation:      "Education",
	models.SectionSkills:         "Skills",
	models.SectionLanguages:      "Languages",
	models.SectionCertifications: "Certifications",
	models.SectionProjects:       "Projects",
	models.SectionAchievements:   "Achievements",
	models.SectionAwards:         "Awards & Achievements",
}

// sectionView is the data handed to one section template
type sectionView struct {
	S       *styleContext
	Sidebar bool
	Title   string
	Data    *models.ResumeData
	Groups  []customGroup
}

type customGroup struct {
	Title string
	Items []models.CustomSection
}

// sectionTemplate maps a kind to its template. personal has no body; the
// header carries the identity block.
func sectionTemplate(kind models.SectionKind) (string, bool) {
	switch kind {
	case models.SectionSummary:
		return "summary", true
	case models.SectionExperience:
		return "experience", true
	case models.SectionEducation:
		return "education", true
	case models.SectionSkills:
		return "skills", true
	case models.SectionLanguages:
		return "languages", true
	case models.SectionCertifications:
		return "certifications", true
	case models.SectionProjects:
		return "projects", true
	case models.SectionAchievements:
		return "achievements", true
	case models.SectionAwards:
		return "awards", true
	case models.SectionCustomSections:
		return "customSections", true
	case models.SectionPersonal:
		return "", false
	default:
		return "", false
	}
}

// groupCustomSections groups items by lower-cased type in first-seen order
func groupCustomSections(items []models.CustomSection) []customGroup {
	var groups []customGroup
	index := make(map[string]int)
	for _, item := range items {
		kind := strings.ToLower(Plain(string(item.Type)))
		if kind == "" {
			kind = "custom"
		}
		i, ok := index[kind]
		if !ok {
			i = len(groups)
			index[kind] = i
			groups = append(groups, customGroup{Title: groupTitle(kind)})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// groupTitle capitalizes the type and pluralizes it unless it already ends in s
func groupTitle(kind string) string {
	r, size := utf8.DecodeRuneInString(kind)
	title := string(unicode.ToUpper(r)) + kind[size:]
	if !strings.HasSuffix(kind, "s") {
		title += "s"
	}
	return title
}

// showReferenceCard is true for contact-only items such as references
func showReferenceCard(item models.CustomSection) bool {
	if item.Description.Present() {
		return false
	}
	return Plain(string(item.Name)) != "" || Plain(string(item.Email)) != "" || Plain(string(item.Phone)) != ""
}

// issuerLine joins issuer and date with sep, or returns whichever is present
func issuerLine(issuer, date, sep string) template.HTML {
	i := SafeText(issuer)
	d := template.HTMLEscapeString(SafeDate(date))
	switch {
	case i != "" && d != "":
		return i + template.HTML(sep+d)
	case i != "":
		return i
	default:
		return template.HTML(d)
	}
}

// errorComment is the inert marker left in place of a section that failed
func errorComment(kind models.SectionKind, err error) template.HTML {
	label := string(kind) + " section"
	if kind == models.SectionCustomSections {
		label = "custom sections"
	}
	msg := strings.NewReplacer("--", "- -", ">", "&gt;", "<", "&lt;").Replace(err.Error())
	return template.HTML(fmt.Sprintf("<!-- Error generating %s: %s -->", label, msg))
}
