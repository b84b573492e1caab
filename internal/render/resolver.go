package render

import (
	"resume-render/pkg/models"
)

// ExecutiveTwoColumnID is the one template whose sidebar is widened and whose
// main zone never carries languages.
const ExecutiveTwoColumnID = "ats_two_column_executive"

var defaultSectionsOrder = []models.SectionKind{
	models.SectionSummary,
	models.SectionExperience,
	models.SectionEducation,
	models.SectionSkills,
	models.SectionCertifications,
}

// Zones is the resolved section order. Single-column layouts fill Single; two
// column layouts fill Sidebar and Main.
type Zones struct {
	TwoColumn bool
	Single    []models.SectionKind
	Sidebar   []models.SectionKind
	Main      []models.SectionKind
}

// HasSectionData reports whether kind has anything to render for data
func HasSectionData(kind models.SectionKind, data *models.ResumeData) bool {
	if data == nil {
		return kind == models.SectionPersonal
	}
	switch kind {
	case models.SectionPersonal:
		return true
	case models.SectionSummary:
		return Plain(string(data.Summary)) != ""
	case models.SectionExperience:
		return anyFilled(data.Experience, experienceFilled)
	case models.SectionEducation:
		return anyFilled(data.Education, educationFilled)
	case models.SectionSkills:
		return anyFilled(data.Skills, func(s models.Skill) bool { return filled(s.Name) })
	case models.SectionCertifications:
		return anyFilled(data.Certifications, func(c models.Certification) bool { return filled(string(c.Name), string(c.Issuer)) })
	case models.SectionLanguages:
		return anyFilled(data.Languages, func(l models.Language) bool { return filled(string(l.Language)) })
	case models.SectionProjects:
		return anyFilled(data.Projects, func(p models.Project) bool { return filled(string(p.Name)) || hasLines(p.Description) })
	case models.SectionAwards:
		return anyFilled(data.Awards, func(a models.Award) bool { return filled(string(a.Name), string(a.Issuer)) })
	case models.SectionAchievements:
		return anyFilled(data.Achievements, func(a models.Achievement) bool { return filled(a.Title, a.Description) })
	case models.SectionCustomSections:
		return anyFilled(data.CustomSections, customSectionFilled)
	default:
		return false
	}
}

// A collection whose items are all blank has nothing to render.
func anyFilled[T any](items []T, ok func(T) bool) bool {
	for _, it := range items {
		if ok(it) {
			return true
		}
	}
	return false
}

func filled(values ...string) bool {
	for _, v := range values {
		if Plain(v) != "" {
			return true
		}
	}
	return false
}

func hasLines(d models.Description) bool { return len(descriptionLines(d)) > 0 }

func experienceFilled(e models.Experience) bool {
	return filled(string(e.JobTitle), string(e.Company), string(e.StartDate), string(e.EndDate)) || hasLines(e.Description)
}

func educationFilled(e models.Education) bool {
	return filled(string(e.Degree), e.InstitutionName(), string(e.Field), string(e.StartDate), string(e.EndDate)) ||
		hasLines(e.Description)
}

func customSectionFilled(c models.CustomSection) bool {
	return filled(c.ItemTitle(), string(c.Date), string(c.Email), string(c.Phone)) ||
		hasLines(c.Description) || hasLines(c.Achievements) || hasLines(c.Technologies)
}

// ResolveSections computes the ordered sections of every zone. The descriptor
// is never modified.
func ResolveSections(desc models.TemplateDescriptor, data *models.ResumeData) Zones {
	layout := desc.Layout
	if !layout.TwoColumn() {
		base := layout.SectionsOrder
		if base == nil {
			base = defaultSectionsOrder
		}
		return Zones{Single: filterPresent(withOptionalSections(base, data), data)}
	}

	sidebar := filterPresent(dedupe(layout.SidebarSections), data)
	inSidebar := make(map[models.SectionKind]bool, len(sidebar))
	for _, k := range layout.SidebarSections {
		inSidebar[k] = true
	}

	main := withOptionalSections(layout.MainSections, data)
	kept := main[:0]
	for _, k := range main {
		if inSidebar[k] {
			continue
		}
		if desc.ID == ExecutiveTwoColumnID && k == models.SectionLanguages {
			continue
		}
		kept = append(kept, k)
	}

	return Zones{
		TwoColumn: true,
		Sidebar:   sidebar,
		Main:      filterPresent(kept, data),
	}
}

// withOptionalSections copies base and inserts achievements and customSections
// when data carries them but base does not list them.
func withOptionalSections(base []models.SectionKind, data *models.ResumeData) []models.SectionKind {
	out := dedupe(base)
	if data == nil {
		return out
	}

	if HasSectionData(models.SectionAchievements, data) && indexOf(out, models.SectionAchievements) < 0 {
		if i := indexOf(out, models.SectionCustomSections); i >= 0 {
			out = insertAt(out, i, models.SectionAchievements)
		} else if i := indexOf(out, models.SectionAwards); i >= 0 {
			out = insertAt(out, i+1, models.SectionAchievements)
		} else {
			out = append(out, models.SectionAchievements)
		}
	}

	if HasSectionData(models.SectionCustomSections, data) && indexOf(out, models.SectionCustomSections) < 0 {
		out = append(out, models.SectionCustomSections)
	}
	return out
}

func filterPresent(kinds []models.SectionKind, data *models.ResumeData) []models.SectionKind {
	out := make([]models.SectionKind, 0, len(kinds))
	for _, k := range kinds {
		if HasSectionData(k, data) {
			out = append(out, k)
		}
	}
	return out
}

func dedupe(kinds []models.SectionKind) []models.SectionKind {
	seen := make(map[models.SectionKind]bool, len(kinds))
	out := make([]models.SectionKind, 0, len(kinds)+2)
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func indexOf(kinds []models.SectionKind, kind models.SectionKind) int {
	for i, k := range kinds {
		if k == kind {
			return i
		}
	}
	return -1
}

func insertAt(kinds []models.SectionKind, i int, kind models.SectionKind) []models.SectionKind {
	kinds = append(kinds, "")
	copy(kinds[i+1:], kinds[i:])
	kinds[i] = kind
	return kinds
}
