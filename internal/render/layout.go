package render

import (
	"html/template"
	"strconv"
	"strings"

	"resume-render/pkg/models"
)

const defaultSidebarWidth = "30%"

type layoutView struct {
	S                  *styleContext
	Header             template.HTML
	TwoColumn          bool
	SidebarWidth       template.CSS
	MainWidth          template.CSS
	ShowProfilePicture bool
	Photo              template.URL
	Sidebar            []template.HTML
	Main               []template.HTML
}

// sidebarWidths returns the grid column widths of a two-column layout. The
// executive variant is pinned to 35%; unparseable widths fall back to 30%.
func sidebarWidths(desc models.TemplateDescriptor) (sidebar, main template.CSS) {
	width := strings.TrimSpace(desc.Layout.SidebarWidth)
	if desc.ID == ExecutiveTwoColumnID {
		width = "35%"
	}
	if width == "" {
		width = defaultSidebarWidth
	}

	n, ok := leadingInt(width)
	if !ok || n <= 0 || n >= 100 {
		width, n = defaultSidebarWidth, 30
	}
	return cssValue(width, defaultSidebarWidth), template.CSS(strconv.Itoa(100-n) + "%")
}

// leadingInt parses the integer prefix of s ("35%" -> 35, "28.5%" -> 28)
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

func fragments(sections []RenderedSection) []template.HTML {
	out := make([]template.HTML, 0, len(sections))
	for _, s := range sections {
		if s.HTML != "" {
			out = append(out, s.HTML)
		}
	}
	return out
}
