package render

import (
	"html/template"
	"strings"

	"resume-render/pkg/models"
)

const (
	defaultFontFamily = "Arial, sans-serif"
	defaultFontSize   = "11pt"
	defaultLineHeight = "1.4"

	defaultPrimary           = "#000000"
	defaultSecondary         = "#333333"
	defaultAccent            = "#666666"
	defaultText              = "#000000"
	defaultBackground        = "#ffffff"
	defaultSidebarBackground = "#f8fafc"
)

// styleContext is the resolved typography and palette shared by every
// fragment of one render.
type styleContext struct {
	FontFamily template.CSS
	FontSize   template.CSS
	LineHeight template.CSS

	Primary           template.CSS
	Secondary         template.CSS
	Accent            template.CSS
	Text              template.CSS
	Background        template.CSS
	SidebarBackground template.CSS

	Gap          template.CSS
	SingleColumn bool
}

func newStyleContext(desc models.TemplateDescriptor) *styleContext {
	styles := desc.Styles
	if styles == nil {
		styles = &models.TemplateStyles{}
	}
	colors := styles.Colors
	if colors == nil {
		colors = &models.TemplateColors{}
	}

	return &styleContext{
		FontFamily: cssValue(styles.FontFamily, defaultFontFamily),
		FontSize:   cssValue(string(styles.FontSize), defaultFontSize),
		LineHeight: cssValue(string(styles.LineHeight), defaultLineHeight),

		Primary:           cssValue(colors.Primary, defaultPrimary),
		Secondary:         cssValue(colors.Secondary, defaultSecondary),
		Accent:            cssValue(colors.Accent, defaultAccent),
		Text:              cssValue(colors.Text, defaultText),
		Background:        cssValue(colors.Background, defaultBackground),
		SidebarBackground: cssValue(colors.SidebarBackground, defaultSidebarBackground),

		Gap:          template.CSS(desc.Layout.Spacing.Gap()),
		SingleColumn: !desc.Layout.TwoColumn(),
	}
}

// cssValue admits a single declaration value (colors, lengths, font stacks)
// and falls back when the input is blank or tries to escape the declaration.
func cssValue(value, fallback string) template.CSS {
	v := Plain(value)
	lower := strings.ToLower(v)
	if v == "" || strings.Contains(lower, "url(") || strings.Contains(lower, "expression(") {
		return template.CSS(fallback)
	}

	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" #%.,'\"()-_", r):
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return template.CSS(fallback)
	}
	return template.CSS(out)
}
