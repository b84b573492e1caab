package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"resume-render/internal/logging"
	"resume-render/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrNoData is returned when Render is called without resume data
var ErrNoData = errors.New("resume data is required")

// Engine renders resume data into a print-ready HTML document. It holds no
// per-render state and is safe for concurrent use.
type Engine struct {
	tmpl   *template.Template
	logger logging.Logger

	// exec runs a named fragment template; replaced in tests
	exec func(name string, data interface{}) (template.HTML, error)
}

// Result is the output of one render
type Result struct {
	HTML     string
	Zones    Zones
	Sections []RenderedSection
	Findings []string
}

// Failed returns the sections that were replaced by an error marker
func (r *Result) Failed() []RenderedSection {
	var out []RenderedSection
	for _, s := range r.Sections {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

type contactLine struct {
	Label string
	Value string
}

// NewEngine parses the embedded templates
func NewEngine(logger logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	funcs := template.FuncMap{
		"safeText":  SafeText,
		"safeDate":  SafeDate,
		"dateRange": SafeDateRange,
		"bullets": func(s *styleContext, d models.Description, exclude ...string) Bullets {
			return bulletsFor(s, d, exclude...)
		},
		"issuerLine":    issuerLine,
		"referenceCard": showReferenceCard,
		"labelled": func(label, value string) contactLine {
			return contactLine{Label: label, Value: value}
		},
	}

	tmpl, err := template.New("resume").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := &Engine{tmpl: tmpl, logger: logger}
	e.exec = e.execute
	return e, nil
}

func (e *Engine) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Render produces the full HTML document for data under desc. A section that
// fails is replaced by an HTML comment and the rest of the document still
// renders; only header or document failures return an error.
func (e *Engine) Render(data *models.ResumeData, desc models.TemplateDescriptor) (*Result, error) {
	if data == nil {
		return nil, ErrNoData
	}

	style := newStyleContext(desc)
	zones := ResolveSections(desc, data)

	e.logger.Debug("Resolved resume sections", map[string]interface{}{
		"template_id": desc.ID,
		"two_column":  zones.TwoColumn,
		"single":      zones.Single,
		"sidebar":     zones.Sidebar,
		"main":        zones.Main,
	})

	headerName, banner := headerTemplate(desc.Layout.HeaderStyle)
	if !desc.Layout.HeaderStyle.Known() {
		e.logger.Debug("Unknown header style, using standard", map[string]interface{}{
			"template_id":  desc.ID,
			"header_style": string(desc.Layout.HeaderStyle),
		})
	}
	header, err := e.exec(headerName, newHeaderView(style, data, banner))
	if err != nil {
		return nil, fmt.Errorf("render header: %w", err)
	}

	result := &Result{Zones: zones}
	view := layoutView{S: style, Header: header, TwoColumn: zones.TwoColumn}

	if zones.TwoColumn {
		view.SidebarWidth, view.MainWidth = sidebarWidths(desc)
		view.ShowProfilePicture = desc.Layout.ShowProfilePicture
		view.Photo = photoURL(string(data.Photo))

		sidebar := e.renderZone(zones.Sidebar, style, data, true)
		main := e.renderZone(zones.Main, style, data, false)
		view.Sidebar, view.Main = fragments(sidebar), fragments(main)
		result.Sections = append(sidebar, main...)
	} else {
		single := e.renderZone(zones.Single, style, data, false)
		view.Main = fragments(single)
		result.Sections = single
	}

	for _, s := range result.Failed() {
		e.logger.Warn("Section rendering failed, continuing without it", map[string]interface{}{
			"template_id": desc.ID,
			"section":     string(s.Kind),
			"error":       s.Err.Error(),
		})
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "document", view); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	result.HTML = buf.String()

	findings, err := AuditVisibleText(result.HTML)
	if err != nil {
		e.logger.Warn("Could not audit rendered HTML", map[string]interface{}{"error": err.Error()})
	}
	if len(findings) > 0 {
		result.Findings = findings
		e.logger.Warn("Rendered HTML contains missing-value markers", map[string]interface{}{
			"template_id": desc.ID,
			"findings":    findings,
		})
	}
	return result, nil
}

func (e *Engine) renderZone(kinds []models.SectionKind, style *styleContext, data *models.ResumeData, sidebar bool) []RenderedSection {
	out := make([]RenderedSection, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, e.renderSection(kind, style, data, sidebar))
	}
	return out
}

// renderSection renders one section in isolation. Errors and panics become an
// inert comment in place of the section.
func (e *Engine) renderSection(kind models.SectionKind, style *styleContext, data *models.ResumeData, sidebar bool) (rs RenderedSection) {
	rs = RenderedSection{Kind: kind, Sidebar: sidebar}

	name, ok := sectionTemplate(kind)
	if !ok || !HasSectionData(kind, data) {
		return rs
	}

	defer func() {
		if r := recover(); r != nil {
			rs.Err = fmt.Errorf("panic: %v", r)
			rs.HTML = errorComment(kind, rs.Err)
		}
	}()

	view := sectionView{S: style, Sidebar: sidebar, Title: sectionTitles[kind], Data: data}
	if kind == models.SectionCustomSections {
		view.Groups = groupCustomSections(data.CustomSections)
	}

	html, err := e.exec(name, view)
	if err != nil {
		rs.Err = err
		rs.HTML = errorComment(kind, err)
		return rs
	}
	rs.HTML = html
	return rs
}
