package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SectionKind tags one renderable resume section
type SectionKind string

const (
	SectionPersonal       SectionKind = "personal"
	SectionSummary        SectionKind = "summary"
	SectionExperience     SectionKind = "experience"
	SectionEducation      SectionKind = "education"
	SectionSkills         SectionKind = "skills"
	SectionCertifications SectionKind = "certifications"
	SectionLanguages      SectionKind = "languages"
	SectionProjects       SectionKind = "projects"
	SectionAwards         SectionKind = "awards"
	SectionAchievements   SectionKind = "achievements"
	SectionCustomSections SectionKind = "customSections"
)

// HeaderStyle selects the identity block arrangement
type HeaderStyle string

const (
	HeaderStandard           HeaderStyle = "standard"
	HeaderExecutiveTwoColumn HeaderStyle = "executive-two-column"
	HeaderModern             HeaderStyle = "modern"
	HeaderProfessional       HeaderStyle = "professional"
	HeaderExecutive          HeaderStyle = "executive"
	HeaderProfileLeft        HeaderStyle = "profile-left"
)

// Known reports whether the style has its own rendering
func (h HeaderStyle) Known() bool {
	switch h {
	case HeaderStandard, HeaderExecutiveTwoColumn, HeaderModern,
		HeaderProfessional, HeaderExecutive, HeaderProfileLeft:
		return true
	}
	return false
}

// Spacing controls the gap below each section
type Spacing string

const (
	SpacingDefault     Spacing = "default"
	SpacingModern      Spacing = "modern"
	SpacingComfortable Spacing = "comfortable"
)

// Gap returns the CSS length between sections
func (s Spacing) Gap() string {
	switch s {
	case SpacingModern:
		return "1.25rem"
	case SpacingComfortable:
		return "1.75rem"
	default:
		return "1.5rem"
	}
}

type TemplateLayout struct {
	SectionsOrder      []SectionKind `json:"sectionsOrder,omitempty" yaml:"sectionsOrder,omitempty"`
	SidebarSections    []SectionKind `json:"sidebarSections,omitempty" yaml:"sidebarSections,omitempty"`
	MainSections       []SectionKind `json:"mainSections,omitempty" yaml:"mainSections,omitempty"`
	Columns            int           `json:"columns" yaml:"columns"`
	HeaderStyle        HeaderStyle   `json:"headerStyle,omitempty" yaml:"headerStyle,omitempty"`
	SidebarWidth       string        `json:"sidebarWidth,omitempty" yaml:"sidebarWidth,omitempty"`
	ShowProfilePicture bool          `json:"showProfilePicture,omitempty" yaml:"showProfilePicture,omitempty"`
	Spacing            Spacing       `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

// TwoColumn reports whether the layout splits into sidebar and main zones
func (l TemplateLayout) TwoColumn() bool { return l.Columns == 2 }

type TemplateColors struct {
	Primary           string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary         string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Accent            string `json:"accent,omitempty" yaml:"accent,omitempty"`
	Text              string `json:"text,omitempty" yaml:"text,omitempty"`
	Background        string `json:"background,omitempty" yaml:"background,omitempty"`
	SidebarBackground string `json:"sidebarBackground,omitempty" yaml:"sidebarBackground,omitempty"`
}

type TemplateStyles struct {
	FontFamily string          `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontSize   Text            `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	LineHeight Text            `json:"lineHeight,omitempty" yaml:"lineHeight,omitempty"`
	Colors     *TemplateColors `json:"colors,omitempty" yaml:"colors,omitempty"`
}

// TemplateDescriptor is the read-only layout and style configuration of one
// template. A nil Styles means the block was missing.
type TemplateDescriptor struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      TemplateLayout  `json:"layout" yaml:"layout"`
	Styles      *TemplateStyles `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Clone returns a deep copy so callers can adjust a descriptor without
// touching a shared catalog entry.
func (t TemplateDescriptor) Clone() TemplateDescriptor {
	out := t
	out.Layout.SectionsOrder = append([]SectionKind(nil), t.Layout.SectionsOrder...)
	out.Layout.SidebarSections = append([]SectionKind(nil), t.Layout.SidebarSections...)
	out.Layout.MainSections = append([]SectionKind(nil), t.Layout.MainSections...)
	if t.Styles != nil {
		styles := *t.Styles
		if t.Styles.Colors != nil {
			colors := *t.Styles.Colors
			styles.Colors = &colors
		}
		out.Styles = &styles
	}
	return out
}

// TemplateRef is the template field of a render request: either a registry id
// or an inline descriptor.
type TemplateRef struct {
	ID         string
	Descriptor *TemplateDescriptor
}

func (r *TemplateRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*r = TemplateRef{}
	case len(trimmed) > 0 && trimmed[0] == '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*r = TemplateRef{ID: strings.TrimSpace(id)}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var desc TemplateDescriptor
		if err := json.Unmarshal(trimmed, &desc); err != nil {
			return err
		}
		*r = TemplateRef{ID: desc.ID, Descriptor: &desc}
	default:
		return fmt.Errorf("template must be an id string or a descriptor object")
	}
	return nil
}

func (r TemplateRef) MarshalJSON() ([]byte, error) {
	if r.Descriptor != nil {
		return json.Marshal(r.Descriptor)
	}
	return json.Marshal(r.ID)
}

// IsZero reports whether neither an id nor a descriptor was given
func (r TemplateRef) IsZero() bool { return r.ID == "" && r.Descriptor == nil }
