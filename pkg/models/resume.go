package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a display scalar. Editors send numbers and booleans where strings are
// expected, so any JSON scalar decodes into it and null decodes to "".
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null
func (t *Text) UnmarshalJSON(data []byte) error {
	s, err := decodeScalar(data)
	if err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

func (t Text) String() string { return string(t) }

// Blank reports whether the value has no visible content
func (t Text) Blank() bool { return strings.TrimSpace(string(t)) == "" }

func decodeScalar(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", v)
	}
}

// Description is free-form body text: either one string (optionally
// newline-separated and bullet-prefixed) or a list of lines.
type Description struct {
	Text  string
	Items []string
	List  bool
}

// DescriptionText builds a single-string description
func DescriptionText(s string) Description { return Description{Text: s} }

// DescriptionList builds a list description
func DescriptionList(items ...string) Description { return Description{Items: items, List: true} }

// UnmarshalJSON accepts a string, an array of scalars, or null
func (d *Description) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []Text
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		d.List = true
		d.Text = ""
		d.Items = make([]string, 0, len(items))
		for _, item := range items {
			d.Items = append(d.Items, string(item))
		}
		return nil
	}
	s, err := decodeScalar(trimmed)
	if err != nil {
		return err
	}
	*d = Description{Text: s}
	return nil
}

// MarshalJSON writes the form the value was decoded from
func (d Description) MarshalJSON() ([]byte, error) {
	if d.List {
		if d.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.Items)
	}
	return json.Marshal(d.Text)
}

// Present reports whether any line carries visible content
func (d Description) Present() bool {
	if !d.List {
		return strings.TrimSpace(d.Text) != ""
	}
	for _, item := range d.Items {
		if strings.TrimSpace(item) != "" {
			return true
		}
	}
	return false
}

// Joined flattens the description into one string using sep between list items
func (d Description) Joined(sep string) string {
	if !d.List {
		return d.Text
	}
	parts := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		if s := strings.TrimSpace(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// Skill accepts either a bare string or an object with a name (or skill) field
type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

func (s *Skill) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw struct {
			Name  Text `json:"name"`
			Skill Text `json:"skill"`
			Level Text `json:"level"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		s.Name = firstNonBlank(string(raw.Name), string(raw.Skill))
		s.Level = string(raw.Level)
		return nil
	}
	name, err := decodeScalar(trimmed)
	if err != nil {
		return err
	}
	*s = Skill{Name: name}
	return nil
}

// Achievement accepts either a bare string or an object with title and description
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (a *Achievement) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw struct {
			Title       Text `json:"title"`
			Name        Text `json:"name"`
			Description Text `json:"description"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		a.Title = firstNonBlank(string(raw.Title), string(raw.Name))
		a.Description = string(raw.Description)
		return nil
	}
	title, err := decodeScalar(trimmed)
	if err != nil {
		return err
	}
	*a = Achievement{Title: title}
	return nil
}

// Language accepts either a bare string or an object with language and proficiency
type Language struct {
	Language    Text `json:"language"`
	Proficiency Text `json:"proficiency,omitempty"`
}

func (l *Language) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		type languageAlias Language
		var raw struct {
			languageAlias
			Name Text `json:"name"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*l = Language(raw.languageAlias)
		if l.Language.Blank() {
			l.Language = raw.Name
		}
		return nil
	}
	name, err := decodeScalar(trimmed)
	if err != nil {
		return err
	}
	*l = Language{Language: Text(name)}
	return nil
}

// Experience is one position held
type Experience struct {
	JobTitle    Text        `json:"jobTitle"`
	Company     Text        `json:"company"`
	StartDate   Text        `json:"startDate"`
	EndDate     Text        `json:"endDate"`
	Description Description `json:"description"`
}

// Education is one degree or course of study. School is accepted as an
// alias for Institution.
type Education struct {
	Degree      Text        `json:"degree"`
	Institution Text        `json:"institution"`
	School      Text        `json:"school,omitempty"`
	Field       Text        `json:"field,omitempty"`
	StartDate   Text        `json:"startDate"`
	EndDate     Text        `json:"endDate"`
	Description Description `json:"description"`
}

// InstitutionName returns the institution, falling back to the school alias
func (e Education) InstitutionName() string {
	return firstNonBlank(string(e.Institution), string(e.School))
}

type Certification struct {
	Name   Text `json:"name"`
	Issuer Text `json:"issuer"`
	Date   Text `json:"date"`
}

type Project struct {
	Name        Text        `json:"name"`
	Description Description `json:"description"`
}

type Award struct {
	Name   Text `json:"name"`
	Issuer Text `json:"issuer"`
	Date   Text `json:"date"`
}

// CustomSection is a free-form entry grouped by Type when rendered
// ("reference", "volunteer", "publication", ...).
type CustomSection struct {
	Type         Text        `json:"type"`
	Name         Text        `json:"name,omitempty"`
	Title        Text        `json:"title,omitempty"`
	Date         Text        `json:"date,omitempty"`
	Description  Description `json:"description"`
	Achievements Description `json:"achievements"`
	Technologies Description `json:"technologies"`
	Email        Text        `json:"email,omitempty"`
	Phone        Text        `json:"phone,omitempty"`
}

// ItemTitle returns name, falling back to title
func (c CustomSection) ItemTitle() string {
	return firstNonBlank(string(c.Name), string(c.Title))
}

// ResumeData is the normalized content of one resume. Every collection may be
// absent or empty; both mean "no section".
type ResumeData struct {
	Name          Text `json:"name"`
	JobTitle      Text `json:"jobTitle"`
	Email         Text `json:"email"`
	Phone         Text `json:"phone"`
	Address       Text `json:"address"`
	LinkedIn      Text `json:"linkedin"`
	Portfolio     Text `json:"portfolio"`
	Website       Text `json:"website,omitempty"`
	DateOfBirth   Text `json:"dateOfBirth"`
	Gender        Text `json:"gender"`
	MaritalStatus Text `json:"maritalStatus"`
	Photo         Text `json:"photo,omitempty"`
	Summary       Text `json:"summary"`

	Experience     []Experience    `json:"experience,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Skills         []Skill         `json:"skills,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Languages      []Language      `json:"languages,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Awards         []Award         `json:"awards,omitempty"`
	Achievements   []Achievement   `json:"achievements,omitempty"`
	CustomSections []CustomSection `json:"customSections,omitempty"`
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
