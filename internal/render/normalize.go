package render

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"resume-render/pkg/models"
)

var (
	boldStars      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderscore = regexp.MustCompile(`__(.+?)__`)
	bulletMarker   = regexp.MustCompile(`^[-•*]`)
	bulletPrefix   = regexp.MustCompile(`^[-•*]\s*`)

	// inline lets through only what bold conversion itself produces, so
	// running SafeText over its own output is a no-op.
	inline    = bluemonday.StrictPolicy().AllowElements("strong", "b", "em", "i", "br")
	inlineTag = regexp.MustCompile(`(?i)^</?(?:strong|b|em|i|br)(?:[\s/>]|$)`)
)

// Plain returns the trimmed value, or "" for the missing-value markers that
// editors serialize ("null", "undefined").
func Plain(value string) string {
	s := strings.TrimSpace(value)
	switch s {
	case "null", "undefined":
		return ""
	}
	return s
}

// SafeText sanitizes value and converts **x** and __x__ to <strong>x</strong>.
// Angle brackets that do not open an inline tag are kept as text, so
// "<Go>" renders literally instead of vanishing.
func SafeText(value string) template.HTML {
	s := Plain(value)
	if s == "" {
		return ""
	}
	s = inline.Sanitize(escapeStrayBrackets(s))
	s = boldStars.ReplaceAllString(s, "<strong>$1</strong>")
	s = boldUnderscore.ReplaceAllString(s, "<strong>$1</strong>")
	return template.HTML(s)
}

func escapeStrayBrackets(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !inlineTag.MatchString(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// SafeDate returns the trimmed display string, or "" when the value is blank,
// a missing-value marker, or the token "ongoing".
func SafeDate(value string) string {
	s := Plain(value)
	switch strings.ToLower(s) {
	case "", "ongoing", "null", "undefined":
		return ""
	}
	return s
}

// SafeDateRange joins start and end with " - " only when both are present
func SafeDateRange(start, end string) string {
	s, e := SafeDate(start), SafeDate(end)
	switch {
	case s == "":
		return e
	case e == "":
		return s
	default:
		return s + " - " + e
	}
}

// Bullets is a description split into display lines with the list/paragraph
// decision already made.
type Bullets struct {
	S     *styleContext
	List  bool
	Lines []template.HTML
}

// Empty reports whether there is nothing to render
func (b Bullets) Empty() bool { return len(b.Lines) == 0 }

// descriptionLines normalizes both description forms into trimmed, non-empty lines
func descriptionLines(d models.Description) []string {
	var raw []string
	if d.List {
		raw = d.Items
	} else {
		raw = strings.Split(d.Text, "\n")
	}
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = Plain(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// SplitBullets applies the bullet-vs-paragraph rule. A first line that repeats
// one of exclude (exactly, or as "as {entry}") is dropped before deciding.
func SplitBullets(d models.Description, exclude ...string) (lines []string, list bool) {
	lines = descriptionLines(d)
	if len(lines) == 0 {
		return nil, false
	}

	normalized := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			normalized = append(normalized, e)
		}
	}
	if len(normalized) > 0 {
		first := strings.ToLower(strings.TrimSpace(bulletPrefix.ReplaceAllString(lines[0], "")))
		for _, e := range normalized {
			if first == e || strings.Contains(first, "as "+e) {
				lines = lines[1:]
				break
			}
		}
	}

	marked := 0
	for _, l := range lines {
		if bulletMarker.MatchString(l) {
			marked++
		}
	}
	threshold := float64(len(lines)) / 2
	if threshold < 2 {
		threshold = 2
	}
	list = len(lines) > 1 || float64(marked) >= threshold

	if list {
		for i, l := range lines {
			lines[i] = bulletPrefix.ReplaceAllString(l, "")
		}
	}
	return lines, list
}

func bulletsFor(s *styleContext, d models.Description, exclude ...string) Bullets {
	lines, list := SplitBullets(d, exclude...)
	b := Bullets{S: s, List: list, Lines: make([]template.HTML, 0, len(lines))}
	for _, l := range lines {
		if h := SafeText(l); h != "" {
			b.Lines = append(b.Lines, h)
		}
	}
	return b
}
