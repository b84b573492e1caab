package render

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-render/pkg/models"
)

func TestSafeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want template.HTML
	}{
		{"empty", "", ""},
		{"null marker", "null", ""},
		{"undefined marker", " undefined ", ""},
		{"trims", "  Go developer ", "Go developer"},
		{"double star bold", "**Led** the team", "<strong>Led</strong> the team"},
		{"underscore bold", "Shipped __v2__ early", "Shipped <strong>v2</strong> early"},
		{"escapes text", "R&D", "R&amp;D"},
		{"keeps bracketed words", "Languages: <Go>, C++ & Rust", "Languages: &lt;Go&gt;, C++ &amp; Rust"},
		{"keeps comparisons", "latency < 5ms", "latency &lt; 5ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeText(tt.in))
		})
	}
}

func TestSafeTextNeutralizesMarkupAndIsIdempotent(t *testing.T) {
	out := SafeText(`<script>alert(1)</script><a href="x">link</a> **ok**`)
	assert.NotContains(t, string(out), "<script")
	assert.NotContains(t, string(out), "<a ")
	assert.Contains(t, string(out), "&lt;script&gt;")
	assert.Contains(t, string(out), "link")
	assert.Contains(t, string(out), "<strong>ok</strong>")

	assert.Equal(t, template.HTML("<em>x</em>"), SafeText("<em>x</em>"))

	for _, in := range []string{"**bold** & more", "Languages: <Go>, C++ & Rust"} {
		once := SafeText(in)
		assert.Equal(t, once, SafeText(string(once)), in)
	}
}

func TestSafeDate(t *testing.T) {
	assert.Equal(t, "", SafeDate(""))
	assert.Equal(t, "", SafeDate("ongoing"))
	assert.Equal(t, "", SafeDate(" Ongoing "))
	assert.Equal(t, "", SafeDate("null"))
	assert.Equal(t, "Jan 2020", SafeDate(" Jan 2020 "))
	assert.Equal(t, "Present", SafeDate("Present"))
}

func TestSafeDateRange(t *testing.T) {
	assert.Equal(t, "Jan 2020", SafeDateRange("Jan 2020", ""))
	assert.Equal(t, "Dec 2022", SafeDateRange("", "Dec 2022"))
	assert.Equal(t, "", SafeDateRange("", ""))
	assert.Equal(t, "Jan 2020 - Dec 2022", SafeDateRange("Jan 2020", "Dec 2022"))
	assert.Equal(t, "Jan 2020", SafeDateRange("Jan 2020", "ongoing"))
	assert.Equal(t, "", SafeDateRange("ongoing", "undefined"))
}

func TestSplitBulletsDecision(t *testing.T) {
	t.Run("single plain line is a paragraph", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionText("Built the billing system"))
		assert.False(t, list)
		assert.Equal(t, []string{"Built the billing system"}, lines)
	})

	t.Run("single marked list item stays a paragraph", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionList("- Led team"))
		assert.False(t, list)
		assert.Equal(t, []string{"- Led team"}, lines)
	})

	t.Run("two marked lines become list items without markers", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionText("- Led team\n- Shipped product"))
		assert.True(t, list)
		assert.Equal(t, []string{"Led team", "Shipped product"}, lines)
	})

	t.Run("mixed markers are all stripped", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionText("• one\n* two\nthree"))
		assert.True(t, list)
		assert.Equal(t, []string{"one", "two", "three"}, lines)
	})

	t.Run("single marked line stays a paragraph", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionText("- only one"))
		assert.False(t, list)
		assert.Equal(t, []string{"- only one"}, lines)
	})

	t.Run("blank input", func(t *testing.T) {
		lines, list := SplitBullets(models.DescriptionText(" \n \n"))
		assert.Empty(t, lines)
		assert.False(t, list)
	})
}

func TestSplitBulletsStringAndListAgree(t *testing.T) {
	fromText, textList := SplitBullets(models.DescriptionText("alpha\n\n  beta  \n"))
	fromList, listList := SplitBullets(models.DescriptionList(" alpha", "", "beta "))
	assert.Equal(t, fromText, fromList)
	assert.Equal(t, textList, listList)
}

func TestSplitBulletsExcludesRedundantFirstLine(t *testing.T) {
	lines, list := SplitBullets(models.DescriptionText("Volunteers\n- Helped at the food bank"), "Volunteers", "Food Bank")
	assert.Equal(t, []string{"- Helped at the food bank"}, lines)
	assert.False(t, list)

	lines, _ = SplitBullets(models.DescriptionText("- Served as Mentor\nTaught Go\nReviewed code"), "", "mentor")
	assert.Equal(t, []string{"Taught Go", "Reviewed code"}, lines)

	lines, _ = SplitBullets(models.DescriptionText("Mentoring juniors\nTaught Go"), "mentor")
	assert.Equal(t, []string{"Mentoring juniors", "Taught Go"}, lines)
}

func TestCSSValue(t *testing.T) {
	assert.Equal(t, template.CSS("#1e40af"), cssValue("#1e40af", "#000"))
	assert.Equal(t, template.CSS("'Times New Roman', serif"), cssValue("'Times New Roman', serif", "x"))
	assert.Equal(t, template.CSS("rgba(0,0,0,0.5)"), cssValue("rgba(0,0,0,0.5)", "x"))
	assert.Equal(t, template.CSS("#000"), cssValue("", "#000"))
	assert.Equal(t, template.CSS("#000"), cssValue("url(http://evil)", "#000"))
	assert.Equal(t, template.CSS("red body displaynone"), cssValue("red;} body {display:none", "#000"))
}
