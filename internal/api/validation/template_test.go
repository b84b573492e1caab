package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateIDValidation(t *testing.T) {
	v := New()

	valid := []string{"ats_classic_standard", "ats_two_column_executive", "Custom-1", "x"}
	for _, id := range valid {
		assert.NoError(t, v.Struct(TemplateParams{ID: id}), id)
	}

	invalid := []string{"", "1abc", "../etc/passwd", "with space", "a;drop", "_leading"}
	for _, id := range invalid {
		assert.Error(t, v.Struct(TemplateParams{ID: id}), id)
	}
}
