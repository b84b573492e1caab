package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// TemplateIDPattern restricts template ids to safe tokens such as ats_classic_standard
var TemplateIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidateTemplateID validates that the template id is a safe token
func ValidateTemplateID(fl validator.FieldLevel) bool {
	return TemplateIDPattern.MatchString(fl.Field().String())
}

// RegisterRenderValidators registers the custom validators used by the API
func RegisterRenderValidators(v *validator.Validate) {
	_ = v.RegisterValidation("template_id", ValidateTemplateID)
}

// New returns a validator with the render validators registered
func New() *validator.Validate {
	v := validator.New()
	RegisterRenderValidators(v)
	return v
}

// TemplateParams binds GET /templates/:id
type TemplateParams struct {
	ID string `param:"id" validate:"required,template_id"`
}

// RenderQuery binds the optional query string of the render endpoints
type RenderQuery struct {
	NoCache bool `query:"no_cache"`
	Inline  bool `query:"inline"`
}
