package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"resume-render/internal/api/middleware"
	"resume-render/internal/api/validation"
	"resume-render/internal/templates"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

// ListTemplatesHandler handles GET /api/v1/templates
func ListTemplatesHandler(reg *templates.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		summaries := reg.Summaries()
		return c.JSON(http.StatusOK, models.TemplateListResponse{
			Templates: summaries,
			Count:     len(summaries),
		})
	}
}

// GetTemplateHandler handles GET /api/v1/templates/:id
func GetTemplateHandler(reg *templates.Registry, v *validator.Validate) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)

		params := validation.TemplateParams{ID: c.Param("id")}
		if err := v.Struct(&params); err != nil {
			return writeError(c, requestID,
				utils.NewBadRequestError(utils.CodeInvalidPayload, "Invalid template id").WithDetail(params.ID))
		}

		desc, ok := reg.Lookup(params.ID)
		if !ok {
			return writeError(c, requestID,
				utils.NewNotFoundError(utils.CodeTemplateNotFound, "Template not found").WithDetail(params.ID))
		}
		return c.JSON(http.StatusOK, desc)
	}
}
