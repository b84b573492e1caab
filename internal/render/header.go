package render

import (
	"html/template"
	"strings"

	"resume-render/pkg/models"
)

const placeholderName = "Your Name"

type headerView struct {
	S *styleContext

	Name          string
	JobTitle      string
	Email         string
	Phone         string
	Address       string
	DateOfBirth   string
	Gender        string
	MaritalStatus string
	LinkedIn      string
	Portfolio     string
	Web           string

	Photo        template.URL
	ShowPersonal bool

	Banner bannerMetrics
}

// bannerMetrics sizes the centered banner family of headers
type bannerMetrics struct {
	MarginBottom  template.CSS
	Border        template.CSS
	PaddingBottom template.CSS
	NameSize      template.CSS
	NameMargin    template.CSS
	Uppercase     bool
	TitleSize     template.CSS
	TitleMargin   template.CSS
	ContactGap    template.CSS
	ContactSize   template.CSS
}

var (
	standardBanner = bannerMetrics{
		MarginBottom: "1.5rem", Border: "2px", PaddingBottom: "1rem",
		NameSize: "2rem", NameMargin: "0.5rem",
		TitleSize: "1.375rem", TitleMargin: "0.75rem",
		ContactGap: "0.25rem", ContactSize: "0.875rem",
	}
	modernBanner = bannerMetrics{
		MarginBottom: "1.25rem", Border: "2px", PaddingBottom: "0.875rem",
		NameSize: "2.25rem", NameMargin: "0.5rem",
		TitleSize: "1.125rem", TitleMargin: "0.75rem",
		ContactGap: "0.25rem", ContactSize: "0.875rem",
	}
	professionalBanner = bannerMetrics{
		MarginBottom: "1.75rem", Border: "2px", PaddingBottom: "1rem",
		NameSize: "2rem", NameMargin: "0.5rem",
		TitleSize: "1.375rem", TitleMargin: "0.75rem",
		ContactGap: "0.25rem", ContactSize: "0.875rem",
	}
	executiveBanner = bannerMetrics{
		MarginBottom: "2rem", Border: "3px", PaddingBottom: "1.25rem",
		NameSize: "2.5rem", NameMargin: "0.75rem", Uppercase: true,
		TitleSize: "1.5rem", TitleMargin: "1rem",
		ContactGap: "0.5rem", ContactSize: "1rem",
	}
)

// headerTemplate dispatches a header style to its template. Styles without a
// dedicated arrangement use the standard banner.
func headerTemplate(style models.HeaderStyle) (string, bannerMetrics) {
	switch style {
	case models.HeaderExecutiveTwoColumn:
		return "header-executive-two-column", bannerMetrics{}
	case models.HeaderProfileLeft:
		return "header-profile-left", bannerMetrics{}
	case models.HeaderModern:
		return "header-banner", modernBanner
	case models.HeaderProfessional:
		return "header-banner", professionalBanner
	case models.HeaderExecutive:
		return "header-banner", executiveBanner
	case models.HeaderStandard:
		return "header-banner", standardBanner
	default:
		return "header-banner", standardBanner
	}
}

func newHeaderView(s *styleContext, data *models.ResumeData, banner bannerMetrics) headerView {
	v := headerView{
		S:             s,
		Name:          Plain(string(data.Name)),
		JobTitle:      Plain(string(data.JobTitle)),
		Email:         Plain(string(data.Email)),
		Phone:         Plain(string(data.Phone)),
		Address:       Plain(string(data.Address)),
		DateOfBirth:   Plain(string(data.DateOfBirth)),
		Gender:        Plain(string(data.Gender)),
		MaritalStatus: Plain(string(data.MaritalStatus)),
		LinkedIn:      Plain(string(data.LinkedIn)),
		Portfolio:     Plain(string(data.Portfolio)),
		Photo:         photoURL(string(data.Photo)),
		Banner:        banner,
	}
	if v.Name == "" {
		v.Name = placeholderName
	}
	v.Web = v.Portfolio
	if v.Web == "" {
		v.Web = Plain(string(data.Website))
	}
	v.ShowPersonal = v.DateOfBirth != "" || v.Gender != "" || v.MaritalStatus != "" ||
		v.LinkedIn != "" || v.Portfolio != ""
	return v
}

// photoURL admits inline image data and http(s) links; anything else renders
// the placeholder silhouette.
func photoURL(photo string) template.URL {
	p := Plain(photo)
	lower := strings.ToLower(p)
	switch {
	case strings.HasPrefix(lower, "data:image/"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "http://"):
		return template.URL(p)
	}
	return ""
}
