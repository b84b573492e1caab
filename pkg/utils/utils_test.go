package utils

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-render/internal/config"
)

func TestBuildPDFFilename(t *testing.T) {
	cases := []struct {
		name, template, want string
	}{
		{"Jane Doe", "ATS Classic Standard", "Jane_Doe-ATS_Classic_Standard.pdf"},
		{"  Jane   Q.  Doe ", "Modern", "Jane_Q_Doe-Modern.pdf"},
		{"李小龍", "Ünï", "resume-n.pdf"},
		{"", "", "resume-ats.pdf"},
		{"O'Brien-Smith", "tech_engineer", "OBrien-Smith-tech_engineer.pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildPDFFilename(tc.name, tc.template))
		})
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 80))
	assert.Len(t, got, 50)
}

func TestDispositions(t *testing.T) {
	assert.Equal(t, `attachment; filename="a.pdf"`, ContentDisposition("a.pdf"))
	assert.Equal(t, `inline; filename="a.pdf"`, InlineDisposition("a.pdf"))
}

func TestCustomError(t *testing.T) {
	err := NewBadRequestError(CodeMissingField, "A required field is missing")
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "A required field is missing", err.Error())

	withDetail := err.WithDetail("template")
	assert.Equal(t, "A required field is missing: template", withDetail.Error())
	assert.Empty(t, err.Detail, "WithDetail must not mutate the receiver")

	assert.Equal(t, CodeRendererUnavailable, NewUnavailableError("down").Code)
	assert.Equal(t, http.StatusTooManyRequests, NewTooManyRequestsError("slow down").Status)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError(CodeTemplateNotFound, "nope").Status)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestPDFCacheKey(t *testing.T) {
	a := PDFCacheKey("<html>a</html>")
	assert.Equal(t, a, PDFCacheKey("<html>a</html>"))
	assert.NotEqual(t, a, PDFCacheKey("<html>b</html>"))
	assert.True(t, strings.HasPrefix(a, "resume-render:pdf:"))
}

func TestRedisUnreachableIsNotAMiss(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.URL = "redis://127.0.0.1:1/0"
	cfg.Redis.Timeout = 200 * time.Millisecond
	client := NewRedisClient(cfg)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.GetPDF(ctx, "<html></html>")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
	assert.Error(t, client.IsHealthy(ctx))
}
