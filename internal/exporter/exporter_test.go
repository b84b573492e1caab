package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-render/internal/logging"
	"resume-render/internal/pdf"
	"resume-render/internal/render"
	"resume-render/internal/templates"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

type fakeConverter struct {
	mu    sync.Mutex
	calls []string
	out   []byte
	err   error
}

func (f *fakeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, html)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return []byte("%PDF-1.4"), nil
}

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	putErr  error
	puts    int
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string][]byte{}} }

func (m *memoryCache) GetPDF(ctx context.Context, html string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.entries[utils.PDFCacheKey(html)]
	if !ok {
		return nil, utils.ErrCacheMiss
	}
	return data, nil
}

func (m *memoryCache) PutPDF(ctx context.Context, html string, data []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[utils.PDFCacheKey(html)] = data
	return nil
}

type countingObserver struct {
	renders  map[string]int
	failures int
	hits     int
	misses   int
	sections []string
}

func (o *countingObserver) RenderObserved(format, templateID string, d time.Duration, err error) {
	if o.renders == nil {
		o.renders = map[string]int{}
	}
	o.renders[format]++
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) CacheLookup(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *countingObserver) SectionFailed(kind string) { o.sections = append(o.sections, kind) }

func newTestService(t *testing.T, conv Converter, opts ...Option) *Service {
	t.Helper()
	logger := logging.NewMultiLogger()
	engine, err := render.NewEngine(logger)
	require.NoError(t, err)
	return NewService(engine, templates.MustDefault(), conv, logger, opts...)
}

func sampleRequest(templateID string) *models.RenderRequest {
	return &models.RenderRequest{
		Data: &models.ResumeData{
			Name:    "Jane Doe",
			Email:   "jane@example.com",
			Summary: "Builds reliable systems",
			Skills:  []models.Skill{{Name: "Go"}},
		},
		Template: models.TemplateRef{ID: templateID},
	}
}

func TestParseRequestErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"empty", "", ErrEmptyBody},
		{"whitespace", "  \n\t", ErrEmptyBody},
		{"truncated", `{"data": {`, ErrMalformedJSON},
		{"not json", `data=1`, ErrMalformedJSON},
		{"array", `[{"data": {}}]`, ErrInvalidPayload},
		{"data string", `{"data": "jane", "template": "ats_classic_standard"}`, ErrInvalidPayload},
		{"template number", `{"data": {}, "template": 7}`, ErrInvalidPayload},
		{"bad nested type", `{"data": {"experience": "lots"}, "template": "x"}`, ErrInvalidPayload},
		{"missing data", `{"template": "ats_classic_standard"}`, ErrMissingField},
		{"null data", `{"data": null, "template": "ats_classic_standard"}`, ErrMissingField},
		{"missing template", `{"data": {"name": "Jane"}}`, ErrMissingField},
		{"blank template", `{"data": {"name": "Jane"}, "template": "  "}`, ErrMissingField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseRequestMissingFieldNamesField(t *testing.T) {
	_, err := ParseRequest([]byte(`{"template": "x"}`))
	assert.EqualError(t, err, "missing_field: data")

	_, err = ParseRequest([]byte(`{"data": {}}`))
	assert.EqualError(t, err, "missing_field: template")
}

func TestParseRequestAcceptsIDAndDescriptor(t *testing.T) {
	req, err := ParseRequest([]byte(`{"data": {"name": "Jane"}, "template": "ats_classic_standard"}`))
	require.NoError(t, err)
	assert.Equal(t, "ats_classic_standard", req.Template.ID)
	assert.Nil(t, req.Template.Descriptor)
	assert.Equal(t, models.Text("Jane"), req.Data.Name)

	req, err = ParseRequest([]byte(`{"data": {"name": "Jane"}, "template": {"id": "inline", "layout": {"columns": 2}}}`))
	require.NoError(t, err)
	require.NotNil(t, req.Template.Descriptor)
	assert.Equal(t, "inline", req.Template.ID)
	assert.True(t, req.Template.Descriptor.Layout.TwoColumn())
}

func TestResolveTemplate(t *testing.T) {
	s := newTestService(t, nil)

	desc := s.ResolveTemplate(models.TemplateRef{ID: "ATS_Classic_Standard"})
	assert.Equal(t, "ats_classic_standard", desc.ID)
	assert.Equal(t, "ATS Classic Standard", desc.Name)

	desc = s.ResolveTemplate(models.TemplateRef{ID: "no_such_template"})
	assert.Equal(t, "no_such_template", desc.ID)
	assert.Equal(t, 1, desc.Layout.Columns)
	assert.Nil(t, desc.Styles)

	inline := &models.TemplateDescriptor{ID: "ats_classic_standard", Name: "Mine"}
	desc = s.ResolveTemplate(models.TemplateRef{ID: inline.ID, Descriptor: inline})
	assert.Equal(t, "Mine", desc.Name, "inline descriptors are used as given")
}

func TestRenderHTML(t *testing.T) {
	obs := &countingObserver{}
	s := newTestService(t, nil, WithObserver(obs))

	res, err := s.RenderHTML(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Jane Doe")
	assert.Contains(t, res.HTML, "<!DOCTYPE html>")
	assert.Equal(t, "ats_classic_standard", res.Template.ID)
	assert.Empty(t, res.Findings)
	assert.Empty(t, res.FailedSections)
	assert.Equal(t, 1, obs.renders["html"])
}

func TestRenderHTMLUnknownTemplateStillRenders(t *testing.T) {
	s := newTestService(t, nil)

	res, err := s.RenderHTML(context.Background(), sampleRequest("made_up"), models.RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Jane Doe")
}

func TestRenderHTMLMissingData(t *testing.T) {
	obs := &countingObserver{}
	s := newTestService(t, nil, WithObserver(obs))

	_, err := s.RenderHTML(context.Background(), &models.RenderRequest{Template: models.TemplateRef{ID: "x"}}, models.RenderOptions{})
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, 1, obs.failures)
}

func TestRenderPDF(t *testing.T) {
	conv := &fakeConverter{}
	s := newTestService(t, conv)

	htmlRes, err := s.RenderHTML(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
	require.NoError(t, err)

	res, err := s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), res.PDF)
	assert.Equal(t, "Jane_Doe-ATS_Classic_Standard.pdf", res.Filename)
	assert.False(t, res.Cached)

	require.Len(t, conv.calls, 1)
	assert.Equal(t, htmlRes.HTML, conv.calls[0], "the converter prints exactly the rendered document")
}

func TestRenderPDFFilenameFallsBack(t *testing.T) {
	s := newTestService(t, &fakeConverter{})

	req := sampleRequest("ats_classic_standard")
	req.Data.Name = "李小龍"
	req.Template = models.TemplateRef{ID: "inline", Descriptor: &models.TemplateDescriptor{ID: "inline", Name: "Ünï"}}

	res, err := s.RenderPDF(context.Background(), req, models.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "resume-n.pdf", res.Filename)

	req.Template.Descriptor.Name = "★"
	res, err = s.RenderPDF(context.Background(), req, models.RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "resume-ats.pdf", res.Filename)
}

func TestRenderPDFErrorClasses(t *testing.T) {
	cases := []struct {
		name string
		conv Converter
		want error
	}{
		{"connection lost twice", &fakeConverter{err: fmt.Errorf("print pdf: %w", pdf.ErrConnectionLost)}, ErrPDFGeneration},
		{"printing failed", &fakeConverter{err: errors.New("Printing failed")}, ErrPDFGeneration},
		{"deadline", &fakeConverter{err: context.DeadlineExceeded}, ErrPDFGeneration},
		{"launch failed", &fakeConverter{err: fmt.Errorf("%w: chrome missing", pdf.ErrUnavailable)}, ErrRendererUnavailable},
		{"pool closed", &fakeConverter{err: pdf.ErrPoolClosed}, ErrRendererUnavailable},
		{"no converter", nil, ErrRendererUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestService(t, tc.conv)
			_, err := s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRenderPDFCache(t *testing.T) {
	conv := &fakeConverter{}
	cache := newMemoryCache()
	obs := &countingObserver{}
	s := newTestService(t, conv, WithCache(cache), WithObserver(obs))

	first, err := s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.PDF, second.PDF)
	assert.Equal(t, first.Filename, second.Filename)
	assert.Len(t, conv.calls, 1)

	_, err = s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{SkipCache: true})
	require.NoError(t, err)
	assert.Len(t, conv.calls, 2)

	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 3, obs.renders["pdf"])
}

func TestRenderPDFCacheFailuresAreNotFatal(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("dial tcp: connection refused")
	cache.putErr = errors.New("dial tcp: connection refused")
	conv := &fakeConverter{}
	s := newTestService(t, conv, WithCache(cache))

	res, err := s.RenderPDF(context.Background(), sampleRequest("ats_classic_standard"), models.RenderOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.PDF)
	assert.Len(t, conv.calls, 1)
	assert.Equal(t, 1, cache.puts)
}
