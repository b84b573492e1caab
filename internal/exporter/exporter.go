package exporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-render/internal/logging"
	"resume-render/internal/pdf"
	"resume-render/internal/render"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

// Sentinel errors to allow precise mapping in handlers
var (
	ErrEmptyBody           = errors.New("empty_body")
	ErrMalformedJSON       = errors.New("malformed_json")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrMissingField        = errors.New("missing_field")
	ErrHTMLGeneration      = errors.New("html_generation_failed")
	ErrPDFGeneration       = errors.New("pdf_generation_failed")
	ErrRendererUnavailable = errors.New("renderer_unavailable")
)

// Converter turns a finished HTML document into PDF bytes
type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// Cache stores PDFs by the HTML they were printed from
type Cache interface {
	GetPDF(ctx context.Context, html string) ([]byte, error)
	PutPDF(ctx context.Context, html string, pdf []byte) error
}

// Templates resolves registry ids
type Templates interface {
	Lookup(id string) (models.TemplateDescriptor, bool)
}

// Observer receives render outcomes
type Observer interface {
	RenderObserved(format, templateID string, d time.Duration, err error)
	CacheLookup(hit bool)
	SectionFailed(kind string)
}

// Service runs render calls end to end
type Service struct {
	engine    *render.Engine
	templates Templates
	converter Converter
	cache     Cache
	observer  Observer
	logger    logging.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithCache enables the PDF cache
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithObserver registers a render observer
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// NewService wires the render engine, template registry and converter. A nil
// converter limits the service to HTML output.
func NewService(engine *render.Engine, templates Templates, converter Converter, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Service{
		engine:    engine,
		templates: templates,
		converter: converter,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HTMLResult is a rendered document
type HTMLResult struct {
	HTML           string
	Template       models.TemplateDescriptor
	Findings       []string
	FailedSections []string
}

// PDFResult is a converted document
type PDFResult struct {
	PDF      []byte
	Filename string
	Template models.TemplateDescriptor
	Cached   bool
}

// ResolveTemplate turns a request's template reference into a descriptor.
// Unknown ids never fail: the id is kept on a minimal single-column
// descriptor so the document still renders.
func (s *Service) ResolveTemplate(ref models.TemplateRef) models.TemplateDescriptor {
	if ref.Descriptor != nil {
		desc := ref.Descriptor.Clone()
		if desc.Styles == nil {
			s.logger.Warn("Template has no styles block, using defaults", map[string]interface{}{
				"template_id": desc.ID,
			})
		}
		return desc
	}

	if s.templates != nil {
		if desc, ok := s.templates.Lookup(ref.ID); ok {
			return desc
		}
	}
	s.logger.Warn("Template not found in registry, rendering with defaults", map[string]interface{}{
		"template_id": ref.ID,
	})
	return models.TemplateDescriptor{
		ID:     ref.ID,
		Name:   ref.ID,
		Layout: models.TemplateLayout{Columns: 1},
	}
}

// RenderHTML renders the request into an HTML document
func (s *Service) RenderHTML(ctx context.Context, req *models.RenderRequest, opts models.RenderOptions) (*HTMLResult, error) {
	start := time.Now()
	res, err := s.renderHTML(ctx, req, opts)
	s.observe("html", req, start, err)
	return res, err
}

func (s *Service) renderHTML(_ context.Context, req *models.RenderRequest, opts models.RenderOptions) (*HTMLResult, error) {
	if err := CheckRequest(req); err != nil {
		return nil, err
	}

	desc := s.ResolveTemplate(req.Template)
	logger := s.logger.WithFields(map[string]interface{}{
		"request_id":  opts.RequestID,
		"template_id": desc.ID,
	})

	result, err := s.engine.Render(req.Data, desc)
	if err != nil {
		logger.Error("Failed to render resume HTML", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrHTMLGeneration, err)
	}

	out := &HTMLResult{HTML: result.HTML, Template: desc, Findings: result.Findings}
	for _, f := range result.Failed() {
		out.FailedSections = append(out.FailedSections, string(f.Kind))
		if s.observer != nil {
			s.observer.SectionFailed(string(f.Kind))
		}
	}

	logger.Debug("Resume HTML rendered", map[string]interface{}{
		"bytes":           len(out.HTML),
		"failed_sections": out.FailedSections,
	})
	return out, nil
}

// RenderPDF renders the request and converts the document to PDF
func (s *Service) RenderPDF(ctx context.Context, req *models.RenderRequest, opts models.RenderOptions) (*PDFResult, error) {
	start := time.Now()
	res, err := s.renderPDF(ctx, req, opts)
	s.observe("pdf", req, start, err)
	return res, err
}

func (s *Service) renderPDF(ctx context.Context, req *models.RenderRequest, opts models.RenderOptions) (*PDFResult, error) {
	doc, err := s.renderHTML(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(map[string]interface{}{
		"request_id":  opts.RequestID,
		"template_id": doc.Template.ID,
	})
	out := &PDFResult{
		Filename: utils.BuildPDFFilename(req.Data.Name.String(), doc.Template.Name),
		Template: doc.Template,
	}

	if s.cache != nil && !opts.SkipCache {
		cached, err := s.cache.GetPDF(ctx, doc.HTML)
		switch {
		case err == nil:
			if s.observer != nil {
				s.observer.CacheLookup(true)
			}
			logger.Debug("Serving cached PDF", map[string]interface{}{"bytes": len(cached)})
			out.PDF, out.Cached = cached, true
			return out, nil
		case errors.Is(err, utils.ErrCacheMiss):
			if s.observer != nil {
				s.observer.CacheLookup(false)
			}
		default:
			logger.Warn("PDF cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.converter == nil {
		return nil, fmt.Errorf("%w: no pdf converter configured", ErrRendererUnavailable)
	}

	data, err := s.converter.Convert(ctx, doc.HTML)
	if err != nil {
		logger.Error("PDF conversion failed", map[string]interface{}{
			"error":           err.Error(),
			"connection_lost": pdf.IsConnectionLost(err),
		})
		if errors.Is(err, pdf.ErrUnavailable) || errors.Is(err, pdf.ErrPoolClosed) {
			return nil, fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	out.PDF = data

	if s.cache != nil {
		if err := s.cache.PutPDF(ctx, doc.HTML, data); err != nil {
			logger.Warn("Failed to cache PDF", map[string]interface{}{"error": err.Error()})
		}
	}

	logger.Info("PDF rendered", map[string]interface{}{
		"bytes":    len(data),
		"filename": out.Filename,
	})
	return out, nil
}

func (s *Service) observe(format string, req *models.RenderRequest, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	templateID := ""
	if req != nil {
		templateID = req.Template.ID
	}
	s.observer.RenderObserved(format, templateID, time.Since(start), err)
}
