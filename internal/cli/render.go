package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-render/internal/config"
	"resume-render/internal/exporter"
	"resume-render/internal/pdf"
	"resume-render/internal/render"
	"resume-render/internal/templates"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

type renderOptions struct {
	input      string
	template   string
	format     string
	output     string
	configPath string
	engine     string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a resume JSON file to PDF or HTML",
		Long: `Render reads either a bare resume document or a full request envelope
({"data": ..., "template": ...}) and writes the result to --output.

PDF output defaults to the generated file name in the current directory;
HTML output defaults to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "resume JSON file, - for stdin (required)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template id, overrides the document's template")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "pdf", "output format: pdf or html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "service configuration file")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "browser driver: rod or chromedp")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRender(ctx context.Context, opts renderOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	log := loggerFromContext(ctx)

	format := strings.ToLower(opts.format)
	if format != "pdf" && format != "html" {
		return fmt.Errorf("unsupported format %q: want pdf or html", opts.format)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.engine != "" {
		cfg.PDF.Engine = opts.engine
	}

	raw, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}
	body, err := buildEnvelope(raw, opts.template, cfg.Templates.DefaultID)
	if err != nil {
		return err
	}
	req, err := exporter.ParseRequest(body)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}

	logger := serviceLogger(stderr, log)
	reg, err := templates.Default()
	if err != nil {
		return fmt.Errorf("load template catalog: %w", err)
	}
	engine, err := render.NewEngine(logger)
	if err != nil {
		return fmt.Errorf("compile templates: %w", err)
	}

	renderOpts := models.RenderOptions{RequestID: utils.GenerateRequestID(), SkipCache: true}
	p := newProgress(log)

	if format == "html" {
		svc := exporter.NewService(engine, reg, nil, logger)
		res, err := svc.RenderHTML(ctx, req, renderOpts)
		if err != nil {
			return err
		}
		for _, kind := range res.FailedSections {
			log.Warn("Section failed to render", "section", kind)
		}
		if err := writeOutput(opts.output, stdout, []byte(res.HTML)); err != nil {
			return err
		}
		p.done("Rendered HTML", "template", res.Template.ID, "bytes", len(res.HTML))
		return nil
	}

	launcher, err := pdf.NewLauncher(cfg, logger)
	if err != nil {
		return err
	}
	pool := pdf.NewPool(launcher, cfg, logger)
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), cfg.PDF.ProbeTimeout)
		defer cancel()
		if err := pool.Teardown(tctx); err != nil {
			log.Warn("Browser did not shut down cleanly", "err", err)
		}
	}()

	log.Debug("Rendering PDF", "engine", launcher.Name(), "template", req.Template.ID)
	svc := exporter.NewService(engine, reg, pool, logger)
	res, err := svc.RenderPDF(ctx, req, renderOpts)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = res.Filename
	}
	if err := writeOutput(out, stdout, res.PDF); err != nil {
		return err
	}
	p.done("Rendered PDF", "file", out, "template", res.Template.ID, "bytes", len(res.PDF))
	return nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// buildEnvelope accepts a full request or a bare resume document. The
// --template flag wins over the document; defaultID fills a missing template.
func buildEnvelope(raw []byte, templateID, defaultID string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		// let ParseRequest report the precise error class
		return raw, nil
	}
	if _, ok := doc["data"]; !ok {
		doc = map[string]json.RawMessage{"data": json.RawMessage(raw)}
	}

	switch {
	case templateID != "":
		doc["template"] = quote(templateID)
	case defaultID != "":
		if t, ok := doc["template"]; !ok || string(t) == "null" {
			doc["template"] = quote(defaultID)
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Join(exporter.ErrMalformedJSON, err)
	}
	return out, nil
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
