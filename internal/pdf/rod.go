package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

// RodLauncher starts Chromium through go-rod
type RodLauncher struct {
	headless   bool
	chromePath string
	logger     logging.Logger
}

// NewRodLauncher creates a launcher from the pdf section of cfg
func NewRodLauncher(cfg *config.Config, logger logging.Logger) *RodLauncher {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RodLauncher{
		headless:   cfg.PDF.Headless,
		chromePath: cfg.PDF.ChromePath,
		logger:     logger,
	}
}

// Name implements Launcher
func (r *RodLauncher) Name() string { return "rod" }

// Launch implements Launcher. ctx only bounds the startup; the browser
// outlives it.
func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().
		Headless(r.headless).
		NoSandbox(true).
		Set("font-render-hinting", "none").
		Set("force-color-profile", "srgb")
	for _, f := range launchFlags {
		l = l.Set(flags.Flag(f))
	}

	if path := chromePath(r.chromePath); path != "" {
		l = l.Bin(path)
		r.logger.Debug("Using system Chrome", map[string]interface{}{"chrome_path": path})
	} else {
		r.logger.Warn("System Chrome not found, rod will download a browser")
	}

	url, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return &rodBrowser{
		browser:  b.Context(context.Background()),
		launcher: l,
	}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	p, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, classify("create page", err)
	}
	p = p.Context(context.Background())

	err = p.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             ViewportWidth,
		Height:            ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = p.Close()
		return nil, classify("set viewport", err)
	}
	return &rodPage{page: p}, nil
}

func (b *rodBrowser) Probe(ctx context.Context) error {
	_, err := proto.BrowserGetVersion{}.Call(b.browser.Context(ctx))
	return classify("probe browser", err)
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) SetContent(ctx context.Context, html string) error {
	page := p.page.Context(ctx)
	if err := page.SetDocumentContent(html); err != nil {
		return classify("set content", err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify("wait load", err)
	}
	if _, err := page.Eval(waitImagesJS); err != nil {
		return classify("wait images", err)
	}
	return nil
}

func (p *rodPage) WaitFonts(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(waitFontsJS)
	return classify("wait fonts", err)
}

func (p *rodPage) PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error) {
	stream, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:        f64(opts.PaperWidth),
		PaperHeight:       f64(opts.PaperHeight),
		MarginTop:         f64(opts.MarginTop),
		MarginRight:       f64(opts.MarginRight),
		MarginBottom:      f64(opts.MarginBottom),
		MarginLeft:        f64(opts.MarginLeft),
		PrintBackground:   opts.PrintBackground,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, classify("print pdf", err)
	}

	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, classify("read pdf stream", err)
	}
	return out, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

func f64(v float64) *float64 { return &v }
