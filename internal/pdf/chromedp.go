package pdf

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

// ChromedpLauncher starts Chromium through chromedp
type ChromedpLauncher struct {
	headless   bool
	chromePath string
	logger     logging.Logger
}

// NewChromedpLauncher creates a launcher from the pdf section of cfg
func NewChromedpLauncher(cfg *config.Config, logger logging.Logger) *ChromedpLauncher {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &ChromedpLauncher{
		headless:   cfg.PDF.Headless,
		chromePath: cfg.PDF.ChromePath,
		logger:     logger,
	}
}

// Name implements Launcher
func (c *ChromedpLauncher) Name() string { return "chromedp" }

// Launch implements Launcher
func (c *ChromedpLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("force-color-profile", "srgb"),
	)
	for _, f := range launchFlags {
		opts = append(opts, chromedp.Flag(f, true))
	}
	if path := chromePath(c.chromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
		c.logger.Debug("Using system Chrome", map[string]interface{}{"chrome_path": path})
	}

	// the allocator and browser contexts own the process, so they hang off
	// Background rather than ctx
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	select {
	case err := <-started:
		if err != nil {
			cancelBrowser()
			cancelAlloc()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	case <-ctx.Done():
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", ctx.Err())
	}

	return &chromedpBrowser{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

type chromedpBrowser struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// bound derives a context from parent that is also cancelled with req
func bound(parent, req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(req, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// requestErr prefers the caller's error over the derived cancellation
func requestErr(op string, req context.Context, err error) error {
	if err != nil && req.Err() != nil {
		return fmt.Errorf("%s: %w", op, req.Err())
	}
	return classify(op, err)
}

func (b *chromedpBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, classify("create page", fmt.Errorf("%w: %v", ErrConnectionLost, err))
	}

	tabCtx, cancelTab := chromedp.NewContext(b.ctx)

	created := make(chan error, 1)
	go func() {
		created <- chromedp.Run(tabCtx, chromedp.EmulateViewport(ViewportWidth, ViewportHeight))
	}()

	select {
	case err := <-created:
		if err != nil {
			cancelTab()
			return nil, classify("create page", err)
		}
	case <-ctx.Done():
		cancelTab()
		return nil, fmt.Errorf("create page: %w", ctx.Err())
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancelTab}, nil
}

func (b *chromedpBrowser) Probe(ctx context.Context) error {
	runCtx, cancel := bound(b.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		_, _, _, _, _, err := browser.GetVersion().Do(cdp.WithExecutor(ctx, c.Browser))
		return err
	}))
	if err != nil && b.ctx.Err() != nil {
		return fmt.Errorf("probe browser: %w: %v", ErrConnectionLost, err)
	}
	return requestErr("probe browser", ctx, err)
}

func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelBrowser()
	b.cancelAlloc()
	return err
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func evalPromise(js string) chromedp.Action {
	var done bool
	return chromedp.Evaluate("("+js+")()", &done, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	})
}

func (p *chromedpPage) SetContent(ctx context.Context, html string) error {
	runCtx, cancel := bound(p.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		evalPromise(waitImagesJS),
	)
	return requestErr("set content", ctx, err)
}

func (p *chromedpPage) WaitFonts(ctx context.Context) error {
	runCtx, cancel := bound(p.ctx, ctx)
	defer cancel()
	return requestErr("wait fonts", ctx, chromedp.Run(runCtx, evalPromise(waitFontsJS)))
}

func (p *chromedpPage) PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error) {
	runCtx, cancel := bound(p.ctx, ctx)
	defer cancel()

	var out []byte
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		out, _, err = page.PrintToPDF().
			WithPrintBackground(opts.PrintBackground).
			WithPaperWidth(opts.PaperWidth).
			WithPaperHeight(opts.PaperHeight).
			WithMarginTop(opts.MarginTop).
			WithMarginRight(opts.MarginRight).
			WithMarginBottom(opts.MarginBottom).
			WithMarginLeft(opts.MarginLeft).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, requestErr("print pdf", ctx, err)
	}
	return out, nil
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
