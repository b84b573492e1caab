package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

// Observer receives pool events; the metrics package implements it
type Observer interface {
	ConversionObserved(engine string, d time.Duration, err error)
	BrowserLaunched(engine string)
	BrowserReplaced(engine string)
	ConversionRetried(engine string)
}

// Stats is a snapshot of pool counters
type Stats struct {
	Engine          string    `json:"engine"`
	Alive           bool      `json:"alive"`
	Generation      uint64    `json:"generation"`
	LaunchedAt      time.Time `json:"launched_at,omitempty"`
	Launches        int64     `json:"launches"`
	Replacements    int64     `json:"replacements"`
	Conversions     int64     `json:"conversions"`
	Failures        int64     `json:"failures"`
	Retries         int64     `json:"retries"`
	InFlight        int64     `json:"in_flight"`
	MaxConcurrent   int       `json:"max_concurrent"`
	LastError       string    `json:"last_error,omitempty"`
	LastConversion  time.Time `json:"last_conversion,omitempty"`
	LastProbe       time.Time `json:"last_probe,omitempty"`
	AverageDuration string    `json:"average_duration"`
}

// Pool owns one shared browser. The browser is launched on first use (or by
// Init), probed before every reuse, and replaced when found dead. At most one
// launch is in flight at any time.
type Pool struct {
	launcher Launcher
	print    PrintOptions
	logger   logging.Logger
	observer Observer

	contentTimeout time.Duration
	pdfTimeout     time.Duration
	launchTimeout  time.Duration
	probeTimeout   time.Duration
	fontTimeout    time.Duration
	maxConcurrent  int

	mu         sync.RWMutex
	browser    Browser
	generation uint64
	launchedAt time.Time
	closed     bool
	lastErr    string
	lastConv   time.Time
	lastProbe  time.Time

	launches      singleflight.Group
	pages         *semaphore.Weighted
	inFlight      atomic.Int64
	launchCount   atomic.Int64
	replacements  atomic.Int64
	conversions   atomic.Int64
	failures      atomic.Int64
	retries       atomic.Int64
	totalDuration atomic.Int64
}

// PoolOption customizes a Pool
type PoolOption func(*Pool)

// WithObserver registers an observer for pool events
func WithObserver(o Observer) PoolOption {
	return func(p *Pool) { p.observer = o }
}

// WithPrintOptions overrides the A4 page box
func WithPrintOptions(opts PrintOptions) PoolOption {
	return func(p *Pool) { p.print = opts }
}

// NewPool creates a pool; no browser is started until Init or the first Convert
func NewPool(launcher Launcher, cfg *config.Config, logger logging.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	maxConcurrent := cfg.PDF.MaxConcurrentPages
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	p := &Pool{
		launcher:       launcher,
		print:          A4Options(),
		logger:         logger.WithField("component", "renderer_pool"),
		contentTimeout: cfg.PDF.ContentTimeout,
		pdfTimeout:     cfg.PDF.PDFTimeout,
		launchTimeout:  cfg.PDF.LaunchTimeout,
		probeTimeout:   cfg.PDF.ProbeTimeout,
		fontTimeout:    cfg.PDF.FontWaitTimeout,
		maxConcurrent:  maxConcurrent,
		pages:          semaphore.NewWeighted(int64(maxConcurrent)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init launches the browser eagerly
func (p *Pool) Init(ctx context.Context) error {
	_, _, err := p.acquire(ctx)
	return err
}

// HealthCheck probes the current browser. A pool that has not launched yet is
// healthy; a dead browser is discarded so the next request replaces it.
func (p *Pool) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	b, gen, closed := p.browser, p.generation, p.closed
	p.mu.RUnlock()

	if closed {
		return ErrPoolClosed
	}
	if b == nil {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()
	if err := b.Probe(probeCtx); err != nil {
		// the caller gave up; that says nothing about the browser
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.discard(gen, err)
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	p.probed()
	return nil
}

func (p *Pool) probed() {
	p.mu.Lock()
	p.lastProbe = time.Now()
	p.mu.Unlock()
}

// Teardown closes the browser; the pool rejects work afterwards
func (p *Pool) Teardown(ctx context.Context) error {
	p.mu.Lock()
	b := p.browser
	p.browser = nil
	p.closed = true
	p.mu.Unlock()

	if b == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- b.Close() }()

	select {
	case err := <-done:
		if err != nil {
			p.logger.Warn("Browser close failed during teardown", map[string]interface{}{"error": err.Error()})
		}
		p.logger.Info("Renderer pool shut down", map[string]interface{}{"engine": p.launcher.Name()})
		return err
	case <-ctx.Done():
		p.logger.Warn("Browser teardown timed out")
		return ctx.Err()
	}
}

// Convert renders html to PDF bytes. A dead connection discards the browser
// and repeats the whole sequence once on a fresh one.
func (p *Pool) Convert(ctx context.Context, html string) ([]byte, error) {
	if err := p.pages.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.pages.Release(1)

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	start := time.Now()
	out, err := p.convertOnce(ctx, html)
	if err != nil && IsConnectionLost(err) && ctx.Err() == nil {
		p.retries.Add(1)
		if p.observer != nil {
			p.observer.ConversionRetried(p.launcher.Name())
		}
		p.logger.Warn("Renderer connection lost, retrying on a fresh browser", map[string]interface{}{
			"error": err.Error(),
		})
		out, err = p.convertOnce(ctx, html)
	}

	elapsed := time.Since(start)
	p.record(elapsed, err)
	if p.observer != nil {
		p.observer.ConversionObserved(p.launcher.Name(), elapsed, err)
	}
	return out, err
}

func (p *Pool) convertOnce(ctx context.Context, html string) (out []byte, err error) {
	b, gen, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if IsConnectionLost(err) {
			p.discard(gen, err)
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			p.logger.Warn("Failed to close page", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	contentCtx, cancel := context.WithTimeout(ctx, p.contentTimeout)
	err = page.SetContent(contentCtx, html)
	cancel()
	if err != nil {
		return nil, err
	}

	fontCtx, cancel := context.WithTimeout(ctx, p.fontTimeout)
	if ferr := page.WaitFonts(fontCtx); ferr != nil {
		if IsConnectionLost(ferr) {
			cancel()
			return nil, ferr
		}
		p.logger.Warn("Fonts did not settle before printing", map[string]interface{}{"error": ferr.Error()})
	}
	cancel()

	pdfCtx, cancel := context.WithTimeout(ctx, p.pdfTimeout)
	defer cancel()
	out, err = page.PrintPDF(pdfCtx, p.print)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("renderer returned an empty pdf")
	}
	return out, nil
}

type launched struct {
	browser    Browser
	generation uint64
}

// acquire returns a live browser, launching or replacing it as needed
func (p *Pool) acquire(ctx context.Context) (Browser, uint64, error) {
	p.mu.RLock()
	b, gen, closed := p.browser, p.generation, p.closed
	p.mu.RUnlock()

	if closed {
		return nil, 0, ErrPoolClosed
	}

	if b != nil {
		probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
		err := b.Probe(probeCtx)
		cancel()
		if err == nil {
			p.probed()
			return b, gen, nil
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		p.logger.Warn("Browser failed liveness probe, replacing", map[string]interface{}{
			"generation": gen,
			"error":      err.Error(),
		})
		p.discard(gen, err)
	}

	ch := p.launches.DoChan("browser", func() (interface{}, error) {
		p.mu.RLock()
		current, currentGen, closed := p.browser, p.generation, p.closed
		p.mu.RUnlock()
		if closed {
			return nil, ErrPoolClosed
		}
		if current != nil {
			return launched{current, currentGen}, nil
		}

		// detached from the caller so a cancelled request does not abort a
		// launch other requests are waiting on
		launchCtx, cancel := context.WithTimeout(context.Background(), p.launchTimeout)
		defer cancel()

		nb, err := p.launcher.Launch(launchCtx)
		if err != nil {
			p.logger.Error("Browser launch failed", map[string]interface{}{
				"engine": p.launcher.Name(),
				"error":  err.Error(),
			})
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = nb.Close()
			return nil, ErrPoolClosed
		}
		replaced := p.generation > 0
		p.generation++
		p.browser = nb
		p.launchedAt = time.Now()
		g := p.generation
		p.mu.Unlock()

		p.launchCount.Add(1)
		if p.observer != nil {
			p.observer.BrowserLaunched(p.launcher.Name())
		}
		if replaced {
			p.replacements.Add(1)
			if p.observer != nil {
				p.observer.BrowserReplaced(p.launcher.Name())
			}
		}
		p.logger.Info("Browser launched", map[string]interface{}{
			"engine":     p.launcher.Name(),
			"generation": g,
		})
		return launched{nb, g}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		l := res.Val.(launched)
		return l.browser, l.generation, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// discard drops the browser of generation gen if it is still current
func (p *Pool) discard(gen uint64, cause error) {
	p.mu.Lock()
	if p.browser == nil || p.generation != gen {
		p.mu.Unlock()
		return
	}
	b := p.browser
	p.browser = nil
	p.mu.Unlock()

	p.logger.Warn("Discarding dead browser", map[string]interface{}{
		"generation": gen,
		"cause":      cause.Error(),
	})
	go func() {
		if err := b.Close(); err != nil {
			p.logger.Debug("Closing dead browser failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (p *Pool) record(elapsed time.Duration, err error) {
	p.conversions.Add(1)
	p.totalDuration.Add(int64(elapsed))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastConv = time.Now()
	if err != nil {
		p.failures.Add(1)
		p.lastErr = err.Error()
	}
}

// Stats returns a snapshot of the pool counters
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Stats{
		Engine:         p.launcher.Name(),
		Alive:          p.browser != nil,
		Generation:     p.generation,
		LaunchedAt:     p.launchedAt,
		Launches:       p.launchCount.Load(),
		Replacements:   p.replacements.Load(),
		Conversions:    p.conversions.Load(),
		Failures:       p.failures.Load(),
		Retries:        p.retries.Load(),
		InFlight:       p.inFlight.Load(),
		MaxConcurrent:  p.maxConcurrent,
		LastError:      p.lastErr,
		LastConversion: p.lastConv,
		LastProbe:      p.lastProbe,
	}
	if s.Conversions > 0 {
		s.AverageDuration = (time.Duration(p.totalDuration.Load() / s.Conversions)).String()
	} else {
		s.AverageDuration = "0s"
	}
	return s
}

// Engine returns the driver name
func (p *Pool) Engine() string { return p.launcher.Name() }
