package pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

type fakePage struct {
	browser *fakeBrowser
	closed  atomic.Bool
}

func (p *fakePage) SetContent(ctx context.Context, html string) error {
	if p.browser.contentErr != nil {
		return p.browser.contentErr
	}
	p.browser.mu.Lock()
	p.browser.html = html
	p.browser.mu.Unlock()
	return nil
}

func (p *fakePage) WaitFonts(ctx context.Context) error { return p.browser.fontErr }

func (p *fakePage) PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error) {
	b := p.browser
	cur := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		peak := b.launcher.peak.Load()
		if cur <= peak || b.launcher.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if b.printDelay > 0 {
		time.Sleep(b.printDelay)
	}
	if b.printErr != nil {
		return nil, b.printErr
	}
	return []byte("%PDF-1.4 " + b.name), nil
}

func (p *fakePage) Close() error {
	p.closed.Store(true)
	return nil
}

type fakeBrowser struct {
	name     string
	launcher *fakeLauncher

	contentErr error
	fontErr    error
	printErr   error
	probeErr   error
	printDelay time.Duration
	probeHang  atomic.Bool

	mu     sync.Mutex
	html   string
	pages  []*fakePage
	active atomic.Int32
	closed atomic.Bool
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	p := &fakePage{browser: b}
	b.mu.Lock()
	b.pages = append(b.pages, p)
	b.mu.Unlock()
	return p, nil
}

func (b *fakeBrowser) Probe(ctx context.Context) error {
	if b.probeHang.Load() {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.probeErr
}

func (b *fakeBrowser) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *fakeBrowser) allPagesClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pages {
		if !p.closed.Load() {
			return false
		}
	}
	return true
}

// fakeLauncher hands out browsers built by configure, one per launch
type fakeLauncher struct {
	configure func(n int, b *fakeBrowser)
	delay     time.Duration
	err       error

	mu       sync.Mutex
	browsers []*fakeBrowser
	peak     atomic.Int32
}

func (l *fakeLauncher) Name() string { return "fake" }

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := &fakeBrowser{name: fmt.Sprintf("browser-%d", len(l.browsers)+1), launcher: l}
	if l.configure != nil {
		l.configure(len(l.browsers)+1, b)
	}
	l.browsers = append(l.browsers, b)
	return b, nil
}

func (l *fakeLauncher) launched() []*fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeBrowser(nil), l.browsers...)
}

type recordingObserver struct {
	mu                          sync.Mutex
	conversions, failures       int
	launched, replaced, retried int
}

func (o *recordingObserver) ConversionObserved(engine string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conversions++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) BrowserLaunched(string) { o.mu.Lock(); o.launched++; o.mu.Unlock() }
func (o *recordingObserver) BrowserReplaced(string) { o.mu.Lock(); o.replaced++; o.mu.Unlock() }
func (o *recordingObserver) ConversionRetried(string) {
	o.mu.Lock()
	o.retried++
	o.mu.Unlock()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PDF.ContentTimeout = time.Second
	cfg.PDF.PDFTimeout = time.Second
	cfg.PDF.LaunchTimeout = time.Second
	cfg.PDF.ProbeTimeout = time.Second
	cfg.PDF.FontWaitTimeout = time.Second
	cfg.PDF.MaxConcurrentPages = 2
	return cfg
}

func newTestPool(l *fakeLauncher, opts ...PoolOption) *Pool {
	return NewPool(l, testConfig(), logging.NewMultiLogger(), opts...)
}

func TestConvertReusesBrowser(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)

	for i := 0; i < 3; i++ {
		out, err := p.Convert(context.Background(), "<html><body>hi</body></html>")
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 browser-1", string(out))
	}

	browsers := l.launched()
	require.Len(t, browsers, 1)
	assert.Len(t, browsers[0].pages, 3)
	assert.True(t, browsers[0].allPagesClosed())
	assert.Equal(t, "<html><body>hi</body></html>", browsers[0].html)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Launches)
	assert.Equal(t, int64(3), stats.Conversions)
	assert.Zero(t, stats.Failures)
	assert.True(t, stats.Alive)
}

func TestInitLaunchesEagerly(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)

	require.NoError(t, p.Init(context.Background()))
	assert.Len(t, l.launched(), 1)
	assert.Equal(t, uint64(1), p.Stats().Generation)
}

func TestConnectionLostRetriesOnFreshBrowser(t *testing.T) {
	obs := &recordingObserver{}
	l := &fakeLauncher{configure: func(n int, b *fakeBrowser) {
		if n == 1 {
			b.printErr = fmt.Errorf("print pdf: %w", ErrConnectionLost)
		}
	}}
	p := newTestPool(l, WithObserver(obs))

	out, err := p.Convert(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 browser-2", string(out))

	browsers := l.launched()
	require.Len(t, browsers, 2)
	assert.True(t, browsers[0].allPagesClosed())
	assert.True(t, browsers[1].allPagesClosed())
	assert.Eventually(t, browsers[0].closed.Load, time.Second, 10*time.Millisecond)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Retries)
	assert.Equal(t, int64(1), stats.Replacements)
	assert.Zero(t, stats.Failures)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.retried)
	assert.Equal(t, 2, obs.launched)
	assert.Equal(t, 1, obs.replaced)
	assert.Equal(t, 1, obs.conversions)
}

func TestConnectionLostRetriedOnlyOnce(t *testing.T) {
	l := &fakeLauncher{configure: func(n int, b *fakeBrowser) {
		b.contentErr = errors.New("websocket: close 1006 (abnormal closure)")
	}}
	p := newTestPool(l)

	_, err := p.Convert(context.Background(), "<p>x</p>")
	require.Error(t, err)
	assert.True(t, IsConnectionLost(err))
	assert.Len(t, l.launched(), 2)
	assert.Equal(t, int64(1), p.Stats().Failures)
}

func TestOtherFailuresAreNotRetried(t *testing.T) {
	l := &fakeLauncher{configure: func(n int, b *fakeBrowser) {
		b.printErr = errors.New("Printing failed")
	}}
	p := newTestPool(l)

	_, err := p.Convert(context.Background(), "<p>x</p>")
	require.Error(t, err)
	assert.False(t, IsConnectionLost(err))

	browsers := l.launched()
	require.Len(t, browsers, 1)
	assert.True(t, browsers[0].allPagesClosed())
	assert.False(t, browsers[0].closed.Load())
	assert.Zero(t, p.Stats().Retries)
}

func TestDeadBrowserReplacedBeforeUse(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)
	require.NoError(t, p.Init(context.Background()))

	first := l.launched()[0]
	first.probeErr = errors.New("target closed")

	out, err := p.Convert(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 browser-2", string(out))
	assert.Empty(t, first.pages)
	assert.Zero(t, p.Stats().Retries)
	assert.Equal(t, int64(1), p.Stats().Replacements)
}

func TestConcurrentRequestsShareOneLaunch(t *testing.T) {
	l := &fakeLauncher{delay: 50 * time.Millisecond}
	p := newTestPool(l)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Convert(context.Background(), "<p>x</p>")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, l.launched(), 1)
}

func TestMaxConcurrentPages(t *testing.T) {
	l := &fakeLauncher{configure: func(n int, b *fakeBrowser) {
		b.printDelay = 20 * time.Millisecond
	}}
	p := newTestPool(l)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Convert(context.Background(), "<p>x</p>")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, l.peak.Load(), int32(2))
	assert.Equal(t, int64(6), p.Stats().Conversions)
}

func TestLaunchFailureIsUnavailable(t *testing.T) {
	l := &fakeLauncher{err: errors.New("chrome not found")}
	p := newTestPool(l)

	_, err := p.Convert(context.Background(), "<p>x</p>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, p.Stats().LastError, "chrome not found")
}

func TestFontWaitFailureStillPrints(t *testing.T) {
	l := &fakeLauncher{configure: func(n int, b *fakeBrowser) {
		b.fontErr = context.DeadlineExceeded
	}}
	p := newTestPool(l)

	out, err := p.Convert(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCancelledRequestDoesNotRetry(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Convert(ctx, "<p>x</p>")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.launched())
}

func TestCancelDuringLivenessCheckKeepsBrowser(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)

	_, err := p.Convert(context.Background(), "<p>first</p>")
	require.NoError(t, err)
	l.launched()[0].probeHang.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Convert(ctx, "<p>second</p>")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrConnectionLost)

	assert.Len(t, l.launched(), 1)
	assert.True(t, p.Stats().Alive)
	assert.False(t, l.launched()[0].closed.Load())

	hctx, hcancel := context.WithCancel(context.Background())
	hcancel()
	err = p.HealthCheck(hctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, p.Stats().Alive)

	l.launched()[0].probeHang.Store(false)
	_, err = p.Convert(context.Background(), "<p>third</p>")
	require.NoError(t, err)
	assert.Len(t, l.launched(), 1)
}

func TestHealthCheck(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)

	assert.NoError(t, p.HealthCheck(context.Background()))
	require.NoError(t, p.Init(context.Background()))
	assert.NoError(t, p.HealthCheck(context.Background()))

	l.launched()[0].probeErr = errors.New("connection reset by peer")
	err := p.HealthCheck(context.Background())
	assert.ErrorIs(t, err, ErrConnectionLost)
	assert.False(t, p.Stats().Alive)
}

func TestTeardownClosesBrowser(t *testing.T) {
	l := &fakeLauncher{}
	p := newTestPool(l)
	require.NoError(t, p.Init(context.Background()))

	require.NoError(t, p.Teardown(context.Background()))
	assert.True(t, l.launched()[0].closed.Load())

	_, err := p.Convert(context.Background(), "<p>x</p>")
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, p.HealthCheck(context.Background()), ErrPoolClosed)
}

func TestIsConnectionLost(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrConnectionLost, true},
		{fmt.Errorf("wrapped: %w", ErrConnectionLost), true},
		{errors.New("Protocol error (Page.printToPDF): Target closed"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{errors.New("Printing failed"), false},
		{context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsConnectionLost(tc.err), "%v", tc.err)
	}
}

func TestClassifyWrapsConnectionErrors(t *testing.T) {
	assert.Nil(t, classify("op", nil))

	err := classify("print pdf", errors.New("session closed"))
	assert.ErrorIs(t, err, ErrConnectionLost)
	assert.Contains(t, err.Error(), "print pdf")

	err = classify("print pdf", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrConnectionLost)
}

func TestNewLauncherSelectsEngine(t *testing.T) {
	cfg := testConfig()

	cfg.PDF.Engine = ""
	l, err := NewLauncher(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "rod", l.Name())

	cfg.PDF.Engine = "chromedp"
	l, err = NewLauncher(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "chromedp", l.Name())

	cfg.PDF.Engine = "wkhtmltopdf"
	_, err = NewLauncher(cfg, nil)
	assert.Error(t, err)
}

func TestA4Options(t *testing.T) {
	opts := A4Options()
	assert.Equal(t, 8.27, opts.PaperWidth)
	assert.Equal(t, 11.69, opts.PaperHeight)
	assert.Equal(t, 0.1, opts.MarginTop)
	assert.Equal(t, 0.3, opts.MarginLeft)
	assert.True(t, opts.PrintBackground)
}
