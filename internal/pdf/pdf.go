package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

var (
	// ErrConnectionLost marks a failure caused by a dead browser connection.
	// It is the only failure class that is retried.
	ErrConnectionLost = errors.New("renderer connection lost")

	// ErrUnavailable is returned when no browser could be launched
	ErrUnavailable = errors.New("renderer unavailable")

	// ErrPoolClosed is returned after Teardown
	ErrPoolClosed = errors.New("renderer pool closed")
)

// A4 at 96 dpi
const (
	ViewportWidth  = 794
	ViewportHeight = 1123

	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// PrintOptions describes the page box handed to the browser's print engine
type PrintOptions struct {
	PaperWidth      float64
	PaperHeight     float64
	MarginTop       float64
	MarginRight     float64
	MarginBottom    float64
	MarginLeft      float64
	PrintBackground bool
}

// A4Options matches the @page rule of rendered documents
func A4Options() PrintOptions {
	return PrintOptions{
		PaperWidth:      paperWidthIn,
		PaperHeight:     paperHeightIn,
		MarginTop:       0.1,
		MarginRight:     0.3,
		MarginBottom:    0.3,
		MarginLeft:      0.3,
		PrintBackground: true,
	}
}

// Browser is one long-lived headless browser process
type Browser interface {
	// NewPage opens an isolated page sized to the A4 viewport
	NewPage(ctx context.Context) (Page, error)
	// Probe actively checks that the process still answers
	Probe(ctx context.Context) error
	Close() error
}

// Page is a single tab used for exactly one conversion
type Page interface {
	// SetContent loads html and waits until embedded resources settle
	SetContent(ctx context.Context, html string) error
	// WaitFonts blocks until web fonts have loaded
	WaitFonts(ctx context.Context) error
	PrintPDF(ctx context.Context, opts PrintOptions) ([]byte, error)
	Close() error
}

// Launcher starts browsers for a pool
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
	Name() string
}

// NewLauncher selects the browser driver named by cfg.PDF.Engine
func NewLauncher(cfg *config.Config, logger logging.Logger) (Launcher, error) {
	switch cfg.PDF.Engine {
	case "", "rod":
		return NewRodLauncher(cfg, logger), nil
	case "chromedp":
		return NewChromedpLauncher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported pdf engine: %s", cfg.PDF.Engine)
	}
}

var connectionLostMarkers = []string{
	"protocol error",
	"connection closed",
	"closed network connection",
	"connection reset",
	"broken pipe",
	"target closed",
	"session closed",
	"websocket: close",
}

// IsConnectionLost reports whether err means the browser connection died
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionLost) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connectionLostMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// classify tags driver errors that indicate a dead connection
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConnectionLost(err) && !errors.Is(err, ErrConnectionLost) {
		return fmt.Errorf("%s: %w: %v", op, ErrConnectionLost, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// chromePath returns the configured browser binary, falling back to the usual
// install locations. Empty means let the driver find or fetch one.
func chromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	for _, path := range []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// launchFlags are shared by both drivers
var launchFlags = []string{
	"disable-gpu",
	"disable-dev-shm-usage",
	"disable-extensions",
	"disable-background-networking",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"no-first-run",
	"no-default-browser-check",
}

const (
	// resolves once every <img> has loaded or failed
	waitImagesJS = `() => Promise.all(Array.from(document.images).filter(img => !img.complete).map(img => new Promise(resolve => { img.onload = img.onerror = resolve; }))).then(() => true)`
	waitFontsJS  = `() => document.fonts.ready.then(() => true)`
)
