package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters for the semester grid page. A full
// semester is roughly 16 weeks of three rows each, so the viewport is
// tall and narrow.
const (
	DefaultWidth      = 1200
	DefaultHeight     = 1800
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// OutputPath is where the PNG screenshot will be written, e.g.
	// "./cache/preview.png".
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// GridPNG launches a headless Chromium via chromedp, navigates to
// opts.URL (the /calendar page), waits for the page to signal that the
// grid finished rendering, and captures a PNG screenshot.
//
// Rendering-complete condition: the grid root element exposes
// data-ready="true" once the server-rendered table is in the DOM.
func GridPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
