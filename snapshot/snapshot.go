// Package snapshot renders the dashboard in headless Chrome and saves a PNG.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pauloqxm/voce-denuncia/config"
	"github.com/pauloqxm/voce-denuncia/utils"
)

const (
	defaultWidth  = 1366
	defaultHeight = 900

	// readySelector is the records table, rendered on every dashboard state.
	readySelector = "#records"

	// tileSettle gives Leaflet time to fetch map tiles after the table shows.
	tileSettle = 2 * time.Second
)

// Capturer takes full-page screenshots of a URL.
type Capturer struct {
	chromeBin string
	width     int
	height    int
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// New creates a Capturer. An empty cfg.ChromeBin means auto-detect.
func New(cfg *config.Config, logger *utils.Logger) *Capturer {
	return &Capturer{
		chromeBin: findChromeBinary(cfg.ChromeBin),
		width:     defaultWidth,
		height:    defaultHeight,
		timeout:   60 * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: 2,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Capture loads pageURL and returns a PNG of the whole page.
func (c *Capturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	c.logger.Info("[snapshot] Using browser binary: %s", c.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(c.width, c.height),
	)
	if c.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(c.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var png []byte
	err := c.retry.Do(ctx, "capture-dashboard", func(context.Context) error {
		tabCtx, cancelTab := chromedp.NewContext(browserCtx)
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitVisible(readySelector, chromedp.ByQuery),
			chromedp.Sleep(tileSettle),
			chromedp.FullScreenshot(&png, 100),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: capture %s: %w", pageURL, err)
	}
	return png, nil
}

// CaptureToFile captures pageURL and writes the PNG to path, creating
// intermediate directories.
func (c *Capturer) CaptureToFile(ctx context.Context, pageURL, path string) error {
	png, err := c.Capture(ctx, pageURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", path, err)
	}
	c.logger.Info("[snapshot] Saved %d bytes to %s", len(png), path)
	return nil
}

// findChromeBinary returns configured when set, otherwise the first Chrome or
// Chromium found on PATH or in the usual install locations. An empty result
// lets chromedp fall back to its own lookup.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
