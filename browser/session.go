// Package browser wraps the headless-browser capability behind a narrow
// interface: navigate with an HTTP status, evaluate script in the page, and
// release the session. The scraper never talks to chromedp directly, which
// keeps it testable against a fake session.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"bds-scraper/utils"
)

// Session is the minimal browser surface the crawl needs.
type Session interface {
	// Navigate loads url and returns the HTTP status of the main document.
	Navigate(url string, timeout time.Duration) (int, error)
	// Evaluate runs script in the current page and unmarshals the result
	// into out.
	Evaluate(script string, out any) error
	// Close releases the browser. Safe to call more than once.
	Close()
}

// Chrome is the chromedp-backed Session. One Chrome owns one browser tab,
// reused for every navigation of a run.
type Chrome struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChrome launches a headless browser with the given user agent.
// chromeBin overrides binary discovery when non-empty.
func NewChrome(userAgent, chromeBin string, logger *utils.Logger) (*Chrome, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// One tab for the whole run; suppress chromedp log noise.
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so a launch failure is reported up front
	// instead of on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	return &Chrome{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Navigate loads url in the session tab and reports the main document status.
func (c *Chrome) Navigate(url string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(ctx, chromedp.Navigate(url))
	if err != nil {
		return 0, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if resp == nil {
		// Same-document navigation; treat as OK.
		return 200, nil
	}
	return int(resp.Status), nil
}

// Evaluate runs script in the page currently loaded in the session tab.
func (c *Chrome) Evaluate(script string, out any) error {
	if err := chromedp.Run(c.ctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("browser: evaluate: %w", err)
	}
	return nil
}

// Close tears down the tab and the browser process.
func (c *Chrome) Close() {
	c.cancelCtx()
	c.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
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
