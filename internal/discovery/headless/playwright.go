package headless

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightRenderer drives a headless Chromium to render provider pages
// whose hostnames are injected by JavaScript.
type PlaywrightRenderer struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	browserCtx  playwright.BrowserContext
	timeout     time.Duration
	userAgent   string
	logger      *logrus.Logger
	mu          sync.Mutex
	initialized bool
}

func NewPlaywrightRenderer(timeout time.Duration, userAgent string, logger *logrus.Logger) *PlaywrightRenderer {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	return &PlaywrightRenderer{
		timeout:   timeout,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (r *PlaywrightRenderer) initialize() error {
	if r.initialized {
		return nil
	}

	if err := playwright.Install(); err != nil {
		r.logger.WithError(err).Warn("Playwright browser install failed (continuing if already installed)")
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &r.userAgent,
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("create browser context: %w", err)
	}
	browserCtx.SetDefaultTimeout(float64(r.timeout.Milliseconds()))
	browserCtx.SetDefaultNavigationTimeout(float64(r.timeout.Milliseconds()))

	r.pw = pw
	r.browser = browser
	r.browserCtx = browserCtx
	r.initialized = true
	r.logger.Info("Headless renderer initialized")
	return nil
}

func (r *PlaywrightRenderer) Render(ctx context.Context, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.initialize(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := r.browserCtx.NewPage()
	if err != nil {
		return "", fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(r.timeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("goto %s: %w", url, err)
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

func (r *PlaywrightRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil
	}
	r.initialized = false
	if r.browserCtx != nil {
		_ = r.browserCtx.Close()
	}
	if r.browser != nil {
		_ = r.browser.Close()
	}
	if r.pw != nil {
		return r.pw.Stop()
	}
	return nil
}
