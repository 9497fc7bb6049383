// internal/browser/manager.go

// Package browser owns the headless browser lifecycle: one allocator per
// process, one isolated tab per agent page, typed action execution on top.
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// actionTimeout bounds each individual page operation.
const actionTimeout = 30 * time.Second

// Manager handles the lifecycle of the headless browser process. Pages are
// tracked so shutdown can wait for in-flight work.
type Manager struct {
	logger  *zap.Logger
	browser config.BrowserConfig
	network config.NetworkConfig

	// allocatorCtx manages the entire browser process. All page contexts are derived from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks open pages for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager launches the browser process and verifies it responds.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger:  logger.Named("browser_manager"),
		browser: cfg.Browser,
		network: cfg.Network,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the headless browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Probe with a short-lived tab to confirm the browser is alive.
	testCtx, cancelTest := context.WithTimeout(allocCtx, 30*time.Second)
	testCtx, cancelTestCtx := chromedp.NewContext(testCtx)
	defer cancelTestCtx()
	defer cancelTest()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the flags for a quiet, configurable browser instance.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	userAgent := m.browser.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts = append(opts,
		// Later flags win, so this overrides the default that reveals automation.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", m.browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.browser.Headless),
		chromedp.UserAgent(userAgent),
	)

	// Custom arguments from config.yaml, "--name=value" or "--name".
	for _, arg := range m.browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// NewPage opens a fresh, isolated tab.
func (m *Manager) NewPage(ctx context.Context) (Page, error) {
	if m.allocatorCtx == nil {
		return nil, fmt.Errorf("browser manager is not initialized")
	}

	tabCtx, cancel := chromedp.NewContext(m.allocatorCtx)

	// Materialize the tab immediately so failures surface here, not on the
	// first operation.
	tasks := chromedp.Tasks{chromedp.Navigate("about:blank")}
	if len(m.network.Headers) > 0 {
		headers := make(network.Headers, len(m.network.Headers))
		for k, v := range m.network.Headers {
			headers[k] = v
		}
		tasks = append(chromedp.Tasks{network.Enable(), network.SetExtraHTTPHeaders(headers)}, tasks...)
	}
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	id := uuid.New().String()
	m.wg.Add(1)

	t := &tab{
		id:            id,
		ctx:           tabCtx,
		cancel:        cancel,
		logger:        m.logger.Named("page").With(zap.String("page_id", id)),
		navTimeout:    m.network.NavigationTimeout,
		actionTimeout: actionTimeout,
		postLoadWait:  m.network.PostLoadWait,
	}
	return &pageWrapper{Page: t, wg: &m.wg}, nil
}

// Shutdown waits for open pages to close and then terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for open pages...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All pages closed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}

// pageWrapper decrements the manager's WaitGroup exactly once when the page closes.
type pageWrapper struct {
	Page
	wg     *sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

func (pw *pageWrapper) Close(ctx context.Context) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return nil
	}
	err := pw.Page.Close(ctx)
	pw.closed = true
	pw.wg.Done()
	return err
}
