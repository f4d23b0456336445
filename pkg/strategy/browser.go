package strategy

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"reelscraper/pkg/config"
	errs "reelscraper/pkg/errors"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/ratelimit"
)

// BrowserStrategy renders pages in a real headless browser and runs the
// HTML extraction chain over the rendered markup. Slowest variant by an
// order of magnitude and disabled by default; the browser launches
// lazily on the first attempt so registration alone costs nothing.
type BrowserStrategy struct {
	name    string
	cfg     config.BrowserConfig
	limiter ratelimit.Limiter
	runner  *runner
	logger  logger.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserStrategy creates the browser automation strategy. No browser
// is launched until an operation runs.
func NewBrowserStrategy(browserCfg config.BrowserConfig, limiter ratelimit.Limiter, cfg config.StrategyConfig, log logger.Logger) *BrowserStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &BrowserStrategy{
		name:    config.StrategyBrowser,
		cfg:     browserCfg,
		limiter: limiter,
		runner:  newRunner(config.StrategyBrowser, cfg, log),
		logger:  log,
	}
}

func (s *BrowserStrategy) Name() string { return s.name }

// GetByURL renders a single post page.
func (s *BrowserStrategy) GetByURL(ctx context.Context, url string) *models.StrategyResult {
	shortcode := instagram.ParseShortcode(url)
	if shortcode == "" {
		return &models.StrategyResult{
			Strategy: s.name,
			Status:   models.StatusFailed,
			Error:    "url does not reference a post: " + url,
			Metadata: &models.ResultMetadata{},
		}
	}

	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		records, err := s.renderAndExtract(ctx, instagram.GetReelPageURL(shortcode), 1)
		if err != nil {
			return nil, err
		}
		if records[0].Shortcode == "" {
			records[0].Shortcode = shortcode
		}
		return records[:1], nil
	})
}

// GetUserReels renders the user's public reels page.
func (s *BrowserStrategy) GetUserReels(ctx context.Context, username string, limit int) *models.StrategyResult {
	username = instagram.SanitizeUsername(username)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.renderAndExtract(ctx, instagram.GetUserReelsPageURL(username), limit)
	})
}

// SearchByHashtag renders the hashtag listing page.
func (s *BrowserStrategy) SearchByHashtag(ctx context.Context, tag string, limit int) *models.StrategyResult {
	tag = instagram.SanitizeHashtag(tag)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.renderAndExtract(ctx, instagram.GetHashtagPageURL(tag), limit)
	})
}

// GetTrendingReels renders the trending page.
func (s *BrowserStrategy) GetTrendingReels(ctx context.Context, limit int) *models.StrategyResult {
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.renderAndExtract(ctx, instagram.GetTrendingPageURL(), limit)
	})
}

// renderAndExtract opens a stealth tab, waits for the page to settle,
// and runs the shared HTML extraction chain over the rendered DOM.
func (s *BrowserStrategy) renderAndExtract(ctx context.Context, pageURL string, limit int) ([]models.Post, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "failed to open page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if s.cfg.PageTimeout > 0 {
		page = page.Timeout(s.cfg.PageTimeout)
	}

	if err := page.Navigate(pageURL); err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "navigation failed: %v", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errs.New(errs.ErrorTypeTimeout, 0, "page load timed out: %v", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "failed to read rendered page: %v", err)
	}

	return ExtractFromHTML([]byte(html), limit)
}

// ensureBrowser launches or connects the browser on first use.
func (s *BrowserStrategy) ensureBrowser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	wsURL := s.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, errs.New(errs.ErrorTypeNetwork, 0, "browser launch failed: %v", err)
		}
		s.launcher = l
		wsURL = u
		s.logger.InfoWithFields("launched local browser", map[string]interface{}{"url": wsURL})
	} else {
		s.logger.InfoWithFields("connecting to remote browser", map[string]interface{}{"url": wsURL})
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if s.launcher != nil {
			s.launcher.Cleanup()
			s.launcher = nil
		}
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "browser connect failed: %v", err)
	}

	s.browser = b
	return b, nil
}

// Close shuts down the browser if one was launched.
func (s *BrowserStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return nil
}
