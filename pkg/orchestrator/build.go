package orchestrator

import (
	"time"

	"reelscraper/pkg/auth"
	"reelscraper/pkg/cache"
	"reelscraper/pkg/config"
	"reelscraper/pkg/health"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/ratelimit"
	"reelscraper/pkg/strategy"
)

// userIDCacheTTL bounds how long a username-to-ID mapping is trusted.
const userIDCacheTTL = time.Hour

// Build wires an orchestrator from configuration: one shared rate
// limiter, a shared username cache, and every enabled strategy at its
// configured priority. The returned cleanup function releases resources
// held by strategies (the browser, if launched).
func Build(cfg *config.Config, provider auth.Provider, log logger.Logger) (*Orchestrator, func() error) {
	if log == nil {
		log = logger.GetLogger()
	}

	limiter := ratelimit.NewRequestLimiter(
		cfg.RateLimit.MaxRequests,
		cfg.RateLimit.Window,
		cfg.RateLimit.RequestDelay,
	)
	userIDs := cache.New(256, userIDCacheTTL)
	tracker := health.NewTracker(0, 0, log)

	o := New(cfg.Orchestrator, tracker, log)
	cleanup := func() error { return nil }

	if sc, ok := cfg.Strategies[config.StrategyAPI]; ok && sc.Enabled {
		client := instagram.NewClient(sc.Timeout, log)
		o.Register(strategy.NewAPIStrategy(client, limiter, userIDs, sc, log), sc.Priority, sc.ContinueOnFailure)
	}

	if sc, ok := cfg.Strategies[config.StrategySession]; ok && sc.Enabled {
		if s := strategy.NewSessionStrategy(provider, limiter, userIDs, sc, log); s != nil {
			o.Register(s, sc.Priority, sc.ContinueOnFailure)
		} else {
			log.Debug("session strategy not registered: no usable credentials")
		}
	}

	if sc, ok := cfg.Strategies[config.StrategyEmbed]; ok && sc.Enabled {
		client := instagram.NewClient(sc.Timeout, log)
		o.Register(strategy.NewEmbedStrategy(client, limiter, sc, log), sc.Priority, sc.ContinueOnFailure)
	}

	if sc, ok := cfg.Strategies[config.StrategyScrape]; ok && sc.Enabled {
		client := instagram.NewClient(sc.Timeout, log)
		o.Register(strategy.NewHTMLScrapeStrategy(client, limiter, sc, log), sc.Priority, sc.ContinueOnFailure)
	}

	if sc, ok := cfg.Strategies[config.StrategyBrowser]; ok && sc.Enabled && cfg.Browser.Enabled {
		b := strategy.NewBrowserStrategy(cfg.Browser, limiter, sc, log)
		o.Register(b, sc.Priority, sc.ContinueOnFailure)
		cleanup = b.Close
	}

	return o, cleanup
}
