package strategy

import (
	"time"

	"reelscraper/pkg/auth"
	"reelscraper/pkg/cache"
	"reelscraper/pkg/config"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/ratelimit"
)

// NewSessionStrategy creates the authenticated-session strategy: the same
// endpoint surface as the API strategy but with session cookies attached.
// It returns nil when the provider has no usable credentials — the caller
// must treat that as "strategy not registered", never as a failed attempt.
func NewSessionStrategy(provider auth.Provider, limiter ratelimit.Limiter, userIDs *cache.TTLCache, cfg config.StrategyConfig, log logger.Logger) *APIStrategy {
	if provider == nil || !provider.IsConfigured() {
		return nil
	}
	account := provider.Cookies()
	if account == nil || !provider.IsSessionValid() {
		return nil
	}

	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = sessionClientTimeout
	}
	client := instagram.NewClient(timeout, log)
	client.SetHeader("Cookie", account.CookieHeader())
	client.SetHeader("X-CSRFToken", account.CSRFToken)
	if account.UserAgent != "" {
		client.SetHeader("User-Agent", account.UserAgent)
	}

	log.InfoWithFields("authenticated session strategy registered", map[string]interface{}{
		"account": account.Username,
	})

	return newNamedAPIStrategy(config.StrategySession, client, limiter, userIDs, cfg, log)
}

// sessionClientTimeout guards against a zero descriptor timeout leaking
// into the HTTP client.
const sessionClientTimeout = 15 * time.Second
