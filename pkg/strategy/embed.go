package strategy

import (
	"context"

	"reelscraper/pkg/config"
	errs "reelscraper/pkg/errors"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/ratelimit"
)

// EmbedStrategy calls the platform's official public embed endpoint. The
// most stable channel, but it only returns caption, author and thumbnail;
// engagement counts are never populated on its records. Listing
// operations degrade to scraping the public page for candidate
// shortcodes, then fetching each one through the embed endpoint.
type EmbedStrategy struct {
	name    string
	client  *instagram.Client
	limiter ratelimit.Limiter
	runner  *runner
	logger  logger.Logger
}

// NewEmbedStrategy creates the embed strategy.
func NewEmbedStrategy(client *instagram.Client, limiter ratelimit.Limiter, cfg config.StrategyConfig, log logger.Logger) *EmbedStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &EmbedStrategy{
		name:    config.StrategyEmbed,
		client:  client,
		limiter: limiter,
		runner:  newRunner(config.StrategyEmbed, cfg, log),
		logger:  log,
	}
}

func (s *EmbedStrategy) Name() string { return s.name }

// GetByURL fetches a single post through the embed endpoint.
func (s *EmbedStrategy) GetByURL(ctx context.Context, url string) *models.StrategyResult {
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
		post, err := s.fetchEmbed(ctx, shortcode)
		if err != nil {
			return nil, err
		}
		return []models.Post{post}, nil
	})
}

// GetUserReels scans the user's public reels page for shortcodes and
// fetches each through the embed endpoint.
func (s *EmbedStrategy) GetUserReels(ctx context.Context, username string, limit int) *models.StrategyResult {
	username = instagram.SanitizeUsername(username)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.listViaPage(ctx, instagram.GetUserReelsPageURL(username), limit)
	})
}

// SearchByHashtag scans the hashtag listing page for shortcodes and
// fetches each through the embed endpoint.
func (s *EmbedStrategy) SearchByHashtag(ctx context.Context, tag string, limit int) *models.StrategyResult {
	tag = instagram.SanitizeHashtag(tag)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.listViaPage(ctx, instagram.GetHashtagPageURL(tag), limit)
	})
}

// GetTrendingReels scans the trending page for shortcodes and fetches
// each through the embed endpoint.
func (s *EmbedStrategy) GetTrendingReels(ctx context.Context, limit int) *models.StrategyResult {
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.listViaPage(ctx, instagram.GetTrendingPageURL(), limit)
	})
}

// listViaPage is the degraded listing path: fetch a public page, collect
// candidate shortcodes from the markup, then resolve each individually.
func (s *EmbedStrategy) listViaPage(ctx context.Context, pageURL string, limit int) ([]models.Post, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	shortcodes := instagram.ScanShortcodes(string(body))
	if len(shortcodes) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "no shortcodes found on %s", pageURL)
	}
	if limit > 0 && len(shortcodes) > limit {
		shortcodes = shortcodes[:limit]
	}

	var records []models.Post
	var failed int
	for _, code := range shortcodes {
		post, err := s.fetchEmbed(ctx, code)
		if err != nil {
			failed++
			s.logger.DebugWithFields("embed fetch failed for candidate", map[string]interface{}{
				"shortcode": code,
				"error":     err.Error(),
			})
			continue
		}
		records = append(records, post)
	}

	if failed > 0 && len(records) > 0 {
		return records, Incompletef("%d of %d embed fetches failed", failed, len(shortcodes))
	}
	if len(records) == 0 && failed > 0 {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "all %d embed fetches failed", failed)
	}
	return records, nil
}

// fetchEmbed resolves one shortcode through the embed endpoint.
func (s *EmbedStrategy) fetchEmbed(ctx context.Context, shortcode string) (models.Post, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.Post{}, err
	}

	var oembed instagram.OEmbedResponse
	url := instagram.GetOEmbedURL(instagram.GetReelPageURL(shortcode))
	if err := s.client.GetJSON(ctx, url, &oembed); err != nil {
		return models.Post{}, err
	}

	return instagram.OEmbedToPost(&oembed, shortcode), nil
}
