package strategy

import (
	"context"

	"reelscraper/pkg/cache"
	"reelscraper/pkg/config"
	errs "reelscraper/pkg/errors"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/ratelimit"
)

// APIStrategy calls the platform's internal structured endpoints
// directly. Richest fields (view/like/comment counts) but the most
// fragile to blocking.
type APIStrategy struct {
	name    string
	client  *instagram.Client
	limiter ratelimit.Limiter
	userIDs *cache.TTLCache
	runner  *runner
	logger  logger.Logger
}

// NewAPIStrategy creates the structured-endpoint strategy.
func NewAPIStrategy(client *instagram.Client, limiter ratelimit.Limiter, userIDs *cache.TTLCache, cfg config.StrategyConfig, log logger.Logger) *APIStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &APIStrategy{
		name:    config.StrategyAPI,
		client:  client,
		limiter: limiter,
		userIDs: userIDs,
		runner:  newRunner(config.StrategyAPI, cfg, log),
		logger:  log,
	}
}

// newNamedAPIStrategy backs the session strategy, which shares the same
// endpoint surface under a different name and client.
func newNamedAPIStrategy(name string, client *instagram.Client, limiter ratelimit.Limiter, userIDs *cache.TTLCache, cfg config.StrategyConfig, log logger.Logger) *APIStrategy {
	s := NewAPIStrategy(client, limiter, userIDs, cfg, log)
	s.name = name
	s.runner = newRunner(name, cfg, log)
	return s
}

func (s *APIStrategy) Name() string { return s.name }

// GetUserReels fetches a user's reel timeline, paginating the media
// endpoint until limit records are collected.
func (s *APIStrategy) GetUserReels(ctx context.Context, username string, limit int) *models.StrategyResult {
	username = instagram.SanitizeUsername(username)

	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		userID, firstPage, err := s.resolveUser(ctx, username)
		if err != nil {
			return nil, err
		}

		var records []models.Post
		for _, edge := range firstPage.Edges {
			if edge.Node.IsVideo {
				records = append(records, instagram.NodeToPost(&edge.Node))
			}
		}

		pageInfo := firstPage.PageInfo
		after := pageInfo.EndCursor
		for pageInfo.HasNextPage && (limit <= 0 || len(records) < limit) {
			if err := s.limiter.Wait(ctx); err != nil {
				return records, err
			}
			resp, err := s.client.FetchUserMedia(ctx, userID, after, limit-len(records))
			if err != nil {
				if len(records) > 0 {
					return records, Incompletef("pagination stopped after %d records", len(records))
				}
				return nil, err
			}
			media := resp.Data.User.EdgeOwnerToTimelineMedia
			for _, edge := range media.Edges {
				if edge.Node.IsVideo {
					records = append(records, instagram.NodeToPost(&edge.Node))
				}
			}
			pageInfo = media.PageInfo
			after = pageInfo.EndCursor
		}

		return capRecords(records, limit), nil
	})
}

// resolveUser returns the user ID and first media page, consulting the
// username cache before hitting the profile endpoint.
func (s *APIStrategy) resolveUser(ctx context.Context, username string) (string, instagram.MediaEdges, error) {
	if userID, ok := s.userIDs.Get(username); ok {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", instagram.MediaEdges{}, err
		}
		resp, err := s.client.FetchUserMedia(ctx, userID, "", 0)
		if err != nil {
			return "", instagram.MediaEdges{}, err
		}
		return userID, resp.Data.User.EdgeOwnerToTimelineMedia, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", instagram.MediaEdges{}, err
	}
	resp, err := s.client.FetchProfile(ctx, username)
	if err != nil {
		return "", instagram.MediaEdges{}, err
	}

	user := resp.Data.User
	if user.ID == "" {
		return "", instagram.MediaEdges{}, errs.New(errs.ErrorTypeNotFound, 0, "user %s not found", username)
	}
	s.userIDs.Set(username, user.ID)

	timeline := user.EdgeFelixVideoTimeline
	if len(timeline.Edges) == 0 {
		timeline = user.EdgeOwnerToTimelineMedia
	}
	return user.ID, timeline, nil
}

// GetByURL fetches a single post via the structured detail endpoint.
func (s *APIStrategy) GetByURL(ctx context.Context, url string) *models.StrategyResult {
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
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var detail instagram.DetailResponse
		if err := s.client.GetJSON(ctx, instagram.GetReelInfoURL(shortcode), &detail); err != nil {
			return nil, err
		}

		post, ok := detail.Post()
		if !ok {
			return nil, errs.New(errs.ErrorTypeNotFound, 0, "no media in detail response for %s", shortcode)
		}
		if post.Shortcode == "" {
			post.Shortcode = shortcode
		}
		return []models.Post{post}, nil
	})
}

// SearchByHashtag fetches the hashtag feed from the structured endpoint.
func (s *APIStrategy) SearchByHashtag(ctx context.Context, tag string, limit int) *models.StrategyResult {
	tag = instagram.SanitizeHashtag(tag)

	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var resp instagram.APIResponse
		if err := s.client.GetJSON(ctx, instagram.GetHashtagInfoURL(tag), &resp); err != nil {
			return nil, err
		}

		var records []models.Post
		for _, edge := range resp.Data.Hashtag.EdgeHashtagToMedia.Edges {
			if edge.Node.IsVideo {
				records = append(records, instagram.NodeToPost(&edge.Node))
			}
		}
		return capRecords(records, limit), nil
	})
}

// GetTrendingReels fetches the trending feed from the structured endpoint.
func (s *APIStrategy) GetTrendingReels(ctx context.Context, limit int) *models.StrategyResult {
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var feed instagram.FeedResponse
		if err := s.client.GetJSON(ctx, instagram.GetTrendingInfoURL(), &feed); err != nil {
			return nil, err
		}

		return capRecords(feed.Posts(), limit), nil
	})
}
