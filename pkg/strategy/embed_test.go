package strategy

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelscraper/pkg/models"
)

const oembedBody = `{
	"title": "sunset timelapse",
	"author_name": "alice",
	"author_url": "https://www.instagram.com/alice",
	"media_id": "17900001",
	"thumbnail_url": "https://cdn.example/thumb.jpg"
}`

func TestEmbedGetByURL(t *testing.T) {
	client, transport := newMockClient(map[string]mockResponse{
		"/api/v1/oembed/": {body: oembedBody},
	})
	s := NewEmbedStrategy(client, testLimiter(), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/reel/ABC123/")

	require.Equal(t, models.StatusSuccess, result.Status)
	require.Len(t, result.Records, 1)

	post := result.Records[0]
	assert.Equal(t, "ABC123", post.Shortcode)
	assert.Equal(t, "alice", post.Author.Username)
	assert.Equal(t, "sunset timelapse", post.Caption)
	assert.Equal(t, "17900001", post.ID)

	// The embed endpoint never exposes engagement counts.
	assert.Zero(t, post.ViewCount)
	assert.Zero(t, post.LikeCount)
	assert.False(t, post.PostedAtKnown, "embed records carry a fabricated timestamp")

	assert.Equal(t, 1, transport.count())
}

func TestEmbedGetByURLRejectsNonPostURL(t *testing.T) {
	client, transport := newMockClient(nil)
	s := NewEmbedStrategy(client, testLimiter(), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/explore/tags/travel/")

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 0, transport.count())
}

func TestEmbedListingDegradesToPageScan(t *testing.T) {
	page := `<!DOCTYPE html><html><body>
		<a href="/reel/AAAAA111/">one</a>
		<a href="/reel/BBBBB222/">two</a>
	</body></html>`

	client, _ := newMockClient(map[string]mockResponse{
		"/explore/tags/travel/": {body: page},
		"/api/v1/oembed/":       {body: oembedBody},
	})
	s := NewEmbedStrategy(client, testLimiter(), testStrategyConfig(), nil)

	result := s.SearchByHashtag(context.Background(), "#travel", 10)

	require.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, "AAAAA111", result.Records[0].Shortcode)
	assert.Equal(t, "BBBBB222", result.Records[1].Shortcode)
}

func TestEmbedListingPartialOnMixedFailures(t *testing.T) {
	page := `<!DOCTYPE html><html><body>
		<a href="/reel/AAAAA111/">one</a>
		<a href="/reel/BBBBB222/">two</a>
	</body></html>`

	// Only the first shortcode resolves; the second's embed call 404s.
	client, _ := newMockClient(map[string]mockResponse{
		"/explore/tags/travel/": {body: page},
		"AAAAA111":              {body: oembedBody},
		"BBBBB222":              {status: http.StatusNotFound},
	})
	s := NewEmbedStrategy(client, testLimiter(), testStrategyConfig(), nil)

	result := s.SearchByHashtag(context.Background(), "travel", 10)

	require.Equal(t, models.StatusPartial, result.Status)
	require.Len(t, result.Records, 1)
	assert.True(t, result.Succeeded(), "partial results still count as usable")
}

func TestEmbedListingHonoursLimit(t *testing.T) {
	page := `<!DOCTYPE html><html><body>
		<a href="/reel/AAAAA111/">one</a>
		<a href="/reel/BBBBB222/">two</a>
		<a href="/reel/CCCCC333/">three</a>
	</body></html>`

	client, transport := newMockClient(map[string]mockResponse{
		"/reels/":         {body: page},
		"/api/v1/oembed/": {body: oembedBody},
	})
	s := NewEmbedStrategy(client, testLimiter(), testStrategyConfig(), nil)

	result := s.GetTrendingReels(context.Background(), 2)

	require.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, result.Records, 2)
	// One page fetch plus one embed fetch per kept shortcode.
	assert.Equal(t, 3, transport.count())
}

func TestEmbedListingEmptyPageFails(t *testing.T) {
	client, _ := newMockClient(map[string]mockResponse{
		"/explore/tags/": {body: `<!DOCTYPE html><html><body>nothing</body></html>`},
	})
	cfg := testStrategyConfig()
	cfg.MaxRetries = 0
	s := NewEmbedStrategy(client, testLimiter(), cfg, nil)

	result := s.SearchByHashtag(context.Background(), "empty", 10)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Empty(t, result.Records)
}

func TestSessionStrategyRequiresCredentials(t *testing.T) {
	if s := NewSessionStrategy(nil, testLimiter(), nil, testStrategyConfig(), nil); s != nil {
		t.Error("nil provider must not produce a strategy")
	}
}

var _ Strategy = (*APIStrategy)(nil)
var _ Strategy = (*EmbedStrategy)(nil)
var _ Strategy = (*HTMLScrapeStrategy)(nil)
var _ Strategy = (*BrowserStrategy)(nil)

func TestStrategyNames(t *testing.T) {
	client, _ := newMockClient(nil)
	limiter := testLimiter()
	cfg := testStrategyConfig()

	assert.Equal(t, "api", NewAPIStrategy(client, limiter, nil, cfg, nil).Name())
	assert.Equal(t, "embed", NewEmbedStrategy(client, limiter, cfg, nil).Name())
	assert.Equal(t, "scrape", NewHTMLScrapeStrategy(client, limiter, cfg, nil).Name())
}

func TestIncompletefWrapsSentinel(t *testing.T) {
	err := Incompletef("stopped after %d records", 7)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "stopped after 7 records")
}
