package strategy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelscraper/pkg/cache"
	"reelscraper/pkg/config"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/models"
	"reelscraper/pkg/ratelimit"
)

// mockTransport routes requests to canned responses keyed by URL substring.
type mockTransport struct {
	routes   map[string]mockResponse
	requests int64
}

type mockResponse struct {
	status int
	body   string
	err    error
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&m.requests, 1)
	for key, resp := range m.routes {
		if strings.Contains(req.URL.String(), key) {
			if resp.err != nil {
				return nil, resp.err
			}
			status := resp.status
			if status == 0 {
				status = http.StatusOK
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(resp.body)),
				Header:     make(http.Header),
			}, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(bytes.NewBufferString("")),
		Header:     make(http.Header),
	}, nil
}

func (m *mockTransport) count() int {
	return int(atomic.LoadInt64(&m.requests))
}

func newMockClient(routes map[string]mockResponse) (*instagram.Client, *mockTransport) {
	transport := &mockTransport{routes: routes}
	client := instagram.NewClient(5*time.Second, nil)
	client.SetHTTPClient(&http.Client{Transport: transport})
	return client, transport
}

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		Enabled:    true,
		Priority:   1,
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
}

func testLimiter() ratelimit.Limiter {
	return ratelimit.NewRequestLimiter(1000, time.Minute, 0)
}

const detailBody = `{
	"graphql": {
		"shortcode_media": {
			"id": "17900001",
			"shortcode": "Cabc123defG",
			"is_video": true,
			"video_view_count": 54321,
			"taken_at_timestamp": 1700000000,
			"edge_liked_by": {"count": 1200},
			"edge_media_to_comment": {"count": 34},
			"edge_media_to_caption": {"edges": [{"node": {"text": "sunset timelapse"}}]},
			"owner": {"id": "99", "username": "alice", "edge_followed_by": {"count": 5000}}
		}
	}
}`

func TestAPIGetByURLSuccess(t *testing.T) {
	client, transport := newMockClient(map[string]mockResponse{
		"/p/Cabc123defG/": {body: detailBody},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/reel/Cabc123defG/")

	require.Equal(t, models.StatusSuccess, result.Status)
	require.Len(t, result.Records, 1)

	post := result.Records[0]
	assert.Equal(t, "17900001", post.ID)
	assert.Equal(t, "Cabc123defG", post.Shortcode)
	assert.Equal(t, int64(54321), post.ViewCount)
	assert.Equal(t, int64(1200), post.LikeCount)
	assert.Equal(t, "alice", post.Author.Username)
	assert.True(t, post.PostedAtKnown)
	assert.Equal(t, 1, transport.count())
}

func TestAPIGetByURLRejectsNonPostURL(t *testing.T) {
	client, transport := newMockClient(nil)
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/natgeo/")

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, transport.count(), "no network call for a non-post URL")
}

func TestRunnerRetriesRateLimitThenReports(t *testing.T) {
	client, transport := newMockClient(map[string]mockResponse{
		"/p/": {status: http.StatusTooManyRequests},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/p/Cabc123defG/")

	assert.Equal(t, models.StatusRateLimited, result.Status)
	assert.True(t, result.Metadata.RateLimited)
	assert.Equal(t, 2, transport.count(), "rate limit is retryable: initial attempt plus one retry")
	assert.Equal(t, 1, result.Metadata.RetryCount)
}

func TestRunnerFailsImmediatelyOnLoginWall(t *testing.T) {
	client, transport := newMockClient(map[string]mockResponse{
		"/p/": {status: http.StatusUnauthorized, body: `{"message":"checkpoint"}`},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/p/Cabc123defG/")

	assert.Equal(t, models.StatusBlocked, result.Status)
	assert.True(t, result.Metadata.LoginRequired)
	assert.Equal(t, 1, transport.count(), "blocks must not be retried")
	assert.Equal(t, 0, result.Metadata.RetryCount)
}

func TestRunnerReportsCaptcha(t *testing.T) {
	client, _ := newMockClient(map[string]mockResponse{
		"/p/": {status: http.StatusForbidden, body: "<html>solve the captcha</html>"},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetByURL(context.Background(), "https://www.instagram.com/p/Cabc123defG/")

	assert.Equal(t, models.StatusBlocked, result.Status)
	assert.True(t, result.Metadata.CaptchaRequired)
}

const profileBody = `{
	"data": {
		"user": {
			"id": "42",
			"username": "alice",
			"edge_felix_video_timeline": {
				"count": 3,
				"page_info": {"has_next_page": false, "end_cursor": ""},
				"edges": [
					{"node": {"id": "1", "shortcode": "AAAAA111", "is_video": true, "taken_at_timestamp": 1700000000, "owner": {"username": "alice"}}},
					{"node": {"id": "2", "shortcode": "BBBBB222", "is_video": false, "owner": {"username": "alice"}}},
					{"node": {"id": "3", "shortcode": "CCCCC333", "is_video": true, "taken_at_timestamp": 1700000100, "owner": {"username": "alice"}}}
				]
			}
		}
	},
	"status": "ok"
}`

func TestAPIGetUserReelsFiltersVideos(t *testing.T) {
	client, _ := newMockClient(map[string]mockResponse{
		"web_profile_info": {body: profileBody},
	})
	userIDs := cache.New(8, time.Minute)
	s := NewAPIStrategy(client, testLimiter(), userIDs, testStrategyConfig(), nil)

	result := s.GetUserReels(context.Background(), "@alice", 10)

	require.Equal(t, models.StatusSuccess, result.Status)
	require.Len(t, result.Records, 2, "non-video posts are filtered out")
	assert.Equal(t, "AAAAA111", result.Records[0].Shortcode)
	assert.Equal(t, "CCCCC333", result.Records[1].Shortcode)

	// The username-to-ID mapping is cached for later calls.
	id, ok := userIDs.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestAPIGetUserReelsHonoursLimit(t *testing.T) {
	client, _ := newMockClient(map[string]mockResponse{
		"web_profile_info": {body: profileBody},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetUserReels(context.Background(), "alice", 1)

	require.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, result.Records, 1)
}

func TestAPIUserNotFound(t *testing.T) {
	client, _ := newMockClient(map[string]mockResponse{
		"web_profile_info": {body: `{"data":{},"status":"ok"}`},
	})
	s := NewAPIStrategy(client, testLimiter(), cache.New(8, time.Minute), testStrategyConfig(), nil)

	result := s.GetUserReels(context.Background(), "ghost", 10)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
}
