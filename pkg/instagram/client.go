package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"reelscraper/pkg/classify"
	"reelscraper/pkg/errors"
	"reelscraper/pkg/logger"
)

// maxBodySize caps how much of a response body is read. Challenge pages
// and data payloads are both well under this.
const maxBodySize = 4 << 20

// Identity is one user-agent/app-id pair presented to the platform.
type Identity struct {
	UserAgent string
	AppID     string
}

// defaultIdentities is the rotation pool. Rotation is round-robin, not
// random, so request sequences stay deterministic under test.
var defaultIdentities = []Identity{
	{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		AppID:     "936619743392459",
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AppID:     "1217981644879628",
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		AppID:     "936619743392459",
	},
}

// Client is an HTTP client for the platform's web endpoints. It attaches
// browser-shaped headers, rotates identities across requests, and runs
// every response through the block classifier before parsing.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	identities []Identity
	logger     logger.Logger

	mu    sync.Mutex
	idIdx int
}

// NewClient creates a new platform client.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
		},
		identities: defaultIdentities,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client. Tests use this to
// install an intercepting transport.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetHeader sets a custom header for the client.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once.
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetIdentities replaces the identity rotation pool.
func (c *Client) SetIdentities(identities []Identity) {
	if len(identities) > 0 {
		c.identities = identities
	}
}

// nextIdentity advances the round-robin rotation and returns the identity
// for the next request.
func (c *Client) nextIdentity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.identities[c.idIdx%len(c.identities)]
	c.idIdx++
	return id
}

// doRequest performs an HTTP request with the configured headers and the
// next rotated identity.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	id := c.nextIdentity()
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", id.UserAgent)
	}
	req.Header.Set("X-IG-App-ID", id.AppID)

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		if req.Context().Err() != nil {
			return nil, errors.New(errors.ErrorTypeTimeout, 0, "request cancelled: %v", err)
		}
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	return c.doRequest(req)
}

// FetchBody performs a GET request and returns the body and status code.
// Body reads are capped at maxBodySize.
func (c *Client) FetchBody(ctx context.Context, url string) ([]byte, int, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, errors.New(errors.ErrorTypeNetwork, resp.StatusCode,
			"failed to read response body: %v", err)
	}

	return body, resp.StatusCode, nil
}

// FetchClassified performs a GET request and classifies the body before
// returning it. Blocked responses come back as typed errors carrying the
// classification; 5xx responses map to retryable server errors.
func (c *Client) FetchClassified(ctx context.Context, url string) ([]byte, classify.Classification, error) {
	body, status, err := c.FetchBody(ctx, url)
	if err != nil {
		return nil, classify.Classification{StatusCode: status}, err
	}

	if status >= 500 {
		return body, classify.Classification{StatusCode: status},
			errors.New(errors.ErrorTypeServerError, status, "server returned status %d", status)
	}
	if status == http.StatusNotFound {
		return body, classify.Classification{StatusCode: status},
			errors.New(errors.ErrorTypeNotFound, status, "resource not found")
	}

	cls := classify.Classify(body, status)
	if blockErr := cls.ToError(); blockErr != nil {
		c.logger.WarnWithFields("response classified as block", map[string]interface{}{
			"url":        url,
			"status":     status,
			"block_type": string(cls.BlockType),
		})
		return body, cls, blockErr
	}

	return body, cls, nil
}

// FetchPage performs a GET request expecting an HTML page. Block
// classifications still fail, but a plain HTML document comes back as-is
// for scraping.
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	body, status, err := c.FetchBody(ctx, url)
	if err != nil {
		return nil, err
	}

	if status >= 500 {
		return nil, errors.New(errors.ErrorTypeServerError, status, "server returned status %d", status)
	}
	if status == http.StatusNotFound {
		return nil, errors.New(errors.ErrorTypeNotFound, status, "resource not found")
	}

	cls := classify.Classify(body, status)
	if cls.IsBlocked() {
		c.logger.WarnWithFields("page classified as block", map[string]interface{}{
			"url":        url,
			"status":     status,
			"block_type": string(cls.BlockType),
		})
		return nil, cls.ToError()
	}

	return body, nil
}

// GetJSON performs a GET request, classifies the response, and decodes
// the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, cls, err := c.FetchClassified(ctx, url)
	if err != nil {
		return err
	}

	if !cls.UsableJSON {
		return errors.New(errors.ErrorTypeParsing, cls.StatusCode, "expected JSON response")
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       cls.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, cls.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// FetchProfile fetches a user's profile including their reel timeline.
func (c *Client) FetchProfile(ctx context.Context, username string) (*APIResponse, error) {
	url := GetProfileURL(username)

	var response APIResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	if response.RequiresToLogin {
		return nil, errors.New(errors.ErrorTypeLoginRequired, http.StatusUnauthorized,
			"profile %s requires authentication", username)
	}

	return &response, nil
}

// FetchUserMedia fetches paginated media for a user by ID.
func (c *Client) FetchUserMedia(ctx context.Context, userID, after string, limit int) (*APIResponse, error) {
	url := GetMediaURL(userID, after, limit)

	var response APIResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// String implements fmt.Stringer for debug logging.
func (c *Client) String() string {
	return fmt.Sprintf("instagram.Client{identities: %d}", len(c.identities))
}
