package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reelscraper/pkg/config"
	errs "reelscraper/pkg/errors"
	"reelscraper/pkg/instagram"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/ratelimit"
)

// HTMLScrapeStrategy extracts records from the platform's server-rendered
// HTML. Extraction runs a fixed chain of patterns against the document:
// structured JSON-LD metadata, embedded script payloads, then a raw
// shortcode sweep. The first pattern that yields records wins; results
// from different patterns are never merged.
type HTMLScrapeStrategy struct {
	name    string
	client  *instagram.Client
	limiter ratelimit.Limiter
	runner  *runner
	logger  logger.Logger
}

// NewHTMLScrapeStrategy creates the HTML scraping strategy.
func NewHTMLScrapeStrategy(client *instagram.Client, limiter ratelimit.Limiter, cfg config.StrategyConfig, log logger.Logger) *HTMLScrapeStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &HTMLScrapeStrategy{
		name:    config.StrategyScrape,
		client:  client,
		limiter: limiter,
		runner:  newRunner(config.StrategyScrape, cfg, log),
		logger:  log,
	}
}

func (s *HTMLScrapeStrategy) Name() string { return s.name }

// GetByURL scrapes a single post page.
func (s *HTMLScrapeStrategy) GetByURL(ctx context.Context, url string) *models.StrategyResult {
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
		records, err := s.scrapePage(ctx, instagram.GetReelPageURL(shortcode), 1)
		if err != nil {
			return nil, err
		}
		if records[0].Shortcode == "" {
			records[0].Shortcode = shortcode
		}
		return records[:1], nil
	})
}

// GetUserReels scrapes the user's public reels page.
func (s *HTMLScrapeStrategy) GetUserReels(ctx context.Context, username string, limit int) *models.StrategyResult {
	username = instagram.SanitizeUsername(username)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.scrapePage(ctx, instagram.GetUserReelsPageURL(username), limit)
	})
}

// SearchByHashtag scrapes the hashtag listing page.
func (s *HTMLScrapeStrategy) SearchByHashtag(ctx context.Context, tag string, limit int) *models.StrategyResult {
	tag = instagram.SanitizeHashtag(tag)
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.scrapePage(ctx, instagram.GetHashtagPageURL(tag), limit)
	})
}

// GetTrendingReels scrapes the trending page.
func (s *HTMLScrapeStrategy) GetTrendingReels(ctx context.Context, limit int) *models.StrategyResult {
	return s.runner.run(ctx, func(ctx context.Context) ([]models.Post, error) {
		return s.scrapePage(ctx, instagram.GetTrendingPageURL(), limit)
	})
}

// scrapePage fetches one page and runs the extraction chain over it.
func (s *HTMLScrapeStrategy) scrapePage(ctx context.Context, pageURL string, limit int) ([]models.Post, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return ExtractFromHTML(body, limit)
}

// ExtractFromHTML runs the extraction chain over a raw HTML document.
// Exported so the browser strategy can reuse it on rendered markup.
func ExtractFromHTML(html []byte, limit int) ([]models.Post, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "failed to parse HTML: %v", err)
	}

	if records := extractJSONLD(doc); len(records) > 0 {
		return capRecords(records, limit), nil
	}
	if records := extractScriptPayloads(doc); len(records) > 0 {
		return capRecords(records, limit), nil
	}
	if records := extractShortcodeSweep(string(html)); len(records) > 0 {
		return capRecords(records, limit), nil
	}

	return nil, errs.New(errs.ErrorTypeParsing, 0, "no records found in page")
}

// jsonLDVideo is the schema.org VideoObject shape the platform embeds on
// post pages.
type jsonLDVideo struct {
	Type         string `json:"@type"`
	Name         string `json:"name"`
	Caption      string `json:"caption"`
	UploadDate   string `json:"uploadDate"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Author       struct {
		AlternateName string `json:"alternateName"`
		Identifier    struct {
			Value string `json:"value"`
		} `json:"identifier"`
	} `json:"author"`
	InteractionStatistic []struct {
		InteractionType      string `json:"interactionType"`
		UserInteractionCount int64  `json:"userInteractionCount"`
	} `json:"interactionStatistic"`
}

// extractJSONLD pulls records out of application/ld+json script tags.
func extractJSONLD(doc *goquery.Document) []models.Post {
	var records []models.Post

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		var videos []jsonLDVideo
		if strings.HasPrefix(text, "[") {
			if json.Unmarshal([]byte(text), &videos) != nil {
				return
			}
		} else {
			var single jsonLDVideo
			if json.Unmarshal([]byte(text), &single) != nil {
				return
			}
			videos = append(videos, single)
		}

		for i := range videos {
			if videos[i].Type != "VideoObject" {
				continue
			}
			if post, ok := jsonLDToPost(&videos[i]); ok {
				records = append(records, post)
			}
		}
	})

	return records
}

func jsonLDToPost(v *jsonLDVideo) (models.Post, bool) {
	caption := v.Caption
	if caption == "" {
		caption = v.Name
	}

	postedAt := time.Now()
	known := false
	if v.UploadDate != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, v.UploadDate); err == nil {
				postedAt = t.UTC()
				known = true
				break
			}
		}
	}

	var views, likes, comments int64
	for _, stat := range v.InteractionStatistic {
		switch {
		case strings.Contains(stat.InteractionType, "WatchAction"):
			views = stat.UserInteractionCount
		case strings.Contains(stat.InteractionType, "LikeAction"):
			likes = stat.UserInteractionCount
		case strings.Contains(stat.InteractionType, "CommentAction"):
			comments = stat.UserInteractionCount
		}
	}

	username := strings.TrimPrefix(v.Author.AlternateName, "@")
	if username == "" && caption == "" {
		return models.Post{}, false
	}

	return models.Post{
		ID:            v.Author.Identifier.Value,
		Caption:       models.TruncateCaption(caption),
		ViewCount:     views,
		LikeCount:     likes,
		CommentCount:  comments,
		PostedAt:      postedAt,
		PostedAtKnown: known,
		Author:        models.Author{Username: username},
		ThumbnailURL:  v.ThumbnailURL,
	}, true
}

// extractScriptPayloads scans embedded scripts for the structured media
// payloads the platform inlines into its pages.
func extractScriptPayloads(doc *goquery.Document) []models.Post {
	var records []models.Post
	seen := make(map[string]bool)

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if !strings.Contains(text, `"shortcode"`) && !strings.Contains(text, `"code"`) {
			return
		}

		for _, raw := range scanJSONObjects(text, `"shortcode_media"`) {
			var node instagram.Node
			if json.Unmarshal([]byte(raw), &node) != nil || node.Shortcode == "" {
				continue
			}
			if seen[node.Shortcode] {
				continue
			}
			seen[node.Shortcode] = true
			records = append(records, instagram.NodeToPost(&node))
		}

		for _, raw := range scanJSONObjects(text, `"media"`) {
			var item instagram.Item
			if json.Unmarshal([]byte(raw), &item) != nil || item.Code == "" {
				continue
			}
			if seen[item.Code] {
				continue
			}
			seen[item.Code] = true
			records = append(records, instagram.ItemToPost(&item))
		}
	})

	return records
}

// scanJSONObjects returns the balanced JSON object that is the value of
// each occurrence of the quoted key in text.
func scanJSONObjects(text, key string) []string {
	var out []string
	offset := 0
	for {
		idx := strings.Index(text[offset:], key)
		if idx < 0 {
			return out
		}
		idx += offset + len(key)

		rel := strings.IndexByte(text[idx:], '{')
		if rel < 0 {
			return out
		}
		// Only treat the match as a key when a colon separates it from
		// the object.
		if strings.TrimSpace(text[idx:idx+rel]) != ":" {
			offset = idx
			continue
		}

		if obj, end := balancedObject(text, idx+rel); obj != "" {
			out = append(out, obj)
			offset = end
		} else {
			offset = idx
		}
	}
}

// balancedObject returns the JSON object starting at start, tracking
// strings and escapes so braces inside values do not break the count.
func balancedObject(text string, start int) (string, int) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], i + 1
				}
			}
		}
	}
	return "", len(text)
}

// extractShortcodeSweep is the last-resort pattern: collect shortcodes
// from anywhere in the markup and emit skeleton records carrying only
// the shortcode and canonical URL.
func extractShortcodeSweep(html string) []models.Post {
	var records []models.Post
	for _, code := range instagram.ScanShortcodes(html) {
		records = append(records, models.Post{
			Shortcode:     code,
			URL:           instagram.GetReelPageURL(code),
			PostedAt:      time.Now(),
			PostedAtKnown: false,
		})
	}
	return records
}
