package instagram

import (
	"fmt"
	"net/url"
	"regexp"
)

const (
	// BaseURL is the base URL for the platform's web frontend
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint pattern for user profiles
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// MediaEndpoint is the endpoint pattern for user media
	MediaEndpoint = "/graphql/query/"

	// OEmbedEndpoint is the official public embed endpoint
	OEmbedEndpoint = "/api/v1/oembed/"

	// MediaQueryHash is the query hash for fetching user media
	MediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// DefaultMediaLimit is the default number of media items to fetch per request
	DefaultMediaLimit = 12

	// MaxMediaLimit is the maximum number of media items per request
	MaxMediaLimit = 50
)

// shortcodeURLPattern matches post/reel URLs and captures the shortcode.
var shortcodeURLPattern = regexp.MustCompile(`/(?:reel|reels|p|tv)/([A-Za-z0-9_-]{5,})`)

// ShortcodeScanPattern matches shortcode references inside raw page markup.
// Used by the scrape strategy's last-resort extraction pass.
var ShortcodeScanPattern = regexp.MustCompile(`"shortcode"\s*:\s*"([A-Za-z0-9_-]{5,})"|/reel/([A-Za-z0-9_-]{5,})/`)

// GetProfileURL constructs the URL for fetching a user's profile.
func GetProfileURL(username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", BaseURL, ProfileEndpoint, params.Encode())
}

// GetMediaURL constructs the URL for fetching a user's media with pagination.
func GetMediaURL(userID string, after string, limit int) string {
	if limit <= 0 {
		limit = DefaultMediaLimit
	} else if limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}

	params := url.Values{}
	params.Set("query_hash", MediaQueryHash)
	params.Set("variables", fmt.Sprintf(`{"id":"%s","first":%d,"after":"%s"}`, userID, limit, after))

	return fmt.Sprintf("%s%s?%s", BaseURL, MediaEndpoint, params.Encode())
}

// GetReelInfoURL constructs the structured-data URL for a single post.
func GetReelInfoURL(shortcode string) string {
	return fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", BaseURL, shortcode)
}

// GetReelPageURL constructs the public page URL for a reel.
func GetReelPageURL(shortcode string) string {
	return fmt.Sprintf("%s/reel/%s/", BaseURL, shortcode)
}

// GetPostURL constructs the canonical URL for a post.
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// GetHashtagInfoURL constructs the structured-data URL for a hashtag feed.
func GetHashtagInfoURL(tag string) string {
	return fmt.Sprintf("%s/explore/tags/%s/?__a=1&__d=dis", BaseURL, url.PathEscape(tag))
}

// GetHashtagPageURL constructs the public listing page URL for a hashtag.
func GetHashtagPageURL(tag string) string {
	return fmt.Sprintf("%s/explore/tags/%s/", BaseURL, url.PathEscape(tag))
}

// GetTrendingInfoURL constructs the structured-data URL for the trending feed.
func GetTrendingInfoURL() string {
	return fmt.Sprintf("%s/explore/reels/?__a=1&__d=dis", BaseURL)
}

// GetTrendingPageURL constructs the public trending page URL.
func GetTrendingPageURL() string {
	return fmt.Sprintf("%s/reels/", BaseURL)
}

// GetUserReelsPageURL constructs the public reels tab URL for a user.
func GetUserReelsPageURL(username string) string {
	return fmt.Sprintf("%s/%s/reels/", BaseURL, username)
}

// GetUserProfileURL constructs the public profile URL for a user.
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// GetOEmbedURL constructs the official embed endpoint URL for a post URL.
func GetOEmbedURL(postURL string) string {
	params := url.Values{}
	params.Set("url", postURL)

	return fmt.Sprintf("%s%s?%s", BaseURL, OEmbedEndpoint, params.Encode())
}

// ParseShortcode extracts the shortcode from a post/reel URL. Returns an
// empty string when the URL does not reference a single post.
func ParseShortcode(rawURL string) string {
	m := shortcodeURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ScanShortcodes extracts every shortcode referenced in raw markup,
// preserving first-seen order without duplicates.
func ScanShortcodes(markup string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range ShortcodeScanPattern.FindAllStringSubmatch(markup, -1) {
		code := m[1]
		if code == "" {
			code = m[2]
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// IsValidUsername checks if a username is valid according to platform rules.
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername removes any invalid characters from a username.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	if username[0] == '@' {
		username = username[1:]
	}

	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}

// SanitizeHashtag strips a leading # and surrounding slashes from a tag.
func SanitizeHashtag(tag string) string {
	if tag == "" {
		return ""
	}
	if tag[0] == '#' {
		tag = tag[1:]
	}
	for len(tag) > 0 && tag[len(tag)-1] == '/' {
		tag = tag[:len(tag)-1]
	}
	return tag
}
