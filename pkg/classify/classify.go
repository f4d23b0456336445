package classify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"reelscraper/pkg/errors"
)

// BlockType labels a non-data response with an actionable reason.
type BlockType string

const (
	BlockNone          BlockType = ""
	BlockRateLimited   BlockType = "rate_limited"
	BlockLoginRequired BlockType = "login_required"
	BlockCaptcha       BlockType = "captcha"
	BlockChallenge     BlockType = "challenge"
	BlockBlocked       BlockType = "blocked"
	BlockUnknownHTML   BlockType = "unknown_html"
	BlockParseError    BlockType = "parse_error"
)

// Classification is the verdict on a raw response body.
type Classification struct {
	UsableJSON bool
	BlockType  BlockType
	StatusCode int
}

// IsBlocked reports whether the response was an anti-bot block of any kind.
func (c Classification) IsBlocked() bool {
	switch c.BlockType {
	case BlockRateLimited, BlockLoginRequired, BlockCaptcha, BlockChallenge, BlockBlocked:
		return true
	default:
		return false
	}
}

// Keyword families checked inside lower-cased HTML bodies, in priority order.
var (
	captchaMarkers   = []string{"captcha", "recaptcha", "not a robot"}
	loginMarkers     = []string{"login", "password", "sign in"}
	challengeMarkers = []string{"challenge", "verify your", "suspicious"}
	blockedMarkers   = []string{"blocked", "banned", "disabled"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Classify inspects a raw response body and decides whether it is usable
// structured data or some flavour of anti-bot response. Every strategy
// consults this before parsing so that an HTML challenge page is never
// mistaken for empty data. Detection order matters: first match wins.
func Classify(body []byte, statusCode int) Classification {
	c := Classification{StatusCode: statusCode}

	// 1. Rate limiting is unambiguous regardless of body shape.
	if statusCode == http.StatusTooManyRequests {
		c.BlockType = BlockRateLimited
		return c
	}

	lower := strings.ToLower(string(body))

	// 2. Auth rejections, unless the page is really a CAPTCHA wall.
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		if containsAny(lower, captchaMarkers) {
			c.BlockType = BlockCaptcha
		} else {
			c.BlockType = BlockLoginRequired
		}
		return c
	}

	// 3. HTML document instead of data: classify by keyword family.
	if isHTMLDocument(body) {
		switch {
		case containsAny(lower, captchaMarkers):
			c.BlockType = BlockCaptcha
		case containsLoginWall(lower):
			c.BlockType = BlockLoginRequired
		case containsAny(lower, challengeMarkers):
			c.BlockType = BlockChallenge
		case containsAny(lower, blockedMarkers):
			c.BlockType = BlockBlocked
		default:
			c.BlockType = BlockUnknownHTML
		}
		return c
	}

	// 4. Not HTML: try to parse as JSON.
	if json.Valid(body) {
		c.UsableJSON = true
		return c
	}

	c.BlockType = BlockParseError
	return c
}

// isHTMLDocument checks whether the body starts with an HTML document
// marker, tolerating leading whitespace and a UTF-8 BOM.
func isHTMLDocument(body []byte) bool {
	trimmed := bytes.TrimPrefix(body, utf8BOM)
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if len(trimmed) == 0 {
		return false
	}
	lower := bytes.ToLower(trimmed)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}

func containsAny(body string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// containsLoginWall requires at least two co-occurring login markers; a
// page that merely links to a login form is not a login wall.
func containsLoginWall(body string) bool {
	hits := 0
	for _, marker := range loginMarkers {
		if strings.Contains(body, marker) {
			hits++
		}
	}
	return hits >= 2
}

// ToError converts a block classification to a typed error, or nil when
// the response is usable.
func (c Classification) ToError() *errors.Error {
	switch c.BlockType {
	case BlockNone:
		return nil
	case BlockRateLimited:
		return errors.New(errors.ErrorTypeRateLimit, c.StatusCode, "rate limit response")
	case BlockLoginRequired:
		return errors.New(errors.ErrorTypeLoginRequired, c.StatusCode, "login wall response")
	case BlockCaptcha:
		return errors.New(errors.ErrorTypeCaptcha, c.StatusCode, "captcha challenge response")
	case BlockChallenge:
		return errors.New(errors.ErrorTypeChallenge, c.StatusCode, "verification challenge response")
	case BlockBlocked:
		return errors.New(errors.ErrorTypeBlocked, c.StatusCode, "blocked or banned response")
	case BlockUnknownHTML:
		return errors.New(errors.ErrorTypeParsing, c.StatusCode, "unexpected HTML response")
	default:
		return errors.New(errors.ErrorTypeParsing, c.StatusCode, "unparseable response body")
	}
}
