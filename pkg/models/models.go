package models

import (
	"time"
	"unicode/utf8"
)

// MaxCaptionLength bounds stored captions; anything longer is truncated.
const MaxCaptionLength = 500

// Author identifies the account that published a post.
type Author struct {
	Username      string `json:"username"`
	FollowerCount int64  `json:"follower_count,omitempty"`
}

// Post is the canonical output unit: one short-video post with whatever
// metadata the winning strategy could recover. Posts are value objects
// built by a strategy's transform step and never mutated afterwards.
type Post struct {
	ID           string    `json:"id,omitempty"`
	Shortcode    string    `json:"shortcode"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption,omitempty"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	PostedAt     time.Time `json:"posted_at"`
	// PostedAtKnown is false when the source carried no timestamp and
	// PostedAt was filled with the retrieval time.
	PostedAtKnown bool   `json:"posted_at_known"`
	Author        Author `json:"author"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
}

// Identity returns the deduplication key: the platform ID when present,
// otherwise the shortcode.
func (p Post) Identity() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Shortcode
}

// TruncateCaption bounds a caption to MaxCaptionLength bytes, cutting
// back to a rune boundary so the result stays valid UTF-8.
func TruncateCaption(caption string) string {
	if len(caption) <= MaxCaptionLength {
		return caption
	}
	cut := MaxCaptionLength
	for cut > 0 && !utf8.RuneStart(caption[cut]) {
		cut--
	}
	return caption[:cut]
}

// Status describes the outcome of one strategy attempt.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusPartial     Status = "partial"
	StatusBlocked     Status = "blocked"
	StatusRateLimited Status = "rate_limited"
	StatusFailed      Status = "failed"
	StatusTimeout     Status = "timeout"
)

// ResultMetadata carries diagnostic details about a strategy attempt.
type ResultMetadata struct {
	RateLimited     bool `json:"rate_limited,omitempty"`
	LoginRequired   bool `json:"login_required,omitempty"`
	CaptchaRequired bool `json:"captcha_required,omitempty"`
	RetryCount      int  `json:"retry_count,omitempty"`
	StatusCode      int  `json:"status_code,omitempty"`
}

// StrategyResult is the per-attempt outcome reported by a strategy.
type StrategyResult struct {
	Strategy      string          `json:"strategy"`
	Status        Status          `json:"status"`
	Records       []Post          `json:"records,omitempty"`
	ExecutionTime time.Duration   `json:"execution_time"`
	Error         string          `json:"error,omitempty"`
	Metadata      *ResultMetadata `json:"metadata,omitempty"`
}

// Succeeded reports whether the attempt produced usable records.
// Partial counts: some records were extracted even though the response
// was incomplete.
func (r *StrategyResult) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial
}

// AggregateResult is the deduplicated output of one orchestrated call.
// Error is set only for invalid input, never for strategies that ran
// and came up empty.
type AggregateResult struct {
	Records            []Post           `json:"records"`
	TotalExecutionTime time.Duration    `json:"total_execution_time"`
	StrategyResults    []StrategyResult `json:"strategy_results"`
	BestStrategy       string           `json:"best_strategy,omitempty"`
	Success            bool             `json:"success"`
	Error              string           `json:"error,omitempty"`
	SucceededCount     int              `json:"succeeded_count"`
	FailedCount        int              `json:"failed_count"`
	ExecutedAt         time.Time        `json:"executed_at"`
}
