package instagram

import (
	"time"

	"reelscraper/pkg/models"
)

// DetailResponse is the structured payload for a single post. The
// platform has served two shapes for this endpoint over time; both are
// decoded and whichever is populated wins.
type DetailResponse struct {
	GraphQL struct {
		ShortcodeMedia Node `json:"shortcode_media"`
	} `json:"graphql"`
	Items []Item `json:"items"`
}

// FeedResponse is the structured payload for listing feeds (trending,
// hashtag sections) in the mobile-API shape.
type FeedResponse struct {
	Items []struct {
		Media Item `json:"media"`
	} `json:"items"`
	Media []Item `json:"medias"`
}

// Item is a media item in the mobile-API shape.
type Item struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	TakenAt      int64  `json:"taken_at"`
	PlayCount    int64  `json:"play_count"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	Caption      struct {
		Text string `json:"text"`
	} `json:"caption"`
	User struct {
		Username      string `json:"username"`
		FollowerCount int64  `json:"follower_count"`
	} `json:"user"`
	ImageVersions2 struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
}

// Views returns the view count, preferring play_count which the platform
// populates for reels.
func (i *Item) Views() int64 {
	if i.PlayCount > 0 {
		return i.PlayCount
	}
	return i.ViewCount
}

// ItemToPost converts a mobile-API item to the canonical Post record.
func ItemToPost(i *Item) models.Post {
	postedAt := time.Now()
	known := false
	if i.TakenAt > 0 {
		postedAt = time.Unix(i.TakenAt, 0).UTC()
		known = true
	}

	var thumb string
	if len(i.ImageVersions2.Candidates) > 0 {
		thumb = i.ImageVersions2.Candidates[0].URL
	}

	return models.Post{
		ID:            i.ID,
		Shortcode:     i.Code,
		URL:           GetReelPageURL(i.Code),
		Caption:       models.TruncateCaption(i.Caption.Text),
		ViewCount:     i.Views(),
		LikeCount:     i.LikeCount,
		CommentCount:  i.CommentCount,
		PostedAt:      postedAt,
		PostedAtKnown: known,
		Author: models.Author{
			Username:      i.User.Username,
			FollowerCount: i.User.FollowerCount,
		},
		ThumbnailURL: thumb,
	}
}

// Post extracts the canonical record from whichever shape the detail
// response carries. Returns false when the response held no media.
func (d *DetailResponse) Post() (models.Post, bool) {
	if d.GraphQL.ShortcodeMedia.Shortcode != "" {
		return NodeToPost(&d.GraphQL.ShortcodeMedia), true
	}
	if len(d.Items) > 0 {
		return ItemToPost(&d.Items[0]), true
	}
	return models.Post{}, false
}

// Posts extracts all records from a feed response.
func (f *FeedResponse) Posts() []models.Post {
	var out []models.Post
	for i := range f.Items {
		if f.Items[i].Media.Code != "" {
			out = append(out, ItemToPost(&f.Items[i].Media))
		}
	}
	for i := range f.Media {
		if f.Media[i].Code != "" {
			out = append(out, ItemToPost(&f.Media[i]))
		}
	}
	return out
}
