package instagram

import (
	"time"

	"reelscraper/pkg/models"
)

// NodeToPost converts an API media node to the canonical Post record.
// When the node carries no timestamp, PostedAt falls back to now and
// PostedAtKnown is set to false so downstream consumers can tell the
// value was fabricated.
func NodeToPost(n *Node) models.Post {
	postedAt := time.Now()
	known := false
	if n.TakenAtTimestamp > 0 {
		postedAt = time.Unix(n.TakenAtTimestamp, 0).UTC()
		known = true
	}

	thumb := n.ThumbnailSrc
	if thumb == "" {
		thumb = n.DisplayURL
	}

	return models.Post{
		ID:            n.ID,
		Shortcode:     n.Shortcode,
		URL:           GetReelPageURL(n.Shortcode),
		Caption:       models.TruncateCaption(n.Caption()),
		ViewCount:     n.VideoViewCount,
		LikeCount:     n.Likes(),
		CommentCount:  n.EdgeMediaToComment.Count,
		PostedAt:      postedAt,
		PostedAtKnown: known,
		Author: models.Author{
			Username:      n.Owner.Username,
			FollowerCount: n.Owner.EdgeFollowedBy.Count,
		},
		ThumbnailURL: thumb,
	}
}

// OEmbedToPost converts an embed payload to a Post. Engagement counts are
// always zero: the embed endpoint never exposes them, and callers must not
// expect those fields from an embed-sourced record.
func OEmbedToPost(o *OEmbedResponse, shortcode string) models.Post {
	return models.Post{
		ID:            o.MediaID,
		Shortcode:     shortcode,
		URL:           GetReelPageURL(shortcode),
		Caption:       models.TruncateCaption(o.Title),
		PostedAt:      time.Now(),
		PostedAtKnown: false,
		Author: models.Author{
			Username: o.AuthorName,
		},
		ThumbnailURL: o.ThumbnailURL,
	}
}
