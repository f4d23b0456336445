package instagram

// APIResponse represents the top-level response from the structured
// profile and media endpoints.
type APIResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user or hashtag information in the response.
type Data struct {
	User    User    `json:"user"`
	Hashtag Hashtag `json:"hashtag"`
}

// User represents a user profile.
type User struct {
	ID                       string     `json:"id"`
	Username                 string     `json:"username"`
	EdgeFollowedBy           CountEdge  `json:"edge_followed_by"`
	EdgeOwnerToTimelineMedia MediaEdges `json:"edge_owner_to_timeline_media"`
	EdgeFelixVideoTimeline   MediaEdges `json:"edge_felix_video_timeline"`
}

// Hashtag represents a hashtag feed.
type Hashtag struct {
	Name             string     `json:"name"`
	EdgeHashtagToMedia MediaEdges `json:"edge_hashtag_to_media"`
}

// CountEdge wraps a bare count.
type CountEdge struct {
	Count int64 `json:"count"`
}

// MediaEdges contains a paginated media collection.
type MediaEdges struct {
	Count    int64    `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []Edge   `json:"edges"`
}

// PageInfo contains pagination information.
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Edge wraps a single media node.
type Edge struct {
	Node Node `json:"node"`
}

// Node represents a single media item.
type Node struct {
	ID                 string       `json:"id"`
	Shortcode          string       `json:"shortcode"`
	DisplayURL         string       `json:"display_url"`
	ThumbnailSrc       string       `json:"thumbnail_src"`
	IsVideo            bool         `json:"is_video"`
	VideoViewCount     int64        `json:"video_view_count"`
	TakenAtTimestamp   int64        `json:"taken_at_timestamp"`
	EdgeLikedBy        CountEdge    `json:"edge_liked_by"`
	EdgeMediaPreviewLike CountEdge  `json:"edge_media_preview_like"`
	EdgeMediaToComment CountEdge    `json:"edge_media_to_comment"`
	EdgeMediaToCaption CaptionEdges `json:"edge_media_to_caption"`
	Owner              Owner        `json:"owner"`
}

// CaptionEdges wraps caption text nodes.
type CaptionEdges struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}

// Owner identifies the publishing account on a media node.
type Owner struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	EdgeFollowedBy CountEdge `json:"edge_followed_by"`
}

// Caption returns the first caption text, if any.
func (n *Node) Caption() string {
	if len(n.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	return n.EdgeMediaToCaption.Edges[0].Node.Text
}

// Likes returns the like count, preferring the full edge over the preview.
func (n *Node) Likes() int64 {
	if n.EdgeLikedBy.Count > 0 {
		return n.EdgeLikedBy.Count
	}
	return n.EdgeMediaPreviewLike.Count
}

// OEmbedResponse is the official public embed endpoint payload. It never
// carries engagement counts.
type OEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	MediaID      string `json:"media_id"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
}
