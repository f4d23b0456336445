// Package ratelimit provides rate limiting for outbound retrieval requests.
//
// Each extraction strategy owns its own limiter so that channels with
// different blocking behaviour never share a budget. The RequestLimiter
// combines two independent constraints:
//
//   - a sliding-window cap (at most N requests per window)
//   - a minimum delay between consecutive requests
//
// The limiter never rejects. Wait blocks until both constraints allow the
// next request or the supplied context is cancelled.
package ratelimit
