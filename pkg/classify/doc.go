// Package classify decides whether a raw response body is usable
// structured data or an anti-bot response (challenge page, login wall,
// rate limit, ban). The platform frequently serves HTML where JSON is
// expected, so every strategy runs its responses through Classify before
// attempting to parse them.
package classify
